package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/gateway"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/service"
)

type fakeUsers struct {
	err error
}

func (f *fakeUsers) Exists(context.Context, uint64) error { return f.err }

type reservationFixture struct {
	e       *echo.Echo
	h       *ReservationHandler
	tables  *repository.MemoryRegistry
	users   *fakeUsers
	tableID uint64
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()
	ledger := repository.NewMemoryLedger()
	tables := repository.NewMemoryRegistry(ledger)
	users := &fakeUsers{}
	alloc := service.NewAllocator(ledger, tables, users, nil)

	tbl := model.Table{Number: 1, Capacity: 4, Available: true}
	require.NoError(t, tables.Create(context.Background(), &tbl))

	return &reservationFixture{
		e:       echo.New(),
		h:       NewReservationHandler(alloc),
		tables:  tables,
		users:   users,
		tableID: tbl.ID,
	}
}

// do runs an echo handler against a synthetic request and returns the
// recorder.  Path params are set explicitly because no router is
// involved.
func (f *reservationFixture) do(t *testing.T, method, target, body string, h echo.HandlerFunc, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, h(c))
	return rec
}

func (f *reservationFixture) createBody(userID uint64, timeOfDay string) string {
	return fmt.Sprintf(`{"user_id":%d,"table_id":%d,"date":"2026-09-15","time":"%s","party_size":2}`,
		userID, f.tableID, timeOfDay)
}

func decodeReservation(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateReservationEndpoint(t *testing.T) {
	f := newReservationFixture(t)

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(1, "19:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeReservation(t, rec)
	assert.Equal(t, "ACTIVE", body["status"])
	assert.Equal(t, "2026-09-15", body["date"])
	// HH:MM input comes back canonicalised.
	assert.Equal(t, "19:00:00", body["time"])
}

func TestCreateReservationConflict(t *testing.T) {
	f := newReservationFixture(t)

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(1, "19:00:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Equivalent HH:MM spelling of the same slot.
	rec = f.do(t, http.MethodPost, "/api/reservations", f.createBody(2, "19:00"), f.h.CreateReservation, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReservationUnknownTable(t *testing.T) {
	f := newReservationFixture(t)

	body := `{"user_id":1,"table_id":99,"date":"2026-09-15","time":"19:00","party_size":2}`
	rec := f.do(t, http.MethodPost, "/api/reservations", body, f.h.CreateReservation, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReservationBadInput(t *testing.T) {
	f := newReservationFixture(t)

	cases := map[string]string{
		"bad date":     `{"user_id":1,"table_id":1,"date":"15-09-2026","time":"19:00","party_size":2}`,
		"bad time":     `{"user_id":1,"table_id":1,"date":"2026-09-15","time":"7pm","party_size":2}`,
		"missing user": `{"table_id":1,"date":"2026-09-15","time":"19:00","party_size":2}`,
		"zero party":   `{"user_id":1,"table_id":1,"date":"2026-09-15","time":"19:00","party_size":0}`,
	}
	for name, body := range cases {
		rec := f.do(t, http.MethodPost, "/api/reservations", body, f.h.CreateReservation, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestCreateReservationUserRejected(t *testing.T) {
	f := newReservationFixture(t)
	f.users.err = gateway.ErrUserNotFound

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(42, "19:00"), f.h.CreateReservation, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReservationUserServiceDown(t *testing.T) {
	f := newReservationFixture(t)
	f.users.err = fmt.Errorf("%w: connection refused", gateway.ErrUnavailable)

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(42, "19:00"), f.h.CreateReservation, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCancelReservationEndpoint(t *testing.T) {
	f := newReservationFixture(t)

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(1, "19:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := fmt.Sprint(decodeReservation(t, rec)["id"])

	rec = f.do(t, http.MethodPut, "/api/reservations/"+id+"/cancel", "", f.h.CancelReservation, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decodeReservation(t, rec)["status"])

	// Cancelling again still succeeds.
	rec = f.do(t, http.MethodPut, "/api/reservations/"+id+"/cancel", "", f.h.CancelReservation, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decodeReservation(t, rec)["status"])
}

func TestCompleteCancelledReservationConflicts(t *testing.T) {
	f := newReservationFixture(t)

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(1, "19:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := fmt.Sprint(decodeReservation(t, rec)["id"])

	rec = f.do(t, http.MethodPut, "/api/reservations/"+id+"/cancel", "", f.h.CancelReservation, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/reservations/"+id+"/complete", "", f.h.CompleteReservation, map[string]string{"id": id})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteReservationEndpoint(t *testing.T) {
	f := newReservationFixture(t)

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(1, "19:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := fmt.Sprint(decodeReservation(t, rec)["id"])

	rec = f.do(t, http.MethodDelete, "/api/reservations/"+id, "", f.h.DeleteReservation, map[string]string{"id": id})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/reservations/"+id, "", f.h.GetReservation, map[string]string{"id": id})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReservationsEndpoints(t *testing.T) {
	f := newReservationFixture(t)

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(1, "19:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/reservations", f.createBody(2, "21:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/reservations", "", f.h.ListReservations, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeReservation(t, rec)["items"], 2)

	rec = f.do(t, http.MethodGet, "/api/reservations/date/2026-09-15", "", f.h.ListReservationsByDate, map[string]string{"date": "2026-09-15"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeReservation(t, rec)["items"], 2)

	rec = f.do(t, http.MethodGet, "/api/reservations/user/1", "", f.h.ListReservationsByUser, map[string]string{"userId": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeReservation(t, rec)["items"], 1)

	rec = f.do(t, http.MethodGet, "/api/reservations/status/ACTIVE", "", f.h.ListReservationsByStatus, map[string]string{"status": "ACTIVE"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeReservation(t, rec)["items"], 2)

	rec = f.do(t, http.MethodGet, "/api/reservations/status/BOGUS", "", f.h.ListReservationsByStatus, map[string]string{"status": "BOGUS"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateReservationEndpoint(t *testing.T) {
	f := newReservationFixture(t)

	rec := f.do(t, http.MethodPost, "/api/reservations", f.createBody(1, "19:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/reservations", f.createBody(2, "21:00"), f.h.CreateReservation, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := fmt.Sprint(decodeReservation(t, rec)["id"])

	// Moving onto the first booking's slot is rejected.
	rec = f.do(t, http.MethodPut, "/api/reservations/"+id, f.createBody(2, "19:00"), f.h.UpdateReservation, map[string]string{"id": id})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Moving to a free slot works.
	rec = f.do(t, http.MethodPut, "/api/reservations/"+id, f.createBody(2, "22:00"), f.h.UpdateReservation, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "22:00:00", decodeReservation(t, rec)["time"])
}

func TestReservationInvalidID(t *testing.T) {
	f := newReservationFixture(t)

	rec := f.do(t, http.MethodGet, "/api/reservations/abc", "", f.h.GetReservation, map[string]string{"id": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
