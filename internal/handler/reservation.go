package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/gateway"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.
// All business rules live in the allocation engine; the handler only
// parses requests, maps sentinel errors to status codes and shapes
// responses.
type ReservationHandler struct {
	Alloc *service.Allocator
}

// NewReservationHandler constructs a ReservationHandler.  The
// allocator must be non-nil.
func NewReservationHandler(alloc *service.Allocator) *ReservationHandler {
	if alloc == nil {
		panic("nil allocator passed to NewReservationHandler")
	}
	return &ReservationHandler{Alloc: alloc}
}

// reservationPayload is the wire shape of a create/update request.
type reservationPayload struct {
	UserID    uint64 `json:"user_id"`
	TableID   uint64 `json:"table_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize uint32 `json:"party_size"`
}

// reservationResponse is the wire shape of a reservation record.
type reservationResponse struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"user_id"`
	TableID   uint64 `json:"table_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize uint32 `json:"party_size"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toReservationResponse(r *model.Reservation) reservationResponse {
	return reservationResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		TableID:   r.TableID,
		Date:      r.Date.Format(model.DateLayout),
		Time:      r.Time,
		PartySize: r.PartySize,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: r.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toReservationResponses(rs []model.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(rs))
	for i := range rs {
		out = append(out, toReservationResponse(&rs[i]))
	}
	return out
}

// parseCreateRequest binds and validates the request body, returning
// the engine-level request with canonicalised date and time.
func parseCreateRequest(c echo.Context) (service.CreateRequest, bool) {
	var body reservationPayload
	if err := c.Bind(&body); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		return service.CreateRequest{}, false
	}
	if body.UserID == 0 || body.TableID == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and table_id are required"})
		return service.CreateRequest{}, false
	}
	date, err := model.ParseDate(body.Date)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
		return service.CreateRequest{}, false
	}
	timeOfDay, err := model.ParseTimeOfDay(body.Time)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time, expected HH:MM or HH:MM:SS"})
		return service.CreateRequest{}, false
	}
	if body.PartySize == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size must be positive"})
		return service.CreateRequest{}, false
	}
	return service.CreateRequest{
		UserID:    body.UserID,
		TableID:   body.TableID,
		Date:      date,
		Time:      timeOfDay,
		PartySize: body.PartySize,
	}, true
}

// respondAllocError maps engine and repository sentinel errors to
// HTTP responses.  The externally visible body stays coarse; the
// internal cause is logged by the engine and the gateway.
func respondAllocError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	case errors.Is(err, service.ErrTableUnavailable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table not available for the requested date and time"})
	case errors.Is(err, service.ErrPartyTooLarge):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party size exceeds table capacity"})
	case errors.Is(err, gateway.ErrUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "user validation failed"})
	case errors.Is(err, service.ErrUserValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user validation failed"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting reservation state"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// CreateReservation handles POST /api/reservations.  It validates
// the diner with the user service, checks slot availability and
// commits the booking atomically.  Returns 200 with the created
// record, 400 on validation or availability failures, 404 for an
// unknown table and 502 when the user service is unreachable.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	req, ok := parseCreateRequest(c)
	if !ok {
		return nil
	}
	res, err := h.Alloc.Create(c.Request().Context(), req)
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// GetReservation handles GET /api/reservations/:id.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Alloc.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// ListReservations handles GET /api/reservations.  When no
// reservations exist, it returns an empty array.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	items, err := h.Alloc.ListAll(c.Request().Context())
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toReservationResponses(items)})
}

// ListReservationsByDate handles GET /api/reservations/date/:date.
func (h *ReservationHandler) ListReservationsByDate(c echo.Context) error {
	date, err := model.ParseDate(c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	items, err := h.Alloc.ListByDate(c.Request().Context(), date)
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toReservationResponses(items)})
}

// ListReservationsByUser handles GET /api/reservations/user/:userId.
func (h *ReservationHandler) ListReservationsByUser(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	items, err := h.Alloc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toReservationResponses(items)})
}

// ListReservationsByStatus handles GET /api/reservations/status/:status.
func (h *ReservationHandler) ListReservationsByStatus(c echo.Context) error {
	status, err := model.ParseStatus(c.Param("status"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	items, err := h.Alloc.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toReservationResponses(items)})
}

// UpdateReservation handles PUT /api/reservations/:id.  The update
// runs through the same availability check as creation, so it cannot
// introduce a double booking.
func (h *ReservationHandler) UpdateReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	req, ok := parseCreateRequest(c)
	if !ok {
		return nil
	}
	res, err := h.Alloc.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// CancelReservation handles PUT /api/reservations/:id/cancel.
// Cancelling an already cancelled reservation succeeds and leaves the
// record unchanged.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Alloc.Cancel(c.Request().Context(), id)
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// CompleteReservation handles PUT /api/reservations/:id/complete.
func (h *ReservationHandler) CompleteReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Alloc.Complete(c.Request().Context(), id)
	if err != nil {
		return respondAllocError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(res))
}

// DeleteReservation handles DELETE /api/reservations/:id.  This is
// the administrative hard delete; it bypasses the status lifecycle
// entirely.  Returns 204 on success and 404 when the id is unknown.
func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Alloc.Delete(c.Request().Context(), id); err != nil {
		return respondAllocError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
