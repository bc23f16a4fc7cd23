package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// TableStore is the registry surface the table handler needs.  Both
// the MySQL repository and the in-memory registry satisfy it.
type TableStore interface {
	Create(ctx context.Context, t *model.Table) error
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	ListAll(ctx context.Context) ([]model.Table, error)
	ListAvailable(ctx context.Context) ([]model.Table, error)
	ListWithCapacityAtLeast(ctx context.Context, n uint32) ([]model.Table, error)
	Update(ctx context.Context, t *model.Table) error
	Delete(ctx context.Context, id uint64) error
}

// TableHandler exposes the administrative table registry over HTTP.
type TableHandler struct {
	Tables TableStore
}

// NewTableHandler constructs a TableHandler.  The store must be
// non-nil.
func NewTableHandler(tables TableStore) *TableHandler {
	if tables == nil {
		panic("nil table store passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables}
}

// tablePayload is the wire shape of a create/update request.  The
// available flag defaults to true when omitted on create.
type tablePayload struct {
	Number    uint32 `json:"number"`
	Capacity  uint32 `json:"capacity"`
	Available *bool  `json:"available"`
}

// tableResponse is the wire shape of a table record.
type tableResponse struct {
	ID        uint64 `json:"id"`
	Number    uint32 `json:"number"`
	Capacity  uint32 `json:"capacity"`
	Available bool   `json:"available"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toTableResponse(t *model.Table) tableResponse {
	return tableResponse{
		ID:        t.ID,
		Number:    t.Number,
		Capacity:  t.Capacity,
		Available: t.Available,
		CreatedAt: t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: t.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toTableResponses(ts []model.Table) []tableResponse {
	out := make([]tableResponse, 0, len(ts))
	for i := range ts {
		out = append(out, toTableResponse(&ts[i]))
	}
	return out
}

func respondTableError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table has active reservations"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// CreateTable handles POST /api/tables.
func (h *TableHandler) CreateTable(c echo.Context) error {
	var body tablePayload
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Number == 0 || body.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number and capacity must be positive"})
	}
	t := model.Table{
		Number:    body.Number,
		Capacity:  body.Capacity,
		Available: true,
	}
	if body.Available != nil {
		t.Available = *body.Available
	}
	if err := h.Tables.Create(c.Request().Context(), &t); err != nil {
		return respondTableError(c, err)
	}
	return c.JSON(http.StatusOK, toTableResponse(&t))
}

// GetTable handles GET /api/tables/:id.
func (h *TableHandler) GetTable(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondTableError(c, err)
	}
	return c.JSON(http.StatusOK, toTableResponse(t))
}

// ListTables handles GET /api/tables.
func (h *TableHandler) ListTables(c echo.Context) error {
	items, err := h.Tables.ListAll(c.Request().Context())
	if err != nil {
		return respondTableError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toTableResponses(items)})
}

// ListAvailableTables handles GET /api/tables/available.  Only the
// coarse available flag is consulted; per-slot booking state is the
// allocation engine's concern.
func (h *TableHandler) ListAvailableTables(c echo.Context) error {
	items, err := h.Tables.ListAvailable(c.Request().Context())
	if err != nil {
		return respondTableError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toTableResponses(items)})
}

// ListTablesByCapacity handles GET /api/tables/capacity/:n, returning
// tables that seat at least n diners.
func (h *TableHandler) ListTablesByCapacity(c echo.Context) error {
	n, err := strconv.ParseUint(c.Param("n"), 10, 32)
	if err != nil || n == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid capacity"})
	}
	items, err := h.Tables.ListWithCapacityAtLeast(c.Request().Context(), uint32(n))
	if err != nil {
		return respondTableError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toTableResponses(items)})
}

// UpdateTable handles PUT /api/tables/:id.
func (h *TableHandler) UpdateTable(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body tablePayload
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Number == 0 || body.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number and capacity must be positive"})
	}
	t := model.Table{
		ID:        id,
		Number:    body.Number,
		Capacity:  body.Capacity,
		Available: true,
	}
	if body.Available != nil {
		t.Available = *body.Available
	}
	if err := h.Tables.Update(c.Request().Context(), &t); err != nil {
		return respondTableError(c, err)
	}
	return c.JSON(http.StatusOK, toTableResponse(&t))
}

// DeleteTable handles DELETE /api/tables/:id.  Deletion is refused
// with 409 while the table still has active reservations.
func (h *TableHandler) DeleteTable(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Tables.Delete(c.Request().Context(), id); err != nil {
		return respondTableError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
