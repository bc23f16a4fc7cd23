// Package service implements the reservation allocation engine: the
// decision whether a table can be booked for a requested slot, the
// atomic commit of the booking, and the lifecycle transitions of an
// existing reservation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// ErrTableUnavailable is returned when the requested (table, date,
// time) slot already holds an ACTIVE reservation, or when the table
// itself is flagged out of service.
var ErrTableUnavailable = errors.New("table not available for the requested date and time")

// ErrPartyTooLarge is returned when the party would not fit at the
// requested table.
var ErrPartyTooLarge = errors.New("party size exceeds table capacity")

// ErrUserValidation is returned when the user could not be confirmed
// with the user service.  The wrapped cause distinguishes a rejected
// user id (gateway.ErrUserNotFound) from an unreachable service
// (gateway.ErrUnavailable); the caller decides how much of that to
// expose.
var ErrUserValidation = errors.New("user validation failed")

// ReservationLedger is the engine's view of the reservation store.
// Both the MySQL repository and the in-memory store satisfy it.
type ReservationLedger interface {
	Insert(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	ListByStatus(ctx context.Context, status model.ReservationStatus) ([]model.Reservation, error)
	ListByDateAndStatus(ctx context.Context, date time.Time, status model.ReservationStatus) ([]model.Reservation, error)
	Update(ctx context.Context, res *model.Reservation) error
	DeleteByID(ctx context.Context, id uint64) error
}

// TableRegistry is the engine's read-only view of the table store.
// The engine consults it for capacity and the coarse availability
// flag, never for conflict detection.
type TableRegistry interface {
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
}

// UserGateway confirms that a user id exists.  Implementations return
// nil when the user exists, gateway.ErrUserNotFound when the user
// service rejects the id, and gateway.ErrUnavailable on
// infrastructure failure.
type UserGateway interface {
	Exists(ctx context.Context, userID uint64) error
}

// Publisher emits lifecycle events after the ledger has been
// mutated.  Publishing is best effort; failures must not affect the
// reservation itself.
type Publisher interface {
	ReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
	ReservationCancelled(ctx context.Context, ev queue.ReservationCancelledEvent) error
}

// CreateRequest carries the validated inputs of a booking attempt.
// Date must be a bare calendar date and Time the canonical HH:MM:SS
// form produced by model.ParseTimeOfDay.
type CreateRequest struct {
	UserID    uint64
	TableID   uint64
	Date      time.Time
	Time      string
	PartySize uint32
}

// Allocator is the allocation engine.  It owns the per-slot locks
// that make the availability check and the insert a single atomic
// unit with respect to concurrent bookings of the same slot.
type Allocator struct {
	ledger ReservationLedger
	tables TableRegistry
	users  UserGateway
	events Publisher // may be nil when no broker is configured
	slots  *slotLocks
}

// NewAllocator constructs an Allocator.  ledger, tables and users
// must be non-nil; events may be nil to disable event publishing.
func NewAllocator(ledger ReservationLedger, tables TableRegistry, users UserGateway, events Publisher) *Allocator {
	if ledger == nil || tables == nil || users == nil {
		panic("nil dependency passed to NewAllocator")
	}
	return &Allocator{
		ledger: ledger,
		tables: tables,
		users:  users,
		events: events,
		slots:  newSlotLocks(),
	}
}

func slotKey(tableID uint64, date time.Time, timeOfDay string) string {
	return fmt.Sprintf("%d|%s|%s", tableID, date.Format(model.DateLayout), timeOfDay)
}

// Create books a table for the requested slot.  The user is
// validated against the user service first; no ledger mutation
// happens when that fails.  The availability check and the insert run
// under the slot lock, so for any fixed slot exactly one of N
// concurrent attempts succeeds and the others observe
// ErrTableUnavailable.
func (a *Allocator) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	if err := a.users.Exists(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserValidation, err)
	}
	table, err := a.tables.GetByID(ctx, req.TableID)
	if err != nil {
		return nil, err
	}
	if req.PartySize == 0 || req.PartySize > table.Capacity {
		return nil, ErrPartyTooLarge
	}
	if !table.Available {
		return nil, ErrTableUnavailable
	}

	key := slotKey(req.TableID, req.Date, req.Time)
	a.slots.lock(key)
	defer a.slots.unlock(key)

	taken, err := a.slotTaken(ctx, req.TableID, req.Date, req.Time, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTableUnavailable
	}

	res := &model.Reservation{
		Date:      req.Date,
		Time:      req.Time,
		PartySize: req.PartySize,
		Status:    model.StatusActive,
		UserID:    req.UserID,
		TableID:   req.TableID,
	}
	if err := a.ledger.Insert(ctx, res); err != nil {
		return nil, err
	}

	a.publishConfirmed(res, table.Number)
	return res, nil
}

// slotTaken reports whether an ACTIVE reservation other than
// excludeID already occupies (tableID, date, timeOfDay).  Conflict is
// exact point equality of the time value; durations are not modelled.
func (a *Allocator) slotTaken(ctx context.Context, tableID uint64, date time.Time, timeOfDay string, excludeID uint64) (bool, error) {
	active, err := a.ledger.ListByDateAndStatus(ctx, date, model.StatusActive)
	if err != nil {
		return false, err
	}
	for _, r := range active {
		if r.ID != excludeID && r.TableID == tableID && r.Time == timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

// Cancel transitions a reservation to CANCELLED and frees its slot.
// Cancelling an already cancelled reservation is a no-op that
// succeeds; an unknown id yields repository.ErrReservationNotFound
// from the ledger.
func (a *Allocator) Cancel(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := a.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status == model.StatusCancelled {
		return res, nil
	}
	wasActive := res.Status == model.StatusActive
	res.Status = model.StatusCancelled
	if err := a.ledger.Update(ctx, res); err != nil {
		return nil, err
	}
	if wasActive {
		a.publishCancelled(res)
	}
	return res, nil
}

// Complete marks a visit as having taken place.  Completing an
// already completed reservation is a no-op; a cancelled reservation
// cannot be completed.
func (a *Allocator) Complete(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := a.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case model.StatusCompleted:
		return res, nil
	case model.StatusCancelled:
		return nil, fmt.Errorf("%w: reservation %d is cancelled", repository.ErrConflict, id)
	}
	res.Status = model.StatusCompleted
	if err := a.ledger.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Update rewrites the slot and party fields of an existing
// reservation.  It runs the same validation and slot-locked conflict
// check as Create, ignoring the reservation's own row, so an update
// can never introduce a double booking.  The status is left
// untouched.
func (a *Allocator) Update(ctx context.Context, id uint64, req CreateRequest) (*model.Reservation, error) {
	if err := a.users.Exists(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserValidation, err)
	}
	table, err := a.tables.GetByID(ctx, req.TableID)
	if err != nil {
		return nil, err
	}
	if req.PartySize == 0 || req.PartySize > table.Capacity {
		return nil, ErrPartyTooLarge
	}
	if !table.Available {
		return nil, ErrTableUnavailable
	}

	key := slotKey(req.TableID, req.Date, req.Time)
	a.slots.lock(key)
	defer a.slots.unlock(key)

	res, err := a.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := a.slotTaken(ctx, req.TableID, req.Date, req.Time, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTableUnavailable
	}

	res.Date = req.Date
	res.Time = req.Time
	res.PartySize = req.PartySize
	res.UserID = req.UserID
	res.TableID = req.TableID
	if err := a.ledger.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Delete removes a reservation unconditionally, bypassing the status
// lifecycle.  Intended for administrative use only.
func (a *Allocator) Delete(ctx context.Context, id uint64) error {
	return a.ledger.DeleteByID(ctx, id)
}

// GetByID returns a single reservation.
func (a *Allocator) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return a.ledger.GetByID(ctx, id)
}

// ListAll returns every reservation.
func (a *Allocator) ListAll(ctx context.Context) ([]model.Reservation, error) {
	return a.ledger.ListAll(ctx)
}

// ListByDate returns the reservations for a calendar date.
func (a *Allocator) ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	return a.ledger.ListByDate(ctx, date)
}

// ListByUser returns the reservations owned by a user.
func (a *Allocator) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return a.ledger.ListByUser(ctx, userID)
}

// ListByStatus returns the reservations in a lifecycle state.
func (a *Allocator) ListByStatus(ctx context.Context, status model.ReservationStatus) ([]model.Reservation, error) {
	return a.ledger.ListByStatus(ctx, status)
}

func (a *Allocator) publishConfirmed(res *model.Reservation, tableNumber uint32) {
	if a.events == nil {
		return
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		TableID:       res.TableID,
		TableNumber:   tableNumber,
		Date:          res.Date.Format(model.DateLayout),
		Time:          res.Time,
		PartySize:     res.PartySize,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	// Detached from the request context: the booking is already
	// committed and must not be rolled back by a broker failure.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.events.ReservationConfirmed(ctx, ev); err != nil {
			logrus.WithError(err).WithField("reservation_id", ev.ReservationID).
				Warn("failed to publish reservation.confirmed")
		}
	}()
}

func (a *Allocator) publishCancelled(res *model.Reservation) {
	if a.events == nil {
		return
	}
	ev := queue.ReservationCancelledEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		TableID:       res.TableID,
		Date:          res.Date.Format(model.DateLayout),
		Time:          res.Time,
		CancelledAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.events.ReservationCancelled(ctx, ev); err != nil {
			logrus.WithError(err).WithField("reservation_id", ev.ReservationID).
				Warn("failed to publish reservation.cancelled")
		}
	}()
}
