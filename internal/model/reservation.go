package model

import (
	"fmt"
	"time"
)

// ReservationStatus enumerates the lifecycle states of a reservation.
// A reservation is created ACTIVE, may be cancelled by the diner and
// is completed once the visit took place.
type ReservationStatus string

const (
	StatusActive    ReservationStatus = "ACTIVE"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

// ParseStatus validates a status string received from the outside
// world and returns the matching enum value.
func ParseStatus(s string) (ReservationStatus, error) {
	switch ReservationStatus(s) {
	case StatusActive, StatusCancelled, StatusCompleted:
		return ReservationStatus(s), nil
	}
	return "", fmt.Errorf("unknown reservation status %q", s)
}

// Reservation records a diner's booking of a table for a single
// point in time.  The pair of Date and Time identifies the slot; at
// most one ACTIVE reservation may exist per (table, date, time).
// All timestamps are stored in UTC.
//
// Fields:
//  ID        – primary key identifier.
//  Date      – calendar date of the booking (time component zero).
//  Time      – time of day in canonical HH:MM:SS form.
//  PartySize – number of diners, at most the table's capacity.
//  Status    – lifecycle state (ACTIVE, CANCELLED, COMPLETED).
//  UserID    – diner who owns the booking; resolved against the
//              external user service, never stored locally.
//  TableID   – table being booked.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        uint64            // reservations.id
	Date      time.Time         // reservations.date
	Time      string            // reservations.time
	PartySize uint32            // reservations.party_size
	Status    ReservationStatus // reservations.status
	UserID    uint64            // reservations.user_id
	TableID   uint64            // reservations.table_id
	CreatedAt time.Time         // reservations.created_at
	UpdatedAt time.Time         // reservations.updated_at
}

// DateLayout is the wire and storage format for reservation dates.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseTimeOfDay accepts a time of day as HH:MM or HH:MM:SS and
// returns the canonical HH:MM:SS form.  Slot conflict detection
// compares canonical strings, so "19:00" and "19:00:00" name the
// same slot.
func ParseTimeOfDay(s string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid time of day %q", s)
}
