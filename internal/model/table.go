package model

import "time"

// Table describes a physical table in the restaurant.  Tables are
// identified by a numeric primary key; the number is the label shown
// to diners and staff.  The available flag marks long-term
// out-of-service state and is independent of slot-level bookings.
//
// Fields:
//  ID        – primary key identifier.
//  Number    – display number of the table.
//  Capacity  – maximum number of seats.
//  Available – whether the table can be offered at all.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Table struct {
	ID        uint64    // tables.id
	Number    uint32    // tables.number
	Capacity  uint32    // tables.capacity
	Available bool      // tables.available
	CreatedAt time.Time // tables.created_at
	UpdatedAt time.Time // tables.updated_at
}
