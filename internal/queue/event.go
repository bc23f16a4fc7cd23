// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation has been
// committed to the ledger.  It carries enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	TableID       uint64 `json:"table_id"`
	TableNumber   uint32 `json:"table_number"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	PartySize     uint32 `json:"party_size"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published when an active reservation
// transitions to CANCELLED, freeing its slot.
type ReservationCancelledEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	TableID       uint64 `json:"table_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	CancelledAt   string `json:"cancelled_at"`
}
