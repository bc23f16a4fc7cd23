package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

func TestMemoryLedgerCopiesRecords(t *testing.T) {
	ledger := NewMemoryLedger()
	res := model.Reservation{Time: "19:00:00", PartySize: 2, Status: model.StatusActive, UserID: 1, TableID: 1}
	require.NoError(t, ledger.Insert(context.Background(), &res))

	got, err := ledger.GetByID(context.Background(), res.ID)
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	got.Status = model.StatusCancelled
	again, err := ledger.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, again.Status)
}

func TestMemoryLedgerUpdateUnknown(t *testing.T) {
	ledger := NewMemoryLedger()
	res := model.Reservation{ID: 42, Status: model.StatusActive}
	assert.ErrorIs(t, ledger.Update(context.Background(), &res), ErrReservationNotFound)
	assert.ErrorIs(t, ledger.DeleteByID(context.Background(), 42), ErrReservationNotFound)
}

func TestMemoryRegistryDeleteGuardsActiveReservations(t *testing.T) {
	ledger := NewMemoryLedger()
	registry := NewMemoryRegistry(ledger)

	tbl := model.Table{Number: 1, Capacity: 4, Available: true}
	require.NoError(t, registry.Create(context.Background(), &tbl))

	res := model.Reservation{Time: "19:00:00", PartySize: 2, Status: model.StatusActive, UserID: 1, TableID: tbl.ID}
	require.NoError(t, ledger.Insert(context.Background(), &res))

	assert.ErrorIs(t, registry.Delete(context.Background(), tbl.ID), ErrConflict)

	res.Status = model.StatusCancelled
	require.NoError(t, ledger.Update(context.Background(), &res))
	assert.NoError(t, registry.Delete(context.Background(), tbl.ID))
}
