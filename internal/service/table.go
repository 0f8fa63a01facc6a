package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dinehall-pos/api/internal/database"
	"github.com/dinehall-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrTableNotBooked    = errors.New("table is not booked")
	ErrOrderNotCompleted = errors.New("order not completed yet")
)

// TableStore defines the DB methods needed to release a table.
type TableStore interface {
	GetTableForUpdate(ctx context.Context, tableNumber string) (database.DiningTable, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ClearTableBinding(ctx context.Context, tableNumber string) (database.DiningTable, error)
}

// NewTableStore creates a TableStore from a DBTX (pool or tx).
type NewTableStore func(db database.DBTX) TableStore

// TableService owns the release side of the table/order binding. Booking is
// done by OrderService inside the order-creation transaction.
type TableService struct {
	pool     TxBeginner
	newStore NewTableStore
}

// NewTableService creates a new TableService.
func NewTableService(pool TxBeginner, newStore NewTableStore) *TableService {
	return &TableService{pool: pool, newStore: newStore}
}

// Release frees a table after checkout. The table must be booked and its
// bound order completed; the check and the clear run under the table's row
// lock so a concurrent create cannot slip between them.
func (s *TableService) Release(ctx context.Context, tableNumber string) (database.DiningTable, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.DiningTable{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTableForUpdate(ctx, tableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrTableNotFound
		}
		return database.DiningTable{}, fmt.Errorf("get table: %w", err)
	}

	if !table.IsBooked || !table.CurrentOrderID.Valid {
		return database.DiningTable{}, ErrTableNotBooked
	}

	order, err := store.GetOrder(ctx, uuid.UUID(table.CurrentOrderID.Bytes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrOrderNotCompleted
		}
		return database.DiningTable{}, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusCompleted {
		return database.DiningTable{}, ErrOrderNotCompleted
	}

	released, err := store.ClearTableBinding(ctx, tableNumber)
	if err != nil {
		return database.DiningTable{}, fmt.Errorf("clear table binding: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.DiningTable{}, fmt.Errorf("commit tx: %w", err)
	}

	return released, nil
}
