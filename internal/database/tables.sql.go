package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const diningTableColumns = `id, table_number, is_booked, current_order_id, qr_url, created_at`

func scanDiningTable(row interface{ Scan(dest ...any) error }) (DiningTable, error) {
	var t DiningTable
	err := row.Scan(
		&t.ID,
		&t.TableNumber,
		&t.IsBooked,
		&t.CurrentOrderID,
		&t.QrUrl,
		&t.CreatedAt,
	)
	return t, err
}

const createDiningTable = `
INSERT INTO dining_tables (table_number, qr_url)
VALUES ($1, $2)
RETURNING ` + diningTableColumns

type CreateDiningTableParams struct {
	TableNumber string
	QrUrl       pgtype.Text
}

func (q *Queries) CreateDiningTable(ctx context.Context, arg CreateDiningTableParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, createDiningTable, arg.TableNumber, arg.QrUrl))
}

const getTableByNumber = `
SELECT ` + diningTableColumns + `
FROM dining_tables
WHERE table_number = $1`

func (q *Queries) GetTableByNumber(ctx context.Context, tableNumber string) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, getTableByNumber, tableNumber))
}

// GetTableForUpdate locks the table row. Every booked-check followed by a
// booking write must go through this inside one transaction; the row lock is
// what serializes two concurrent dine-in creates against the same table.
const getTableForUpdate = `
SELECT ` + diningTableColumns + `
FROM dining_tables
WHERE table_number = $1
FOR UPDATE`

func (q *Queries) GetTableForUpdate(ctx context.Context, tableNumber string) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, getTableForUpdate, tableNumber))
}

const listTables = `
SELECT ` + diningTableColumns + `
FROM dining_tables
ORDER BY table_number`

func (q *Queries) ListTables(ctx context.Context) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []DiningTable
	for rows.Next() {
		t, err := scanDiningTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

const bindTableToOrder = `
UPDATE dining_tables
SET is_booked = true, current_order_id = $2
WHERE table_number = $1
RETURNING ` + diningTableColumns

type BindTableToOrderParams struct {
	TableNumber string
	OrderID     uuid.UUID
}

func (q *Queries) BindTableToOrder(ctx context.Context, arg BindTableToOrderParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, bindTableToOrder, arg.TableNumber, arg.OrderID))
}

const clearTableBinding = `
UPDATE dining_tables
SET is_booked = false, current_order_id = NULL
WHERE table_number = $1
RETURNING ` + diningTableColumns

func (q *Queries) ClearTableBinding(ctx context.Context, tableNumber string) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, clearTableBinding, tableNumber))
}

// ClearTableBindingByOrder releases whichever table is bound to the given
// order. Used when a status change moves the order out of the active set.
const clearTableBindingByOrder = `
UPDATE dining_tables
SET is_booked = false, current_order_id = NULL
WHERE current_order_id = $1`

func (q *Queries) ClearTableBindingByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearTableBindingByOrder, orderID)
	return err
}

const markTableBookedByOrder = `
UPDATE dining_tables
SET is_booked = true
WHERE current_order_id = $1`

func (q *Queries) MarkTableBookedByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, markTableBookedByOrder, orderID)
	return err
}

const countTablesByBooking = `
SELECT
	COUNT(*)                                   AS total,
	COUNT(*) FILTER (WHERE is_booked)          AS booked,
	COUNT(*) FILTER (WHERE NOT is_booked)      AS available
FROM dining_tables`

type CountTablesByBookingRow struct {
	Total     int64
	Booked    int64
	Available int64
}

func (q *Queries) CountTablesByBooking(ctx context.Context) (CountTablesByBookingRow, error) {
	var r CountTablesByBookingRow
	err := q.db.QueryRow(ctx, countTablesByBooking).Scan(&r.Total, &r.Booked, &r.Available)
	return r, err
}

const listTableQRCodes = `
SELECT table_number, qr_url
FROM dining_tables
ORDER BY table_number`

type ListTableQRCodesRow struct {
	TableNumber string
	QrUrl       pgtype.Text
}

func (q *Queries) ListTableQRCodes(ctx context.Context) ([]ListTableQRCodesRow, error) {
	rows, err := q.db.Query(ctx, listTableQRCodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListTableQRCodesRow
	for rows.Next() {
		var r ListTableQRCodesRow
		if err := rows.Scan(&r.TableNumber, &r.QrUrl); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
