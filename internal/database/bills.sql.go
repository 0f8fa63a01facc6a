package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const billColumns = `id, total_amount, cash, credit, online, payment_method,
	order_type, customer_name, customer_contact, created_at`

func scanBill(row interface{ Scan(dest ...any) error }) (Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID,
		&b.TotalAmount,
		&b.Cash,
		&b.Credit,
		&b.Online,
		&b.PaymentMethod,
		&b.OrderType,
		&b.CustomerName,
		&b.CustomerContact,
		&b.CreatedAt,
	)
	return b, err
}

const createBill = `
INSERT INTO bills (
	total_amount, cash, credit, online, payment_method, order_type,
	customer_name, customer_contact
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + billColumns

type CreateBillParams struct {
	TotalAmount     pgtype.Numeric
	Cash            pgtype.Numeric
	Credit          pgtype.Numeric
	Online          pgtype.Numeric
	PaymentMethod   string
	OrderType       string
	CustomerName    string
	CustomerContact string
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, createBill,
		arg.TotalAmount,
		arg.Cash,
		arg.Credit,
		arg.Online,
		arg.PaymentMethod,
		arg.OrderType,
		arg.CustomerName,
		arg.CustomerContact,
	)
	return scanBill(row)
}

const createBillItem = `
INSERT INTO bill_items (bill_id, name, price, quantity, position)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, bill_id, name, price, quantity, position`

type CreateBillItemParams struct {
	BillID   uuid.UUID
	Name     string
	Price    pgtype.Numeric
	Quantity int32
	Position int32
}

func (q *Queries) CreateBillItem(ctx context.Context, arg CreateBillItemParams) (BillItem, error) {
	var it BillItem
	err := q.db.QueryRow(ctx, createBillItem,
		arg.BillID,
		arg.Name,
		arg.Price,
		arg.Quantity,
		arg.Position,
	).Scan(&it.ID, &it.BillID, &it.Name, &it.Price, &it.Quantity, &it.Position)
	return it, err
}

const listBills = `
SELECT ` + billColumns + `
FROM bills
ORDER BY created_at DESC`

func (q *Queries) ListBills(ctx context.Context) ([]Bill, error) {
	rows, err := q.db.Query(ctx, listBills)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

const listBillItemsByBill = `
SELECT id, bill_id, name, price, quantity, position
FROM bill_items
WHERE bill_id = $1
ORDER BY position`

func (q *Queries) ListBillItemsByBill(ctx context.Context, billID uuid.UUID) ([]BillItem, error) {
	rows, err := q.db.Query(ctx, listBillItemsByBill, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.Name, &it.Price, &it.Quantity, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const getBillForUpdate = `
SELECT ` + billColumns + `
FROM bills
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetBillForUpdate(ctx context.Context, id uuid.UUID) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, getBillForUpdate, id))
}

const updateBillAllocation = `
UPDATE bills
SET cash = $2, credit = $3, online = $4
WHERE id = $1
RETURNING ` + billColumns

type UpdateBillAllocationParams struct {
	ID     uuid.UUID
	Cash   pgtype.Numeric
	Credit pgtype.Numeric
	Online pgtype.Numeric
}

func (q *Queries) UpdateBillAllocation(ctx context.Context, arg UpdateBillAllocationParams) (Bill, error) {
	row := q.db.QueryRow(ctx, updateBillAllocation, arg.ID, arg.Cash, arg.Credit, arg.Online)
	return scanBill(row)
}

// ── Sales aggregations ──

const getSalesSummary = `
SELECT
	COALESCE(SUM(total_amount), 0) AS total_sales,
	COALESCE(SUM(cash), 0)         AS total_cash,
	COALESCE(SUM(online), 0)       AS total_online,
	COALESCE(SUM(credit), 0)       AS total_credit,
	COUNT(*)                       AS orders
FROM bills
WHERE created_at >= $1 AND created_at < $2`

type GetSalesSummaryParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetSalesSummaryRow struct {
	TotalSales  pgtype.Numeric
	TotalCash   pgtype.Numeric
	TotalOnline pgtype.Numeric
	TotalCredit pgtype.Numeric
	Orders      int64
}

func (q *Queries) GetSalesSummary(ctx context.Context, arg GetSalesSummaryParams) (GetSalesSummaryRow, error) {
	var r GetSalesSummaryRow
	err := q.db.QueryRow(ctx, getSalesSummary, arg.StartDate, arg.EndDate).
		Scan(&r.TotalSales, &r.TotalCash, &r.TotalOnline, &r.TotalCredit, &r.Orders)
	return r, err
}

const getItemSales = `
SELECT
	bi.name                            AS name,
	SUM(bi.quantity)::bigint           AS total_quantity,
	COALESCE(SUM(bi.price * bi.quantity), 0) AS total_sales
FROM bill_items bi
GROUP BY bi.name
ORDER BY total_quantity DESC
LIMIT $1`

type GetItemSalesRow struct {
	Name          string
	TotalQuantity int64
	TotalSales    pgtype.Numeric
}

// GetItemSales ranks items by quantity sold across all bills. limit <= 0
// means no limit.
func (q *Queries) GetItemSales(ctx context.Context, limit int32) ([]GetItemSalesRow, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := q.db.Query(ctx, getItemSales, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetItemSalesRow
	for rows.Next() {
		var r GetItemSalesRow
		if err := rows.Scan(&r.Name, &r.TotalQuantity, &r.TotalSales); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getPaymentTypeTotals = `
SELECT
	COALESCE(SUM(cash), 0)   AS total_cash,
	COALESCE(SUM(credit), 0) AS total_credit,
	COALESCE(SUM(online), 0) AS total_online
FROM bills
WHERE created_at >= $1 AND created_at < $2`

type GetPaymentTypeTotalsParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetPaymentTypeTotalsRow struct {
	TotalCash   pgtype.Numeric
	TotalCredit pgtype.Numeric
	TotalOnline pgtype.Numeric
}

func (q *Queries) GetPaymentTypeTotals(ctx context.Context, arg GetPaymentTypeTotalsParams) (GetPaymentTypeTotalsRow, error) {
	var r GetPaymentTypeTotalsRow
	err := q.db.QueryRow(ctx, getPaymentTypeTotals, arg.StartDate, arg.EndDate).
		Scan(&r.TotalCash, &r.TotalCredit, &r.TotalOnline)
	return r, err
}
