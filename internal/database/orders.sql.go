package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, customer_name, order_type, table_number, room_number,
	delivery_address, special_instructions, payment_method, subtotal, status,
	created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.CustomerName,
		&o.OrderType,
		&o.TableNumber,
		&o.RoomNumber,
		&o.DeliveryAddress,
		&o.SpecialInstructions,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

const createOrder = `
INSERT INTO orders (
	customer_name, order_type, table_number, room_number, delivery_address,
	special_instructions, payment_method, subtotal, status
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	CustomerName        string
	OrderType           string
	TableNumber         pgtype.Text
	RoomNumber          pgtype.Text
	DeliveryAddress     pgtype.Text
	SpecialInstructions pgtype.Text
	PaymentMethod       string
	Subtotal            pgtype.Numeric
	Status              string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.CustomerName,
		arg.OrderType,
		arg.TableNumber,
		arg.RoomNumber,
		arg.DeliveryAddress,
		arg.SpecialInstructions,
		arg.PaymentMethod,
		arg.Subtotal,
		arg.Status,
	)
	return scanOrder(row)
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

// GetOrderForUpdate locks the order row for the remainder of the transaction
// so status checks and the subsequent write cannot interleave with another
// writer.
const getOrderForUpdate = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
ORDER BY created_at DESC`

func (q *Queries) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrdersCreatedBetween = `
SELECT ` + orderColumns + `
FROM orders
WHERE created_at >= $1 AND created_at <= $2
ORDER BY created_at DESC`

type ListOrdersCreatedBetweenParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

func (q *Queries) ListOrdersCreatedBetween(ctx context.Context, arg ListOrdersCreatedBetweenParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersCreatedBetween, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const getActiveOrderByTable = `
SELECT ` + orderColumns + `
FROM orders
WHERE table_number = $1 AND status IN ('pending', 'in-progress')
ORDER BY created_at DESC
LIMIT 1`

func (q *Queries) GetActiveOrderByTable(ctx context.Context, tableNumber string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getActiveOrderByTable, tableNumber))
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

// UpdateOrderHeader patches the optional header fields; NULL arguments leave
// the stored value untouched.
const updateOrderHeader = `
UPDATE orders
SET customer_name        = COALESCE($2, customer_name),
    special_instructions = COALESCE($3, special_instructions),
    updated_at           = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderHeaderParams struct {
	ID                  uuid.UUID
	CustomerName        pgtype.Text
	SpecialInstructions pgtype.Text
}

func (q *Queries) UpdateOrderHeader(ctx context.Context, arg UpdateOrderHeaderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderHeader, arg.ID, arg.CustomerName, arg.SpecialInstructions))
}

const updateOrderSubtotal = `
UPDATE orders
SET subtotal = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderSubtotalParams struct {
	ID       uuid.UUID
	Subtotal pgtype.Numeric
}

func (q *Queries) UpdateOrderSubtotal(ctx context.Context, arg UpdateOrderSubtotalParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderSubtotal, arg.ID, arg.Subtotal))
}

// ── Order items ──

const orderItemColumns = `id, order_id, name, quantity, price,
	special_instructions, position, created_at`

func scanOrderItem(row interface{ Scan(dest ...any) error }) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(
		&it.ID,
		&it.OrderID,
		&it.Name,
		&it.Quantity,
		&it.Price,
		&it.SpecialInstructions,
		&it.Position,
		&it.CreatedAt,
	)
	return it, err
}

// CreateOrderItem appends a line item after the order's current highest
// position, preserving insertion order.
const createOrderItem = `
INSERT INTO order_items (order_id, name, quantity, price, special_instructions, position)
VALUES (
	$1, $2, $3, $4, $5,
	(SELECT COALESCE(MAX(position), 0) + 1 FROM order_items WHERE order_id = $1)
)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID             uuid.UUID
	Name                string
	Quantity            int32
	Price               pgtype.Numeric
	SpecialInstructions pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.Name,
		arg.Quantity,
		arg.Price,
		arg.SpecialInstructions,
	)
	return scanOrderItem(row)
}

const listOrderItemsByOrder = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY position`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const getOrderItem = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE id = $1 AND order_id = $2`

type GetOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetOrderItem(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, getOrderItem, arg.ID, arg.OrderID))
}

const updateOrderItem = `
UPDATE order_items
SET name                 = COALESCE($3, name),
    quantity             = COALESCE($4, quantity),
    price                = COALESCE($5, price),
    special_instructions = COALESCE($6, special_instructions)
WHERE id = $1 AND order_id = $2
RETURNING ` + orderItemColumns

type UpdateOrderItemParams struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	Name                pgtype.Text
	Quantity            pgtype.Int4
	Price               pgtype.Numeric
	SpecialInstructions pgtype.Text
}

func (q *Queries) UpdateOrderItem(ctx context.Context, arg UpdateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, updateOrderItem,
		arg.ID,
		arg.OrderID,
		arg.Name,
		arg.Quantity,
		arg.Price,
		arg.SpecialInstructions,
	)
	return scanOrderItem(row)
}
