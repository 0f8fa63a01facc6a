package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dinehall-pos/api/internal/database"
	"github.com/dinehall-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service. Validation and conflict errors map
// to 400, not-found errors to 404.
var (
	ErrEmptyItems              = errors.New("no order items")
	ErrItemName                = errors.New("item name is required and should be a string")
	ErrItemQuantity            = errors.New("item quantity must be a positive number")
	ErrItemPrice               = errors.New("item price must be a positive number")
	ErrInvalidOrderType        = errors.New("invalid order type")
	ErrTableNumberRequired     = errors.New("table number is required for dine-in")
	ErrDeliveryAddressRequired = errors.New("delivery address is required")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrInvalidStatus           = errors.New("invalid status value")

	ErrOrderNotFound     = errors.New("order not found")
	ErrTableNotFound     = errors.New("table not found")
	ErrOrderItemNotFound = errors.New("order item not found")

	ErrTableBooked      = errors.New("table is already booked")
	ErrOrderNotEditable = errors.New("order can no longer be modified")
	ErrTableMismatch    = errors.New("table number does not match this order")
	ErrTableNotBound    = errors.New("table is not bound to this order")
	ErrTerminalStatus   = errors.New("order is already finalized")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed for order writes.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetTableForUpdate(ctx context.Context, tableNumber string) (database.DiningTable, error)
	BindTableToOrder(ctx context.Context, arg database.BindTableToOrderParams) (database.DiningTable, error)
	ClearTableBindingByOrder(ctx context.Context, orderID uuid.UUID) error
	MarkTableBookedByOrder(ctx context.Context, orderID uuid.UUID) error

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)
	UpdateOrderHeader(ctx context.Context, arg database.UpdateOrderHeaderParams) (database.Order, error)
	UpdateOrderSubtotal(ctx context.Context, arg database.UpdateOrderSubtotalParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderItemInput is a single line item supplied by the client.
type OrderItemInput struct {
	Name                string
	Quantity            int32
	Price               decimal.Decimal
	SpecialInstructions string
}

// CreateOrderRequest is the input for placing an order. Any client-supplied
// subtotal is dropped before it gets here; the service always recomputes.
type CreateOrderRequest struct {
	CustomerName        string
	OrderType           string
	TableNumber         string
	DeliveryAddress     string
	SpecialInstructions string
	PaymentMethod       string
	Items               []OrderItemInput
}

// OrderItemPatch is a partial update of one existing line item, matched by
// item ID. Nil fields are left untouched.
type OrderItemPatch struct {
	ID                  uuid.UUID
	Name                *string
	Quantity            *int32
	Price               *decimal.Decimal
	SpecialInstructions *string
}

// EditOrderRequest is the input for editing an active order.
type EditOrderRequest struct {
	CustomerName        *string
	SpecialInstructions *string
	UpdatedItems        []OrderItemPatch
}

// OrderResult is an order with its line items.
type OrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService owns the order lifecycle and the order/table coupling. Every
// operation that touches both an order and its table runs in one
// transaction, with the table row locked for the read-check-then-write
// window.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates, computes the subtotal, and persists the order. For
// dine-in orders the table availability check and the booking write happen
// under the same row lock, so two concurrent creates against one free table
// cannot both succeed.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	// Validation order is part of the contract: cart emptiness, then item
	// shape, then order-type fields, then payment method.
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	if !enum.IsValidOrderType(req.OrderType) {
		return nil, ErrInvalidOrderType
	}
	if req.OrderType == enum.OrderTypeDineIn && req.TableNumber == "" {
		return nil, ErrTableNumberRequired
	}
	if req.OrderType == enum.OrderTypeDelivery && req.DeliveryAddress == "" {
		return nil, ErrDeliveryAddressRequired
	}

	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	customerName := req.CustomerName
	if customerName == "" {
		customerName = "Guest"
	}

	subtotal := itemsSubtotal(req.Items)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	tableNumber := pgtype.Text{}
	if req.OrderType == enum.OrderTypeDineIn {
		table, err := store.GetTableForUpdate(ctx, req.TableNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("get table: %w", err)
		}
		if table.IsBooked {
			return nil, ErrTableBooked
		}
		tableNumber = pgtype.Text{String: req.TableNumber, Valid: true}
	}

	deliveryAddress := pgtype.Text{}
	if req.OrderType == enum.OrderTypeDelivery {
		deliveryAddress = pgtype.Text{String: req.DeliveryAddress, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerName:        customerName,
		OrderType:           req.OrderType,
		TableNumber:         tableNumber,
		DeliveryAddress:     deliveryAddress,
		SpecialInstructions: textOrNull(req.SpecialInstructions),
		PaymentMethod:       req.PaymentMethod,
		Subtotal:            decimalToNumeric(subtotal),
		Status:              enum.OrderStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items, err := s.insertItems(ctx, store, order.ID, req.Items)
	if err != nil {
		return nil, err
	}

	if req.OrderType == enum.OrderTypeDineIn {
		if _, err := store.BindTableToOrder(ctx, database.BindTableToOrderParams{
			TableNumber: req.TableNumber,
			OrderID:     order.ID,
		}); err != nil {
			return nil, fmt.Errorf("bind table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Items: items}, nil
}

// AddItems appends new line items to an active order. For dine-in orders the
// caller must name the order's table, and that table must still be bound to
// this exact order.
func (s *OrderService) AddItems(ctx context.Context, orderID uuid.UUID, newItems []OrderItemInput, tableNumber string) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !enum.IsActiveOrderStatus(order.Status) {
		return nil, ErrOrderNotEditable
	}

	if err := validateItems(newItems); err != nil {
		return nil, err
	}

	if order.OrderType == enum.OrderTypeDineIn {
		if tableNumber == "" || !order.TableNumber.Valid || tableNumber != order.TableNumber.String {
			return nil, ErrTableMismatch
		}
		table, err := store.GetTableForUpdate(ctx, tableNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("get table: %w", err)
		}
		if !table.IsBooked || !table.CurrentOrderID.Valid || uuid.UUID(table.CurrentOrderID.Bytes) != order.ID {
			return nil, ErrTableNotBound
		}
	}

	if _, err := s.insertItems(ctx, store, order.ID, newItems); err != nil {
		return nil, err
	}

	// Append-only growth: previous subtotal plus the new lines equals a
	// full recompute.
	subtotal := numericToDecimal(order.Subtotal).Add(itemsSubtotal(newItems))
	updated, err := store.UpdateOrderSubtotal(ctx, database.UpdateOrderSubtotalParams{
		ID:       order.ID,
		Subtotal: decimalToNumeric(subtotal),
	})
	if err != nil {
		return nil, fmt.Errorf("update subtotal: %w", err)
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: updated, Items: items}, nil
}

// EditOrder applies partial updates to an active order's header fields and
// line items, then recomputes the subtotal from scratch.
func (s *OrderService) EditOrder(ctx context.Context, orderID uuid.UUID, req EditOrderRequest) (*OrderResult, error) {
	// Reject malformed patches before any write.
	for _, patch := range req.UpdatedItems {
		if patch.Name != nil && *patch.Name == "" {
			return nil, fmt.Errorf("item %s: %w", patch.ID, ErrItemName)
		}
		if patch.Quantity != nil && *patch.Quantity <= 0 {
			return nil, fmt.Errorf("item %s: %w", patch.ID, ErrItemQuantity)
		}
		if patch.Price != nil && !patch.Price.IsPositive() {
			return nil, fmt.Errorf("item %s: %w", patch.ID, ErrItemPrice)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !enum.IsActiveOrderStatus(order.Status) {
		return nil, ErrOrderNotEditable
	}

	if req.CustomerName != nil || req.SpecialInstructions != nil {
		order, err = store.UpdateOrderHeader(ctx, database.UpdateOrderHeaderParams{
			ID:                  order.ID,
			CustomerName:        textPtrOrNull(req.CustomerName),
			SpecialInstructions: textPtrOrNull(req.SpecialInstructions),
		})
		if err != nil {
			return nil, fmt.Errorf("update order header: %w", err)
		}
	}

	for _, patch := range req.UpdatedItems {
		if _, err := store.GetOrderItem(ctx, database.GetOrderItemParams{
			ID:      patch.ID,
			OrderID: order.ID,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item %s: %w", patch.ID, ErrOrderItemNotFound)
			}
			return nil, fmt.Errorf("get order item: %w", err)
		}

		arg := database.UpdateOrderItemParams{
			ID:                  patch.ID,
			OrderID:             order.ID,
			Name:                textPtrOrNull(patch.Name),
			SpecialInstructions: textPtrOrNull(patch.SpecialInstructions),
		}
		if patch.Quantity != nil {
			arg.Quantity = pgtype.Int4{Int32: *patch.Quantity, Valid: true}
		}
		if patch.Price != nil {
			arg.Price = decimalToNumeric(*patch.Price)
		}
		if _, err := store.UpdateOrderItem(ctx, arg); err != nil {
			return nil, fmt.Errorf("update order item: %w", err)
		}
	}

	// Full recompute: edits change existing lines, so the incremental
	// shortcut used for appends does not apply.
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(numericToDecimal(it.Price).Mul(decimal.NewFromInt32(it.Quantity)))
	}

	updated, err := store.UpdateOrderSubtotal(ctx, database.UpdateOrderSubtotalParams{
		ID:       order.ID,
		Subtotal: decimalToNumeric(subtotal),
	})
	if err != nil {
		return nil, fmt.Errorf("update subtotal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: updated, Items: items}, nil
}

// UpdateStatus moves the order to newStatus and re-derives its table's
// booking state in the same transaction: a table stays booked exactly while
// its order is pending or in-progress.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (*OrderResult, error) {
	if !enum.IsValidOrderStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if enum.IsTerminalOrderStatus(order.Status) {
		return nil, ErrTerminalStatus
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:     order.ID,
		Status: newStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if order.OrderType == enum.OrderTypeDineIn && order.TableNumber.Valid {
		if enum.IsActiveOrderStatus(newStatus) {
			err = store.MarkTableBookedByOrder(ctx, order.ID)
		} else {
			err = store.ClearTableBindingByOrder(ctx, order.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("derive table booking: %w", err)
		}
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: updated, Items: items}, nil
}

// ── Helpers ──

func (s *OrderService) insertItems(ctx context.Context, store OrderStore, orderID uuid.UUID, inputs []OrderItemInput) ([]database.OrderItem, error) {
	items := make([]database.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:             orderID,
			Name:                in.Name,
			Quantity:            in.Quantity,
			Price:               decimalToNumeric(in.Price),
			SpecialInstructions: textOrNull(in.SpecialInstructions),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func validateItems(items []OrderItemInput) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	for i, item := range items {
		if item.Name == "" {
			return fmt.Errorf("item[%d]: %w", i, ErrItemName)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item[%d]: %w", i, ErrItemQuantity)
		}
		if !item.Price.IsPositive() {
			return fmt.Errorf("item[%d]: %w", i, ErrItemPrice)
		}
	}
	return nil
}

func itemsSubtotal(items []OrderItemInput) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return sum
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func textPtrOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
