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
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomBooked    = errors.New("room is already booked")
	ErrRoomNotBooked = errors.New("room is not booked")
)

// RoomStore defines the DB methods needed for room stay and room-service
// order writes.
type RoomStore interface {
	GetRoomForUpdate(ctx context.Context, roomNumber string) (database.Room, error)
	CheckInRoom(ctx context.Context, arg database.CheckInRoomParams) (database.Room, error)
	CheckOutRoom(ctx context.Context, roomNumber string) (database.Room, error)
	SetRoomCurrentOrder(ctx context.Context, arg database.SetRoomCurrentOrderParams) (database.Room, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewRoomStore creates a RoomStore from a DBTX (pool or tx).
type NewRoomStore func(db database.DBTX) RoomStore

// RoomOrderRequest is the input for a room-service order.
type RoomOrderRequest struct {
	CustomerName        string
	SpecialInstructions string
	PaymentMethod       string
	Items               []OrderItemInput
}

// RoomService owns the room stay lifecycle. A room's booking tracks the
// stay: check-in books it, check-out frees it, and food orders placed from
// the room only repoint current_order_id.
type RoomService struct {
	pool     TxBeginner
	newStore NewRoomStore
}

// NewRoomService creates a new RoomService.
func NewRoomService(pool TxBeginner, newStore NewRoomStore) *RoomService {
	return &RoomService{pool: pool, newStore: newStore}
}

// CheckIn books a free room, optionally binding an existing order.
func (s *RoomService) CheckIn(ctx context.Context, roomNumber string, orderID *uuid.UUID) (database.Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Room{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	room, err := store.GetRoomForUpdate(ctx, roomNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Room{}, ErrRoomNotFound
		}
		return database.Room{}, fmt.Errorf("get room: %w", err)
	}
	if room.IsBooked {
		return database.Room{}, ErrRoomBooked
	}

	boundOrder := pgtype.UUID{}
	if orderID != nil {
		boundOrder = pgtype.UUID{Bytes: *orderID, Valid: true}
	}

	checkedIn, err := store.CheckInRoom(ctx, database.CheckInRoomParams{
		RoomNumber: roomNumber,
		OrderID:    boundOrder,
	})
	if err != nil {
		return database.Room{}, fmt.Errorf("check in room: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Room{}, fmt.Errorf("commit tx: %w", err)
	}

	return checkedIn, nil
}

// CheckOut frees a booked room. If a food order is still bound it must be
// completed first; a room with no bound order checks out unconditionally.
func (s *RoomService) CheckOut(ctx context.Context, roomNumber string) (database.Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Room{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	room, err := store.GetRoomForUpdate(ctx, roomNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Room{}, ErrRoomNotFound
		}
		return database.Room{}, fmt.Errorf("get room: %w", err)
	}
	if !room.IsBooked {
		return database.Room{}, ErrRoomNotBooked
	}

	if room.CurrentOrderID.Valid {
		order, err := store.GetOrder(ctx, uuid.UUID(room.CurrentOrderID.Bytes))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return database.Room{}, fmt.Errorf("get order: %w", err)
		}
		if err == nil && order.Status != enum.OrderStatusCompleted {
			return database.Room{}, ErrOrderNotCompleted
		}
	}

	checkedOut, err := store.CheckOutRoom(ctx, roomNumber)
	if err != nil {
		return database.Room{}, fmt.Errorf("check out room: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Room{}, fmt.Errorf("commit tx: %w", err)
	}

	return checkedOut, nil
}

// PlaceOrder creates a pending food order from a booked room and repoints
// the room at it, all in one transaction.
func (s *RoomService) PlaceOrder(ctx context.Context, roomNumber string, req RoomOrderRequest) (*OrderResult, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	customerName := req.CustomerName
	if customerName == "" {
		customerName = "Guest"
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	room, err := store.GetRoomForUpdate(ctx, roomNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	if !room.IsBooked {
		return nil, ErrRoomNotBooked
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerName:        customerName,
		OrderType:           enum.OrderTypeDineIn,
		RoomNumber:          pgtype.Text{String: roomNumber, Valid: true},
		SpecialInstructions: textOrNull(req.SpecialInstructions),
		PaymentMethod:       req.PaymentMethod,
		Subtotal:            decimalToNumeric(itemsSubtotal(req.Items)),
		Status:              enum.OrderStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(req.Items))
	for _, in := range req.Items {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:             order.ID,
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

	if _, err := store.SetRoomCurrentOrder(ctx, database.SetRoomCurrentOrderParams{
		RoomNumber: roomNumber,
		OrderID:    order.ID,
	}); err != nil {
		return nil, fmt.Errorf("set room order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderResult{Order: order, Items: items}, nil
}
