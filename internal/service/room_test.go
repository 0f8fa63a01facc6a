package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dinehall-pos/api/internal/database"
	"github.com/dinehall-pos/api/internal/enum"
	"github.com/dinehall-pos/api/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type mockRoomStore struct {
	getRoomForUpdateFn    func(ctx context.Context, roomNumber string) (database.Room, error)
	checkInRoomFn         func(ctx context.Context, arg database.CheckInRoomParams) (database.Room, error)
	checkOutRoomFn        func(ctx context.Context, roomNumber string) (database.Room, error)
	setRoomCurrentOrderFn func(ctx context.Context, arg database.SetRoomCurrentOrderParams) (database.Room, error)
	getOrderFn            func(ctx context.Context, id uuid.UUID) (database.Order, error)
	createOrderFn         func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn     func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

func (m *mockRoomStore) GetRoomForUpdate(ctx context.Context, roomNumber string) (database.Room, error) {
	if m.getRoomForUpdateFn != nil {
		return m.getRoomForUpdateFn(ctx, roomNumber)
	}
	return database.Room{}, pgx.ErrNoRows
}

func (m *mockRoomStore) CheckInRoom(ctx context.Context, arg database.CheckInRoomParams) (database.Room, error) {
	if m.checkInRoomFn != nil {
		return m.checkInRoomFn(ctx, arg)
	}
	return database.Room{RoomNumber: arg.RoomNumber, IsBooked: true, CurrentOrderID: arg.OrderID}, nil
}

func (m *mockRoomStore) CheckOutRoom(ctx context.Context, roomNumber string) (database.Room, error) {
	if m.checkOutRoomFn != nil {
		return m.checkOutRoomFn(ctx, roomNumber)
	}
	return database.Room{RoomNumber: roomNumber}, nil
}

func (m *mockRoomStore) SetRoomCurrentOrder(ctx context.Context, arg database.SetRoomCurrentOrderParams) (database.Room, error) {
	if m.setRoomCurrentOrderFn != nil {
		return m.setRoomCurrentOrderFn(ctx, arg)
	}
	return database.Room{
		RoomNumber:     arg.RoomNumber,
		IsBooked:       true,
		CurrentOrderID: pgtype.UUID{Bytes: arg.OrderID, Valid: true},
	}, nil
}

func (m *mockRoomStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockRoomStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, arg)
	}
	return database.Order{
		ID:                  uuid.New(),
		CustomerName:        arg.CustomerName,
		OrderType:           arg.OrderType,
		TableNumber:         arg.TableNumber,
		RoomNumber:          arg.RoomNumber,
		DeliveryAddress:     arg.DeliveryAddress,
		SpecialInstructions: arg.SpecialInstructions,
		PaymentMethod:       arg.PaymentMethod,
		Subtotal:            arg.Subtotal,
		Status:              arg.Status,
	}, nil
}

func (m *mockRoomStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	if m.createOrderItemFn != nil {
		return m.createOrderItemFn(ctx, arg)
	}
	return database.OrderItem{
		ID:                  uuid.New(),
		OrderID:             arg.OrderID,
		Name:                arg.Name,
		Quantity:            arg.Quantity,
		Price:               arg.Price,
		SpecialInstructions: arg.SpecialInstructions,
	}, nil
}

func newRoomService(store *mockRoomStore) (*service.RoomService, *mockPool) {
	pool := &mockPool{}
	svc := service.NewRoomService(pool, func(db database.DBTX) service.RoomStore {
		return store
	})
	return svc, pool
}

func freeRoom(number string) database.Room {
	return database.Room{
		ID:         uuid.New(),
		RoomNumber: number,
		RoomType:   "double",
		Capacity:   2,
	}
}

func bookedRoom(number string, orderID uuid.UUID) database.Room {
	room := freeRoom(number)
	room.IsBooked = true
	if orderID != uuid.Nil {
		room.CurrentOrderID = pgtype.UUID{Bytes: orderID, Valid: true}
	}
	return room
}

func TestCheckIn_HappyPath(t *testing.T) {
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return freeRoom("101"), nil
		},
	}

	svc, pool := newRoomService(store)
	room, err := svc.CheckIn(context.Background(), "101", nil)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if !room.IsBooked {
		t.Error("checked-in room not booked")
	}
	if room.CurrentOrderID.Valid {
		t.Error("check-in without order bound an order")
	}
	if !pool.tx.committed {
		t.Error("transaction was not committed")
	}
}

func TestCheckIn_WithExistingOrder(t *testing.T) {
	orderID := uuid.New()
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return freeRoom("101"), nil
		},
	}

	svc, _ := newRoomService(store)
	room, err := svc.CheckIn(context.Background(), "101", &orderID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if !room.CurrentOrderID.Valid || uuid.UUID(room.CurrentOrderID.Bytes) != orderID {
		t.Errorf("bound order: got %v, want %v", room.CurrentOrderID, orderID)
	}
}

func TestCheckIn_AlreadyBooked(t *testing.T) {
	checkedIn := false
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return bookedRoom("101", uuid.Nil), nil
		},
		checkInRoomFn: func(ctx context.Context, arg database.CheckInRoomParams) (database.Room, error) {
			checkedIn = true
			return database.Room{}, nil
		},
	}

	svc, pool := newRoomService(store)
	_, err := svc.CheckIn(context.Background(), "101", nil)
	if !errors.Is(err, service.ErrRoomBooked) {
		t.Fatalf("got %v, want ErrRoomBooked", err)
	}
	if checkedIn {
		t.Error("check-in written for an occupied room")
	}
	if pool.tx.committed {
		t.Error("transaction committed on conflict")
	}
}

func TestCheckIn_RoomNotFound(t *testing.T) {
	svc, _ := newRoomService(&mockRoomStore{})
	_, err := svc.CheckIn(context.Background(), "999", nil)
	if !errors.Is(err, service.ErrRoomNotFound) {
		t.Fatalf("got %v, want ErrRoomNotFound", err)
	}
}

func TestCheckOut_HappyPathWithCompletedOrder(t *testing.T) {
	orderID := uuid.New()
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return bookedRoom("101", orderID), nil
		},
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return database.Order{ID: orderID, Status: enum.OrderStatusCompleted}, nil
		},
	}

	svc, pool := newRoomService(store)
	room, err := svc.CheckOut(context.Background(), "101")
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if room.IsBooked {
		t.Error("checked-out room still booked")
	}
	if !pool.tx.committed {
		t.Error("transaction was not committed")
	}
}

func TestCheckOut_NoBoundOrder(t *testing.T) {
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return bookedRoom("101", uuid.Nil), nil
		},
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			t.Error("order looked up for a room with no bound order")
			return database.Order{}, pgx.ErrNoRows
		},
	}

	svc, _ := newRoomService(store)
	if _, err := svc.CheckOut(context.Background(), "101"); err != nil {
		t.Fatalf("check out: %v", err)
	}
}

func TestCheckOut_OrderStillActive(t *testing.T) {
	orderID := uuid.New()
	checkedOut := false
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return bookedRoom("101", orderID), nil
		},
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return database.Order{ID: orderID, Status: enum.OrderStatusPending}, nil
		},
		checkOutRoomFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			checkedOut = true
			return database.Room{}, nil
		},
	}

	svc, pool := newRoomService(store)
	_, err := svc.CheckOut(context.Background(), "101")
	if !errors.Is(err, service.ErrOrderNotCompleted) {
		t.Fatalf("got %v, want ErrOrderNotCompleted", err)
	}
	if checkedOut {
		t.Error("check-out written while order still active")
	}
	if pool.tx.committed {
		t.Error("transaction committed on conflict")
	}
}

func TestCheckOut_NotBooked(t *testing.T) {
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return freeRoom("101"), nil
		},
	}

	svc, _ := newRoomService(store)
	_, err := svc.CheckOut(context.Background(), "101")
	if !errors.Is(err, service.ErrRoomNotBooked) {
		t.Fatalf("got %v, want ErrRoomNotBooked", err)
	}
}

func TestPlaceRoomOrder_HappyPath(t *testing.T) {
	var repointedTo uuid.UUID
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return bookedRoom("101", uuid.Nil), nil
		},
		setRoomCurrentOrderFn: func(ctx context.Context, arg database.SetRoomCurrentOrderParams) (database.Room, error) {
			repointedTo = arg.OrderID
			return database.Room{RoomNumber: arg.RoomNumber, IsBooked: true}, nil
		},
	}

	svc, pool := newRoomService(store)
	result, err := svc.PlaceOrder(context.Background(), "101", service.RoomOrderRequest{
		CustomerName:  "Dewi",
		PaymentMethod: enum.PaymentMethodCounter,
		Items:         soupItems(),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if result.Order.Status != enum.OrderStatusPending {
		t.Errorf("status: got %s, want %s", result.Order.Status, enum.OrderStatusPending)
	}
	if !result.Order.RoomNumber.Valid || result.Order.RoomNumber.String != "101" {
		t.Errorf("room number: got %v, want 101", result.Order.RoomNumber)
	}
	if result.Order.TableNumber.Valid {
		t.Error("room order must not bind a table")
	}
	if got := numericString(t, result.Order.Subtotal); got != "12.00" {
		t.Errorf("subtotal: got %s, want 12.00", got)
	}
	if repointedTo != result.Order.ID {
		t.Errorf("room repointed to %v, want %v", repointedTo, result.Order.ID)
	}
	if !pool.tx.committed {
		t.Error("transaction was not committed")
	}
}

func TestPlaceRoomOrder_UnbookedRoom(t *testing.T) {
	orderCreated := false
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			return freeRoom("101"), nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			orderCreated = true
			return database.Order{}, nil
		},
	}

	svc, _ := newRoomService(store)
	_, err := svc.PlaceOrder(context.Background(), "101", service.RoomOrderRequest{
		PaymentMethod: enum.PaymentMethodCounter,
		Items:         soupItems(),
	})
	if !errors.Is(err, service.ErrRoomNotBooked) {
		t.Fatalf("got %v, want ErrRoomNotBooked", err)
	}
	if orderCreated {
		t.Error("order created for an unbooked room")
	}
}

func TestPlaceRoomOrder_ValidatesBeforeTouchingRoom(t *testing.T) {
	store := &mockRoomStore{
		getRoomForUpdateFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
			t.Error("room locked before validation")
			return database.Room{}, pgx.ErrNoRows
		},
	}

	svc, _ := newRoomService(store)
	_, err := svc.PlaceOrder(context.Background(), "101", service.RoomOrderRequest{
		PaymentMethod: enum.PaymentMethodCounter,
		Items:         nil,
	})
	if !errors.Is(err, service.ErrEmptyItems) {
		t.Fatalf("got %v, want ErrEmptyItems", err)
	}

	_, err = svc.PlaceOrder(context.Background(), "101", service.RoomOrderRequest{
		PaymentMethod: "crypto",
		Items:         soupItems(),
	})
	if !errors.Is(err, service.ErrInvalidPaymentMethod) {
		t.Fatalf("got %v, want ErrInvalidPaymentMethod", err)
	}
}
