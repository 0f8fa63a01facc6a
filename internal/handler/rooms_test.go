package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dinehall-pos/api/internal/database"
	"github.com/dinehall-pos/api/internal/enum"
	"github.com/dinehall-pos/api/internal/handler"
	"github.com/dinehall-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type mockRoomServicer struct {
	checkInFn    func(ctx context.Context, roomNumber string, orderID *uuid.UUID) (database.Room, error)
	checkOutFn   func(ctx context.Context, roomNumber string) (database.Room, error)
	placeOrderFn func(ctx context.Context, roomNumber string, req service.RoomOrderRequest) (*service.OrderResult, error)
}

func (m *mockRoomServicer) CheckIn(ctx context.Context, roomNumber string, orderID *uuid.UUID) (database.Room, error) {
	return m.checkInFn(ctx, roomNumber, orderID)
}

func (m *mockRoomServicer) CheckOut(ctx context.Context, roomNumber string) (database.Room, error) {
	return m.checkOutFn(ctx, roomNumber)
}

func (m *mockRoomServicer) PlaceOrder(ctx context.Context, roomNumber string, req service.RoomOrderRequest) (*service.OrderResult, error) {
	return m.placeOrderFn(ctx, roomNumber, req)
}

type mockRoomReadStore struct {
	createRoomFn            func(ctx context.Context, arg database.CreateRoomParams) (database.Room, error)
	getRoomByNumberFn       func(ctx context.Context, roomNumber string) (database.Room, error)
	getRoomByIDFn           func(ctx context.Context, id uuid.UUID) (database.Room, error)
	listRoomsFn             func(ctx context.Context) ([]database.Room, error)
	countRoomsByBookingFn   func(ctx context.Context) (database.CountRoomsByBookingRow, error)
	deleteRoomIfAvailableFn func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

func (m *mockRoomReadStore) CreateRoom(ctx context.Context, arg database.CreateRoomParams) (database.Room, error) {
	if m.createRoomFn != nil {
		return m.createRoomFn(ctx, arg)
	}
	return database.Room{
		ID:            uuid.New(),
		RoomNumber:    arg.RoomNumber,
		RoomType:      arg.RoomType,
		Capacity:      arg.Capacity,
		PricePerNight: arg.PricePerNight,
		Amenities:     arg.Amenities,
		QrUrl:         arg.QrUrl,
		PhotoUrls:     arg.PhotoUrls,
	}, nil
}

func (m *mockRoomReadStore) GetRoomByNumber(ctx context.Context, roomNumber string) (database.Room, error) {
	if m.getRoomByNumberFn != nil {
		return m.getRoomByNumberFn(ctx, roomNumber)
	}
	return database.Room{}, pgx.ErrNoRows
}

func (m *mockRoomReadStore) GetRoomByID(ctx context.Context, id uuid.UUID) (database.Room, error) {
	if m.getRoomByIDFn != nil {
		return m.getRoomByIDFn(ctx, id)
	}
	return database.Room{}, pgx.ErrNoRows
}

func (m *mockRoomReadStore) ListRooms(ctx context.Context) ([]database.Room, error) {
	if m.listRoomsFn != nil {
		return m.listRoomsFn(ctx)
	}
	return nil, nil
}

func (m *mockRoomReadStore) CountRoomsByBooking(ctx context.Context) (database.CountRoomsByBookingRow, error) {
	if m.countRoomsByBookingFn != nil {
		return m.countRoomsByBookingFn(ctx)
	}
	return database.CountRoomsByBookingRow{}, nil
}

func (m *mockRoomReadStore) DeleteRoomIfAvailable(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if m.deleteRoomIfAvailableFn != nil {
		return m.deleteRoomIfAvailableFn(ctx, id)
	}
	return uuid.Nil, pgx.ErrNoRows
}

func roomRouter(svc handler.RoomServicer, store handler.RoomStore) chi.Router {
	r := chi.NewRouter()
	r.Route("/room", handler.NewRoomHandler(svc, store, "http://localhost:5173/order").RegisterRoutes)
	return r
}

func TestCreateRoom_Handler(t *testing.T) {
	store := &mockRoomReadStore{
		createRoomFn: func(ctx context.Context, arg database.CreateRoomParams) (database.Room, error) {
			if arg.RoomNumber != "101" || arg.RoomType != "double" {
				t.Errorf("room: got %q/%q", arg.RoomNumber, arg.RoomType)
			}
			if !arg.QrUrl.Valid || arg.QrUrl.String != "http://localhost:5173/order?room=101" {
				t.Errorf("qr url: got %v", arg.QrUrl)
			}
			return database.Room{
				ID:            uuid.New(),
				RoomNumber:    arg.RoomNumber,
				RoomType:      arg.RoomType,
				Capacity:      arg.Capacity,
				PricePerNight: arg.PricePerNight,
				QrUrl:         arg.QrUrl,
			}, nil
		},
	}

	r := roomRouter(&mockRoomServicer{}, store)
	body := `{"roomNumber":"101","roomType":"double","capacity":2,"pricePerNight":80}`
	req := httptest.NewRequest(http.MethodPost, "/room/create", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		RoomNumber    string `json:"roomNumber"`
		PricePerNight string `json:"pricePerNight"`
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.RoomNumber != "101" || resp.PricePerNight != "80.00" {
		t.Errorf("room: got %+v", resp)
	}
}

func TestCreateRoom_Handler_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing number", `{"roomType":"double","capacity":2,"pricePerNight":80}`},
		{"missing type", `{"roomNumber":"101","capacity":2,"pricePerNight":80}`},
		{"zero capacity", `{"roomNumber":"101","roomType":"double","capacity":0,"pricePerNight":80}`},
		{"zero price", `{"roomNumber":"101","roomType":"double","capacity":2,"pricePerNight":0}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			created := false
			store := &mockRoomReadStore{
				createRoomFn: func(ctx context.Context, arg database.CreateRoomParams) (database.Room, error) {
					created = true
					return database.Room{}, nil
				},
			}

			r := roomRouter(&mockRoomServicer{}, store)
			req := httptest.NewRequest(http.MethodPost, "/room/create", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rec.Code)
			}
			if created {
				t.Error("room created despite invalid input")
			}
		})
	}
}

func TestCheckInRoom_Handler(t *testing.T) {
	orderID := uuid.New()
	svc := &mockRoomServicer{
		checkInFn: func(ctx context.Context, roomNumber string, gotOrderID *uuid.UUID) (database.Room, error) {
			if roomNumber != "101" {
				t.Errorf("room number: got %q, want 101", roomNumber)
			}
			if gotOrderID == nil || *gotOrderID != orderID {
				t.Errorf("order id: got %v, want %v", gotOrderID, orderID)
			}
			return database.Room{
				RoomNumber:     roomNumber,
				IsBooked:       true,
				CurrentOrderID: pgtype.UUID{Bytes: orderID, Valid: true},
			}, nil
		},
	}

	r := roomRouter(svc, &mockRoomReadStore{})
	body := `{"orderId":"` + orderID.String() + `"}`
	req := httptest.NewRequest(http.MethodPut, "/room/checkin/101", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Message string `json:"message"`
		Room    struct {
			IsBooked bool `json:"isBooked"`
		} `json:"room"`
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.Message != "Room checked in successfully" || !resp.Room.IsBooked {
		t.Errorf("response: got %+v", resp)
	}
}

func TestCheckInRoom_Handler_EmptyBody(t *testing.T) {
	svc := &mockRoomServicer{
		checkInFn: func(ctx context.Context, roomNumber string, orderID *uuid.UUID) (database.Room, error) {
			if orderID != nil {
				t.Errorf("order id: got %v, want nil", orderID)
			}
			return database.Room{RoomNumber: roomNumber, IsBooked: true}, nil
		},
	}

	r := roomRouter(svc, &mockRoomReadStore{})
	req := httptest.NewRequest(http.MethodPut, "/room/checkin/101", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestCheckInRoom_Handler_AlreadyBooked(t *testing.T) {
	svc := &mockRoomServicer{
		checkInFn: func(ctx context.Context, roomNumber string, orderID *uuid.UUID) (database.Room, error) {
			return database.Room{}, service.ErrRoomBooked
		},
	}

	r := roomRouter(svc, &mockRoomReadStore{})
	req := httptest.NewRequest(http.MethodPut, "/room/checkin/101", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestCheckOutRoom_Handler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", service.ErrRoomNotFound, http.StatusNotFound},
		{"not booked", service.ErrRoomNotBooked, http.StatusBadRequest},
		{"order still active", service.ErrOrderNotCompleted, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockRoomServicer{
				checkOutFn: func(ctx context.Context, roomNumber string) (database.Room, error) {
					return database.Room{}, tc.err
				},
			}

			r := roomRouter(svc, &mockRoomReadStore{})
			req := httptest.NewRequest(http.MethodPut, "/room/checkout/101", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d", rec.Code, tc.wantCode)
			}
		})
	}
}

func TestPlaceRoomOrder_Handler(t *testing.T) {
	svc := &mockRoomServicer{
		placeOrderFn: func(ctx context.Context, roomNumber string, req service.RoomOrderRequest) (*service.OrderResult, error) {
			if roomNumber != "101" {
				t.Errorf("room number: got %q, want 101", roomNumber)
			}
			if len(req.Items) != 1 || req.Items[0].Name != "Tomato Soup" {
				t.Errorf("items not passed through: %+v", req.Items)
			}
			order := sampleOrder(t, "")
			order.TableNumber = pgtype.Text{}
			order.RoomNumber = pgtype.Text{String: roomNumber, Valid: true}
			return &service.OrderResult{Order: order}, nil
		},
	}

	r := roomRouter(svc, &mockRoomReadStore{})
	body := `{"paymentMethod":"counter","items":[{"name":"Tomato Soup","quantity":2,"price":6}]}`
	req := httptest.NewRequest(http.MethodPost, "/room/order/101", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		RoomNumber  *string `json:"roomNumber"`
		TableNumber *string `json:"tableNumber"`
		Status      string  `json:"status"`
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.RoomNumber == nil || *resp.RoomNumber != "101" {
		t.Errorf("roomNumber: got %v", resp.RoomNumber)
	}
	if resp.TableNumber != nil {
		t.Errorf("tableNumber: got %v, want nil", resp.TableNumber)
	}
	if resp.Status != enum.OrderStatusPending {
		t.Errorf("status: got %q", resp.Status)
	}
}

func TestDeleteRoom_Handler(t *testing.T) {
	roomID := uuid.New()
	store := &mockRoomReadStore{
		deleteRoomIfAvailableFn: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			if id != roomID {
				t.Errorf("room id: got %v, want %v", id, roomID)
			}
			return id, nil
		},
	}

	r := roomRouter(&mockRoomServicer{}, store)
	req := httptest.NewRequest(http.MethodDelete, "/room/delete/"+roomID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestDeleteRoom_Handler_Booked(t *testing.T) {
	roomID := uuid.New()
	store := &mockRoomReadStore{
		deleteRoomIfAvailableFn: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			return uuid.Nil, pgx.ErrNoRows
		},
		getRoomByIDFn: func(ctx context.Context, id uuid.UUID) (database.Room, error) {
			return database.Room{ID: roomID, IsBooked: true}, nil
		},
	}

	r := roomRouter(&mockRoomServicer{}, store)
	req := httptest.NewRequest(http.MethodDelete, "/room/delete/"+roomID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	var resp map[string]string
	decodeJSON(t, rec.Body, &resp)
	if resp["error"] != "cannot delete a booked room" {
		t.Errorf("error: got %q", resp["error"])
	}
}

func TestDeleteRoom_Handler_NotFound(t *testing.T) {
	r := roomRouter(&mockRoomServicer{}, &mockRoomReadStore{})
	req := httptest.NewRequest(http.MethodDelete, "/room/delete/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}

func TestRoomStatusCounts_Handler(t *testing.T) {
	store := &mockRoomReadStore{
		countRoomsByBookingFn: func(ctx context.Context) (database.CountRoomsByBookingRow, error) {
			return database.CountRoomsByBookingRow{Total: 6, Booked: 2, Available: 4}, nil
		},
	}

	r := roomRouter(&mockRoomServicer{}, store)
	req := httptest.NewRequest(http.MethodGet, "/room/status-counts", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp struct {
		Total     int64 `json:"total"`
		Booked    int64 `json:"booked"`
		Available int64 `json:"available"`
	}
	decodeJSON(t, rec.Body, &resp)
	if resp.Total != 6 || resp.Booked != 2 || resp.Available != 4 {
		t.Errorf("counts: got %+v", resp)
	}
}
