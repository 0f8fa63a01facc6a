package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/dinehall-pos/api/internal/database"
	"github.com/dinehall-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// RoomServicer defines the service methods needed by room handlers.
type RoomServicer interface {
	CheckIn(ctx context.Context, roomNumber string, orderID *uuid.UUID) (database.Room, error)
	CheckOut(ctx context.Context, roomNumber string) (database.Room, error)
	PlaceOrder(ctx context.Context, roomNumber string, req service.RoomOrderRequest) (*service.OrderResult, error)
}

// RoomStore defines the database methods needed by room handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RoomStore interface {
	CreateRoom(ctx context.Context, arg database.CreateRoomParams) (database.Room, error)
	GetRoomByNumber(ctx context.Context, roomNumber string) (database.Room, error)
	GetRoomByID(ctx context.Context, id uuid.UUID) (database.Room, error)
	ListRooms(ctx context.Context) ([]database.Room, error)
	CountRoomsByBooking(ctx context.Context) (database.CountRoomsByBookingRow, error)
	DeleteRoomIfAvailable(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// RoomHandler handles room endpoints.
type RoomHandler struct {
	svc           RoomServicer
	store         RoomStore
	guestOrderURL string
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(svc RoomServicer, store RoomStore, guestOrderURL string) *RoomHandler {
	return &RoomHandler{svc: svc, store: store, guestOrderURL: guestOrderURL}
}

// RegisterRoutes registers room endpoints on the given Chi router.
// Expected to be mounted at /room.
func (h *RoomHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create", h.Create)
	r.Get("/getrooms", h.List)
	r.Get("/status-counts", h.StatusCounts)
	r.Get("/{roomNumber}", h.GetByNumber)
	r.Put("/checkin/{roomNumber}", h.CheckIn)
	r.Put("/checkout/{roomNumber}", h.CheckOut)
	r.Post("/order/{roomNumber}", h.PlaceOrder)
	r.Delete("/delete/{roomId}", h.Delete)
}

// --- Request / Response types ---

type createRoomRequest struct {
	RoomNumber    string          `json:"roomNumber"`
	RoomType      string          `json:"roomType"`
	Capacity      int32           `json:"capacity"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
	Amenities     []string        `json:"amenities"`
	PhotoUrls     []string        `json:"photoUrls"`
}

type checkInRequest struct {
	OrderID *string `json:"orderId"`
}

type roomOrderRequest struct {
	CustomerName        string             `json:"customerName"`
	SpecialInstructions string             `json:"specialInstructions"`
	PaymentMethod       string             `json:"paymentMethod"`
	Items               []orderItemRequest `json:"items"`
}

type roomResponse struct {
	ID             uuid.UUID  `json:"id"`
	RoomNumber     string     `json:"roomNumber"`
	RoomType       string     `json:"roomType"`
	Capacity       int32      `json:"capacity"`
	PricePerNight  string     `json:"pricePerNight"`
	Amenities      []string   `json:"amenities"`
	IsBooked       bool       `json:"isBooked"`
	CurrentOrderID *uuid.UUID `json:"currentOrderId"`
	CheckInDate    *time.Time `json:"checkInDate"`
	CheckOutDate   *time.Time `json:"checkOutDate"`
	QrUrl          *string    `json:"qrUrl"`
	PhotoUrls      []string   `json:"photoUrls"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// --- Handlers ---

// Create handles POST /room/create.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.RoomNumber == "" || req.RoomType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "roomNumber and roomType are required"})
		return
	}
	if req.Capacity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "capacity must be a positive number"})
		return
	}
	if !req.PricePerNight.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pricePerNight must be a positive number"})
		return
	}

	var price pgtype.Numeric
	_ = price.Scan(req.PricePerNight.StringFixed(2))

	qrURL := h.guestOrderURL + "?room=" + url.QueryEscape(req.RoomNumber)
	room, err := h.store.CreateRoom(r.Context(), database.CreateRoomParams{
		RoomNumber:    req.RoomNumber,
		RoomType:      req.RoomType,
		Capacity:      req.Capacity,
		PricePerNight: price,
		Amenities:     req.Amenities,
		QrUrl:         pgtype.Text{String: qrURL, Valid: true},
		PhotoUrls:     req.PhotoUrls,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Room already exists"})
			return
		}
		log.Printf("ERROR: create room: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbRoomToResponse(room))
}

// List handles GET /room/getrooms.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListRooms(r.Context())
	if err != nil {
		log.Printf("ERROR: list rooms: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]roomResponse, len(rooms))
	for i, room := range rooms {
		resp[i] = dbRoomToResponse(room)
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusCounts handles GET /room/status-counts.
func (h *RoomHandler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountRoomsByBooking(r.Context())
	if err != nil {
		log.Printf("ERROR: count rooms: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, statusCountsResponse{
		Total:     counts.Total,
		Booked:    counts.Booked,
		Available: counts.Available,
	})
}

// GetByNumber handles GET /room/{roomNumber}.
func (h *RoomHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	roomNumber := chi.URLParam(r, "roomNumber")

	room, err := h.store.GetRoomByNumber(r.Context(), roomNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
			return
		}
		log.Printf("ERROR: get room: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbRoomToResponse(room))
}

// CheckIn handles PUT /room/checkin/{roomNumber}.
func (h *RoomHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	roomNumber := chi.URLParam(r, "roomNumber")

	var req checkInRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	var orderID *uuid.UUID
	if req.OrderID != nil {
		id, err := uuid.Parse(*req.OrderID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
			return
		}
		orderID = &id
	}

	room, err := h.svc.CheckIn(r.Context(), roomNumber, orderID)
	if err != nil {
		writeRoomError(w, "check in room", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Room checked in successfully",
		"room":    dbRoomToResponse(room),
	})
}

// CheckOut handles PUT /room/checkout/{roomNumber}.
func (h *RoomHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	roomNumber := chi.URLParam(r, "roomNumber")

	room, err := h.svc.CheckOut(r.Context(), roomNumber)
	if err != nil {
		writeRoomError(w, "check out room", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Room checked out successfully",
		"room":    dbRoomToResponse(room),
	})
}

// PlaceOrder handles POST /room/order/{roomNumber}.
func (h *RoomHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	roomNumber := chi.URLParam(r, "roomNumber")

	var req roomOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.PlaceOrder(r.Context(), roomNumber, service.RoomOrderRequest{
		CustomerName:        req.CustomerName,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       req.PaymentMethod,
		Items:               toItemInputs(req.Items),
	})
	if err != nil {
		writeRoomError(w, "place room order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result))
}

// Delete handles DELETE /room/delete/{roomId}. The delete is conditional on
// the room being free; on no-rows we fetch to tell missing from booked.
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "roomId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid room ID"})
		return
	}

	if _, err := h.store.DeleteRoomIfAvailable(r.Context(), roomID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, fetchErr := h.store.GetRoomByID(r.Context(), roomID); fetchErr != nil {
				if errors.Is(fetchErr, pgx.ErrNoRows) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
					return
				}
				log.Printf("ERROR: get room for delete: %v", fetchErr)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot delete a booked room"})
			return
		}
		log.Printf("ERROR: delete room: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Room deleted successfully"})
}

// --- Helpers ---

func writeRoomError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrRoomBooked),
		errors.Is(err, service.ErrRoomNotBooked),
		errors.Is(err, service.ErrOrderNotCompleted),
		errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrItemName),
		errors.Is(err, service.ErrItemQuantity),
		errors.Is(err, service.ErrItemPrice),
		errors.Is(err, service.ErrInvalidPaymentMethod):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func dbRoomToResponse(room database.Room) roomResponse {
	resp := roomResponse{
		ID:            room.ID,
		RoomNumber:    room.RoomNumber,
		RoomType:      room.RoomType,
		Capacity:      room.Capacity,
		PricePerNight: numericToString(room.PricePerNight),
		Amenities:     room.Amenities,
		IsBooked:      room.IsBooked,
		PhotoUrls:     room.PhotoUrls,
		CreatedAt:     room.CreatedAt,
	}
	if room.CurrentOrderID.Valid {
		id := uuid.UUID(room.CurrentOrderID.Bytes)
		resp.CurrentOrderID = &id
	}
	if room.CheckInDate.Valid {
		resp.CheckInDate = &room.CheckInDate.Time
	}
	if room.CheckOutDate.Valid {
		resp.CheckOutDate = &room.CheckOutDate.Time
	}
	if room.QrUrl.Valid {
		resp.QrUrl = &room.QrUrl.String
	}
	return resp
}
