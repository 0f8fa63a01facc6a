package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dinehall-pos/api/internal/database"
	"github.com/dinehall-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderResult, error)
	AddItems(ctx context.Context, orderID uuid.UUID, newItems []service.OrderItemInput, tableNumber string) (*service.OrderResult, error)
	EditOrder(ctx context.Context, orderID uuid.UUID, req service.EditOrderRequest) (*service.OrderResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (*service.OrderResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	ListOrders(ctx context.Context) ([]database.Order, error)
	ListOrdersCreatedBetween(ctx context.Context, arg database.ListOrdersCreatedBetweenParams) ([]database.Order, error)
	GetActiveOrderByTable(ctx context.Context, tableNumber string) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /order.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create-order", h.Create)
	r.Post("/add-item/{orderId}", h.AddItem)
	r.Put("/update-order/{orderId}", h.Edit)
	r.Put("/orders/{id}", h.UpdateStatus)
	r.Get("/orders", h.List)
	r.Get("/orders/filter", h.Filtered)
	r.Get("/orders/active", h.Active)
}

// --- Request / Response types ---

type orderItemRequest struct {
	Name                string          `json:"name"`
	Quantity            int32           `json:"quantity"`
	Price               decimal.Decimal `json:"price"`
	SpecialInstructions string          `json:"specialInstructions"`
}

type createOrderRequest struct {
	CustomerName        string             `json:"customerName"`
	OrderType           string             `json:"orderType"`
	TableNumber         string             `json:"tableNumber"`
	DeliveryAddress     string             `json:"deliveryAddress"`
	SpecialInstructions string             `json:"specialInstructions"`
	PaymentMethod       string             `json:"paymentMethod"`
	Items               []orderItemRequest `json:"items"`
}

type addItemRequest struct {
	TableNumber string             `json:"tableNumber"`
	Items       []orderItemRequest `json:"items"`
}

type orderItemPatchRequest struct {
	ID                  string           `json:"id"`
	Name                *string          `json:"name"`
	Quantity            *int32           `json:"quantity"`
	Price               *decimal.Decimal `json:"price"`
	SpecialInstructions *string          `json:"specialInstructions"`
}

type editOrderRequest struct {
	CustomerName        *string                 `json:"customerName"`
	SpecialInstructions *string                 `json:"specialInstructions"`
	UpdatedItems        []orderItemPatchRequest `json:"updatedItems"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Quantity            int32     `json:"quantity"`
	Price               string    `json:"price"`
	SpecialInstructions *string   `json:"specialInstructions"`
}

type orderResponse struct {
	ID                  uuid.UUID           `json:"id"`
	CustomerName        string              `json:"customerName"`
	OrderType           string              `json:"orderType"`
	TableNumber         *string             `json:"tableNumber"`
	RoomNumber          *string             `json:"roomNumber"`
	DeliveryAddress     *string             `json:"deliveryAddress"`
	SpecialInstructions *string             `json:"specialInstructions"`
	PaymentMethod       string              `json:"paymentMethod"`
	Subtotal            string              `json:"subtotal"`
	Status              string              `json:"status"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
	Items               []orderItemResponse `json:"items,omitempty"`
}

type orderListResponse struct {
	TotalOrders int             `json:"totalOrders"`
	Orders      []orderResponse `json:"orders"`
}

// --- Handlers ---

// Create handles POST /order/create-order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerName:        req.CustomerName,
		OrderType:           req.OrderType,
		TableNumber:         req.TableNumber,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       req.PaymentMethod,
		Items:               toItemInputs(req.Items),
	})
	if err != nil {
		writeOrderError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result))
}

// AddItem handles POST /order/add-item/{orderId}.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.AddItems(r.Context(), orderID, toItemInputs(req.Items), req.TableNumber)
	if err != nil {
		writeOrderError(w, "add items", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

// Edit handles PUT /order/update-order/{orderId}.
func (h *OrderHandler) Edit(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req editOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	patches := make([]service.OrderItemPatch, len(req.UpdatedItems))
	for i, p := range req.UpdatedItems {
		itemID, err := uuid.Parse(p.ID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
			return
		}
		patches[i] = service.OrderItemPatch{
			ID:                  itemID,
			Name:                p.Name,
			Quantity:            p.Quantity,
			Price:               p.Price,
			SpecialInstructions: p.SpecialInstructions,
		}
	}

	result, err := h.svc.EditOrder(r.Context(), orderID, service.EditOrderRequest{
		CustomerName:        req.CustomerName,
		SpecialInstructions: req.SpecialInstructions,
		UpdatedItems:        patches,
	})
	if err != nil {
		writeOrderError(w, "edit order", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order updated successfully",
		"order":   toOrderResponse(result),
	})
}

// UpdateStatus handles PUT /order/orders/{id}.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeOrderError(w, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

// List handles GET /order/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		TotalOrders: len(orders),
		Orders:      dbOrdersToResponses(orders),
	})
}

// Filtered handles GET /order/orders/filter?filter=daily|weekly|monthly|yearly.
func (h *OrderHandler) Filtered(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	start, ok := filterStart(filter, time.Now())
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filter, use daily, weekly, monthly or yearly"})
		return
	}

	orders, err := h.store.ListOrdersCreatedBetween(r.Context(), database.ListOrdersCreatedBetweenParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: time.Now(), Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: filter orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		TotalOrders: len(orders),
		Orders:      dbOrdersToResponses(orders),
	})
}

// Active handles GET /order/orders/active?tableNumber=N. Returns the most
// recent pending or in-progress order on that table, items included.
func (h *OrderHandler) Active(w http.ResponseWriter, r *http.Request) {
	tableNumber := r.URL.Query().Get("tableNumber")
	if tableNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tableNumber is required"})
		return
	}

	order, err := h.store.GetActiveOrderByTable(r.Context(), tableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active order for this table"})
			return
		}
		log.Printf("ERROR: get active order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := dbOrderToResponse(order)
	resp.Items = dbItemsToResponses(items)
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// filterStart returns the local start of the requested window. Weeks start
// on Sunday.
func filterStart(filter string, now time.Time) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch filter {
	case "daily":
		return midnight, true
	case "weekly":
		return midnight.AddDate(0, 0, -int(now.Weekday())), true
	case "monthly":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case "yearly":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

func toItemInputs(items []orderItemRequest) []service.OrderItemInput {
	inputs := make([]service.OrderItemInput, len(items))
	for i, it := range items {
		inputs[i] = service.OrderItemInput{
			Name:                it.Name,
			Quantity:            it.Quantity,
			Price:               it.Price,
			SpecialInstructions: it.SpecialInstructions,
		}
	}
	return inputs
}

// writeOrderError maps service errors onto the HTTP taxonomy: missing
// entities are 404, validation failures and state conflicts are 400,
// everything else is a logged 500.
func writeOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrOrderItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrItemName),
		errors.Is(err, service.ErrItemQuantity),
		errors.Is(err, service.ErrItemPrice),
		errors.Is(err, service.ErrInvalidOrderType),
		errors.Is(err, service.ErrTableNumberRequired),
		errors.Is(err, service.ErrDeliveryAddressRequired),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrTableBooked),
		errors.Is(err, service.ErrOrderNotEditable),
		errors.Is(err, service.ErrTableMismatch),
		errors.Is(err, service.ErrTableNotBound),
		errors.Is(err, service.ErrTerminalStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toOrderResponse(result *service.OrderResult) orderResponse {
	resp := dbOrderToResponse(result.Order)
	resp.Items = dbItemsToResponses(result.Items)
	return resp
}

func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		OrderType:     o.OrderType,
		PaymentMethod: o.PaymentMethod,
		Subtotal:      numericToString(o.Subtotal),
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.TableNumber.Valid {
		resp.TableNumber = &o.TableNumber.String
	}
	if o.RoomNumber.Valid {
		resp.RoomNumber = &o.RoomNumber.String
	}
	if o.DeliveryAddress.Valid {
		resp.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.SpecialInstructions.Valid {
		resp.SpecialInstructions = &o.SpecialInstructions.String
	}
	return resp
}

func dbOrdersToResponses(orders []database.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = dbOrderToResponse(o)
	}
	return out
}

func dbItemsToResponses(items []database.OrderItem) []orderItemResponse {
	out := make([]orderItemResponse, len(items))
	for i, it := range items {
		out[i] = orderItemResponse{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    numericToString(it.Price),
		}
		if it.SpecialInstructions.Valid {
			out[i].SpecialInstructions = &it.SpecialInstructions.String
		}
	}
	return out
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
