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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// BillServicer defines the service methods needed by bill handlers.
type BillServicer interface {
	CreateBill(ctx context.Context, req service.CreateBillRequest) (*service.BillResult, error)
	TransferCredit(ctx context.Context, billID uuid.UUID, target string, amount decimal.Decimal) (database.Bill, error)
}

// BillStore defines the database methods needed by bill read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type BillStore interface {
	ListBills(ctx context.Context) ([]database.Bill, error)
	ListBillItemsByBill(ctx context.Context, billID uuid.UUID) ([]database.BillItem, error)
	GetSalesSummary(ctx context.Context, arg database.GetSalesSummaryParams) (database.GetSalesSummaryRow, error)
	GetItemSales(ctx context.Context, limit int32) ([]database.GetItemSalesRow, error)
	GetPaymentTypeTotals(ctx context.Context, arg database.GetPaymentTypeTotalsParams) (database.GetPaymentTypeTotalsRow, error)
}

// BillHandler handles POS billing endpoints.
type BillHandler struct {
	svc   BillServicer
	store BillStore
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(svc BillServicer, store BillStore) *BillHandler {
	return &BillHandler{svc: svc, store: store}
}

// RegisterRoutes registers billing endpoints on the given Chi router.
// Expected to be mounted at /pos.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create-bill", h.Create)
	r.Get("/bills", h.List)
	r.Get("/sales/daily", h.DailySales)
	r.Get("/sales/monthly", h.MonthlySales)
	r.Get("/sales/range", h.SalesByRange)
	r.Get("/top-items", h.TopItems)
	r.Get("/items-sold", h.ItemsSold)
	r.Get("/payment-totals", h.PaymentTotals)
	r.Post("/transfer-credit", h.TransferCredit)
}

// --- Request / Response types ---

type createBillRequest struct {
	CustomerName    string             `json:"customerName"`
	CustomerContact string             `json:"customerContact"`
	PaymentMethod   string             `json:"paymentMethod"`
	OrderType       string             `json:"orderType"`
	Items           []orderItemRequest `json:"items"`
}

type transferCreditRequest struct {
	BillID string          `json:"billId"`
	Target string          `json:"target"`
	Amount decimal.Decimal `json:"amount"`
}

type billItemResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    string    `json:"price"`
	Quantity int32     `json:"quantity"`
}

type billResponse struct {
	ID              uuid.UUID          `json:"id"`
	TotalAmount     string             `json:"totalAmount"`
	Cash            string             `json:"cash"`
	Credit          string             `json:"credit"`
	Online          string             `json:"online"`
	PaymentMethod   string             `json:"paymentMethod"`
	OrderType       string             `json:"orderType"`
	CustomerName    string             `json:"customerName"`
	CustomerContact string             `json:"customerContact"`
	CreatedAt       time.Time          `json:"createdAt"`
	Items           []billItemResponse `json:"items,omitempty"`
}

type salesSummaryResponse struct {
	TotalSales  string `json:"totalSales"`
	TotalCash   string `json:"totalCash"`
	TotalOnline string `json:"totalOnline"`
	TotalCredit string `json:"totalCredit"`
	Orders      int64  `json:"orders"`
}

type itemSalesResponse struct {
	Name          string `json:"name"`
	TotalQuantity int64  `json:"totalQuantity"`
	TotalSales    string `json:"totalSales"`
}

type paymentTotalsResponse struct {
	TotalCash   string `json:"totalCash"`
	TotalCredit string `json:"totalCredit"`
	TotalOnline string `json:"totalOnline"`
}

// --- Handlers ---

// Create handles POST /pos/create-bill.
func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.CreateBill(r.Context(), service.CreateBillRequest{
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		PaymentMethod:   req.PaymentMethod,
		OrderType:       req.OrderType,
		Items:           toItemInputs(req.Items),
	})
	if err != nil {
		writeBillError(w, "create bill", err)
		return
	}

	resp := dbBillToResponse(result.Bill)
	resp.Items = dbBillItemsToResponses(result.Items)
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /pos/bills. Bills come back newest first with their
// items attached.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	bills, err := h.store.ListBills(r.Context())
	if err != nil {
		log.Printf("ERROR: list bills: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]billResponse, len(bills))
	for i, b := range bills {
		items, err := h.store.ListBillItemsByBill(r.Context(), b.ID)
		if err != nil {
			log.Printf("ERROR: list bill items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = dbBillToResponse(b)
		resp[i].Items = dbBillItemsToResponses(items)
	}

	writeJSON(w, http.StatusOK, resp)
}

// DailySales handles GET /pos/sales/daily.
func (h *BillHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	h.writeSummary(w, r, start, start.AddDate(0, 0, 1))
}

// MonthlySales handles GET /pos/sales/monthly.
func (h *BillHandler) MonthlySales(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	h.writeSummary(w, r, start, start.AddDate(0, 1, 0))
}

// SalesByRange handles GET /pos/sales/range?range=today|week|month|year.
func (h *BillHandler) SalesByRange(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var start time.Time
	switch r.URL.Query().Get("range") {
	case "today":
		start = midnight
	case "week":
		start = midnight.AddDate(0, 0, -int(now.Weekday()))
	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "year":
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid range, use today, week, month or year"})
		return
	}

	h.writeSummary(w, r, start, now)
}

// TopItems handles GET /pos/top-items. Returns the five best sellers by
// quantity.
func (h *BillHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	h.writeItemSales(w, r, 5)
}

// ItemsSold handles GET /pos/items-sold. Returns every item ever billed.
func (h *BillHandler) ItemsSold(w http.ResponseWriter, r *http.Request) {
	h.writeItemSales(w, r, 0)
}

// PaymentTotals handles GET /pos/payment-totals. Totals cover today only.
func (h *BillHandler) PaymentTotals(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	totals, err := h.store.GetPaymentTypeTotals(r.Context(), database.GetPaymentTypeTotalsParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: start.AddDate(0, 0, 1), Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: payment totals: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, paymentTotalsResponse{
		TotalCash:   numericToString(totals.TotalCash),
		TotalCredit: numericToString(totals.TotalCredit),
		TotalOnline: numericToString(totals.TotalOnline),
	})
}

// TransferCredit handles POST /pos/transfer-credit.
func (h *BillHandler) TransferCredit(w http.ResponseWriter, r *http.Request) {
	var req transferCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	billID, err := uuid.Parse(req.BillID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill ID"})
		return
	}

	bill, err := h.svc.TransferCredit(r.Context(), billID, req.Target, req.Amount)
	if err != nil {
		writeBillError(w, "transfer credit", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Credit transferred successfully",
		"bill":    dbBillToResponse(bill),
	})
}

// --- Helpers ---

func (h *BillHandler) writeSummary(w http.ResponseWriter, r *http.Request, start, end time.Time) {
	summary, err := h.store.GetSalesSummary(r.Context(), database.GetSalesSummaryParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: sales summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, salesSummaryResponse{
		TotalSales:  numericToString(summary.TotalSales),
		TotalCash:   numericToString(summary.TotalCash),
		TotalOnline: numericToString(summary.TotalOnline),
		TotalCredit: numericToString(summary.TotalCredit),
		Orders:      summary.Orders,
	})
}

func (h *BillHandler) writeItemSales(w http.ResponseWriter, r *http.Request, limit int32) {
	rows, err := h.store.GetItemSales(r.Context(), limit)
	if err != nil {
		log.Printf("ERROR: item sales: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]itemSalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = itemSalesResponse{
			Name:          row.Name,
			TotalQuantity: row.TotalQuantity,
			TotalSales:    numericToString(row.TotalSales),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeBillError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrBillNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrItemName),
		errors.Is(err, service.ErrItemQuantity),
		errors.Is(err, service.ErrItemPrice),
		errors.Is(err, service.ErrInvalidOrderType),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidTransferTarget),
		errors.Is(err, service.ErrInvalidTransferAmount),
		errors.Is(err, service.ErrInsufficientCredit):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func dbBillToResponse(b database.Bill) billResponse {
	return billResponse{
		ID:              b.ID,
		TotalAmount:     numericToString(b.TotalAmount),
		Cash:            numericToString(b.Cash),
		Credit:          numericToString(b.Credit),
		Online:          numericToString(b.Online),
		PaymentMethod:   b.PaymentMethod,
		OrderType:       b.OrderType,
		CustomerName:    b.CustomerName,
		CustomerContact: b.CustomerContact,
		CreatedAt:       b.CreatedAt,
	}
}

func dbBillItemsToResponses(items []database.BillItem) []billItemResponse {
	out := make([]billItemResponse, len(items))
	for i, it := range items {
		out[i] = billItemResponse{
			ID:       it.ID,
			Name:     it.Name,
			Price:    numericToString(it.Price),
			Quantity: it.Quantity,
		}
	}
	return out
}
