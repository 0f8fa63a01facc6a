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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// TableServicer defines the service methods needed by table handlers.
type TableServicer interface {
	Release(ctx context.Context, tableNumber string) (database.DiningTable, error)
}

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	CreateDiningTable(ctx context.Context, arg database.CreateDiningTableParams) (database.DiningTable, error)
	GetTableByNumber(ctx context.Context, tableNumber string) (database.DiningTable, error)
	ListTables(ctx context.Context) ([]database.DiningTable, error)
	CountTablesByBooking(ctx context.Context) (database.CountTablesByBookingRow, error)
	ListTableQRCodes(ctx context.Context) ([]database.ListTableQRCodesRow, error)
}

// TableHandler handles dining table endpoints.
type TableHandler struct {
	svc           TableServicer
	store         TableStore
	guestOrderURL string
}

// NewTableHandler creates a new TableHandler. guestOrderURL is the guest
// ordering page each table's QR code points at.
func NewTableHandler(svc TableServicer, store TableStore, guestOrderURL string) *TableHandler {
	return &TableHandler{svc: svc, store: store, guestOrderURL: guestOrderURL}
}

// RegisterRoutes registers table endpoints on the given Chi router.
// Expected to be mounted at /table.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Post("/createtable", h.Create)
	r.Get("/gettables", h.List)
	r.Get("/totaldocuments", h.StatusCounts)
	r.Get("/get-qrcodes", h.QRCodes)
	r.Get("/{tableNumber}", h.GetByNumber)
	r.Put("/release/{tableNumber}", h.Release)
}

// --- Request / Response types ---

type createTableRequest struct {
	TableNumber string `json:"tableNumber"`
}

type tableResponse struct {
	ID             uuid.UUID  `json:"id"`
	TableNumber    string     `json:"tableNumber"`
	IsBooked       bool       `json:"isBooked"`
	CurrentOrderID *uuid.UUID `json:"currentOrderId"`
	QrUrl          *string    `json:"qrUrl"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type statusCountsResponse struct {
	Total     int64 `json:"total"`
	Booked    int64 `json:"booked"`
	Available int64 `json:"available"`
}

type qrCodeResponse struct {
	TableNumber string  `json:"tableNumber"`
	QrUrl       *string `json:"qrUrl"`
}

// --- Handlers ---

// Create handles POST /table/createtable.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tableNumber is required"})
		return
	}

	qrURL := h.guestOrderURL + "?table=" + url.QueryEscape(req.TableNumber)
	table, err := h.store.CreateDiningTable(r.Context(), database.CreateDiningTableParams{
		TableNumber: req.TableNumber,
		QrUrl:       pgtype.Text{String: qrURL, Valid: true},
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Table already exists"})
			return
		}
		log.Printf("ERROR: create table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, dbTableToResponse(table))
}

// List handles GET /table/gettables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = dbTableToResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusCounts handles GET /table/totaldocuments.
func (h *TableHandler) StatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountTablesByBooking(r.Context())
	if err != nil {
		log.Printf("ERROR: count tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, statusCountsResponse{
		Total:     counts.Total,
		Booked:    counts.Booked,
		Available: counts.Available,
	})
}

// QRCodes handles GET /table/get-qrcodes.
func (h *TableHandler) QRCodes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListTableQRCodes(r.Context())
	if err != nil {
		log.Printf("ERROR: list qr codes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]qrCodeResponse, len(rows))
	for i, row := range rows {
		resp[i] = qrCodeResponse{TableNumber: row.TableNumber}
		if row.QrUrl.Valid {
			resp[i].QrUrl = &row.QrUrl.String
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetByNumber handles GET /table/{tableNumber}.
func (h *TableHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	tableNumber := chi.URLParam(r, "tableNumber")

	table, err := h.store.GetTableByNumber(r.Context(), tableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbTableToResponse(table))
}

// Release handles PUT /table/release/{tableNumber}.
func (h *TableHandler) Release(w http.ResponseWriter, r *http.Request) {
	tableNumber := chi.URLParam(r, "tableNumber")

	table, err := h.svc.Release(r.Context(), tableNumber)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTableNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrTableNotBooked),
			errors.Is(err, service.ErrOrderNotCompleted):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: release table: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Table released successfully",
		"table":   dbTableToResponse(table),
	})
}

// --- Helpers ---

func dbTableToResponse(t database.DiningTable) tableResponse {
	resp := tableResponse{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		IsBooked:    t.IsBooked,
		CreatedAt:   t.CreatedAt,
	}
	if t.CurrentOrderID.Valid {
		id := uuid.UUID(t.CurrentOrderID.Bytes)
		resp.CurrentOrderID = &id
	}
	if t.QrUrl.Valid {
		resp.QrUrl = &t.QrUrl.String
	}
	return resp
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
