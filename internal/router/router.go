package router

import (
	"log"
	"net/http"

	"github.com/dinehall-pos/api/internal/config"
	"github.com/dinehall-pos/api/internal/database"
	"github.com/dinehall-pos/api/internal/handler"
	mw "github.com/dinehall-pos/api/internal/middleware"
	"github.com/dinehall-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up. Guest-facing
// order and lookup routes stay public; staff operations sit behind JWT auth.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // admin console dev server
			"http://localhost:3000", // guest ordering pages dev server
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Services share one pattern: the pool begins transactions, the factory
	// builds a store over whatever DBTX the service hands it.
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	tableService := service.NewTableService(pool, func(db database.DBTX) service.TableStore {
		return database.New(db)
	})
	roomService := service.NewRoomService(pool, func(db database.DBTX) service.RoomStore {
		return database.New(db)
	})
	billService := service.NewBillService(pool, func(db database.DBTX) service.BillStore {
		return database.New(db)
	})

	orderHandler := handler.NewOrderHandler(orderService, queries)
	tableHandler := handler.NewTableHandler(tableService, queries, cfg.GuestOrderURL)
	roomHandler := handler.NewRoomHandler(roomService, queries, cfg.GuestOrderURL)
	billHandler := handler.NewBillHandler(billService, queries)

	// Guest ordering routes (public): place and grow orders from the QR
	// pages, look tables and rooms up, see availability.
	r.Route("/order", orderHandler.RegisterRoutes)

	r.Route("/table", func(r chi.Router) {
		r.Get("/totaldocuments", tableHandler.StatusCounts)
		r.Get("/{tableNumber}", tableHandler.GetByNumber)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Post("/createtable", tableHandler.Create)
			r.Get("/gettables", tableHandler.List)
			r.Get("/get-qrcodes", tableHandler.QRCodes)
			r.Put("/release/{tableNumber}", tableHandler.Release)
		})
	})

	r.Route("/room", func(r chi.Router) {
		r.Get("/status-counts", roomHandler.StatusCounts)
		r.Get("/{roomNumber}", roomHandler.GetByNumber)
		r.Post("/order/{roomNumber}", roomHandler.PlaceOrder)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			r.Post("/create", roomHandler.Create)
			r.Get("/getrooms", roomHandler.List)
			r.Put("/checkin/{roomNumber}", roomHandler.CheckIn)
			r.Put("/checkout/{roomNumber}", roomHandler.CheckOut)
			r.Delete("/delete/{roomId}", roomHandler.Delete)
		})
	})

	// POS routes (staff only)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Route("/pos", billHandler.RegisterRoutes)
	})

	log.Println("Router initialized with all handlers")
	return r
}
