package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Order struct {
	ID                  uuid.UUID
	CustomerName        string
	OrderType           string
	TableNumber         pgtype.Text
	RoomNumber          pgtype.Text
	DeliveryAddress     pgtype.Text
	SpecialInstructions pgtype.Text
	PaymentMethod       string
	Subtotal            pgtype.Numeric
	Status              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	Name                string
	Quantity            int32
	Price               pgtype.Numeric
	SpecialInstructions pgtype.Text
	Position            int32
	CreatedAt           time.Time
}

// DiningTable is a bookable table. CurrentOrderID is a weak reference: it is
// a lookup key for the active order, never an ownership link.
type DiningTable struct {
	ID             uuid.UUID
	TableNumber    string
	IsBooked       bool
	CurrentOrderID pgtype.UUID
	QrUrl          pgtype.Text
	CreatedAt      time.Time
}

// Room mirrors DiningTable's booking shape and additionally carries stay
// metadata. Its is_booked flag tracks the stay (check-in to check-out), not
// the food order lifecycle.
type Room struct {
	ID             uuid.UUID
	RoomNumber     string
	RoomType       string
	Capacity       int32
	PricePerNight  pgtype.Numeric
	Amenities      []string
	IsBooked       bool
	CurrentOrderID pgtype.UUID
	CheckInDate    pgtype.Timestamptz
	CheckOutDate   pgtype.Timestamptz
	QrUrl          pgtype.Text
	PhotoUrls      []string
	CreatedAt      time.Time
}

// Bill is an independent point-of-sale record; it never references Order or
// DiningTable rows.
type Bill struct {
	ID              uuid.UUID
	TotalAmount     pgtype.Numeric
	Cash            pgtype.Numeric
	Credit          pgtype.Numeric
	Online          pgtype.Numeric
	PaymentMethod   string
	OrderType       string
	CustomerName    string
	CustomerContact string
	CreatedAt       time.Time
}

type BillItem struct {
	ID       uuid.UUID
	BillID   uuid.UUID
	Name     string
	Price    pgtype.Numeric
	Quantity int32
	Position int32
}

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	CreatedAt      time.Time
}
