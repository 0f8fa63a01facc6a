package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const roomColumns = `id, room_number, room_type, capacity, price_per_night,
	amenities, is_booked, current_order_id, check_in_date, check_out_date,
	qr_url, photo_urls, created_at`

func scanRoom(row interface{ Scan(dest ...any) error }) (Room, error) {
	var r Room
	err := row.Scan(
		&r.ID,
		&r.RoomNumber,
		&r.RoomType,
		&r.Capacity,
		&r.PricePerNight,
		&r.Amenities,
		&r.IsBooked,
		&r.CurrentOrderID,
		&r.CheckInDate,
		&r.CheckOutDate,
		&r.QrUrl,
		&r.PhotoUrls,
		&r.CreatedAt,
	)
	return r, err
}

const createRoom = `
INSERT INTO rooms (room_number, room_type, capacity, price_per_night, amenities, qr_url, photo_urls)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + roomColumns

type CreateRoomParams struct {
	RoomNumber    string
	RoomType      string
	Capacity      int32
	PricePerNight pgtype.Numeric
	Amenities     []string
	QrUrl         pgtype.Text
	PhotoUrls     []string
}

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	row := q.db.QueryRow(ctx, createRoom,
		arg.RoomNumber,
		arg.RoomType,
		arg.Capacity,
		arg.PricePerNight,
		arg.Amenities,
		arg.QrUrl,
		arg.PhotoUrls,
	)
	return scanRoom(row)
}

const getRoomByNumber = `
SELECT ` + roomColumns + `
FROM rooms
WHERE room_number = $1`

func (q *Queries) GetRoomByNumber(ctx context.Context, roomNumber string) (Room, error) {
	return scanRoom(q.db.QueryRow(ctx, getRoomByNumber, roomNumber))
}

const getRoomForUpdate = `
SELECT ` + roomColumns + `
FROM rooms
WHERE room_number = $1
FOR UPDATE`

func (q *Queries) GetRoomForUpdate(ctx context.Context, roomNumber string) (Room, error) {
	return scanRoom(q.db.QueryRow(ctx, getRoomForUpdate, roomNumber))
}

const getRoomByID = `
SELECT ` + roomColumns + `
FROM rooms
WHERE id = $1`

func (q *Queries) GetRoomByID(ctx context.Context, id uuid.UUID) (Room, error) {
	return scanRoom(q.db.QueryRow(ctx, getRoomByID, id))
}

const listRooms = `
SELECT ` + roomColumns + `
FROM rooms
ORDER BY room_number`

func (q *Queries) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := q.db.Query(ctx, listRooms)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

const checkInRoom = `
UPDATE rooms
SET is_booked = true, current_order_id = $2, check_in_date = now(), check_out_date = NULL
WHERE room_number = $1
RETURNING ` + roomColumns

type CheckInRoomParams struct {
	RoomNumber string
	OrderID    pgtype.UUID
}

func (q *Queries) CheckInRoom(ctx context.Context, arg CheckInRoomParams) (Room, error) {
	return scanRoom(q.db.QueryRow(ctx, checkInRoom, arg.RoomNumber, arg.OrderID))
}

const checkOutRoom = `
UPDATE rooms
SET is_booked = false, current_order_id = NULL, check_out_date = now()
WHERE room_number = $1
RETURNING ` + roomColumns

func (q *Queries) CheckOutRoom(ctx context.Context, roomNumber string) (Room, error) {
	return scanRoom(q.db.QueryRow(ctx, checkOutRoom, roomNumber))
}

// SetRoomCurrentOrder repoints the room at its latest room-service order
// without touching the stay booking.
const setRoomCurrentOrder = `
UPDATE rooms
SET current_order_id = $2
WHERE room_number = $1
RETURNING ` + roomColumns

type SetRoomCurrentOrderParams struct {
	RoomNumber string
	OrderID    uuid.UUID
}

func (q *Queries) SetRoomCurrentOrder(ctx context.Context, arg SetRoomCurrentOrderParams) (Room, error) {
	return scanRoom(q.db.QueryRow(ctx, setRoomCurrentOrder, arg.RoomNumber, arg.OrderID))
}

// DeleteRoomIfAvailable deletes in one statement so the booked-check cannot
// race a concurrent check-in. pgx.ErrNoRows means the room is missing or
// booked; callers fetch to tell the two apart.
const deleteRoomIfAvailable = `
DELETE FROM rooms
WHERE id = $1 AND NOT is_booked
RETURNING id`

func (q *Queries) DeleteRoomIfAvailable(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, deleteRoomIfAvailable, id).Scan(&deleted)
	return deleted, err
}

const countRoomsByBooking = `
SELECT
	COUNT(*)                              AS total,
	COUNT(*) FILTER (WHERE is_booked)     AS booked,
	COUNT(*) FILTER (WHERE NOT is_booked) AS available
FROM rooms`

type CountRoomsByBookingRow struct {
	Total     int64
	Booked    int64
	Available int64
}

func (q *Queries) CountRoomsByBooking(ctx context.Context) (CountRoomsByBookingRow, error) {
	var r CountRoomsByBookingRow
	err := q.db.QueryRow(ctx, countRoomsByBooking).Scan(&r.Total, &r.Booked, &r.Available)
	return r, err
}
