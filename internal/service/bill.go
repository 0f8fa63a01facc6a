package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dinehall-pos/api/internal/database"
	"github.com/dinehall-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	ErrBillNotFound          = errors.New("bill not found")
	ErrInvalidTransferTarget = errors.New("transfer target must be cash or online")
	ErrInvalidTransferAmount = errors.New("transfer amount must be a positive number")
	ErrInsufficientCredit    = errors.New("transfer amount exceeds remaining credit")
)

// BillStore defines the DB methods needed for bill writes.
type BillStore interface {
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	CreateBillItem(ctx context.Context, arg database.CreateBillItemParams) (database.BillItem, error)
	GetBillForUpdate(ctx context.Context, id uuid.UUID) (database.Bill, error)
	UpdateBillAllocation(ctx context.Context, arg database.UpdateBillAllocationParams) (database.Bill, error)
}

// NewBillStore creates a BillStore from a DBTX (pool or tx).
type NewBillStore func(db database.DBTX) BillStore

// CreateBillRequest is the input for recording a settled POS bill. The total
// and the cash/credit/online split are recomputed server-side from the items
// and the payment method.
type CreateBillRequest struct {
	CustomerName    string
	CustomerContact string
	PaymentMethod   string
	OrderType       string
	Items           []OrderItemInput
}

// BillResult is a bill with its line items.
type BillResult struct {
	Bill  database.Bill
	Items []database.BillItem
}

// BillService records settled bills and moves money between tender buckets.
type BillService struct {
	pool     TxBeginner
	newStore NewBillStore
}

// NewBillService creates a new BillService.
func NewBillService(pool TxBeginner, newStore NewBillStore) *BillService {
	return &BillService{pool: pool, newStore: newStore}
}

// CreateBill validates the cart, totals it, and writes the bill with its
// items in one transaction. The full amount lands in the bucket named by the
// payment method; card payments start as credit and can be re-allocated
// later with TransferCredit.
func (s *BillService) CreateBill(ctx context.Context, req CreateBillRequest) (*BillResult, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enum.BillTenderCash
	}
	switch paymentMethod {
	case enum.BillTenderCash, enum.BillTenderCredit, enum.BillTenderOnline:
	default:
		return nil, ErrInvalidPaymentMethod
	}

	orderType := req.OrderType
	if orderType == "" {
		orderType = enum.OrderTypeDineIn
	}
	if !enum.IsValidOrderType(orderType) {
		return nil, ErrInvalidOrderType
	}

	customerName := req.CustomerName
	if customerName == "" {
		customerName = "Guest"
	}

	total := itemsSubtotal(req.Items)
	cash, credit, online := decimal.Zero, decimal.Zero, decimal.Zero
	switch paymentMethod {
	case enum.BillTenderCash:
		cash = total
	case enum.BillTenderCredit:
		credit = total
	case enum.BillTenderOnline:
		online = total
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	bill, err := store.CreateBill(ctx, database.CreateBillParams{
		TotalAmount:     decimalToNumeric(total),
		Cash:            decimalToNumeric(cash),
		Credit:          decimalToNumeric(credit),
		Online:          decimalToNumeric(online),
		PaymentMethod:   paymentMethod,
		OrderType:       orderType,
		CustomerName:    customerName,
		CustomerContact: req.CustomerContact,
	})
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	items := make([]database.BillItem, 0, len(req.Items))
	for i, in := range req.Items {
		item, err := store.CreateBillItem(ctx, database.CreateBillItemParams{
			BillID:   bill.ID,
			Name:     in.Name,
			Price:    decimalToNumeric(in.Price),
			Quantity: in.Quantity,
			Position: int32(i + 1),
		})
		if err != nil {
			return nil, fmt.Errorf("create bill item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &BillResult{Bill: bill, Items: items}, nil
}

// TransferCredit moves part of a bill's outstanding credit into the cash or
// online bucket. The bill row is locked so two concurrent transfers cannot
// both drain the same credit.
func (s *BillService) TransferCredit(ctx context.Context, billID uuid.UUID, target string, amount decimal.Decimal) (database.Bill, error) {
	if target != enum.BillTenderCash && target != enum.BillTenderOnline {
		return database.Bill{}, ErrInvalidTransferTarget
	}
	if !amount.IsPositive() {
		return database.Bill{}, ErrInvalidTransferAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Bill{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	bill, err := store.GetBillForUpdate(ctx, billID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Bill{}, ErrBillNotFound
		}
		return database.Bill{}, fmt.Errorf("get bill: %w", err)
	}

	credit := numericToDecimal(bill.Credit)
	if amount.GreaterThan(credit) {
		return database.Bill{}, ErrInsufficientCredit
	}

	cash := numericToDecimal(bill.Cash)
	online := numericToDecimal(bill.Online)
	switch target {
	case enum.BillTenderCash:
		cash = cash.Add(amount)
	case enum.BillTenderOnline:
		online = online.Add(amount)
	}

	updated, err := store.UpdateBillAllocation(ctx, database.UpdateBillAllocationParams{
		ID:     billID,
		Cash:   decimalToNumeric(cash),
		Credit: decimalToNumeric(credit.Sub(amount)),
		Online: decimalToNumeric(online),
	})
	if err != nil {
		return database.Bill{}, fmt.Errorf("update bill allocation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Bill{}, fmt.Errorf("commit tx: %w", err)
	}

	return updated, nil
}
