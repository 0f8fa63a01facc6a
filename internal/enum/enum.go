package enum

// --- Order lifecycle (CHECK constrained in DB) ---

const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in-progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusDelivered  = "delivered"
)

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusDelivered:
		return true
	}
	return false
}

// IsActiveOrderStatus reports whether an order in status s still holds its
// table. Only pending and in-progress orders keep a table booked.
func IsActiveOrderStatus(s string) bool {
	return s == OrderStatusPending || s == OrderStatusInProgress
}

// IsTerminalOrderStatus reports whether s admits no further transitions.
func IsTerminalOrderStatus(s string) bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusDelivered:
		return true
	}
	return false
}

const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeDelivery = "delivery"
	OrderTypeTakeaway = "takeaway"
)

func IsValidOrderType(s string) bool {
	switch s {
	case OrderTypeDineIn, OrderTypeDelivery, OrderTypeTakeaway:
		return true
	}
	return false
}

// --- Payment ---

// Guest order payment methods.
const (
	PaymentMethodCounter = "counter"
	PaymentMethodCard    = "card"
)

func IsValidPaymentMethod(s string) bool {
	return s == PaymentMethodCounter || s == PaymentMethodCard
}

// POS bill tender buckets. Credit is the deferred bucket; transfers move
// value from credit into cash or online only.
const (
	BillTenderCash   = "cash"
	BillTenderCredit = "credit"
	BillTenderOnline = "online"
)

// --- Users ---

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleCashier = "CASHIER"
)
