package entities

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateOrder    = errors.New("order already submitted")
	ErrAccessDenied      = errors.New("access denied")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

type PaymentMethod string

const (
	PaymentMethodBkash PaymentMethod = "bkash"
	PaymentMethodNagad PaymentMethod = "nagad"
	PaymentMethodCOD   PaymentMethod = "cod"
	PaymentMethodCard  PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBkash, PaymentMethodNagad, PaymentMethodCOD, PaymentMethodCard:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:    {OrderConfirmed: true, OrderCancelled: true},
	OrderConfirmed:  {OrderProcessing: true, OrderCancelled: true},
	OrderProcessing: {OrderShipped: true, OrderCancelled: true},
	OrderShipped:    {OrderDelivered: true},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// CanTransition reports whether the fulfillment status may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	return validNext[s][next]
}

// OrderItem is one cart line with name/image/price snapshotted at creation time,
// so later catalog edits do not change historical orders.
type OrderItem struct {
	ProductID string
	Name      LocalizedText
	Quantity  int
	UnitPrice int64
	Size      string
	Color     string
	Image     string
}

type ShippingAddress struct {
	Name       string
	Phone      string
	Division   string
	District   string
	Upazila    string
	Address    string
	PostalCode string
}

type Order struct {
	OrderID string
	UserID  string
	Items   []OrderItem

	TotalAmount int64
	Discount    int64
	ShippingFee int64
	FinalAmount int64
	Currency    string

	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	OrderStatus   OrderStatus

	TransactionID string
	PaymentRef    string
	PaidAmount    int64

	IdempotencyKey  string
	ShippingAddress ShippingAddress

	TrackingNumber    string
	Carrier           string
	EstimatedDelivery *time.Time
	Notes             string

	ReconciledAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecomputeFinal maintains the finalAmount invariant on every mutation.
func (o *Order) RecomputeFinal() {
	o.FinalAmount = o.TotalAmount - o.Discount + o.ShippingFee
}

// Confirmed reports whether the order reached the paid+confirmed combination
// that triggers inventory reconciliation.
func (o *Order) Confirmed() bool {
	return o.PaymentStatus == PaymentCompleted && o.OrderStatus == OrderConfirmed
}

// NewOrderID generates a human-readable order identifier of the form
// ORD-<unix-millis>-<3-digit-random>.
func NewOrderID() string {
	return fmt.Sprintf("ORD-%d-%03d", time.Now().UnixMilli(), rand.Intn(1000))
}
