package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending    = "Pending"
	OrderStatusApproved   = "Approved"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusCancelled  = "Cancelled"
	OrderStatusRefunded   = "Refunded"
)

// Payment statuses.
const (
	PaymentStatusPending        = "Pending"
	PaymentStatusApproved       = "Approved"
	PaymentStatusDelayedPayment = "ApprovedForDelayedPayment"
	PaymentStatusRejected       = "Rejected"
	PaymentStatusCancelled      = "Cancelled"
	PaymentStatusRefunded       = "Refunded"
)

// PaymentDueIn is the deferred-billing window granted on order creation.
const PaymentDueIn = 30 * 24 * time.Hour

// orderTransitions is the legal order-status graph: Pending -> Approved ->
// Processing -> Shipped, with Cancelled reachable from any state before
// Shipped.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusApproved, OrderStatusCancelled},
	OrderStatusApproved:   {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderHeader is an order parent row, snapshotted from a cart at checkout.
// Orders are never deleted; cancellation is a status.
type OrderHeader struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"userId"`
	OrderDate       time.Time      `json:"orderDate"`
	ShippingDate    *time.Time     `json:"shippingDate,omitempty"`
	PaymentDate     *time.Time     `json:"paymentDate,omitempty"`
	PaymentDueDate  time.Time      `json:"paymentDueDate"`
	OrderTotal      float64        `json:"orderTotal"`
	OrderStatus     string         `json:"orderStatus"`
	PaymentStatus   string         `json:"paymentStatus"`
	TrackingNumber  string         `json:"trackingNumber,omitempty"`
	Carrier         string         `json:"carrier,omitempty"`
	SessionID       string         `json:"-"`
	PaymentIntentID string         `json:"-"`
	PhoneNumber     string         `json:"phoneNumber"`
	StreetAddress   string         `json:"streetAddress"`
	City            string         `json:"city"`
	State           string         `json:"state"`
	PostalCode      string         `json:"postalCode"`
	Name            string         `json:"name"`
	Details         []*OrderDetail `json:"orderDetails,omitempty"`
}

// OrderDetail is one order line item. Immutable once created.
type OrderDetail struct {
	ID            uuid.UUID `json:"id"`
	OrderHeaderID uuid.UUID `json:"orderHeaderId"`
	ProductID     uuid.UUID `json:"productId"`
	Count         int       `json:"count"`
	Price         float64   `json:"price"`
	Product       *Product  `json:"product,omitempty"`
}
