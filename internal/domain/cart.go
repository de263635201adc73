package domain

import "github.com/google/uuid"

// CartHeader is the per-user cart parent row. At most one exists per user;
// it is created lazily on the first add and deleted when emptied or
// converted into an order.
type CartHeader struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"userId"`
	CartTotal float64       `json:"cartTotal"`
	Details   []*CartDetail `json:"cartDetails,omitempty"`
}

// CartDetail is one line item. Price is a snapshot taken when the product
// was added (or re-added), not a live reference to the catalog price.
type CartDetail struct {
	ID           uuid.UUID `json:"id"`
	CartHeaderID uuid.UUID `json:"cartHeaderId"`
	ProductID    uuid.UUID `json:"productId"`
	Count        int       `json:"count"`
	Price        float64   `json:"price"`
	Product      *Product  `json:"product,omitempty"`
}

// Total recomputes the header total from its line items.
func (c *CartHeader) Total() float64 {
	var total float64
	for _, d := range c.Details {
		total += d.Price * float64(d.Count)
	}
	return total
}
