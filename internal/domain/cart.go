package domain

import "time"

// CartItem is one line of a user's cart. Price is resolved at checkout, the
// cart only remembers what and how many.
type CartItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
