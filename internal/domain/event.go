package domain

import "time"

const (
	TopicOrderEvents   = "order_events"
	TopicProductEvents = "product_events"

	EventOrderConfirmed = "OrderConfirmed"
	EventProductCreated = "ProductCreated"
	EventProductUpdated = "ProductUpdated"
	EventProductDeleted = "ProductDeleted"
)

type OrderItemEvent struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
}

type OrderConfirmedEvent struct {
	OrderID     string           `json:"order_id"`
	UserID      string           `json:"user_id"`
	Total       int64            `json:"total"`
	Items       []OrderItemEvent `json:"items"`
	ConfirmedAt time.Time        `json:"confirmed_at"`
}

type ProductEvent struct {
	ProductID string `json:"product_id"`
}
