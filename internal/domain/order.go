package domain

import (
	"fmt"
	"math"
	"time"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// Order is immutable once stored. TotalSum is computed once, at creation.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	TotalSum  int64       `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem is a snapshot of the product at order creation.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

func (i OrderItem) Subtotal() (int64, error) {
	if i.Price < 0 || i.Quantity < 0 {
		return 0, fmt.Errorf("%w: negative price or quantity for product %s", ErrValidation, i.ProductID)
	}
	if i.Quantity != 0 && i.Price > math.MaxInt64/i.Quantity {
		return 0, fmt.Errorf("%w: product %s, %d x %d", ErrAmountOverflow, i.ProductID, i.Price, i.Quantity)
	}

	return i.Price * i.Quantity, nil
}

func (o *Order) CalculateTotal() error {
	total, err := SumItems(o.Items)
	if err != nil {
		return err
	}

	o.TotalSum = total
	return nil
}

func SumItems(items []OrderItem) (int64, error) {
	var total int64
	for _, item := range items {
		sub, err := item.Subtotal()
		if err != nil {
			return 0, err
		}
		if total > math.MaxInt64-sub {
			return 0, fmt.Errorf("%w: total of %d items", ErrAmountOverflow, len(items))
		}
		total += sub
	}
	return total, nil
}
