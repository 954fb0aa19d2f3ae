package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrder_CalculateTotal(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{ProductID: "p1", Price: 10, Quantity: 5},
		{ProductID: "p2", Price: 250, Quantity: 2},
		{ProductID: "p3", Price: 0, Quantity: 7},
	}}

	require.NoError(t, order.CalculateTotal())
	require.EqualValues(t, 550, order.TotalSum)

	empty := &Order{}
	require.NoError(t, empty.CalculateTotal())
	require.Zero(t, empty.TotalSum)
}

func TestOrderItem_SubtotalOverflow(t *testing.T) {
	_, err := OrderItem{ProductID: "p1", Price: 2, Quantity: math.MaxInt64/2 + 1}.Subtotal()
	require.ErrorIs(t, err, ErrAmountOverflow)
	require.ErrorIs(t, err, ErrValidation)

	sub, err := OrderItem{ProductID: "p1", Price: 1, Quantity: math.MaxInt64}.Subtotal()
	require.NoError(t, err)
	require.EqualValues(t, int64(math.MaxInt64), sub)
}

func TestSumItems_Overflow(t *testing.T) {
	_, err := SumItems([]OrderItem{
		{ProductID: "p1", Price: 1, Quantity: math.MaxInt64},
		{ProductID: "p2", Price: 1, Quantity: 1},
	})
	require.ErrorIs(t, err, ErrAmountOverflow)

	order := &Order{TotalSum: 7, Items: []OrderItem{
		{ProductID: "p1", Price: math.MaxInt64, Quantity: 1},
		{ProductID: "p2", Price: math.MaxInt64, Quantity: 1},
	}}
	require.ErrorIs(t, order.CalculateTotal(), ErrAmountOverflow)
	require.EqualValues(t, 7, order.TotalSum)
}

func TestProduct_Available(t *testing.T) {
	p := &Product{StockQuantity: 3}
	require.True(t, p.Available(3))
	require.False(t, p.Available(4))
}
