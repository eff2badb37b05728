package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	// Arrange
	req := CreateOrderRequest{Address: "Rua A", Product: "sku1", Quantity: 2, Price: 30}

	// Act
	order := NewOrder("order-123", req, 10)

	// Assert
	assert.Equal(t, "order-123", order.OrderID)
	assert.Equal(t, "Rua A", order.Address)
	assert.Equal(t, "sku1", order.Product)
	assert.Equal(t, 2, order.Quantity)
	assert.Equal(t, 30.0, order.Price)
	assert.Equal(t, 10, order.Account)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.WithinDuration(t, time.Now(), order.CreatedAt, time.Second)
	assert.Equal(t, order.CreatedAt, order.UpdatedAt)
}

func TestOrder_ResolvesExactlyOnce(t *testing.T) {
	order := NewOrder("o1", CreateOrderRequest{}, 10)

	require.NoError(t, order.Commit())
	assert.Equal(t, OrderStatusCommitted, order.Status)

	assert.ErrorIs(t, order.Commit(), errOrderNotPending)
	assert.ErrorIs(t, order.Abort([]string{"late"}), errOrderNotPending)
	assert.Equal(t, OrderStatusCommitted, order.Status)
	assert.Empty(t, order.Reasons)
}

func TestOrder_AbortKeepsReasons(t *testing.T) {
	order := NewOrder("o1", CreateOrderRequest{}, 10)

	require.NoError(t, order.Abort([]string{"inventory rejected", "payment unreachable"}))

	assert.Equal(t, OrderStatusAborted, order.Status)
	assert.Equal(t, []string{"inventory rejected", "payment unreachable"}, order.Reasons)
	assert.ErrorIs(t, order.Commit(), errOrderNotPending)
}

func TestOrderStatus(t *testing.T) {
	assert.Equal(t, "pending", OrderStatusPending)
	assert.Equal(t, "committed", OrderStatusCommitted)
	assert.Equal(t, "aborted", OrderStatusAborted)
}

func TestNewOrderResponse(t *testing.T) {
	order := NewOrder("o1", CreateOrderRequest{Address: "Rua A", Product: "sku1", Quantity: 1, Price: 9.5}, 10)
	require.NoError(t, order.Abort([]string{"no stock"}))

	resp := NewOrderResponse(order)

	assert.Equal(t, OrderResponse{
		OrderID: "o1",
		Outcome: OrderStatusAborted,
		Product: "sku1",
		Price:   9.5,
		Address: "Rua A",
		Reasons: []string{"no stock"},
	}, resp)
}
