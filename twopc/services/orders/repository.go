package main

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrOrderNotFound = errors.New("order not found")

// MemoryOrderRepository guarda os pedidos enquanto o processo estiver vivo
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*Order)}
}

func (r *MemoryOrderRepository) CreateOrder(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.OrderID]; exists {
		return errors.Errorf("order %s already exists", order.OrderID)
	}
	r.orders[order.OrderID] = cloneOrder(order)
	return nil
}

func (r *MemoryOrderRepository) UpdateOrder(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.OrderID]; !exists {
		return errors.Wrapf(ErrOrderNotFound, "update order %s", order.OrderID)
	}
	r.orders[order.OrderID] = cloneOrder(order)
	return nil
}

func (r *MemoryOrderRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[orderID]
	if !exists {
		return nil, errors.Wrapf(ErrOrderNotFound, "order %s", orderID)
	}
	return cloneOrder(order), nil
}

func cloneOrder(order *Order) *Order {
	copied := *order
	copied.Reasons = append([]string(nil), order.Reasons...)
	copied.Inconsistencies = append([]string(nil), order.Inconsistencies...)
	copied.Votes = append([]Vote(nil), order.Votes...)
	return &copied
}
