package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Order representa um pedido e o registro de auditoria do 2PC
type Order struct {
	OrderID         string    `json:"order_id"`
	Address         string    `json:"address"`
	Product         string    `json:"product"`
	Quantity        int       `json:"quantity"`
	Price           float64   `json:"price"`
	Account         int       `json:"account"`
	Status          string    `json:"status"`
	Reasons         []string  `json:"reasons,omitempty"`
	Inconsistencies []string  `json:"inconsistencies,omitempty"`
	Votes           []Vote    `json:"votes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Vote é o resultado do prepare de um participante
type Vote struct {
	Participant   string `json:"participant"`
	Prepared      bool   `json:"prepared"`
	ReservationID string `json:"reservation_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// OrderStatus representa os possíveis status de um pedido
const (
	OrderStatusPending   = "pending"
	OrderStatusCommitted = "committed"
	OrderStatusAborted   = "aborted"
)

var errOrderNotPending = errors.New("only pending orders can be resolved")

// NewOrder cria um pedido pendente a partir da requisição
func NewOrder(id string, req CreateOrderRequest, account int) *Order {
	now := time.Now()
	return &Order{
		OrderID:   id,
		Address:   req.Address,
		Product:   req.Product,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Account:   account,
		Status:    OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (o *Order) Commit() error {
	if o.Status != OrderStatusPending {
		return errOrderNotPending
	}
	o.Status = OrderStatusCommitted
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) Abort(reasons []string) error {
	if o.Status != OrderStatusPending {
		return errOrderNotPending
	}
	o.Status = OrderStatusAborted
	o.Reasons = append(o.Reasons, reasons...)
	o.UpdatedAt = time.Now()
	return nil
}

// CreateOrderRequest representa a requisição de criação de pedido
type CreateOrderRequest struct {
	Address  string  `json:"address"`
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Account  *int    `json:"account,omitempty"`
}

// OrderResponse é a resposta síncrona de POST /api/orders
type OrderResponse struct {
	OrderID         string   `json:"order_id"`
	Outcome         string   `json:"outcome"`
	Product         string   `json:"product"`
	Price           float64  `json:"price"`
	Address         string   `json:"address"`
	Reasons         []string `json:"reasons,omitempty"`
	Inconsistencies []string `json:"inconsistencies,omitempty"`
}

func NewOrderResponse(order *Order) OrderResponse {
	return OrderResponse{
		OrderID:         order.OrderID,
		Outcome:         order.Status,
		Product:         order.Product,
		Price:           order.Price,
		Address:         order.Address,
		Reasons:         order.Reasons,
		Inconsistencies: order.Inconsistencies,
	}
}

// OrderRepository define as operações de persistência de pedidos
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	UpdateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}
