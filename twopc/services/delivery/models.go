package main

import (
	"context"
	"time"
)

// Delivery representa uma janela de entrega reservada
type Delivery struct {
	ReservationID string    `json:"reservation_id"`
	Address       string    `json:"address"`
	ETA           string    `json:"eta"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	DeliveryStatusScheduled = "scheduled"
	DeliveryStatusConfirmed = "confirmed"
)

// deliveryLeadTime é o prazo entre o agendamento e a entrega
const deliveryLeadTime = 5 * 24 * time.Hour

// ScheduleRequest é o payload da fase de prepare
type ScheduleRequest struct {
	Address string `json:"address" binding:"required"`
}

// ReservationRequest é o payload de confirm e rollback
type ReservationRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
}

type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	AckRolledBack = "rolled_back"
	AckIgnored    = "ignored"
)

// DeliveryRepository define as operações da agenda de entregas
type DeliveryRepository interface {
	BeginTx(ctx context.Context) (Tx, error)

	CountActiveForUpdate(ctx context.Context, tx Tx) (int, error)
	GetDeliveryForUpdate(ctx context.Context, tx Tx, reservationID string) (*Delivery, error)

	CreateDelivery(ctx context.Context, tx Tx, delivery *Delivery) error
	UpdateDelivery(ctx context.Context, tx Tx, delivery *Delivery) error
	DeleteDelivery(ctx context.Context, tx Tx, reservationID string) error

	GetDelivery(ctx context.Context, reservationID string) (*Delivery, error)
}

// Tx representa uma transação da agenda
type Tx interface {
	Commit() error
	Rollback() error
}
