package main

import (
	"context"
	"time"
)

// Charge representa uma cobrança feita na fase de prepare
type Charge struct {
	ReservationID string    `json:"reservation_id"`
	Account       int       `json:"account"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	ChargeStatusCharged   = "charged"
	ChargeStatusCommitted = "committed"
)

// ChargeRequest é o payload da fase de prepare
type ChargeRequest struct {
	Account int     `json:"account" binding:"gte=0"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
}

// ReservationRequest é o payload de commit e reverse
type ReservationRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
}

// Ack é a resposta de commit e reverse
type Ack struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Charge  *Charge `json:"-"`
}

const (
	AckCommitted = "committed"
	AckReversed  = "reversed"
	AckIgnored   = "ignored"
)

// PaymentRepository define as operações do ledger de pagamentos
type PaymentRepository interface {
	BeginTx(ctx context.Context) (Tx, error)

	GetOutstandingForUpdate(ctx context.Context, tx Tx, account int) (float64, error)
	GetChargeForUpdate(ctx context.Context, tx Tx, reservationID string) (*Charge, error)

	// PREPARE: registra a cobrança e soma ao saldo devedor da conta
	CreateCharge(ctx context.Context, tx Tx, charge *Charge) error

	// COMMIT: só marca a cobrança, o valor já foi debitado
	MarkCommitted(ctx context.Context, tx Tx, reservationID string) error

	// ROLLBACK: remove a cobrança e o valor do saldo devedor
	DeleteCharge(ctx context.Context, tx Tx, charge *Charge) error

	GetCharge(ctx context.Context, reservationID string) (*Charge, error)
}

// Tx representa uma transação do ledger
type Tx interface {
	Commit() error
	Rollback() error
}
