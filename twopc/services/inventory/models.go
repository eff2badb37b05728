package main

import (
	"context"
	"time"
)

// Reservation representa uma reserva de estoque aguardando commit ou rollback
type Reservation struct {
	ReservationID string    `json:"reservation_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	ReservationStatusHeld = "held"
)

// ReserveRequest é o payload da fase de prepare
type ReserveRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// ReservationRequest é o payload de commit e rollback
type ReservationRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
}

// RefillRequest é o payload administrativo de reposição
type RefillRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// StockView é a visão de leitura de um produto
type StockView struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	Held      int    `json:"held"`
}

// Ack é a resposta de commit e rollback. Status "ignored" indica no-op
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	AckCommitted  = "committed"
	AckRolledBack = "rolled_back"
	AckIgnored    = "ignored"
)

// InventoryRepository define as operações do ledger de estoque
type InventoryRepository interface {
	// Gerenciamento de transação
	BeginTx(ctx context.Context) (Tx, error)

	// Leitura com o lock do ledger já adquirido
	GetAvailableForUpdate(ctx context.Context, tx Tx, productID string) (int, error)
	GetReservationForUpdate(ctx context.Context, tx Tx, reservationID string) (*Reservation, error)

	// PREPARE: debita o disponível e registra a reserva
	TryReserveStock(ctx context.Context, tx Tx, reservation *Reservation) error

	// COMMIT: descarta o registro da reserva, o estoque continua debitado
	CommitReservation(ctx context.Context, tx Tx, reservation *Reservation) error

	// ROLLBACK: devolve a quantidade reservada e remove o registro
	CancelReservation(ctx context.Context, tx Tx, reservation *Reservation) error

	// Crédito administrativo, fora do protocolo
	AddStock(ctx context.Context, tx Tx, productID string, quantity int) (int, error)

	GetStock(ctx context.Context, productID string) (*StockView, error)
}

// Tx representa uma transação do ledger
type Tx interface {
	Commit() error
	Rollback() error
}
