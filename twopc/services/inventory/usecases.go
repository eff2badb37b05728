package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
)

// InventoryUseCase encapsula a lógica de negócio de inventário
type InventoryUseCase struct {
	repository InventoryRepository
}

// NewInventoryUseCase cria uma nova instância do caso de uso
func NewInventoryUseCase(repository InventoryRepository) *InventoryUseCase {
	return &InventoryUseCase{
		repository: repository,
	}
}

// Reserve fase PREPARE - reserva quantity unidades do produto.
// A reserva só é aceita com available > quantity: pedir exatamente o
// disponível falha.
func (uc *InventoryUseCase) Reserve(ctx context.Context, req ReserveRequest) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "inventory.Reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("inventory.product_id", req.ProductID),
		attribute.Int("inventory.quantity", req.Quantity),
	)
	logger := logging.Ctx(ctx)

	if req.Quantity <= 0 {
		span.RecordError(ErrInvalidQuantity)
		return nil, ErrInvalidQuantity
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	available, err := uc.repository.GetAvailableForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if available <= req.Quantity {
		logger.Warn().
			Str("product_id", req.ProductID).
			Int("available", available).
			Int("requested", req.Quantity).
			Msg("❌ [RESERVE] insufficient stock")
		err := errors.Wrapf(ErrInsufficientStock, "not enough quantity of item %s (current qty: %d)", req.ProductID, available)
		span.RecordError(err)
		span.SetStatus(codes.Error, "insufficient stock")
		return nil, err
	}

	reservation := &Reservation{
		ReservationID: uuid.New().String(),
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		Status:        ReservationStatusHeld,
		CreatedAt:     time.Now(),
	}

	if err := uc.repository.TryReserveStock(ctx, tx, reservation); err != nil {
		logger.Error().Err(err).Msg("❌ [RESERVE] failed to reserve stock")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("inventory.reservation_id", reservation.ReservationID))
	logger.Info().
		Str("reservation_id", reservation.ReservationID).
		Str("product_id", req.ProductID).
		Int("quantity", req.Quantity).
		Int("available", available-req.Quantity).
		Msg("✅ [RESERVE] stock reserved")
	return reservation, nil
}

// Commit fase COMMIT - a reserva vira consumo definitivo. Idempotente:
// reserva desconhecida (ou já finalizada) é ignorada.
func (uc *InventoryUseCase) Commit(ctx context.Context, reservationID string) (*Ack, error) {
	ctx, span := tracer.Start(ctx, "inventory.Commit")
	defer span.End()
	span.SetAttributes(attribute.String("inventory.reservation_id", reservationID))
	logger := logging.Ctx(ctx)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reservation, err := uc.repository.GetReservationForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}

	// nada para confirmar
	if reservation == nil {
		logger.Info().Str("reservation_id", reservationID).Msg("ℹ️ [COMMIT] unknown reservation, command ignored")
		return &Ack{Status: AckIgnored, Message: fmt.Sprintf("Reservation %s not registered. Command ignored!", reservationID)}, nil
	}

	if err := uc.repository.CommitReservation(ctx, tx, reservation); err != nil {
		logger.Error().Err(err).Msg("❌ [COMMIT] failed to commit reservation")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Info().Str("reservation_id", reservationID).Str("product_id", reservation.ProductID).Msg("✅ [COMMIT] reservation committed")
	return &Ack{
		Status:  AckCommitted,
		Message: fmt.Sprintf("Committed %d items of %s", reservation.Quantity, reservation.ProductID),
	}, nil
}

// Rollback fase ROLLBACK - devolve exatamente a quantidade reservada.
// Idempotente: reserva desconhecida (ou já finalizada) é ignorada.
func (uc *InventoryUseCase) Rollback(ctx context.Context, reservationID string) (*Ack, error) {
	ctx, span := tracer.Start(ctx, "inventory.Rollback")
	defer span.End()
	span.SetAttributes(attribute.String("inventory.reservation_id", reservationID))
	logger := logging.Ctx(ctx)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reservation, err := uc.repository.GetReservationForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}

	if reservation == nil {
		logger.Info().Str("reservation_id", reservationID).Msg("ℹ️ [ROLLBACK] unknown reservation, command ignored")
		return &Ack{Status: AckIgnored, Message: fmt.Sprintf("Reservation %s not registered. Command ignored!", reservationID)}, nil
	}

	if err := uc.repository.CancelReservation(ctx, tx, reservation); err != nil {
		logger.Error().Err(err).Msg("❌ [ROLLBACK] failed to release stock")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("reservation_id", reservationID).
		Str("product_id", reservation.ProductID).
		Int("quantity", reservation.Quantity).
		Msg("♻️ [ROLLBACK] stock released")
	return &Ack{
		Status:  AckRolledBack,
		Message: fmt.Sprintf("Released %d items of %s", reservation.Quantity, reservation.ProductID),
	}, nil
}

// Refill credita estoque administrativamente; não participa do protocolo
func (uc *InventoryUseCase) Refill(ctx context.Context, req RefillRequest) (*StockView, error) {
	ctx, span := tracer.Start(ctx, "inventory.Refill")
	defer span.End()
	span.SetAttributes(
		attribute.String("inventory.product_id", req.ProductID),
		attribute.Int("inventory.quantity", req.Quantity),
	)

	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	available, err := uc.repository.AddStock(ctx, tx, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("product_id", req.ProductID).Int("added", req.Quantity).Int("available", available).Msg("📦 [REFILL] stock added")
	return uc.repository.GetStock(ctx, req.ProductID)
}

// GetStock retorna a visão atual do produto
func (uc *InventoryUseCase) GetStock(ctx context.Context, productID string) (*StockView, error) {
	return uc.repository.GetStock(ctx, productID)
}

// Erros customizados
var (
	ErrInsufficientStock = &InventoryError{Message: "insufficient stock"}
	ErrInvalidQuantity   = &InventoryError{Message: "quantity must be greater than 0"}
)

type InventoryError struct {
	Message string
}

func (e *InventoryError) Error() string {
	return e.Message
}
