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

// PaymentUseCase encapsula a lógica de negócio de pagamentos
type PaymentUseCase struct {
	repository  PaymentRepository
	creditLimit float64
}

// NewPaymentUseCase cria uma nova instância do caso de uso. creditLimit <= 0
// desliga a checagem de limite.
func NewPaymentUseCase(repository PaymentRepository, creditLimit float64) *PaymentUseCase {
	return &PaymentUseCase{
		repository:  repository,
		creditLimit: creditLimit,
	}
}

// Charge fase PREPARE - registra a cobrança
func (uc *PaymentUseCase) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	ctx, span := tracer.Start(ctx, "payment.Charge")
	defer span.End()
	span.SetAttributes(
		attribute.Int("payment.account", req.Account),
		attribute.Float64("payment.amount", req.Amount),
	)
	logger := logging.Ctx(ctx)

	if req.Amount <= 0 {
		span.RecordError(ErrInvalidAmount)
		return nil, ErrInvalidAmount
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if uc.creditLimit > 0 {
		outstanding, err := uc.repository.GetOutstandingForUpdate(ctx, tx, req.Account)
		if err != nil {
			return nil, err
		}
		// o limite nunca é alcançado, como o estoque
		if outstanding+req.Amount >= uc.creditLimit {
			logger.Warn().
				Int("account", req.Account).
				Float64("outstanding", outstanding).
				Float64("amount", req.Amount).
				Msg("❌ [CHARGE] credit limit exceeded")
			err := errors.Wrapf(ErrInsufficientFunds, "account %d cannot be charged %.2f (outstanding: %.2f, limit: %.2f)",
				req.Account, req.Amount, outstanding, uc.creditLimit)
			span.RecordError(err)
			span.SetStatus(codes.Error, "insufficient funds")
			return nil, err
		}
	}

	charge := &Charge{
		ReservationID: uuid.New().String(),
		Account:       req.Account,
		Amount:        req.Amount,
		Status:        ChargeStatusCharged,
		CreatedAt:     time.Now(),
	}

	if err := uc.repository.CreateCharge(ctx, tx, charge); err != nil {
		logger.Error().Err(err).Msg("❌ [CHARGE] failed to store charge")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("payment.reservation_id", charge.ReservationID))
	logger.Info().
		Str("reservation_id", charge.ReservationID).
		Int("account", charge.Account).
		Float64("amount", charge.Amount).
		Msg("💳 [CHARGE] payment registered")
	return charge, nil
}

// Commit fase COMMIT - nada a fazer além de marcar a cobrança
func (uc *PaymentUseCase) Commit(ctx context.Context, reservationID string) (*Ack, error) {
	ctx, span := tracer.Start(ctx, "payment.Commit")
	defer span.End()
	span.SetAttributes(attribute.String("payment.reservation_id", reservationID))
	logger := logging.Ctx(ctx)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	charge, err := uc.repository.GetChargeForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		logger.Info().Str("reservation_id", reservationID).Msg("ℹ️ [COMMIT] unknown payment, command ignored")
		return &Ack{Status: AckIgnored, Message: notRegistered(reservationID)}, nil
	}

	if err := uc.repository.MarkCommitted(ctx, tx, reservationID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Info().Str("reservation_id", reservationID).Msg("✅ [COMMIT] payment committed")
	charge.Status = ChargeStatusCommitted
	return &Ack{
		Status:  AckCommitted,
		Message: fmt.Sprintf("Payment %s committed", reservationID),
		Charge:  charge,
	}, nil
}

// Reverse fase ROLLBACK - desfaz a cobrança. Cobranças já confirmadas e
// reservas desconhecidas são ignoradas.
func (uc *PaymentUseCase) Reverse(ctx context.Context, reservationID string) (*Ack, error) {
	ctx, span := tracer.Start(ctx, "payment.Reverse")
	defer span.End()
	span.SetAttributes(attribute.String("payment.reservation_id", reservationID))
	logger := logging.Ctx(ctx)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	charge, err := uc.repository.GetChargeForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		logger.Info().Str("reservation_id", reservationID).Msg("ℹ️ [REVERSE] unknown payment, command ignored")
		return &Ack{Status: AckIgnored, Message: notRegistered(reservationID)}, nil
	}
	if charge.Status == ChargeStatusCommitted {
		logger.Warn().Str("reservation_id", reservationID).Msg("⚠️ [REVERSE] payment already committed, command ignored")
		return &Ack{Status: AckIgnored, Message: fmt.Sprintf("Payment %s already committed. Command ignored!", reservationID)}, nil
	}

	if err := uc.repository.DeleteCharge(ctx, tx, charge); err != nil {
		logger.Error().Err(err).Msg("❌ [REVERSE] failed to reverse payment")
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("reservation_id", reservationID).
		Int("account", charge.Account).
		Float64("amount", charge.Amount).
		Msg("♻️ [REVERSE] payment reversed")
	return &Ack{
		Status:  AckReversed,
		Message: fmt.Sprintf("Payment %s reversed", reservationID),
		Charge:  charge,
	}, nil
}

// GetCharge busca uma cobrança pelo id
func (uc *PaymentUseCase) GetCharge(ctx context.Context, reservationID string) (*Charge, error) {
	charge, err := uc.repository.GetCharge(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, ErrChargeNotFound
	}
	return charge, nil
}

func notRegistered(reservationID string) string {
	return fmt.Sprintf("Payment %s not registered. Command ignored!", reservationID)
}

// Erros customizados
var (
	ErrInsufficientFunds = &PaymentError{Message: "insufficient funds"}
	ErrInvalidAmount     = &PaymentError{Message: "amount must be greater than 0"}
	ErrChargeNotFound    = &PaymentError{Message: "payment not found"}
)

type PaymentError struct {
	Message string
}

func (e *PaymentError) Error() string {
	return e.Message
}
