package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
)

// DeliveryUseCase encapsula a lógica de agendamento de entregas
type DeliveryUseCase struct {
	repository DeliveryRepository
	capacity   int
	now        func() time.Time
}

// NewDeliveryUseCase cria uma nova instância do caso de uso. capacity <= 0
// significa agenda sem limite.
func NewDeliveryUseCase(repository DeliveryRepository, capacity int) *DeliveryUseCase {
	return &DeliveryUseCase{
		repository: repository,
		capacity:   capacity,
		now:        time.Now,
	}
}

// Schedule fase PREPARE - reserva uma janela de entrega para o endereço
func (uc *DeliveryUseCase) Schedule(ctx context.Context, req ScheduleRequest) (*Delivery, error) {
	ctx, span := tracer.Start(ctx, "delivery.Schedule")
	defer span.End()
	logger := logging.Ctx(ctx)

	address := strings.TrimSpace(req.Address)
	if address == "" {
		span.RecordError(ErrInvalidAddress)
		return nil, ErrInvalidAddress
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if uc.capacity > 0 {
		active, err := uc.repository.CountActiveForUpdate(ctx, tx)
		if err != nil {
			return nil, err
		}
		// a nova entrega não pode ocupar o último slot, como no estoque
		if active+1 >= uc.capacity {
			logger.Warn().Int("active", active).Int("capacity", uc.capacity).Msg("❌ [SCHEDULE] no delivery slots left")
			err := errors.Wrapf(ErrNoDeliverySlots, "no delivery slots left (active: %d, capacity: %d)", active, uc.capacity)
			span.RecordError(err)
			span.SetStatus(codes.Error, "no delivery slots")
			return nil, err
		}
	}

	now := uc.now()
	delivery := &Delivery{
		ReservationID: uuid.New().String(),
		Address:       address,
		ETA:           now.Add(deliveryLeadTime).Format(time.RFC1123Z),
		Status:        DeliveryStatusScheduled,
		CreatedAt:     now,
	}

	if err := uc.repository.CreateDelivery(ctx, tx, delivery); err != nil {
		logger.Error().Err(err).Msg("❌ [SCHEDULE] failed to store delivery")
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("delivery.reservation_id", delivery.ReservationID))
	logger.Info().
		Str("reservation_id", delivery.ReservationID).
		Str("address", delivery.Address).
		Str("eta", delivery.ETA).
		Msg("🚚 [SCHEDULE] delivery scheduled")
	return delivery, nil
}

// Confirm fase COMMIT - confirma a entrega e recalcula a ETA. Confirmar de
// novo devolve o registro sem alterações. Reserva desconhecida devolve
// ErrUnknownReservation, que o handler responde como comando ignorado.
func (uc *DeliveryUseCase) Confirm(ctx context.Context, reservationID string) (*Delivery, error) {
	ctx, span := tracer.Start(ctx, "delivery.Confirm")
	defer span.End()
	span.SetAttributes(attribute.String("delivery.reservation_id", reservationID))
	logger := logging.Ctx(ctx)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	delivery, err := uc.repository.GetDeliveryForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		logger.Info().Str("reservation_id", reservationID).Msg("ℹ️ [CONFIRM] unknown delivery, command ignored")
		return nil, errors.Wrapf(ErrUnknownReservation, "delivery %s", reservationID)
	}
	if delivery.Status == DeliveryStatusConfirmed {
		return delivery, nil
	}

	delivery.Status = DeliveryStatusConfirmed
	delivery.ETA = uc.now().Add(deliveryLeadTime).Format(time.RFC1123Z)
	if err := uc.repository.UpdateDelivery(ctx, tx, delivery); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Info().Str("reservation_id", reservationID).Str("eta", delivery.ETA).Msg("✅ [CONFIRM] delivery confirmed")
	return delivery, nil
}

// Rollback fase ROLLBACK - libera uma entrega ainda não confirmada
func (uc *DeliveryUseCase) Rollback(ctx context.Context, reservationID string) (*Ack, error) {
	ctx, span := tracer.Start(ctx, "delivery.Rollback")
	defer span.End()
	span.SetAttributes(attribute.String("delivery.reservation_id", reservationID))
	logger := logging.Ctx(ctx)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	delivery, err := uc.repository.GetDeliveryForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		logger.Info().Str("reservation_id", reservationID).Msg("ℹ️ [ROLLBACK] unknown delivery, command ignored")
		return &Ack{Status: AckIgnored, Message: fmt.Sprintf("Delivery %s not registered. Command ignored!", reservationID)}, nil
	}
	if delivery.Status == DeliveryStatusConfirmed {
		logger.Warn().Str("reservation_id", reservationID).Msg("⚠️ [ROLLBACK] delivery already confirmed, command ignored")
		return &Ack{Status: AckIgnored, Message: fmt.Sprintf("Delivery %s already confirmed. Command ignored!", reservationID)}, nil
	}

	if err := uc.repository.DeleteDelivery(ctx, tx, reservationID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Info().Str("reservation_id", reservationID).Msg("♻️ [ROLLBACK] delivery slot released")
	return &Ack{Status: AckRolledBack, Message: fmt.Sprintf("Delivery %s cancelled", reservationID)}, nil
}

// GetDelivery busca uma entrega pelo id
func (uc *DeliveryUseCase) GetDelivery(ctx context.Context, reservationID string) (*Delivery, error) {
	delivery, err := uc.repository.GetDelivery(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		return nil, errors.Wrapf(ErrUnknownReservation, "delivery %s", reservationID)
	}
	return delivery, nil
}

// Erros customizados
var (
	ErrInvalidAddress     = &DeliveryError{Message: "address is required"}
	ErrNoDeliverySlots    = &DeliveryError{Message: "no delivery slots available"}
	ErrUnknownReservation = &DeliveryError{Message: "delivery not found"}
)

type DeliveryError struct {
	Message string
}

func (e *DeliveryError) Error() string {
	return e.Message
}
