package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
)

// Process é o contrato de um participante do 2PC. Commit e Rollback só
// recebem ids devolvidos por Prepare.
type Process interface {
	Name() string
	Prepare(ctx context.Context, order Order) (string, error)
	Commit(ctx context.Context, reservationID string) error
	Rollback(ctx context.Context, reservationID string) error
}

// OutcomePublisher recebe o pedido já resolvido
type OutcomePublisher interface {
	Publish(ctx context.Context, order *Order) error
}

const defaultParticipantTimeout = 5 * time.Second

// Coordinator executa o two-phase commit de cada pedido sobre os
// participantes registrados, sempre na ordem de registro.
type Coordinator struct {
	processes      []Process
	repository     OrderRepository
	publisher      OutcomePublisher
	timeout        time.Duration
	parallel       bool
	defaultAccount int
	meter          metric.Meter
	metrics        coordinatorMetrics
}

type CoordinatorOption func(*Coordinator)

// WithParticipantTimeout limita cada chamada a um participante e a
// publicação do resultado
func WithParticipantTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithParallelPrepare dispara os prepares ao mesmo tempo
func WithParallelPrepare(parallel bool) CoordinatorOption {
	return func(c *Coordinator) { c.parallel = parallel }
}

// WithDefaultAccount define a conta cobrada quando o pedido não informa uma
func WithDefaultAccount(account int) CoordinatorOption {
	return func(c *Coordinator) { c.defaultAccount = account }
}

func WithPublisher(publisher OutcomePublisher) CoordinatorOption {
	return func(c *Coordinator) {
		if publisher != nil {
			c.publisher = publisher
		}
	}
}

func WithMeter(meter metric.Meter) CoordinatorOption {
	return func(c *Coordinator) { c.meter = meter }
}

// NewCoordinator cria o coordenador. A ordem de processes é a ordem usada
// em todas as rodadas.
func NewCoordinator(repository OrderRepository, processes []Process, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		processes:      append([]Process(nil), processes...),
		repository:     repository,
		publisher:      noopPublisher{},
		timeout:        defaultParticipantTimeout,
		defaultAccount: 10,
		meter:          otel.Meter(serviceName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = newCoordinatorMetrics(c.meter)
	return c
}

// prepareResult guarda o voto de um participante na rodada de prepare
type prepareResult struct {
	process       Process
	reservationID string
	err           error
}

func (r prepareResult) prepared() bool {
	return r.err == nil
}

// held indica que o participante reservou algo, mesmo que tenha votado "não"
// por responder depois do prazo
func (r prepareResult) held() bool {
	return r.reservationID != ""
}

// PlaceOrder valida, registra e resolve o pedido. Quando retorna sem erro o
// pedido está committed ou aborted; nada fica pendente.
func (c *Coordinator) PlaceOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	ctx, span := tracer.Start(ctx, "coordinator.PlaceOrder")
	defer span.End()
	logger := logging.Ctx(ctx)

	if err := validateOrderRequest(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	account := c.defaultAccount
	if req.Account != nil {
		account = *req.Account
	}
	order := NewOrder(uuid.New().String(), req, account)
	span.SetAttributes(
		attribute.String("order.id", order.OrderID),
		attribute.String("order.product", order.Product),
		attribute.Int("order.quantity", order.Quantity),
		attribute.Float64("order.price", order.Price),
		attribute.Int("order.participants", len(c.processes)),
	)

	if err := c.repository.CreateOrder(ctx, order); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "store order")
	}

	logger.Info().
		Str("order_id", order.OrderID).
		Str("product", order.Product).
		Int("quantity", order.Quantity).
		Float64("price", order.Price).
		Bool("parallel", c.parallel).
		Msg("📦 [2PC] order received, starting prepare round")

	results := c.prepareAll(ctx, *order)

	var reasons []string
	for _, result := range results {
		vote := Vote{Participant: result.process.Name(), Prepared: result.prepared(), ReservationID: result.reservationID}
		if !result.prepared() {
			vote.Reason = c.reason(result)
			reasons = append(reasons, vote.Reason)
		}
		order.Votes = append(order.Votes, vote)
	}

	// a segunda fase não depende do cliente HTTP continuar conectado
	resolveCtx := context.WithoutCancel(ctx)
	if len(reasons) == 0 {
		order.Inconsistencies = c.finish(resolveCtx, results, phaseCommit)
		if err := order.Commit(); err != nil {
			return nil, err
		}
	} else {
		order.Inconsistencies = c.finish(resolveCtx, results, phaseRollback)
		if err := order.Abort(reasons); err != nil {
			return nil, err
		}
	}

	if err := c.repository.UpdateOrder(resolveCtx, order); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "store order outcome")
	}

	c.metrics.placed.Add(resolveCtx, 1, metric.WithAttributes(attribute.String("outcome", order.Status)))
	span.SetAttributes(
		attribute.String("order.outcome", order.Status),
		attribute.Int("order.inconsistencies", len(order.Inconsistencies)),
	)

	event := logger.Info()
	if order.Status == OrderStatusAborted {
		span.SetStatus(codes.Error, "order aborted")
		event = logger.Warn().Strs("reasons", order.Reasons)
	}
	event.
		Str("order_id", order.OrderID).
		Str("outcome", order.Status).
		Int("inconsistencies", len(order.Inconsistencies)).
		Msg("🏁 [2PC] order resolved")

	// mesmo prazo das chamadas aos participantes
	publishCtx, cancel := context.WithTimeout(resolveCtx, c.timeout)
	defer cancel()
	if err := c.publisher.Publish(publishCtx, order); err != nil {
		logger.Error().Err(err).Str("order_id", order.OrderID).Msg("❌ failed to publish order outcome")
	}

	return order, nil
}

// GetOrder retorna o registro de auditoria de um pedido
func (c *Coordinator) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return c.repository.GetOrder(ctx, orderID)
}

// prepareAll chama Prepare em todos os participantes, sem parar no primeiro
// "não". Os resultados seguem a ordem de registro nos dois modos.
func (c *Coordinator) prepareAll(ctx context.Context, order Order) []prepareResult {
	results := make([]prepareResult, len(c.processes))

	if !c.parallel {
		for i, process := range c.processes {
			results[i] = c.prepare(ctx, process, order)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(len(c.processes))
	for i, process := range c.processes {
		i, process := i, process
		g.Go(func() error {
			results[i] = c.prepare(ctx, process, order)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Coordinator) prepare(ctx context.Context, process Process, order Order) prepareResult {
	ctx, span := tracer.Start(ctx, "participant.Prepare", traceParticipant(process))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	reservationID, err := process.Prepare(callCtx, order)
	if err == nil && reservationID == "" {
		err = errors.Errorf("%s returned no reservation id", process.Name())
	}
	if err == nil && callCtx.Err() != nil {
		err = errors.Wrapf(callCtx.Err(), "%s answered after the deadline", process.Name())
	}
	c.metrics.record(ctx, process.Name(), phasePrepare, err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prepare failed")
		logging.Ctx(ctx).Warn().Err(err).Str("participant", process.Name()).Str("reservation_id", reservationID).Str("order_id", order.OrderID).Msg("❌ [PREPARE] participant voted no")
		return prepareResult{process: process, reservationID: reservationID, err: err}
	}

	span.SetAttributes(attribute.String("participant.reservation_id", reservationID))
	logging.Ctx(ctx).Info().Str("participant", process.Name()).Str("reservation_id", reservationID).Str("order_id", order.OrderID).Msg("✅ [PREPARE] participant voted yes")
	return prepareResult{process: process, reservationID: reservationID}
}

const (
	phasePrepare  = "prepare"
	phaseCommit   = "commit"
	phaseRollback = "rollback"
)

// finish envia commit ou rollback, em ordem, para quem segura uma reserva.
// Falhas viram inconsistências e não são repetidas.
func (c *Coordinator) finish(ctx context.Context, results []prepareResult, phase string) []string {
	var inconsistencies []string
	for _, result := range results {
		if !result.held() {
			continue
		}
		if err := c.resolve(ctx, result, phase); err != nil {
			inconsistencies = append(inconsistencies,
				fmt.Sprintf("%s: %s of %s failed: %v", result.process.Name(), phase, result.reservationID, err))
		}
	}
	return inconsistencies
}

func (c *Coordinator) resolve(ctx context.Context, result prepareResult, phase string) error {
	spanName := "participant.Commit"
	if phase == phaseRollback {
		spanName = "participant.Rollback"
	}
	ctx, span := tracer.Start(ctx, spanName, traceParticipant(result.process))
	defer span.End()
	span.SetAttributes(attribute.String("participant.reservation_id", result.reservationID))

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var err error
	if phase == phaseCommit {
		err = result.process.Commit(callCtx, result.reservationID)
	} else {
		err = result.process.Rollback(callCtx, result.reservationID)
	}
	c.metrics.record(ctx, result.process.Name(), phase, err, time.Since(start))

	logger := logging.Ctx(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, phase+" failed")
		logger.Error().Err(err).
			Str("participant", result.process.Name()).
			Str("reservation_id", result.reservationID).
			Str("phase", phase).
			Msg("🚨 [2PC] participant left inconsistent")
		return err
	}

	logger.Info().
		Str("participant", result.process.Name()).
		Str("reservation_id", result.reservationID).
		Str("phase", phase).
		Msg("✅ [2PC] participant resolved")
	return nil
}

func traceParticipant(process Process) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("participant", process.Name()))
}

// reason descreve o voto "não" de um participante
func (c *Coordinator) reason(result prepareResult) string {
	if errors.Is(result.err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s: no answer within %s", result.process.Name(), c.timeout)
	}
	return result.err.Error()
}

func validateOrderRequest(req CreateOrderRequest) error {
	switch {
	case strings.TrimSpace(req.Address) == "":
		return errors.Wrap(ErrInvalidOrder, "address is required")
	case strings.TrimSpace(req.Product) == "":
		return errors.Wrap(ErrInvalidOrder, "product is required")
	case req.Quantity <= 0:
		return errors.Wrap(ErrInvalidOrder, "quantity must be greater than 0")
	case req.Price <= 0:
		return errors.Wrap(ErrInvalidOrder, "price must be greater than 0")
	case req.Account != nil && *req.Account < 0:
		return errors.Wrap(ErrInvalidOrder, "account must not be negative")
	}
	return nil
}

// coordinatorMetrics são os instrumentos OpenTelemetry do coordenador
type coordinatorMetrics struct {
	placed   metric.Int64Counter
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

func newCoordinatorMetrics(meter metric.Meter) coordinatorMetrics {
	fallback := noop.NewMeterProvider().Meter(serviceName)

	placed, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders resolved by the coordinator, by outcome"))
	if err != nil {
		log.Warn().Err(err).Msg("orders.placed counter unavailable")
		placed, _ = fallback.Int64Counter("orders.placed")
	}

	calls, err := meter.Int64Counter("participant.calls",
		metric.WithDescription("Calls to participants, by participant, phase and result"))
	if err != nil {
		log.Warn().Err(err).Msg("participant.calls counter unavailable")
		calls, _ = fallback.Int64Counter("participant.calls")
	}

	duration, err := meter.Float64Histogram("participant.call.duration",
		metric.WithDescription("Participant call latency"),
		metric.WithUnit("ms"))
	if err != nil {
		log.Warn().Err(err).Msg("participant.call.duration histogram unavailable")
		duration, _ = fallback.Float64Histogram("participant.call.duration")
	}

	return coordinatorMetrics{placed: placed, calls: calls, duration: duration}
}

func (m coordinatorMetrics) record(ctx context.Context, participant, phase string, err error, elapsed time.Duration) {
	result := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result = "timeout"
	case err != nil:
		result = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("participant", participant),
		attribute.String("phase", phase),
		attribute.String("result", result),
	)
	m.calls.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// Erros customizados
var (
	ErrInvalidOrder = &OrderError{Message: "invalid order"}
)

type OrderError struct {
	Message string
}

func (e *OrderError) Error() string {
	return e.Message
}
