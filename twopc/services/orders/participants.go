package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var (
	// ErrParticipantUnreachable cobre falhas de transporte e timeouts
	ErrParticipantUnreachable = errors.New("participant unreachable")
	// ErrParticipantRejected cobre respostas não-2xx do participante
	ErrParticipantRejected = errors.New("participant rejected the request")
)

// ParticipantError descreve uma chamada mal sucedida a um participante.
// StatusCode zero significa que nenhuma resposta chegou.
type ParticipantError struct {
	Participant string
	Path        string
	StatusCode  int
	Message     string
	cause       error
}

func (e *ParticipantError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s unreachable: %v", e.Participant, e.cause)
	}
	return fmt.Sprintf("%s rejected (%d): %s", e.Participant, e.StatusCode, e.Message)
}

func (e *ParticipantError) Unwrap() error {
	return e.cause
}

func (e *ParticipantError) Is(target error) bool {
	switch target {
	case ErrParticipantUnreachable:
		return e.StatusCode == 0
	case ErrParticipantRejected:
		return e.StatusCode != 0
	}
	return false
}

type reservationBody struct {
	ReservationID string `json:"reservation_id"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// participantClient é o transporte HTTP/JSON comum aos três participantes
type participantClient struct {
	name   string
	client *resty.Client
}

func newParticipantClient(name, baseURL string, timeout time.Duration) participantClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return participantClient{name: name, client: client}
}

func (p participantClient) Name() string {
	return p.name
}

// post envia body e decodifica a resposta 2xx em result
func (p participantClient) post(ctx context.Context, path string, body, result interface{}) error {
	var apiErr errorBody
	req := p.client.R().
		SetContext(ctx).
		SetHeaders(traceHeaders(ctx)).
		SetBody(body).
		SetError(&apiErr)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(path)
	if err != nil {
		return &ParticipantError{Participant: p.name, Path: path, cause: err}
	}
	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		message := apiErr.Error
		if message == "" {
			message = apiErr.Message
		}
		if message == "" {
			message = strings.TrimSpace(resp.String())
		}
		return &ParticipantError{Participant: p.name, Path: path, StatusCode: resp.StatusCode(), Message: message}
	}
	return nil
}

// reserve executa o prepare e exige um reservation_id na resposta
func (p participantClient) reserve(ctx context.Context, path string, body interface{}) (string, error) {
	var out reservationBody
	if err := p.post(ctx, path, body, &out); err != nil {
		return "", err
	}
	if out.ReservationID == "" {
		return "", &ParticipantError{Participant: p.name, Path: path, StatusCode: http.StatusOK, Message: "response without reservation_id"}
	}
	return out.ReservationID, nil
}

func (p participantClient) resolve(ctx context.Context, path, reservationID string) error {
	return p.post(ctx, path, reservationBody{ReservationID: reservationID}, nil)
}

// traceHeaders injeta o contexto W3C do span atual
func traceHeaders(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier
}

// InventoryClient fala com o ledger de estoque
type InventoryClient struct {
	participantClient
}

func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{newParticipantClient("inventory", baseURL, timeout)}
}

func (c *InventoryClient) Prepare(ctx context.Context, order Order) (string, error) {
	return c.reserve(ctx, "/api/inventory/reserve", map[string]interface{}{
		"product_id": order.Product,
		"quantity":   order.Quantity,
	})
}

func (c *InventoryClient) Commit(ctx context.Context, reservationID string) error {
	return c.resolve(ctx, "/api/inventory/commit", reservationID)
}

func (c *InventoryClient) Rollback(ctx context.Context, reservationID string) error {
	return c.resolve(ctx, "/api/inventory/rollback", reservationID)
}

// DeliveryClient fala com a agenda de entregas
type DeliveryClient struct {
	participantClient
}

func NewDeliveryClient(baseURL string, timeout time.Duration) *DeliveryClient {
	return &DeliveryClient{newParticipantClient("delivery", baseURL, timeout)}
}

func (c *DeliveryClient) Prepare(ctx context.Context, order Order) (string, error) {
	return c.reserve(ctx, "/api/delivery/schedule", map[string]interface{}{
		"address": order.Address,
	})
}

func (c *DeliveryClient) Commit(ctx context.Context, reservationID string) error {
	return c.resolve(ctx, "/api/delivery/confirm", reservationID)
}

func (c *DeliveryClient) Rollback(ctx context.Context, reservationID string) error {
	return c.resolve(ctx, "/api/delivery/rollback", reservationID)
}

// PaymentClient fala com o ledger de pagamentos. O valor cobrado é o preço
// do pedido.
type PaymentClient struct {
	participantClient
}

func NewPaymentClient(baseURL string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{newParticipantClient("payment", baseURL, timeout)}
}

func (c *PaymentClient) Prepare(ctx context.Context, order Order) (string, error) {
	return c.reserve(ctx, "/api/payment", map[string]interface{}{
		"account": order.Account,
		"amount":  order.Price,
	})
}

func (c *PaymentClient) Commit(ctx context.Context, reservationID string) error {
	return c.resolve(ctx, "/api/payment/commit", reservationID)
}

func (c *PaymentClient) Rollback(ctx context.Context, reservationID string) error {
	return c.resolve(ctx, "/api/payment/reverse", reservationID)
}
