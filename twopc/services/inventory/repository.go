package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/matheusmosca/twopc-order-coordinator/internal/memstore"
)

// MemoryInventoryRepository guarda estoque e reservas em memória. Todas as
// operações passam pelo lock único do store.
type MemoryInventoryRepository struct {
	store        *memstore.Store
	stock        map[string]int
	reservations map[string]*Reservation
}

func NewMemoryInventoryRepository() *MemoryInventoryRepository {
	return &MemoryInventoryRepository{
		store:        memstore.New(),
		stock:        make(map[string]int),
		reservations: make(map[string]*Reservation),
	}
}

// Seed carrega o estoque inicial
func (r *MemoryInventoryRepository) Seed(stock map[string]int) {
	r.store.View(func() {
		for productID, quantity := range stock {
			r.stock[productID] = quantity
		}
	})
}

// BeginTx inicia uma nova transação
func (r *MemoryInventoryRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// GetAvailableForUpdate retorna o disponível do produto; produto desconhecido tem 0
func (r *MemoryInventoryRepository) GetAvailableForUpdate(ctx context.Context, tx Tx, productID string) (int, error) {
	if _, err := memstore.Unwrap(tx); err != nil {
		return 0, err
	}
	return r.stock[productID], nil
}

// GetReservationForUpdate retorna nil quando a reserva não existe
func (r *MemoryInventoryRepository) GetReservationForUpdate(ctx context.Context, tx Tx, reservationID string) (*Reservation, error) {
	if _, err := memstore.Unwrap(tx); err != nil {
		return nil, err
	}
	reservation, ok := r.reservations[reservationID]
	if !ok {
		return nil, nil
	}
	copied := *reservation
	return &copied, nil
}

// TryReserveStock debita o estoque e registra a reserva
func (r *MemoryInventoryRepository) TryReserveStock(ctx context.Context, tx Tx, reservation *Reservation) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}

	previous, existed := r.stock[reservation.ProductID]
	r.stock[reservation.ProductID] = previous - reservation.Quantity
	stored := *reservation
	r.reservations[reservation.ReservationID] = &stored

	memTx.OnRollback(func() {
		delete(r.reservations, reservation.ReservationID)
		r.restoreStock(reservation.ProductID, previous, existed)
	})

	log.Debug().Str("product_id", reservation.ProductID).Int("quantity", reservation.Quantity).Msg("[RESERVE] stock debited")
	return nil
}

// CommitReservation remove o registro da reserva
func (r *MemoryInventoryRepository) CommitReservation(ctx context.Context, tx Tx, reservation *Reservation) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}

	stored, ok := r.reservations[reservation.ReservationID]
	if !ok {
		return nil
	}
	delete(r.reservations, reservation.ReservationID)
	memTx.OnRollback(func() { r.reservations[reservation.ReservationID] = stored })
	return nil
}

// CancelReservation devolve a quantidade reservada e remove o registro
func (r *MemoryInventoryRepository) CancelReservation(ctx context.Context, tx Tx, reservation *Reservation) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}

	stored, ok := r.reservations[reservation.ReservationID]
	if !ok {
		return nil
	}
	previous, existed := r.stock[stored.ProductID]
	r.stock[stored.ProductID] = previous + stored.Quantity
	delete(r.reservations, reservation.ReservationID)

	memTx.OnRollback(func() {
		r.reservations[reservation.ReservationID] = stored
		r.restoreStock(stored.ProductID, previous, existed)
	})
	return nil
}

// AddStock credita quantity ao produto e retorna o novo disponível
func (r *MemoryInventoryRepository) AddStock(ctx context.Context, tx Tx, productID string, quantity int) (int, error) {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return 0, err
	}

	previous, existed := r.stock[productID]
	r.stock[productID] = previous + quantity
	memTx.OnRollback(func() { r.restoreStock(productID, previous, existed) })
	return r.stock[productID], nil
}

// GetStock retorna o disponível e o total reservado em aberto
func (r *MemoryInventoryRepository) GetStock(ctx context.Context, productID string) (*StockView, error) {
	view := &StockView{ProductID: productID}
	r.store.View(func() {
		view.Available = r.stock[productID]
		for _, reservation := range r.reservations {
			if reservation.ProductID == productID {
				view.Held += reservation.Quantity
			}
		}
	})
	return view, nil
}

func (r *MemoryInventoryRepository) restoreStock(productID string, previous int, existed bool) {
	if !existed {
		delete(r.stock, productID)
		return
	}
	r.stock[productID] = previous
}
