package main

import (
	"context"

	"github.com/matheusmosca/twopc-order-coordinator/internal/memstore"
)

// MemoryDeliveryRepository guarda as entregas agendadas e confirmadas
type MemoryDeliveryRepository struct {
	store      *memstore.Store
	deliveries map[string]*Delivery
}

func NewMemoryDeliveryRepository() *MemoryDeliveryRepository {
	return &MemoryDeliveryRepository{
		store:      memstore.New(),
		deliveries: make(map[string]*Delivery),
	}
}

func (r *MemoryDeliveryRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CountActiveForUpdate conta entregas agendadas e confirmadas
func (r *MemoryDeliveryRepository) CountActiveForUpdate(ctx context.Context, tx Tx) (int, error) {
	if _, err := memstore.Unwrap(tx); err != nil {
		return 0, err
	}
	return len(r.deliveries), nil
}

// GetDeliveryForUpdate retorna nil quando a entrega não existe
func (r *MemoryDeliveryRepository) GetDeliveryForUpdate(ctx context.Context, tx Tx, reservationID string) (*Delivery, error) {
	if _, err := memstore.Unwrap(tx); err != nil {
		return nil, err
	}
	delivery, ok := r.deliveries[reservationID]
	if !ok {
		return nil, nil
	}
	copied := *delivery
	return &copied, nil
}

func (r *MemoryDeliveryRepository) CreateDelivery(ctx context.Context, tx Tx, delivery *Delivery) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}
	stored := *delivery
	r.deliveries[delivery.ReservationID] = &stored
	memTx.OnRollback(func() { delete(r.deliveries, delivery.ReservationID) })
	return nil
}

func (r *MemoryDeliveryRepository) UpdateDelivery(ctx context.Context, tx Tx, delivery *Delivery) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}
	previous, ok := r.deliveries[delivery.ReservationID]
	if !ok {
		return nil
	}
	stored := *delivery
	r.deliveries[delivery.ReservationID] = &stored
	memTx.OnRollback(func() { r.deliveries[delivery.ReservationID] = previous })
	return nil
}

func (r *MemoryDeliveryRepository) DeleteDelivery(ctx context.Context, tx Tx, reservationID string) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}
	previous, ok := r.deliveries[reservationID]
	if !ok {
		return nil
	}
	delete(r.deliveries, reservationID)
	memTx.OnRollback(func() { r.deliveries[reservationID] = previous })
	return nil
}

// GetDelivery retorna nil quando a entrega não existe
func (r *MemoryDeliveryRepository) GetDelivery(ctx context.Context, reservationID string) (*Delivery, error) {
	var found *Delivery
	r.store.View(func() {
		if delivery, ok := r.deliveries[reservationID]; ok {
			copied := *delivery
			found = &copied
		}
	})
	return found, nil
}
