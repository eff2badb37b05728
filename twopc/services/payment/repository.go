package main

import (
	"context"

	"github.com/matheusmosca/twopc-order-coordinator/internal/memstore"
)

// MemoryPaymentRepository guarda cobranças e saldo devedor por conta
type MemoryPaymentRepository struct {
	store       *memstore.Store
	charges     map[string]*Charge
	outstanding map[int]float64
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		store:       memstore.New(),
		charges:     make(map[string]*Charge),
		outstanding: make(map[int]float64),
	}
}

func (r *MemoryPaymentRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *MemoryPaymentRepository) GetOutstandingForUpdate(ctx context.Context, tx Tx, account int) (float64, error) {
	if _, err := memstore.Unwrap(tx); err != nil {
		return 0, err
	}
	return r.outstanding[account], nil
}

// GetChargeForUpdate retorna nil quando a cobrança não existe
func (r *MemoryPaymentRepository) GetChargeForUpdate(ctx context.Context, tx Tx, reservationID string) (*Charge, error) {
	if _, err := memstore.Unwrap(tx); err != nil {
		return nil, err
	}
	charge, ok := r.charges[reservationID]
	if !ok {
		return nil, nil
	}
	copied := *charge
	return &copied, nil
}

func (r *MemoryPaymentRepository) CreateCharge(ctx context.Context, tx Tx, charge *Charge) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}

	previous, existed := r.outstanding[charge.Account]
	r.outstanding[charge.Account] = previous + charge.Amount
	stored := *charge
	r.charges[charge.ReservationID] = &stored

	memTx.OnRollback(func() {
		delete(r.charges, charge.ReservationID)
		r.restoreOutstanding(charge.Account, previous, existed)
	})
	return nil
}

func (r *MemoryPaymentRepository) MarkCommitted(ctx context.Context, tx Tx, reservationID string) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}

	charge, ok := r.charges[reservationID]
	if !ok {
		return nil
	}
	previous := charge.Status
	charge.Status = ChargeStatusCommitted
	memTx.OnRollback(func() { charge.Status = previous })
	return nil
}

func (r *MemoryPaymentRepository) DeleteCharge(ctx context.Context, tx Tx, charge *Charge) error {
	memTx, err := memstore.Unwrap(tx)
	if err != nil {
		return err
	}

	stored, ok := r.charges[charge.ReservationID]
	if !ok {
		return nil
	}
	previous, existed := r.outstanding[stored.Account]
	remaining := previous - stored.Amount
	if remaining <= 0 {
		delete(r.outstanding, stored.Account)
	} else {
		r.outstanding[stored.Account] = remaining
	}
	delete(r.charges, charge.ReservationID)

	memTx.OnRollback(func() {
		r.charges[charge.ReservationID] = stored
		r.restoreOutstanding(stored.Account, previous, existed)
	})
	return nil
}

// GetCharge retorna nil quando a cobrança não existe
func (r *MemoryPaymentRepository) GetCharge(ctx context.Context, reservationID string) (*Charge, error) {
	var found *Charge
	r.store.View(func() {
		if charge, ok := r.charges[reservationID]; ok {
			copied := *charge
			found = &copied
		}
	})
	return found, nil
}

// Outstanding retorna o saldo devedor da conta
func (r *MemoryPaymentRepository) Outstanding(account int) float64 {
	var total float64
	r.store.View(func() { total = r.outstanding[account] })
	return total
}

func (r *MemoryPaymentRepository) restoreOutstanding(account int, previous float64, existed bool) {
	if !existed {
		delete(r.outstanding, account)
		return
	}
	r.outstanding[account] = previous
}
