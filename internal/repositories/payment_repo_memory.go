package repositories

import (
	"sort"
	"sync"

	"pasar/internal/apperrors"
	"pasar/internal/models"
)

// MemoryPaymentRepository is an in-memory implementation of
// PaymentRepository. It enforces the same uniqueness constraints as the
// database schema: one payment per order, globally unique payment UID.
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[uint]models.Payment
	nextID   uint
}

// NewMemoryPaymentRepository creates a new instance of MemoryPaymentRepository.
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[uint]models.Payment), nextID: 1}
}

func (r *MemoryPaymentRepository) Create(payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.PaymentUID == payment.PaymentUID || p.OrderID == payment.OrderID {
			return apperrors.ErrPaymentUIDConflict
		}
	}
	if payment.ID == 0 {
		payment.ID = r.nextID
		r.nextID++
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *MemoryPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	payment := p
	return &payment, nil
}

func (r *MemoryPaymentRepository) GetByUID(uid string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.PaymentUID == uid {
			payment := p
			return &payment, nil
		}
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (r *MemoryPaymentRepository) GetByOrderID(orderID uint) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			payment := p
			return &payment, nil
		}
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (r *MemoryPaymentRepository) GetByUserID(userID uint) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var payments []models.Payment
	for _, p := range r.payments {
		if p.UserID == userID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

func (r *MemoryPaymentRepository) GetByUserIDAndStatus(userID uint, status models.PaymentStatus) ([]models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var payments []models.Payment
	for _, p := range r.payments {
		if p.UserID == userID && p.Status == status {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

func (r *MemoryPaymentRepository) UpdateStatus(id uint, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return apperrors.ErrPaymentNotFound
	}
	p.Status = status
	r.payments[id] = p
	return nil
}

func (r *MemoryPaymentRepository) DeleteByID(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[id]; !ok {
		return apperrors.ErrPaymentNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *MemoryPaymentRepository) DeleteByUID(uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.payments {
		if p.PaymentUID == uid {
			delete(r.payments, id)
			return nil
		}
	}
	return apperrors.ErrPaymentNotFound
}

func (r *MemoryPaymentRepository) ExistsByUID(uid string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.PaymentUID == uid {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryPaymentRepository) ExistsByOrderID(orderID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryPaymentRepository) snapshot() map[uint]models.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[uint]models.Payment, len(r.payments))
	for id, p := range r.payments {
		snap[id] = p
	}
	return snap
}

func (r *MemoryPaymentRepository) restore(snap map[uint]models.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = snap
}
