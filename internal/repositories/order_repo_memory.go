package repositories

import (
	"sort"
	"sync"

	"pasar/internal/apperrors"
	"pasar/internal/models"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
type MemoryOrderRepository struct {
	mu         sync.RWMutex
	orders     map[uint]models.Order
	nextID     uint
	nextLineID uint
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[uint]models.Order), nextID: 1, nextLineID: 1}
}

func cloneOrder(o models.Order) models.Order {
	clone := o
	clone.Lines = make([]models.OrderLine, len(o.Lines))
	copy(clone.Lines, o.Lines)
	return clone
}

func (r *MemoryOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == order.OrderNumber {
			return apperrors.ErrOrderNumberConflict
		}
	}
	if order.ID == 0 {
		order.ID = r.nextID
		r.nextID++
	}
	for i := range order.Lines {
		if order.Lines[i].ID == 0 {
			order.Lines[i].ID = r.nextLineID
			r.nextLineID++
		}
		order.Lines[i].OrderID = order.ID
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *MemoryOrderRepository) GetByID(id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	order := cloneOrder(o)
	return &order, nil
}

func (r *MemoryOrderRepository) GetByOrderNumber(number string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			order := cloneOrder(o)
			return &order, nil
		}
	}
	return nil, apperrors.ErrOrderNotFound
}

func (r *MemoryOrderRepository) GetByUserID(userID uint) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var orders []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (r *MemoryOrderRepository) GetByUserIDAndStatus(userID uint, status models.OrderStatus) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var orders []models.Order
	for _, o := range r.orders {
		if o.UserID == userID && o.Status == status {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (r *MemoryOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orders := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, cloneOrder(o))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (r *MemoryOrderRepository) GetPage(page, size int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	all, _ := r.GetAll()
	// Admin listing shows newest orders first.
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := (page - 1) * size
	if start >= len(all) {
		return []models.Order{}, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *MemoryOrderRepository) UpdateStatus(id uint, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperrors.ErrOrderNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func (r *MemoryOrderRepository) DeleteByID(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return apperrors.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *MemoryOrderRepository) DeleteByOrderNumber(number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, o := range r.orders {
		if o.OrderNumber == number {
			delete(r.orders, id)
			return nil
		}
	}
	return apperrors.ErrOrderNotFound
}

func (r *MemoryOrderRepository) ExistsByOrderNumber(number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryOrderRepository) ExistsLineByProductID(productID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		for _, line := range o.Lines {
			if line.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *MemoryOrderRepository) snapshot() map[uint]models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[uint]models.Order, len(r.orders))
	for id, o := range r.orders {
		snap[id] = cloneOrder(o)
	}
	return snap
}

func (r *MemoryOrderRepository) restore(snap map[uint]models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = snap
}
