package repositories

import (
	"sort"
	"sync"

	"pasar/internal/apperrors"
	"pasar/internal/models"
)

// MemoryProductRepository is an in-memory implementation of
// ProductRepository. Stock operations hold the repository lock for the
// whole check-and-mutate, mirroring the store-level atomicity of the GORM
// implementation.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[uint]models.Product
	nextID   uint
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[uint]models.Product), nextID: 1}
}

func (r *MemoryProductRepository) GetAll(activeOnly bool) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if activeOnly && !p.Active {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *MemoryProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.ErrProductNotFound
	}
	product := p
	return &product, nil
}

func (r *MemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == product.Name {
			return apperrors.ErrProductDuplication
		}
	}
	if product.ID == 0 {
		product.ID = r.nextID
		r.nextID++
	} else if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return apperrors.ErrProductNotFound
	}
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return apperrors.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryProductRepository) Deactivate(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return apperrors.ErrProductNotFound
	}
	p.Active = false
	r.products[id] = p
	return nil
}

func (r *MemoryProductRepository) DecrementStock(id uint, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return apperrors.ErrProductNotFound
	}
	if p.Stock < qty {
		return apperrors.ErrInsufficientStock
	}
	p.Stock -= qty
	r.products[id] = p
	return nil
}

func (r *MemoryProductRepository) IncrementStock(id uint, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return apperrors.ErrProductNotFound
	}
	p.Stock += qty
	r.products[id] = p
	return nil
}

func (r *MemoryProductRepository) snapshot() map[uint]models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[uint]models.Product, len(r.products))
	for id, p := range r.products {
		snap[id] = p
	}
	return snap
}

func (r *MemoryProductRepository) restore(snap map[uint]models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = snap
}
