package repositories

import (
	"sync"

	"pasar/internal/apperrors"
	"pasar/internal/models"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uint]models.User
	nextID uint
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uint]models.User), nextID: 1}
}

func (r *MemoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailDuplication
		}
	}
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Status == "" {
		user.Status = models.UserActivated
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, apperrors.ErrCustomerNotFound
}

func (r *MemoryUserRepository) GetByID(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrCustomerNotFound
	}
	user := u
	return &user, nil
}

func (r *MemoryUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrCustomerNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) snapshot() map[uint]models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[uint]models.User, len(r.users))
	for id, u := range r.users {
		snap[id] = u
	}
	return snap
}

func (r *MemoryUserRepository) restore(snap map[uint]models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = snap
}
