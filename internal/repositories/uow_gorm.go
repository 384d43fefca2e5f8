package repositories

import (
	"pasar/internal/apperrors"

	"gorm.io/gorm"
)

// GORMUnitOfWork implements UnitOfWork on a single *gorm.DB. Within runs
// the callback inside db.Transaction with repositories bound to the tx
// handle, so every write in the callback commits or rolls back together.
type GORMUnitOfWork struct {
	db *gorm.DB
}

// NewGORMUnitOfWork creates a new instance of GORMUnitOfWork.
func NewGORMUnitOfWork(db *gorm.DB) *GORMUnitOfWork {
	return &GORMUnitOfWork{db: db}
}

func (u *GORMUnitOfWork) Users() UserRepository       { return NewGORMUserRepository(u.db) }
func (u *GORMUnitOfWork) Products() ProductRepository { return NewGORMProductRepository(u.db) }
func (u *GORMUnitOfWork) Orders() OrderRepository     { return NewGORMOrderRepository(u.db) }
func (u *GORMUnitOfWork) Payments() PaymentRepository { return NewGORMPaymentRepository(u.db) }

func (u *GORMUnitOfWork) Within(fn func(tx Repos) error) error {
	err := u.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTxRepos{db: tx})
	})
	if err != nil {
		return apperrors.Wrap(err, "transaction failed")
	}
	return nil
}

type gormTxRepos struct {
	db *gorm.DB
}

func (t *gormTxRepos) Users() UserRepository       { return NewGORMUserRepository(t.db) }
func (t *gormTxRepos) Products() ProductRepository { return NewGORMProductRepository(t.db) }
func (t *gormTxRepos) Orders() OrderRepository     { return NewGORMOrderRepository(t.db) }
func (t *gormTxRepos) Payments() PaymentRepository { return NewGORMPaymentRepository(t.db) }
