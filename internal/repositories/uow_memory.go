package repositories

// MemoryUnitOfWork implements UnitOfWork over the in-memory repositories.
// Within serializes transactions with one mutex and restores a snapshot of
// every repository when the callback fails, giving tests the same
// all-or-nothing semantics as the database.
type MemoryUnitOfWork struct {
	txMu chan struct{}

	users    *MemoryUserRepository
	products *MemoryProductRepository
	orders   *MemoryOrderRepository
	payments *MemoryPaymentRepository
}

// NewMemoryUnitOfWork creates a unit of work over fresh in-memory stores.
func NewMemoryUnitOfWork() *MemoryUnitOfWork {
	uow := &MemoryUnitOfWork{
		txMu:     make(chan struct{}, 1),
		users:    NewMemoryUserRepository(),
		products: NewMemoryProductRepository(),
		orders:   NewMemoryOrderRepository(),
		payments: NewMemoryPaymentRepository(),
	}
	uow.txMu <- struct{}{}
	return uow
}

func (u *MemoryUnitOfWork) Users() UserRepository       { return u.users }
func (u *MemoryUnitOfWork) Products() ProductRepository { return u.products }
func (u *MemoryUnitOfWork) Orders() OrderRepository     { return u.orders }
func (u *MemoryUnitOfWork) Payments() PaymentRepository { return u.payments }

func (u *MemoryUnitOfWork) Within(fn func(tx Repos) error) error {
	<-u.txMu
	defer func() { u.txMu <- struct{}{} }()

	userSnap := u.users.snapshot()
	productSnap := u.products.snapshot()
	orderSnap := u.orders.snapshot()
	paymentSnap := u.payments.snapshot()

	if err := fn(u); err != nil {
		u.users.restore(userSnap)
		u.products.restore(productSnap)
		u.orders.restore(orderSnap)
		u.payments.restore(paymentSnap)
		return err
	}
	return nil
}
