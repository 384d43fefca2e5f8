package repositories

// Repos bundles the per-entity repositories sharing one database handle.
type Repos interface {
	Users() UserRepository
	Products() ProductRepository
	Orders() OrderRepository
	Payments() PaymentRepository
}

// UnitOfWork hands out repositories and runs multi-repository operations
// as one atomic unit. A service operation executed inside Within either
// commits entirely or leaves no partial writes behind.
type UnitOfWork interface {
	Repos

	Within(fn func(tx Repos) error) error
}
