package services

// EventPublisher is the outbound notification collaborator. Publishing is
// fire-and-forget: a failure here is logged by the caller and must never
// roll back the business operation that produced the event.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Routing keys for order and payment events.
const (
	EventExchange           = "order"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentReceived    = "payment.received"
)

// OrderEvent is the payload published on order lifecycle changes.
type OrderEvent struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      uint   `json:"user_id"`
	Status      string `json:"status"`
	TotalPrice  string `json:"total_price"`
	Address     string `json:"address"`
}

// PaymentEvent is the payload published when a payment settles an order.
type PaymentEvent struct {
	PaymentID  uint   `json:"payment_id"`
	OrderID    uint   `json:"order_id"`
	UserID     uint   `json:"user_id"`
	PaymentUID string `json:"payment_uid"`
	Method     string `json:"method"`
	PaidAmount string `json:"paid_amount"`
}
