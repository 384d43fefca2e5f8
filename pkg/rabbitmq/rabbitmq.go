package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

const (
	exchangeName      = "order"
	notificationQueue = "order_notifications"
)

// Client holds the RabbitMQ connection and channel. It implements the
// event publisher contract of the service layer and runs the notification
// consumer that turns events into customer-facing messages.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewClient connects to RabbitMQ and declares the event topology: one
// durable topic exchange and a notification queue bound to every order and
// payment routing key.
func NewClient(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		notificationQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", notificationQueue, err)
	}

	for _, key := range []string{"order.*", "payment.*"} {
		if err := ch.QueueBind(notificationQueue, key, exchangeName, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to bind %s to %s: %w", notificationQueue, key, err)
		}
	}

	log.Println("RabbitMQ client connected, exchange and notification queue declared.")
	return &Client{conn: conn, channel: ch}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends one event as a persistent JSON message.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	return c.channel.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
}

// ConsumeNotifications starts a goroutine that reads order and payment
// events and renders them into customer notification messages. Rendering
// failures are logged and the message is dropped; delivery failures are
// nacked for redelivery.
func (c *Client) ConsumeNotifications() error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		notificationQueue, // queue
		"",                // consumer tag
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			text, err := RenderNotification(msg.RoutingKey, msg.Body)
			if err != nil {
				log.Printf("Dropping unrenderable %s event: %v", msg.RoutingKey, err)
				if ackErr := msg.Ack(false); ackErr != nil {
					log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
				}
				continue
			}
			// Stand-in for a mail or push delivery.
			log.Printf("notification: %s", text)
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
			}
		}
	}()
	return nil
}

type eventBody struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	TotalPrice  string `json:"total_price"`
	PaidAmount  string `json:"paid_amount"`
	PaymentUID  string `json:"payment_uid"`
	OrderID     uint   `json:"order_id"`
}

// RenderNotification turns one event into the customer-facing message
// text for the notification channel.
func RenderNotification(routingKey string, body []byte) (string, error) {
	var event eventBody
	if err := json.Unmarshal(body, &event); err != nil {
		return "", fmt.Errorf("failed to decode event body: %w", err)
	}

	switch routingKey {
	case "order.created":
		return fmt.Sprintf("Your order %s has been placed. Total: %s. Please complete payment before the reservation expires.",
			event.OrderNumber, event.TotalPrice), nil
	case "order.status_changed":
		return fmt.Sprintf("Order %s is now %s.", event.OrderNumber, event.Status), nil
	case "payment.received":
		return fmt.Sprintf("Payment %s of %s received for order #%d. Thank you!",
			event.PaymentUID, event.PaidAmount, event.OrderID), nil
	default:
		return "", fmt.Errorf("unknown routing key %q", routingKey)
	}
}
