package eventbus

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the durable topic exchange ledger events go through.
const ExchangeName = "autopay.ledger.events"

// dialTopic connects to url, opens a channel and declares the topic
// exchange. Both ends declare it so either may start first.
func dialTopic(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = closeAMQP(conn, ch)
		return nil, nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}

// closeAMQP closes the channel before its connection. The connection error
// wins since a dead channel is expected after a broker restart.
func closeAMQP(conn *amqp.Connection, ch *amqp.Channel) error {
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil && !conn.IsClosed() {
		return conn.Close()
	}
	return nil
}
