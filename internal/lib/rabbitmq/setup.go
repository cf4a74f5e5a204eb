package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// QueueConfig — очередь и ключи маршрутизации, по которым она привязана к exchange.
type QueueConfig struct {
	QueueName   string
	RoutingKeys []string
}

// NotificationsQueue — очередь сервиса уведомлений.
const NotificationsQueue = "marketplace.notifications"

// GetNotificationQueues возвращает очереди, которые читает notifier.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{
			QueueName:   NotificationsQueue,
			RoutingKeys: []string{"deal.accepted", "deal.paid", "deal.completed", "message.sent", "subscription.activated"},
		},
	}
}

// Channel — операции канала, нужные для объявления топологии.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// SetupChannel открывает канал и объявляет topic exchange и очереди.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}
	if err = DeclareTopology(ch, exchange, queues); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

// DeclareTopology объявляет durable topic exchange, очереди и привязки.
func DeclareTopology(ch Channel, exchange string, queues []QueueConfig) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.QueueName, err)
		}
		for _, key := range q.RoutingKeys {
			if err := ch.QueueBind(q.QueueName, key, exchange, false, nil); err != nil {
				return fmt.Errorf("failed to bind queue %s with routing key %s: %w", q.QueueName, key, err)
			}
		}
	}
	return nil
}
