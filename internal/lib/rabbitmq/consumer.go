package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
)

// Handler обрабатывает тело сообщения. Ошибка означает nack с возвратом в очередь.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage читает очередь и обрабатывает до 10 сообщений параллельно.
// Возвращённый WaitGroup завершается, когда ctx отменён и все обработчики вернулись.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler Handler) (*sync.WaitGroup, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sem := make(chan struct{}, 10)
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Warn("delivery channel closed")
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer func() {
						<-sem
						wg.Done()
					}()
					HandleDelivery(ctx, log, d.Body, d.Acknowledger, d.DeliveryTag, handler)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return &wg, nil
}

// HandleDelivery вызывает handler и подтверждает или отклоняет доставку.
func HandleDelivery(ctx context.Context, log *slog.Logger, body []byte, ack amqp.Acknowledger, tag uint64, handler Handler) {
	if err := handler(ctx, body); err != nil {
		log.Error("handler failed, message requeued", sl.Err(err))
		if nackErr := ack.Nack(tag, false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(tag, false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
