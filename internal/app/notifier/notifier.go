// Package notifier собирает процесс рассылки писем по доменным событиям.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/collab-deals/internal/config"
	"github.com/magabrotheeeer/collab-deals/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/collab-deals/internal/services/notifier"
)

type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	service *notifierservice.Service
	logger  *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.notifier.New"

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:    conn,
		ch:      ch,
		service: notifierservice.New(logger, transport),
		logger:  logger,
	}, nil
}

// Run читает очередь уведомлений до отмены ctx, затем дожидается обработчиков.
func (a *App) Run(ctx context.Context) error {
	wg, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.NotificationsQueue, a.service.Handle)
	if err != nil {
		a.logger.Error("failed to start notifications consumer", sl.Err(err))
		return err
	}
	a.logger.Info("notifier consuming", slog.String("queue", rabbitmq.NotificationsQueue))

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	wg.Wait()

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
