// Package notifier отправляет письма участникам сделок по доменным событиям.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/collab-deals/internal/lib/sl"
	"github.com/magabrotheeeer/collab-deals/internal/lib/smtp"
	"github.com/magabrotheeeer/collab-deals/internal/models"
)

// Email — готовое письмо.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Service разбирает события и рассылает письма.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

func New(log *slog.Logger, transport smtp.TransportInterface) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// Handle обрабатывает одно сообщение из очереди.
// Нечитаемое сообщение и событие без адресата подтверждаются и отбрасываются:
// повторная доставка их не исправит. Ошибка SMTP возвращается, и сообщение
// уходит на повтор.
func (s *Service) Handle(_ context.Context, body []byte) error {
	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("dropping malformed event", sl.Err(err))
		return nil
	}

	log := s.log.With(slog.String("type", string(event.Type)), sl.DealID(event.DealID))

	if event.Recipient == nil || event.Recipient.Email == "" {
		log.Warn("event has no recipient, skipping")
		return nil
	}

	email, ok := Compose(event)
	if !ok {
		log.Debug("no email for event type")
		return nil
	}

	if err := s.send(email); err != nil {
		log.Error("failed to send email", sl.Err(err))
		return err
	}
	log.Info("email sent", sl.UserID(event.Recipient.ID))
	return nil
}

// Compose собирает письмо для события. ok=false для событий без письма.
func Compose(event models.Event) (Email, bool) {
	name := event.Recipient.Name
	actor := "Your partner"
	if event.Actor != nil && event.Actor.Name != "" {
		actor = event.Actor.Name
	}

	var subject, text string
	switch event.Type {
	case models.EventDealAccepted:
		subject = fmt.Sprintf("Your deal %q was accepted", event.DealTitle)
		text = fmt.Sprintf("Hi %s,\n\n%s accepted your deal %q. You can now proceed to payment.", name, actor, event.DealTitle)
	case models.EventDealPaid:
		subject = fmt.Sprintf("Deal %q has been paid", event.DealTitle)
		text = fmt.Sprintf("Hi %s,\n\nPayment for the deal %q has been received. You can start working on it.", name, event.DealTitle)
	case models.EventDealCompleted:
		subject = fmt.Sprintf("Deal %q is completed", event.DealTitle)
		text = fmt.Sprintf("Hi %s,\n\n%s marked the deal %q as completed.", name, actor, event.DealTitle)
	case models.EventMessageSent:
		subject = fmt.Sprintf("New message on %q", event.DealTitle)
		text = fmt.Sprintf("Hi %s,\n\n%s sent you a message about the deal %q. Reply on the platform.", name, actor, event.DealTitle)
	case models.EventSubscriptionActivated:
		subject = "Your search subscription is active"
		text = fmt.Sprintf("Hi %s,\n\nYour subscription is active. You can now search all open deals.", name)
	default:
		return Email{}, false
	}

	return Email{To: event.Recipient.Email, Subject: subject, Body: text}, true
}

func (s *Service) send(email Email) error {
	const op = "notifier.send"
	from := s.transport.Sender()

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + email.To,
		"Subject: " + email.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		email.Body,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("%s: mail from: %w", op, err)
	}
	if err = client.Rcpt(email.To); err != nil {
		return fmt.Errorf("%s: rcpt to: %w", op, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}

	if err = client.Quit(); err != nil {
		return fmt.Errorf("%s: quit: %w", op, err)
	}
	return nil
}
