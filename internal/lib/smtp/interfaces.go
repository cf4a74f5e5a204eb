// Package smtp — отправка писем через SMTP.
package smtp

import "io"

// Client — подмножество *smtp.Client, нужное для отправки письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает соединения с сервером.
type TransportInterface interface {
	Connect() (Client, error)
	Sender() string
}
