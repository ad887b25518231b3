package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Client отправляет письма через SMTP.
// При выключенной отправке письмо только пишется в лог.
type Client struct {
	cfg  Config
	send sendFunc
	now  func() time.Time
	log  Logger
}

// NewClient создает новый экземпляр SMTP клиента
func NewClient(cfg Config, log Logger) *Client {
	return &Client{
		cfg:  cfg,
		send: smtp.SendMail,
		now:  time.Now,
		log:  log,
	}
}

// Send отправляет письмо
func (c *Client) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}

	if !c.cfg.Enabled {
		c.log.Info("Mailer disabled, message to=%s subject=%q:\n%s", msg.To, msg.Subject, msg.Body)
		return nil
	}

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	if err := c.send(addr, auth, c.cfg.From, []string{msg.To}, c.render(msg)); err != nil {
		return fmt.Errorf("%w: to=%s: %v", ErrSend, msg.To, err)
	}

	c.log.Info("Mail sent to=%s subject=%q", msg.To, msg.Subject)
	return nil
}

func (c *Client) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", c.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: empty recipient", ErrInvalidMessage)
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("%w: header contains line break", ErrInvalidMessage)
	}
	return nil
}
