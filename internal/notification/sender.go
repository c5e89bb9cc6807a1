package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gopkg.in/gomail.v2"
)

// Sender delivers a rendered message over some channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogSender writes messages to the process log instead of delivering them.
type LogSender struct {
	Logger *log.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("email notification to=%s subject=%q at=%s\n%s", msg.To, msg.Subject, time.Now().UTC().Format(time.RFC3339), msg.Body)
	return nil
}

// SMTPSender delivers messages as plain-text email.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

// TelegramSender posts every message to a single team chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to start telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := fmt.Sprintf("%s\nTo: %s\n\n%s", msg.Subject, msg.To, msg.Body)
	if _, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, text)); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

// EmailAPI is the remote email endpoint (POST /email/send).
type EmailAPI interface {
	SendEmail(ctx context.Context, to, subject, message string) error
}

// APISender delegates delivery to the remote API.
type APISender struct {
	API EmailAPI
}

func (s APISender) Send(ctx context.Context, msg Message) error {
	return s.API.SendEmail(ctx, msg.To, msg.Subject, msg.Body)
}

// FallbackSender tries Primary and uses Fallback only when Primary fails.
type FallbackSender struct {
	Primary  Sender
	Fallback Sender
}

func (s FallbackSender) Send(ctx context.Context, msg Message) error {
	err := s.Primary.Send(ctx, msg)
	if err == nil {
		return nil
	}
	log.Printf("primary notification channel failed, falling back: %v", err)
	if fbErr := s.Fallback.Send(ctx, msg); fbErr != nil {
		return errors.Join(err, fbErr)
	}
	return nil
}

// MultiSender delivers to every sender and joins their errors.
type MultiSender []Sender

func (m MultiSender) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
