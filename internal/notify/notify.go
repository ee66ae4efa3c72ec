package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mathemania-service/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier delivers a short text to the organisers.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts notifications to a single chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram connects to the Bot API. apiEndpoint may be empty for the
// public API.
func NewTelegram(token string, chatID int64, apiEndpoint string) (*Telegram, error) {
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Log writes notifications to the logger when no bot is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, text string) error {
	l.logger.Info("notification", zap.String("text", text))
	return nil
}

// ContactText formats a contact-form message for the organisers' chat.
func ContactText(m domain.ContactMessage) string {
	var b strings.Builder
	b.WriteString("New contact message\n")
	fmt.Fprintf(&b, "From: %s <%s>\n", m.Name, m.Email)
	if !m.Timestamp.IsZero() {
		fmt.Fprintf(&b, "At: %s\n", m.Timestamp.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")
	b.WriteString(m.Message)
	return b.String()
}

// RegistrationText formats a new team registration.
func RegistrationText(r domain.FormRegistration) string {
	return fmt.Sprintf("New Mathemania registration\nTeam: %s\nLeader: %s <%s>\nInstitute: %s",
		r.TeamName, r.TeamLeader, r.Email, r.Institute)
}
