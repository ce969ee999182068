package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

// Min interval between any two Telegram messages to the same chat to avoid
// 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// TelegramNotifier forwards scraper alerts to a Telegram chat. Alerts are
// queued and sent from a background worker so callers never block on the
// Telegram API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time

	queue  chan models.ScraperAlert
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTelegramNotifier creates a notifier, verifying the bot token up front.
// Returns nil when the token is empty or invalid; a nil notifier is safe to
// use and drops everything.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	if token == "" || chatID == 0 {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		return nil
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		slog.Error("Failed to get bot info", "error", err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		queue:  make(chan models.ScraperAlert, 100),
		ctx:    ctx,
		cancel: cancel,
	}
	n.wg.Add(1)
	go n.sender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID)
	return n
}

// Notify queues an alert for delivery (non-blocking). A full queue drops the
// alert; it is already persisted in the store.
func (n *TelegramNotifier) Notify(alert models.ScraperAlert) {
	if n == nil {
		return
	}
	select {
	case <-n.ctx.Done():
	case n.queue <- alert:
	default:
		slog.Warn("Telegram queue full, dropping alert", "type", alert.AlertType)
	}
}

// Stop shuts the worker down after draining the queue.
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	n.wg.Wait()
}

func (n *TelegramNotifier) sender() {
	defer n.wg.Done()
	for {
		select {
		case <-n.ctx.Done():
			for {
				select {
				case alert := <-n.queue:
					n.send(alert)
				default:
					return
				}
			}
		case alert := <-n.queue:
			n.send(alert)
		}
	}
}

func (n *TelegramNotifier) send(alert models.ScraperAlert) {
	n.mu.Lock()
	if elapsed := time.Since(n.lastSend); elapsed < telegramSendInterval {
		wait := telegramSendInterval - elapsed
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
			return
		case <-time.After(wait):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, formatAlert(alert))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Telegram send failed", "type", alert.AlertType, "error", err)
		return
	}
	slog.Info("Telegram alert sent", "type", alert.AlertType, "severity", alert.Severity)
}

func formatAlert(alert models.ScraperAlert) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *%s*\n\n", severityIcon(alert.Severity), formatAlertType(alert.AlertType)))
	b.WriteString(escapeMarkdown(alert.Message))
	b.WriteString("\n")
	for k, v := range alert.Metadata {
		b.WriteString(fmt.Sprintf("`%s`: %s\n", k, escapeMarkdown(v)))
	}
	if !alert.CreatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("\n_%s_", alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	}
	return b.String()
}

func severityIcon(s models.AlertSeverity) string {
	switch s {
	case models.SeverityCritical:
		return "🚨"
	case models.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

func formatAlertType(alertType string) string {
	parts := strings.Split(alertType, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return strings.Join(parts, " ")
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
