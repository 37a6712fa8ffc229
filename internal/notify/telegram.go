// Package notify delivers owner notifications about new online bookings.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"playcafe/internal/config"
	"playcafe/internal/models"
	"playcafe/internal/timefmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// ErrNoChat is returned when neither the café nor the config names a chat.
var ErrNoChat = errors.New("no telegram chat configured")

// Sender is the part of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	sender      Sender
	defaultChat int64
	logger      *zerolog.Logger
}

func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug
	if logger != nil {
		logger.Info().Str("bot", bot.Self.UserName).Msg("Telegram notifier ready")
	}
	return newTelegramNotifier(bot, cfg.DefaultChatID, logger), nil
}

func newTelegramNotifier(sender Sender, defaultChat int64, logger *zerolog.Logger) *TelegramNotifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TelegramNotifier{sender: sender, defaultChat: defaultChat, logger: logger}
}

// NotifyNewBooking posts a summary of booking to the café's chat.
func (n *TelegramNotifier) NotifyNewBooking(ctx context.Context, cafe *models.Cafe, booking *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID := n.defaultChat
	if cafe != nil && cafe.TelegramChatID != 0 {
		chatID = cafe.TelegramChatID
	}
	if chatID == 0 {
		return ErrNoChat
	}

	msg := tgbotapi.NewMessage(chatID, FormatBookingMessage(cafe, booking))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", chatID).Str("booking_id", booking.ID).Msg("Telegram send failed")
		return fmt.Errorf("send telegram message: %w", err)
	}
	n.logger.Debug().Int64("chat_id", chatID).Str("booking_id", booking.ID).Msg("New booking notification sent")
	return nil
}

// FormatBookingMessage renders the HTML body of a new-booking notification.
func FormatBookingMessage(cafe *models.Cafe, b *models.Booking) string {
	var sb strings.Builder
	sb.WriteString("<b>New booking</b>")
	if cafe != nil && cafe.Name != "" {
		sb.WriteString(" at ")
		sb.WriteString(tgbotapi.EscapeText(tgbotapi.ModeHTML, cafe.Name))
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Date: %s\n", b.BookingDate)
	fmt.Fprintf(&sb, "Time: %s - %s (%d min)\n", b.StartTime, timefmt.EndTime(b.StartTime, b.Duration), b.Duration)

	if len(b.Items) > 0 {
		parts := make([]string, 0, len(b.Items))
		for _, it := range b.Items {
			parts = append(parts, fmt.Sprintf("%s x%d", it.ConsoleType.Label(), it.Quantity))
		}
		fmt.Fprintf(&sb, "Stations: %s\n", strings.Join(parts, ", "))
	}
	if b.CustomerName != "" {
		fmt.Fprintf(&sb, "Customer: %s\n", tgbotapi.EscapeText(tgbotapi.ModeHTML, b.CustomerName))
	}
	if b.CustomerPhone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", tgbotapi.EscapeText(tgbotapi.ModeHTML, b.CustomerPhone))
	}
	if b.TotalAmount != nil {
		fmt.Fprintf(&sb, "Amount: ₹%d\n", *b.TotalAmount)
	}
	fmt.Fprintf(&sb, "Status: %s", b.Status)
	return sb.String()
}
