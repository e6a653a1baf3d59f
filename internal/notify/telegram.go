package notify

import (
	"fmt"

	"washboard/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the slice of the Telegram bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier посылает уведомления в чат менеджеров. Ошибки доставки
// только логируются: уведомления не должны ломать работу доски.
type TelegramNotifier struct {
	sender Sender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) NotifyTransition(booking models.Booking, from, to string) {
	var text string
	switch to {
	case models.StatusCompleted:
		text = fmt.Sprintf("✅ Мойка завершена: %s %s (%s), услуга «%s»",
			booking.Car.Model, booking.Car.Plate, booking.Customer.Name, booking.Service.Name)
	case models.StatusCancelled:
		text = fmt.Sprintf("❌ Заявка отменена: %s %s (%s)",
			booking.Car.Model, booking.Car.Plate, booking.Customer.Name)
	default:
		return
	}
	n.send(text)
}

func (n *TelegramNotifier) NotifyRollback(booking models.Booking, stage string, cause error) {
	text := fmt.Sprintf("⚠️ Перевод заявки %s (%s %s) не прошел, карточка возвращена в «%s»: %v",
		booking.ID, booking.Car.Model, booking.Car.Plate, stage, cause)
	n.send(text)
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error().Err(err).Msg("send telegram notification")
	}
}
