package delivery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"traffic-infographic/internal/features/infographic"
	"traffic-infographic/internal/infra/failure"
	logging "traffic-infographic/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// PhotoSender is the part of *tgbotapi.BotAPI the publisher needs.
type PhotoSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramPublisher posts the infographic as a photo to one chat. Sends go
// through a circuit breaker and are never retried.
type TelegramPublisher struct {
	sender   PhotoSender
	chatID   int64
	filename string
	breaker  *gobreaker.CircuitBreaker
	log      *logging.Logger
}

func NewTelegramPublisher(sender PhotoSender, chatID, filename string, logger *logging.Logger) (*TelegramPublisher, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	if filename == "" {
		filename = DefaultFilename
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TelegramDelivery",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &TelegramPublisher{
		sender:   sender,
		chatID:   id,
		filename: filename,
		breaker:  breaker,
		log:      logger,
	}, nil
}

func (t *TelegramPublisher) Mode() Mode { return ModeTelegram }

func (t *TelegramPublisher) Deliver(ig *infographic.Infographic) (*Result, error) {
	data, err := EncodePNG(ig.Image())
	if err != nil {
		return nil, err
	}

	photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileBytes{Name: t.filename, Bytes: data})
	photo.Caption = infographic.Caption

	res, err := t.breaker.Execute(func() (interface{}, error) {
		return t.sender.Send(photo)
	})
	if err != nil {
		return nil, failure.IO(stageDelivery, "send infographic to telegram", err)
	}

	msg := res.(tgbotapi.Message)
	t.log.Info("Infographic sent to Telegram",
		zap.Int64("chat_id", t.chatID),
		zap.Int("message_id", msg.MessageID),
		zap.Int("bytes", len(data)))

	return &Result{Mode: ModeTelegram, ChatID: t.chatID, MessageID: msg.MessageID}, nil
}
