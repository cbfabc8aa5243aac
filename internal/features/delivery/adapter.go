package delivery

// Output adapters
// One Adapter per deployment mode; the pipeline result is handed to exactly
// one of them and is not used afterwards

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"traffic-infographic/internal/features/infographic"
	"traffic-infographic/internal/infra/failure"
	"traffic-infographic/internal/infra/fs"
	logging "traffic-infographic/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const stageDelivery = "delivery"

type Mode string

const (
	ModeEncode   Mode = "encode"
	ModePersist  Mode = "persist"
	ModeTelegram Mode = "telegram"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeEncode, ModePersist, ModeTelegram:
		return m, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (want encode, persist or telegram)", s)
	}
}

// Result describes where the infographic went. Only the fields of the
// producing mode are set.
type Result struct {
	Mode      Mode
	Image     string // base64 PNG
	Path      string // absolute file path
	ChatID    int64
	MessageID int
}

// Message is the plain-text confirmation for the caller.
func (r *Result) Message() string {
	switch r.Mode {
	case ModePersist:
		return "Infographic saved to " + r.Path
	case ModeTelegram:
		return fmt.Sprintf("Infographic sent to chat %d (message %d)", r.ChatID, r.MessageID)
	default:
		return "Infographic encoded"
	}
}

type Adapter interface {
	Mode() Mode
	Deliver(ig *infographic.Infographic) (*Result, error)
}

type Config struct {
	Mode     string
	Dir      string
	Filename string
	BotToken string
	ChatID   string
}

const DefaultFilename = "infographic.png"

// New builds the adapter selected by cfg.Mode.
func New(cfg Config, logger *logging.Logger) (Adapter, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModePersist:
		if err := fs.CheckDir(cfg.Dir); err != nil {
			return nil, err
		}
		return NewPersister(cfg.Dir, cfg.Filename, logger), nil
	case ModeTelegram:
		bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
		}
		logger.Success("Telegram bot authorized")
		return NewTelegramPublisher(bot, cfg.ChatID, cfg.Filename, logger)
	default:
		return NewEncoder(), nil
	}
}

// EncodePNG serialises img losslessly. Output depends only on the pixels.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, failure.IO(stageDelivery, "encode png", err)
	}
	return buf.Bytes(), nil
}
