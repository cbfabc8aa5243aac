package config

import (
	"fmt"
	"strings"

	"traffic-infographic/internal/features/delivery"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Output   OutputConfig   `mapstructure:"output"`
	Render   RenderConfig   `mapstructure:"render"`
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	MaxUploadBytes  int64    `mapstructure:"max_upload_bytes"`
	RateLimit       float64  `mapstructure:"rate_limit"` // uploads per second, 0 disables
	RateBurst       int      `mapstructure:"rate_burst"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // seconds
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// OutputConfig selects the delivery mode for the whole process.
type OutputConfig struct {
	Mode     string `mapstructure:"mode"`
	Dir      string `mapstructure:"dir"`
	Filename string `mapstructure:"filename"`
}

type RenderConfig struct {
	DPI      float64 `mapstructure:"dpi"`
	FontPath string  `mapstructure:"font_path"`
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Delivery maps the output and telegram sections onto adapter settings.
func (c *Config) Delivery() delivery.Config {
	return delivery.Config{
		Mode:     c.Output.Mode,
		Dir:      c.Output.Dir,
		Filename: c.Output.Filename,
		BotToken: c.Telegram.BotToken,
		ChatID:   c.Telegram.ChatID,
	}
}

// LoadConfig merges, lowest first: defaults, config.yaml, .env, environment,
// then any flags set on flags (may be nil).
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.ReadInConfig() // optional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setupEnvAliases(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// a comma separated env value arrives as one string
	if raw, ok := v.Get("server.allowed_origins").(string); ok {
		config.Server.AllowedOrigins = splitList(raw)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")
	v.BindEnv("server.max_upload_bytes", "MAX_UPLOAD_BYTES")

	v.BindEnv("output.mode", "OUTPUT_MODE")
	v.BindEnv("output.dir", "OUTPUT_DIR")
	v.BindEnv("output.filename", "OUTPUT_FILENAME")

	v.BindEnv("render.font_path", "FONT_PATH")

	v.BindEnv("log.dir", "LOG_DIR")
	v.BindEnv("log.level", "LOG_LEVEL")

	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 10000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_bytes", 10*1024*1024) // 10MB
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("output.mode", string(delivery.ModeEncode))
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.filename", delivery.DefaultFilename)

	v.SetDefault("render.dpi", 100.0)
	v.SetDefault("render.font_path", "")

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "debug")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
}

// RegisterFlags declares the command line overrides on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("server.host", "0.0.0.0", "Listen host (env: HOST)")
	fs.Int("server.port", 10000, "Listen port (env: PORT)")
	fs.Int64("server.max_upload_bytes", 10*1024*1024, "Max upload size in bytes (env: MAX_UPLOAD_BYTES)")
	fs.String("output.mode", string(delivery.ModeEncode), "Delivery mode: encode, persist or telegram (env: OUTPUT_MODE)")
	fs.String("output.dir", "output", "Directory for persist mode (env: OUTPUT_DIR)")
	fs.Float64("render.dpi", 100, "Chart pixel density; the canvas is 10x10 inches")
	fs.String("log.dir", "logs", "Directory for app.log (env: LOG_DIR)")
	fs.String("log.level", "debug", "Log level for app.log (env: LOG_LEVEL)")
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Render.DPI <= 0 {
		return fmt.Errorf("render.dpi must be positive, got %v", cfg.Render.DPI)
	}

	mode, err := delivery.ParseMode(cfg.Output.Mode)
	if err != nil {
		return err
	}
	cfg.Output.Mode = string(mode)

	switch mode {
	case delivery.ModePersist:
		if cfg.Output.Dir == "" {
			return fmt.Errorf("output.dir is required in persist mode")
		}
	case delivery.ModeTelegram:
		if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.bot_token and telegram.chat_id are required in telegram mode")
		}
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
