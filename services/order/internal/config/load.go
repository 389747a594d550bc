package config

import (
	"os"
	"strings"
	"time"

	shared "github.com/Skotchmaster/chat_shop/pkg/config"
	"github.com/Skotchmaster/chat_shop/services/order/internal/notify"
)

type ServiceConfig struct {
	shared.Config

	BotToken         string
	BotWebhookURL    string
	BotWebhookSecret string
	BotWorkers       int

	ProofDir             string
	ProofURLPrefix       string
	ProofDownloadTimeout time.Duration
	NotifyTimeout        time.Duration

	BrowseTTL      time.Duration
	BrowseCapacity int
	RedisAddr      string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	OrderEventsTopic string

	Bank notify.BankDetails
}

func Load() ServiceConfig {
	cfg := ServiceConfig{
		Config: shared.Load(),

		BotToken:         os.Getenv("BOT_TOKEN"),
		BotWebhookURL:    strings.TrimRight(os.Getenv("BOT_WEBHOOK_URL"), "/"),
		BotWebhookSecret: os.Getenv("BOT_WEBHOOK_SECRET"),
		BotWorkers:       shared.EnvIntDefault("BOT_WORKERS", 8),

		ProofDir:             shared.EnvDefault("PROOF_DIR", "uploads/receipts"),
		ProofURLPrefix:       "/" + strings.Trim(shared.EnvDefault("PROOF_URL_PREFIX", "/uploads/receipts"), "/"),
		ProofDownloadTimeout: shared.EnvDurationDefault("PROOF_DOWNLOAD_TIMEOUT", 30*time.Second),
		NotifyTimeout:        shared.EnvDurationDefault("NOTIFY_TIMEOUT", 10*time.Second),

		BrowseTTL:      shared.EnvDurationDefault("BROWSE_TTL", 30*time.Minute),
		BrowseCapacity: shared.EnvIntDefault("BROWSE_CAPACITY", 10000),
		RedisAddr:      os.Getenv("REDIS_ADDR"),

		ElasticURL:      os.Getenv("ES_URL"),
		ElasticUser:     os.Getenv("ES_USER"),
		ElasticPassword: os.Getenv("ES_PASSWORD"),
		ElasticIndex:    shared.EnvDefault("ES_INDEX", "products"),

		OrderEventsTopic: shared.EnvDefault("ORDER_EVENTS_TOPIC", "order_events"),

		Bank: notify.BankDetails{
			BankName:      os.Getenv("BANK_NAME"),
			AccountHolder: os.Getenv("BANK_ACCOUNT_HOLDER"),
			AccountNumber: os.Getenv("BANK_ACCOUNT_NUMBER"),
		},
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "order"
	}
	return cfg
}

// Validate fails with every missing or out of range setting the service needs.
func (c ServiceConfig) Validate() error {
	return c.Config.Check().
		NonEmpty("BOT_TOKEN", c.BotToken).
		Positive("BOT_WORKERS", c.BotWorkers).
		Positive("BROWSE_CAPACITY", c.BrowseCapacity).
		Err()
}

// UseWebhook reports whether updates are pushed to us instead of long-polled.
func (c ServiceConfig) UseWebhook() bool {
	return c.BotWebhookURL != "" && c.BotWebhookSecret != ""
}

func (c ServiceConfig) WebhookEndpoint() string {
	return c.BotWebhookURL + "/bot/webhook/" + c.BotWebhookSecret
}
