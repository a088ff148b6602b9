package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // checkout session lifetime
}

type BillingConfig struct {
	BaseURL        string        `yaml:"base_url"`
	CreatePath     string        `yaml:"create_path"`
	StatusPath     string        `yaml:"status_path"`
	WebhookURL     string        `yaml:"webhook_url"` // optional downstream collector
	FallbackEmail  string        `yaml:"fallback_email"`
	SessionSecret  string        `yaml:"session_secret"` // HMAC key for anti-replay tokens
	SessionTTL     time.Duration `yaml:"session_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type CheckoutConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	ConfirmWindow  time.Duration `yaml:"confirm_window"`
	CheckTimeout   time.Duration `yaml:"check_timeout"`
	WebhookWorkers int           `yaml:"webhook_workers"`
}

type ServiceEntry struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price int64  `yaml:"price"`
}

type CatalogConfig struct {
	Currency string         `yaml:"currency"`
	Services []ServiceEntry `yaml:"services"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Billing  BillingConfig  `yaml:"billing"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Catalog  CatalogConfig  `yaml:"catalog"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Billing.CreatePath == "" {
		cfg.Billing.CreatePath = "/nouvelle_facture.php"
	}
	if cfg.Billing.StatusPath == "" {
		cfg.Billing.StatusPath = "/etat_facture.php"
	}
	if cfg.Billing.SessionTTL <= 0 {
		cfg.Billing.SessionTTL = 30 * time.Minute
	}
	if cfg.Billing.RequestTimeout <= 0 {
		cfg.Billing.RequestTimeout = 15 * time.Second
	}
	if cfg.Checkout.PollInterval <= 0 {
		cfg.Checkout.PollInterval = 5 * time.Second
	}
	if cfg.Checkout.ConfirmWindow <= 0 {
		cfg.Checkout.ConfirmWindow = 3 * time.Minute
	}
	if cfg.Checkout.CheckTimeout <= 0 {
		cfg.Checkout.CheckTimeout = 10 * time.Second
	}
	if cfg.Checkout.WebhookWorkers <= 0 {
		cfg.Checkout.WebhookWorkers = 2
	}
	if cfg.Catalog.Currency == "" {
		cfg.Catalog.Currency = "XAF"
	}

	// Minimal validation
	if cfg.Billing.BaseURL == "" {
		return nil, errors.New("billing.base_url is required")
	}
	if cfg.Billing.SessionSecret == "" {
		return nil, errors.New("billing.session_secret is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if len(cfg.Catalog.Services) == 0 {
		return nil, errors.New("catalog.services must list at least one service")
	}
	seen := make(map[string]bool, len(cfg.Catalog.Services))
	for _, s := range cfg.Catalog.Services {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("catalog service %q needs both id and name", s.ID)
		}
		if s.Price <= 0 {
			return nil, fmt.Errorf("catalog service %q needs a positive price", s.ID)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("catalog service %q is listed twice", s.ID)
		}
		seen[s.ID] = true
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
