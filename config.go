package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment. Values in a local .env file are loaded
// first by godotenv.
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	DBPath      string        `env:"DB_PATH" envDefault:"portfolio.db"`
	ImagesDir   string        `env:"IMAGES_DIR" envDefault:"./images"`
	ContentFile string        `env:"CONTENT_FILE"`
	WatchFile   bool          `env:"CONTENT_WATCH" envDefault:"false"`
	ViewTTL     time.Duration `env:"VIEW_TTL" envDefault:"30m"`
	MaxRegions  int           `env:"MAX_REGIONS" envDefault:"64"`
	Retention   time.Duration `env:"ANALYTICS_RETENTION" envDefault:"8760h"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	SMTP SMTPConfig
}

// SMTPConfig configures contact form delivery.
type SMTPConfig struct {
	Host    string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port    string `env:"SMTP_PORT" envDefault:"587"`
	User    string `env:"SMTP_USER"`
	Pass    string `env:"SMTP_PASS"`
	ToEmail string `env:"TO_EMAIL"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxRegions <= 0 {
		return cfg, fmt.Errorf("MAX_REGIONS must be positive, got %d", cfg.MaxRegions)
	}
	if cfg.ViewTTL <= 0 {
		return cfg, fmt.Errorf("VIEW_TTL must be positive, got %s", cfg.ViewTTL)
	}
	return cfg, nil
}
