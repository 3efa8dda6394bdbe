package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Auth       `yaml:"auth"`
	Shop       `yaml:"shop"`
	Notify     `yaml:"notify"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8000"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	CORSOrigins []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
}

type Database struct {
	// Driver is one of sqlite, postgres or mysql.
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	// DSN is a file path for sqlite and a connection string otherwise.
	DSN string `yaml:"dsn" env:"DATABASE_URL" env-default:"alterations.db"`
}

type Auth struct {
	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	AdminUsername string        `yaml:"admin_username" env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPassword string        `yaml:"admin_password" env:"ADMIN_PASSWORD" env-default:"admin123"`
}

type Shop struct {
	NonWorkingWeekday       string `yaml:"non_working_weekday" env:"SHOP_NON_WORKING_WEEKDAY" env-default:"sunday"`
	JacketCapacity          int    `yaml:"jacket_capacity" env:"SHOP_JACKET_CAPACITY" env-default:"5"`
	PantsCapacity           int    `yaml:"pants_capacity" env:"SHOP_PANTS_CAPACITY" env-default:"5"`
	SearchHorizonDays       int    `yaml:"search_horizon_days" env:"SHOP_SEARCH_HORIZON_DAYS" env-default:"180"`
	DailyWorkloadCapMinutes int    `yaml:"daily_workload_cap_minutes" env:"SHOP_DAILY_WORKLOAD_CAP" env-default:"480"`
	MinProficiency          int    `yaml:"min_proficiency" env:"SHOP_MIN_PROFICIENCY" env-default:"3"`
	DayStart                string `yaml:"day_start" env:"SHOP_DAY_START" env-default:"09:00"`
	DayEnd                  string `yaml:"day_end" env:"SHOP_DAY_END" env-default:"17:00"`
}

type Notify struct {
	WebhookURL string        `yaml:"webhook_url" env:"NOTIFY_WEBHOOK_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"NOTIFY_TIMEOUT" env-default:"5s"`
	// Telegram is enabled when both token and chat id are set.
	TelegramBotToken string `yaml:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekday returns the shop's non-working weekday.
func (s Shop) Weekday() (time.Weekday, error) {
	wd, err := ParseWeekday(s.NonWorkingWeekday)
	if err != nil {
		return time.Sunday, fmt.Errorf("non_working_weekday: %w", err)
	}
	return wd, nil
}

// ParseWeekday accepts English weekday names in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return time.Sunday, fmt.Errorf("unknown weekday %q", name)
	}
	return wd, nil
}

// Load reads .env files, then the YAML file named by CONFIG_PATH (if any)
// with environment overrides, then validates the result.
func Load() (*Config, error) {
	const op = "config.Load"

	// Try root and parent directories for flexibility
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	var cfg Config
	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad is Load for process start; it exits on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func (c *Config) validate() error {
	if _, err := c.Shop.Weekday(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Shop.JacketCapacity < 0 || c.Shop.PantsCapacity < 0 {
		return fmt.Errorf("capacities must not be negative")
	}
	if c.Shop.SearchHorizonDays <= 0 {
		return fmt.Errorf("search_horizon_days must be positive")
	}
	if _, err := time.Parse("15:04", c.Shop.DayStart); err != nil {
		return fmt.Errorf("day_start: %w", err)
	}
	if _, err := time.Parse("15:04", c.Shop.DayEnd); err != nil {
		return fmt.Errorf("day_end: %w", err)
	}
	return nil
}
