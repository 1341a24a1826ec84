package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/simonvc/bistroledger/internal/ledger"
)

// Config represents the bistroledger.yaml configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Accounting AccountingConfig `yaml:"accounting"`
	Cache      CacheConfig      `yaml:"cache"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	// RateLimit is the sustained requests per second allowed per client IP.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Validator is a user allowed to validate journal entries and decide expense claims.
type Validator struct {
	UserID string `yaml:"user_id"`
	Role   string `yaml:"role"`
	// PINHash is a bcrypt hash. When set the user must present the PIN to validate.
	PINHash string `yaml:"pin_hash,omitempty"`
}

type AuthConfig struct {
	// An empty JWTSecret disables bearer tokens; the API then trusts X-User-ID.
	JWTSecret  string        `yaml:"jwt_secret,omitempty"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	Validators []Validator   `yaml:"validators,omitempty"`
}

type TopicsConfig struct {
	Sales     string `yaml:"sales"`
	Purchases string `yaml:"purchases"`
	Expenses  string `yaml:"expenses"`
	Posted    string `yaml:"posted"`
}

type KafkaConfig struct {
	Brokers []string     `yaml:"brokers,omitempty"`
	GroupID string       `yaml:"group_id"`
	Topics  TopicsConfig `yaml:"topics"`
}

type AccountingConfig struct {
	Currency     string              `yaml:"currency"`
	Designations ledger.Designations `yaml:"designations"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Default returns a Config that runs a local SQLite ledger.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			RateLimit:      20,
			RateBurst:      40,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "bistroledger.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
		Kafka: KafkaConfig{
			GroupID: "bistroledger",
			Topics: TopicsConfig{
				Sales:     "orders.paid",
				Purchases: "supplier-orders.delivered",
				Expenses:  "expenses.approved",
				Posted:    "ledger.entries",
			},
		},
		Accounting: AccountingConfig{
			Currency:     "EUR",
			Designations: ledger.DefaultDesignations(),
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Accounting.Designations = cfg.Accounting.Designations.Merge(ledger.DefaultDesignations())
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the YAML file
// if it exists, then a .env file, then the process environment. An explicit
// path that does not exist is an error; the default path may be absent.
func Resolve(path string, explicit bool) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, err
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg with the LEDGER_*, LOG_* and KAFKA_* variables that are set.
func ApplyEnv(cfg *Config) error {
	setString(&cfg.Database.Driver, "LEDGER_DB_DRIVER")
	setString(&cfg.Database.DSN, "LEDGER_DB_DSN")
	setString(&cfg.Server.Addr, "LEDGER_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Auth.JWTSecret, "LEDGER_JWT_SECRET")
	setString(&cfg.Kafka.GroupID, "KAFKA_GROUP_ID")
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup("LEDGER_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("LEDGER_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LEDGER_RATE_LIMIT: %w", err)
		}
		cfg.Server.RateLimit = f
	}
	if v, ok := lookup("LEDGER_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LEDGER_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = d
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	for i, v := range c.Auth.Validators {
		if strings.TrimSpace(v.UserID) == "" {
			return fmt.Errorf("validator %d: user_id is required", i+1)
		}
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
