package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chatapp-client/internal/models"
	"chatapp-client/internal/validator"
)

const (
	TokenEnv         = "CHATCLIENT_TOKEN"
	RedisPasswordEnv = "CHATCLIENT_REDIS_PASSWORD"
	DbPasswordEnv    = "CHATCLIENT_DB_PASSWORD"
)

type Api struct {
	BaseURL     string        `yaml:"BaseURL" validate:"required,url"`
	Token       string        `yaml:"Token"`
	UserAgent   string        `yaml:"UserAgent"`
	Timeout     time.Duration `yaml:"Timeout" validate:"gte=0"`
	MaxRetries  int           `yaml:"MaxRetries" validate:"gte=0,lte=10"`
	Concurrency int           `yaml:"Concurrency" validate:"gte=0"` // 0 means unbounded
}

type Gateway struct {
	URL    string `yaml:"URL" validate:"omitempty,url"`
	Enable bool   `yaml:"Enable"`
}

// Cache toggles caching per entity kind. A disabled kind is never stored
// and every lookup of it misses.
type Cache struct {
	Backend string        `yaml:"Backend" validate:"oneof=local redis sql"`
	TTL     time.Duration `yaml:"TTL" validate:"gte=0"`
	Prefix  string        `yaml:"Prefix"`

	Users    bool `yaml:"Users"`
	Channels bool `yaml:"Channels"`
	Guilds   bool `yaml:"Guilds"`
	Messages bool `yaml:"Messages"`

	RedisAddress  string `yaml:"RedisAddress" validate:"required_if=Backend redis"`
	RedisPassword string `yaml:"RedisPassword"`
	RedisDB       int    `yaml:"RedisDB"`

	SelfContained bool   `yaml:"SelfContained"`
	SqlitePath    string `yaml:"SqlitePath"`
	DbUser        string `yaml:"DbUser"`
	DbPassword    string `yaml:"DbPassword"`
	DbAddress     string `yaml:"DbAddress"`
	DbPort        string `yaml:"DbPort"`
	DbDatabase    string `yaml:"DbDatabase"`
}

func (c Cache) Enabled(kind models.Kind) bool {
	switch kind {
	case models.KindUser:
		return c.Users
	case models.KindChannel:
		return c.Channels
	case models.KindGuild:
		return c.Guilds
	case models.KindMessage:
		return c.Messages
	default:
		return false
	}
}

type Log struct {
	Level string `yaml:"Level" validate:"omitempty,oneof=debug info warn error"`
	File  string `yaml:"File"`
}

type Http struct {
	Enable            bool   `yaml:"Enable"`
	Address           string `yaml:"Address"`
	Port              string `yaml:"Port" validate:"required_if=Enable true"`
	PrintHttpRequests bool   `yaml:"PrintHttpRequests"`
}

type Config struct {
	Api               Api     `yaml:"Api"`
	Gateway           Gateway `yaml:"Gateway"`
	Cache             Cache   `yaml:"Cache"`
	Log               Log     `yaml:"Log"`
	Http              Http    `yaml:"Http"`
	SnowflakeWorkerID int64   `yaml:"SnowflakeWorkerID" validate:"gte=0,lte=1023"`
}

// Default returns the configuration used for anything the file leaves out.
func Default() Config {
	return Config{
		Api: Api{
			BaseURL:    "https://discord.com/api/v10",
			UserAgent:  "chatapp-client (https://github.com/chatapp-client, 1.0)",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Cache: Cache{
			Backend:    "local",
			Prefix:     "chatclient",
			Users:      true,
			Channels:   true,
			Guilds:     true,
			Messages:   true,
			SqlitePath: "./cache.db",
		},
		Log: Log{
			Level: "info",
		},
		Http: Http{
			Address: "127.0.0.1",
			Port:    "3010",
		},
	}
}

// LoadFromFile reads a YAML config on top of the defaults, then applies
// .env and environment overrides for secrets.
func LoadFromFile(filename string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(filename)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}
	}

	// a missing .env file is fine
	_ = godotenv.Load()
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(TokenEnv); v != "" {
		c.Api.Token = v
	}
	if v := os.Getenv(RedisPasswordEnv); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv(DbPasswordEnv); v != "" {
		c.Cache.DbPassword = v
	}
}

func (c *Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Cache.Backend == "sql" && !c.Cache.SelfContained && c.Cache.DbAddress == "" {
		return fmt.Errorf("invalid config: cache_dbaddress_required")
	}
	return nil
}
