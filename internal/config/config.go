package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"welfare-advisor/internal/telemetry"
)

const (
	SessionBackendFile     = "file"
	SessionBackendDynamoDB = "dynamodb"
	// SessionBackendMemory keeps the session for the life of the process.
	SessionBackendMemory = "memory"

	// GreetingDisabled as GREETING starts the chat without a bot greeting.
	GreetingDisabled = "-"
)

type Config struct {
	APIBaseURL  string        `env:"API_BASE_URL,default=http://localhost:8080"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT,default=10s,strict"`
	TurnTimeout time.Duration `env:"TURN_TIMEOUT,default=60s,strict"`
	Greeting    string        `env:"GREETING,default=안녕하세요! 무엇을 도와드릴까요?"`
	LogLevel    string        `env:"LOG_LEVEL,default=info"`

	Session SessionConfig
	Map     MapConfig
	Otel    telemetry.Config
}

type SessionConfig struct {
	Backend string `env:"SESSION_BACKEND,default=file"`
	Dir     string `env:"SESSION_DIR"`
	Table   string `env:"SESSION_TABLE"`
	Owner   string `env:"SESSION_OWNER"`
}

type MapConfig struct {
	AppKey      string `env:"MAP_APP_KEY"`
	ParamPrefix string `env:"PARAM_PREFIX"`
	SDKURL      string `env:"MAP_SDK_URL,default=https://dapi.kakao.com/v2/maps/sdk.js"`
}

// Load reads envFile into the environment when it exists, then decodes the
// environment. Variables already set win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("config: API_BASE_URL must not be empty")
	}
	switch c.Session.Backend {
	case SessionBackendFile, SessionBackendMemory:
	case SessionBackendDynamoDB:
		if strings.TrimSpace(c.Session.Table) == "" {
			return errors.New("config: SESSION_TABLE is required for the dynamodb session backend")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.HTTPTimeout < 0 || c.TurnTimeout < 0 {
		return errors.New("config: timeouts must not be negative")
	}
	return nil
}

// SlogLevel parses LOG_LEVEL.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// GreetingText is the configured greeting, or "" when disabled.
func (c Config) GreetingText() string {
	if strings.TrimSpace(c.Greeting) == GreetingDisabled {
		return ""
	}
	return c.Greeting
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c Config) NeedsAWS() bool {
	return c.Session.Backend == SessionBackendDynamoDB || c.Map.UsesParamStore()
}

// UsesParamStore reports whether the map key is read from SSM. A key set
// directly takes precedence.
func (m MapConfig) UsesParamStore() bool {
	return strings.TrimSpace(m.AppKey) == "" && strings.TrimSpace(m.ParamPrefix) != ""
}
