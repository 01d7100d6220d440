package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration for the aria server.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Speech SpeechConfig `mapstructure:"speech"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	// Tokens lists accepted bearer tokens. Empty plus DevMode=false means
	// every request is rejected, which is the safe default.
	Tokens []string `mapstructure:"tokens"`
	// GuestToken is accepted like a regular token but logged distinctly so
	// guest traffic is visible in the request log.
	GuestToken string `mapstructure:"guest_token"`
	// DevMode bypasses bearer auth entirely. Never enable in production.
	DevMode bool `mapstructure:"dev_mode"`
}

type SpeechConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxAudioBytes int64         `mapstructure:"max_audio_bytes"`
}

type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	CacheSize   int           `mapstructure:"cache_size"`
}

type StoreConfig struct {
	// Driver selects the repository backend: "memory" or "postgres".
	Driver   string `mapstructure:"driver"`
	Addr     string `mapstructure:"addr"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from an optional yaml file plus ARIA_* environment
// overrides, applying defaults for everything unset. path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("auth.guest_token", "guest")
	v.SetDefault("auth.dev_mode", false)
	v.SetDefault("auth.tokens", []string{})

	v.SetDefault("speech.base_url", "https://api.openai.com/v1")
	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.model", "whisper-1")
	v.SetDefault("speech.timeout", 30*time.Second)
	v.SetDefault("speech.max_audio_bytes", int64(10<<20))

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout", 15*time.Second)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.cache_size", 256)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.addr", "localhost:5432")
	v.SetDefault("store.user", "aria")
	v.SetDefault("store.password", "")
	v.SetDefault("store.database", "aria")

	v.SetDefault("log.level", "info")

	// The empty credential defaults above register those keys with viper;
	// AutomaticEnv only maps env vars for keys it already knows.
	v.SetEnvPrefix("ARIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Store.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("store.driver %q not supported (memory, postgres)", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.Addr == "" {
		return fmt.Errorf("store.addr required for postgres driver")
	}
	if c.Speech.MaxAudioBytes <= 0 {
		return fmt.Errorf("speech.max_audio_bytes must be positive")
	}
	if c.LLM.Timeout <= 0 || c.Speech.Timeout <= 0 {
		return fmt.Errorf("speech/llm timeouts must be positive")
	}
	return nil
}
