// Package config loads service settings from defaults, an optional YAML
// file and KOUKI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/koukiniwa/ai-kouki-backend/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Model runtime
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	PersonaFile string  `mapstructure:"persona_file" yaml:"persona_file"`

	// Post store
	StoreBackend        string `mapstructure:"store_backend" yaml:"store_backend"`
	FirestoreProject    string `mapstructure:"firestore_project" yaml:"firestore_project"`
	FirestoreCollection string `mapstructure:"firestore_collection" yaml:"firestore_collection"`
	SQLitePath          string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostsDir            string `mapstructure:"posts_dir" yaml:"posts_dir"`
	RedisAddr           string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword       string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB             int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisKey            string `mapstructure:"redis_key" yaml:"redis_key"`

	// Retrieval
	CacheTTLSec       int `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	DateMaxResults    int `mapstructure:"date_max_results" yaml:"date_max_results"`
	LexicalMaxResults int `mapstructure:"lexical_max_results" yaml:"lexical_max_results"`
	RecentMaxResults  int `mapstructure:"recent_max_results" yaml:"recent_max_results"`
	ExcerptChars      int `mapstructure:"excerpt_chars" yaml:"excerpt_chars"`

	// Sessions
	SessionMaxClients int `mapstructure:"session_max_clients" yaml:"session_max_clients"`
	SessionTTLMin     int `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`

	// HTTP server
	Port             int      `mapstructure:"port" yaml:"port"`
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins" yaml:"cors_allow_origins"`

	// HTTP/Retry configuration for outbound model calls
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// CacheTTL is the document cache lifetime.
func (c *Global) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSec) * time.Second }

// SessionTTL is the idle lifetime of a transcript; 0 keeps it forever.
func (c *Global) SessionTTL() time.Duration { return time.Duration(c.SessionTTLMin) * time.Minute }

func (c *Global) HTTPTimeout() time.Duration { return time.Duration(c.HTTPTimeoutSec) * time.Second }

func (c *Global) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

func (c *Global) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}

// Addr is the listen address for the HTTP server.
func (c *Global) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "anthropic")
	v.SetDefault("base_url", "")
	v.SetDefault("model", "claude-sonnet-4-5-20250929")
	v.SetDefault("max_tokens", 400)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("persona_file", "")

	v.SetDefault("store_backend", "file")
	v.SetDefault("firestore_project", "")
	v.SetDefault("firestore_collection", "posts")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("posts_dir", "posts")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key", "kouki:posts")

	v.SetDefault("cache_ttl_sec", 600)
	v.SetDefault("date_max_results", 3)
	v.SetDefault("lexical_max_results", 2)
	v.SetDefault("recent_max_results", 2)
	v.SetDefault("excerpt_chars", 500)

	v.SetDefault("session_max_clients", 1000)
	v.SetDefault("session_ttl_min", 60)

	v.SetDefault("port", 5000)
	v.SetDefault("cors_allow_origins", []string{"*"})

	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// DefaultDir is ~/.kouki.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".kouki"), nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. PORT and ANTHROPIC_API_KEY are
// honored alongside KOUKI_PORT and KOUKI_API_KEY.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("KOUKI")
	v.AutomaticEnv()
	_ = v.BindEnv("port", "KOUKI_PORT", "PORT")
	_ = v.BindEnv("api_key", "KOUKI_API_KEY", "ANTHROPIC_API_KEY")
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Save writes the configuration to cfgFile, or ~/.kouki/config.yaml when
// cfgFile is empty.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Set parses val for key and assigns it, rejecting unknown keys and values
// that would break the service.
func (c *Global) Set(key, val string) error {
	atoi := func(lo int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "provider":
		switch strings.ToLower(val) {
		case "anthropic", "claude":
			c.Provider = "anthropic"
		case "openrouter":
			c.Provider = "openrouter"
		default:
			return fmt.Errorf("invalid provider: %s (use anthropic or openrouter)", val)
		}
	case "api_key":
		c.APIKey = val
	case "base_url":
		c.BaseURL = strings.TrimRight(val, "/")
	case "model":
		c.Model = val
	case "max_tokens":
		c.MaxTokens, err = atoi(1)
	case "temperature":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %v", val)
		}
		c.Temperature = f
	case "persona_file":
		c.PersonaFile = val
	case "store_backend":
		switch strings.ToLower(val) {
		case "file", "sqlite", "redis", "firestore":
			c.StoreBackend = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid store_backend: %s (use file, sqlite, redis or firestore)", val)
		}
	case "firestore_project":
		c.FirestoreProject = val
	case "firestore_collection":
		c.FirestoreCollection = val
	case "sqlite_path":
		c.SQLitePath = val
	case "posts_dir":
		c.PostsDir = val
	case "redis_addr":
		c.RedisAddr = val
	case "redis_password":
		c.RedisPassword = val
	case "redis_db":
		c.RedisDB, err = atoi(0)
	case "redis_key":
		c.RedisKey = val
	case "cache_ttl_sec":
		c.CacheTTLSec, err = atoi(0)
	case "date_max_results":
		c.DateMaxResults, err = atoi(1)
	case "lexical_max_results":
		c.LexicalMaxResults, err = atoi(1)
	case "recent_max_results":
		c.RecentMaxResults, err = atoi(1)
	case "excerpt_chars":
		c.ExcerptChars, err = atoi(1)
	case "session_max_clients":
		c.SessionMaxClients, err = atoi(0)
	case "session_ttl_min":
		c.SessionTTLMin, err = atoi(0)
	case "port":
		var p int
		if p, err = atoi(1); err == nil && p > 65535 {
			err = fmt.Errorf("invalid port: %v", val)
		}
		if err == nil {
			c.Port = p
		}
	case "cors_allow_origins":
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSAllowOrigins = origins
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi(1)
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi(1)
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi(0)
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi(0)
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}
