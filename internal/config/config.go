package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
	DefaultModel    string `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string `mapstructure:"default_provider" yaml:"default_provider"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	NarrativeTimeoutSec int `mapstructure:"narrative_timeout_sec" yaml:"narrative_timeout_sec"`
	PromptTokenLimit    int `mapstructure:"prompt_token_limit" yaml:"prompt_token_limit"`

	// Dataset source: a file path, or a Postgres DSN plus table.
	DatasetPath  string `mapstructure:"dataset_path" yaml:"dataset_path"`
	DatasetSheet string `mapstructure:"dataset_sheet" yaml:"dataset_sheet"`
	DatasetDSN   string `mapstructure:"dataset_dsn" yaml:"dataset_dsn"`
	DatasetTable string `mapstructure:"dataset_table" yaml:"dataset_table"`

	TableLimit      int    `mapstructure:"table_limit" yaml:"table_limit"`
	CompareMaxAreas int    `mapstructure:"compare_max_areas" yaml:"compare_max_areas"`
	CompareWorkers  int    `mapstructure:"compare_workers" yaml:"compare_workers"`
	MatchMode       string `mapstructure:"match_mode" yaml:"match_mode"`

	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	DebugErrors bool   `mapstructure:"debug_errors" yaml:"debug_errors"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format"`
}

// DirName is the per-user config directory under $HOME.
const DirName = ".estatelens"

// EnvPrefix prefixes environment overrides, e.g. ESTATELENS_TABLE_LIMIT.
const EnvPrefix = "ESTATELENS"

var defaults = map[string]any{
	"default_provider":      "openrouter",
	"http_timeout_sec":      60,
	"retry_max_attempts":    3,
	"retry_base_delay_ms":   500,
	"retry_max_delay_ms":    4000,
	"ollama_host":           "http://127.0.0.1:11434",
	"ollama_timeout_sec":    60,
	"narrative_timeout_sec": 20,
	"prompt_token_limit":    6000,
	"table_limit":           20,
	"compare_max_areas":     3,
	"compare_workers":       3,
	"match_mode":            "substring",
	"listen_addr":           ":8080",
	"debug_errors":          false,
	"log_level":             "info",
	"log_format":            "text",
}

// unsetKeys have no default. An empty default_model means the provider's default.
var unsetKeys = []string{"api_key", "default_model", "dataset_path", "dataset_sheet", "dataset_dsn", "dataset_table"}

// Keys lists every supported configuration key, sorted.
func Keys() []string {
	keys := append([]string(nil), unsetKeys...)
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultPath returns ~/.estatelens/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.estatelens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	// keys without defaults still need binding for AutomaticEnv to reach Unmarshal
	for _, k := range unsetKeys {
		_ = v.BindEnv(k)
	}

	if cfgFile != "" {
		// a missing explicit file is created later by Save
		if _, err := os.Stat(cfgFile); err == nil {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
			}
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns key from its string form, converting to the field's type.
func (c *Global) Set(key, value string) error {
	atoi := func(dst *int) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}
	switch key {
	case "api_key":
		c.APIKey = value
	case "default_model":
		c.DefaultModel = value
	case "default_provider":
		c.DefaultProvider = value
	case "http_timeout_sec":
		return atoi(&c.HTTPTimeoutSec)
	case "retry_max_attempts":
		return atoi(&c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		return atoi(&c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		return atoi(&c.RetryMaxDelayMs)
	case "ollama_host":
		c.OllamaHost = value
	case "ollama_timeout_sec":
		return atoi(&c.OllamaTimeoutSec)
	case "narrative_timeout_sec":
		return atoi(&c.NarrativeTimeoutSec)
	case "prompt_token_limit":
		return atoi(&c.PromptTokenLimit)
	case "dataset_path":
		c.DatasetPath = value
	case "dataset_sheet":
		c.DatasetSheet = value
	case "dataset_dsn":
		c.DatasetDSN = value
	case "dataset_table":
		c.DatasetTable = value
	case "table_limit":
		return atoi(&c.TableLimit)
	case "compare_max_areas":
		return atoi(&c.CompareMaxAreas)
	case "compare_workers":
		return atoi(&c.CompareWorkers)
	case "match_mode":
		c.MatchMode = value
	case "listen_addr":
		c.ListenAddr = value
	case "debug_errors":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		c.DebugErrors = b
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// Redacted returns a copy safe for display.
func (c Global) Redacted() Global {
	if c.APIKey != "" {
		c.APIKey = "********"
	}
	if c.DatasetDSN != "" {
		c.DatasetDSN = "********"
	}
	return c
}
