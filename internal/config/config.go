package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. TAROT_LLM_PROVIDER.
const EnvPrefix = "TAROT"

// Providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var ErrInvalid = errors.New("config: invalid configuration")

// Duration is a time.Duration written as a string ("1s", "500ms") in the
// config file and in the environment.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config represents the application configuration
type Config struct {
	Catalog CatalogConfig `toml:"catalog" envconfig:"CATALOG"`
	LLM     LLMConfig     `toml:"llm" envconfig:"LLM"`
	Reading ReadingConfig `toml:"reading" envconfig:"READING"`
	Server  ServerConfig  `toml:"server" envconfig:"SERVER"`
	Log     LogConfig     `toml:"log" envconfig:"LOG"`

	// Secrets never come from the config file
	Secrets Secrets `toml:"-" ignored:"true"`
}

// CatalogConfig points at catalog files. Empty paths use the built-in data.
type CatalogConfig struct {
	Cards    string `toml:"cards" envconfig:"CARDS"`
	Concerns string `toml:"concerns" envconfig:"CONCERNS"`
}

// LLMConfig selects and tunes the text generator. An empty model selects
// the provider's default.
type LLMConfig struct {
	Provider        string   `toml:"provider" envconfig:"PROVIDER"`
	Model           string   `toml:"model" envconfig:"MODEL"`
	BaseURL         string   `toml:"base_url" envconfig:"BASE_URL"`
	Temperature     float32  `toml:"temperature" envconfig:"TEMPERATURE"`
	TopK            int32    `toml:"top_k" envconfig:"TOP_K"`
	TopP            float32  `toml:"top_p" envconfig:"TOP_P"`
	MaxOutputTokens int32    `toml:"max_output_tokens" envconfig:"MAX_OUTPUT_TOKENS"`
	MaxAttempts     int      `toml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	RetryBaseDelay  Duration `toml:"retry_base_delay" envconfig:"RETRY_BASE_DELAY"`
	Timeout         Duration `toml:"timeout" envconfig:"TIMEOUT"`
}

// ReadingConfig tunes the interactive reading
type ReadingConfig struct {
	RevealDelay Duration `toml:"reveal_delay" envconfig:"REVEAL_DELAY"`
	LayoutSize  int      `toml:"layout_size" envconfig:"LAYOUT_SIZE"`
}

// ServerConfig configures the HTTP proxy
type ServerConfig struct {
	Addr string `toml:"addr" envconfig:"ADDR"`
	// AllowedOrigins restricts CORS. Anything other than "*" makes
	// preflights from unlisted origins fail with 403 instead of 200.
	AllowedOrigins []string `toml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// AllowsAnyOrigin reports whether every origin passes CORS, which keeps
// OPTIONS answering 200 for all callers.
func (s ServerConfig) AllowsAnyOrigin() bool {
	return len(s.AllowedOrigins) == 0 || slices.Contains(s.AllowedOrigins, "*")
}

const fileHeader = `# tarotreading configuration
#
# API keys are read from GEMINI_API_KEY / OPENAI_API_KEY, never from here.
#
# server.allowed_origins: keep ["*"] so OPTIONS is answered with 200 for
# every caller. Listing specific origins makes preflights from any other
# origin fail with 403.

`

// LogConfig configures the zap logger
type LogConfig struct {
	Level    string `toml:"level" envconfig:"LEVEL"`
	Encoding string `toml:"encoding" envconfig:"ENCODING"`
	Output   string `toml:"output" envconfig:"OUTPUT"`
}

// Secrets are read from the environment only
type Secrets struct {
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:        ProviderGemini,
			Temperature:     0.9,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
			MaxAttempts:     3,
			RetryBaseDelay:  Duration{time.Second},
			Timeout:         Duration{60 * time.Second},
		},
		Reading: ReadingConfig{
			RevealDelay: Duration{time.Second},
			LayoutSize:  12,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetDataDir returns the directory searched for catalog files
func GetDataDir() string {
	return filepath.Join(GetXDGDataHome(), "tarotreading")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "tarotreading", "config.toml")
}

var loadDotEnvOnce sync.Once

// LoadDotEnv reads .env from the working directory once, if it exists.
// Variables already set in the environment win.
func LoadDotEnv() {
	loadDotEnvOnce.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		if err := godotenv.Load(); err != nil {
			log.Printf("dotenv: failed to load .env: %v", err)
		}
	})
}

// Load reads the config file at path, creating it with defaults when it
// does not exist, then applies environment overrides. An empty path means
// the XDG config file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}

	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	LoadDotEnv()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays TAROT_* variables and reads the API keys.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("error processing env vars: %w", err)
	}
	if err := envconfig.Process("", &cfg.Secrets); err != nil {
		return fmt.Errorf("error processing secrets: %w", err)
	}
	return nil
}

// Save writes cfg to path, creating the directory if needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(fileHeader); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail far from their source
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalid, c.LLM.Provider)
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("%w: llm.max_attempts must be at least 1", ErrInvalid)
	}
	if c.LLM.RetryBaseDelay.Duration < 0 || c.LLM.Timeout.Duration < 0 || c.Reading.RevealDelay.Duration < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalid)
	}
	if c.Reading.LayoutSize < 1 {
		return fmt.Errorf("%w: reading.layout_size must be positive", ErrInvalid)
	}
	return nil
}

// APIKey returns the key for the configured provider
func (c *Config) APIKey() string {
	if c.LLM.Provider == ProviderOpenAI {
		return c.Secrets.OpenAIAPIKey
	}
	return c.Secrets.GeminiAPIKey
}

// ResolveCatalogPath finds a catalog file, first in the data directory and
// then as given. An empty name resolves to the empty string.
func ResolveCatalogPath(name string) (string, error) {
	if name == "" {
		return "", nil
	}

	libraryPath := filepath.Join(GetDataDir(), name)
	if _, err := os.Stat(libraryPath); err == nil {
		return libraryPath, nil
	}

	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	return "", fmt.Errorf("catalog file not found: %s", name)
}
