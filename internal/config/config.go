package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	ProviderMock   = "mock"
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"

	StorageMemory    = "memory"
	StorageFirestore = "firestore"
)

type Config struct {
	Mode Mode   `yaml:"mode"`
	Port string `yaml:"port"`

	LLMProvider  string `yaml:"llm_provider"` // mock | gemini | vertex | openai | none
	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	ModelName    string `yaml:"model_name"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIBaseURL string `yaml:"openai_base_url"`

	StorageBackend string `yaml:"storage_backend"` // memory | firestore

	BackendTimeout time.Duration `yaml:"backend_timeout"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst      int           `yaml:"rate_burst"`

	// Seed pins the fallback reply source. 0 seeds from the clock.
	Seed     uint64 `yaml:"seed"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the local development configuration.
func Default() *Config {
	return &Config{
		Mode:           ModeLocal,
		Port:           "8080",
		LLMProvider:    ProviderMock,
		GCPLocation:    "us-central1",
		ModelName:      "gemini-2.0-flash-001",
		OpenAIModel:    "gpt-4o-mini",
		StorageBackend: StorageMemory,
		BackendTimeout: 20 * time.Second,
		RateBurst:      1,
		LogLevel:       "info",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Load builds the config from defaults, then the YAML file named by
// HAVEN_CONFIG_FILE (if any), then HAVEN_* env vars.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("HAVEN_CONFIG_FILE"))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	switch getEnv("HAVEN_MODE", string(c.Mode)) {
	case string(ModeGCP):
		c.Mode = ModeGCP
	default:
		c.Mode = ModeLocal
	}

	c.Port = getEnv("HAVEN_PORT", getEnv("PORT", c.Port))

	c.LLMProvider = getEnv("HAVEN_LLM_PROVIDER", c.LLMProvider)
	if getBoolEnv("HAVEN_USE_MOCK_LLM", false) {
		c.LLMProvider = ProviderMock
	}
	c.GCPProjectID = getEnv("HAVEN_GCP_PROJECT", c.GCPProjectID)
	c.GCPLocation = getEnv("HAVEN_GCP_LOCATION", c.GCPLocation)
	c.GeminiAPIKey = getEnv("HAVEN_GEMINI_API_KEY", c.GeminiAPIKey)
	c.ModelName = getEnv("HAVEN_MODEL_NAME", c.ModelName)

	c.OpenAIAPIKey = getEnv("HAVEN_OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = getEnv("HAVEN_OPENAI_MODEL", c.OpenAIModel)
	c.OpenAIBaseURL = getEnv("HAVEN_OPENAI_BASE_URL", c.OpenAIBaseURL)

	c.StorageBackend = getEnv("HAVEN_STORAGE_BACKEND", c.StorageBackend)
	c.LogLevel = getEnv("HAVEN_LOG_LEVEL", c.LogLevel)

	var err error
	if c.BackendTimeout, err = getDurationEnv("HAVEN_BACKEND_TIMEOUT", c.BackendTimeout); err != nil {
		return err
	}
	if c.RateLimit, err = getFloatEnv("HAVEN_RATE_LIMIT", c.RateLimit); err != nil {
		return err
	}
	if c.RateBurst, err = getIntEnv("HAVEN_RATE_BURST", c.RateBurst); err != nil {
		return err
	}
	if v := os.Getenv("HAVEN_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("HAVEN_SEED: %w", err)
		}
		c.Seed = seed
	}
	return nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLMProvider {
	case ProviderMock, ProviderNone:
	case ProviderGemini:
		if c.GeminiAPIKey == "" && c.GCPProjectID == "" {
			errs = append(errs, errors.New("gemini provider needs HAVEN_GEMINI_API_KEY or HAVEN_GCP_PROJECT"))
		}
	case ProviderVertex:
		if c.GCPProjectID == "" {
			errs = append(errs, errors.New("vertex provider needs HAVEN_GCP_PROJECT"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("openai provider needs HAVEN_OPENAI_API_KEY or HAVEN_OPENAI_BASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLMProvider))
	}

	switch c.StorageBackend {
	case StorageMemory:
	case StorageFirestore:
		if c.GCPProjectID == "" {
			errs = append(errs, errors.New("firestore storage needs HAVEN_GCP_PROJECT"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.StorageBackend))
	}

	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		errs = append(errs, errors.New("HAVEN_GCP_PROJECT must be set in gcp mode"))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("backend timeout must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate limit cannot be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, errors.New("rate burst must be at least 1"))
	}

	return errors.Join(errs...)
}
