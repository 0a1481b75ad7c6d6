package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kdimtricp/vidagent/internal/database"
	"github.com/kdimtricp/vidagent/internal/tools"
)

const (
	DefaultBackendURL = "http://localhost:8000"
	DefaultProxyURL   = "http://localhost:8080"
)

type Config struct {
	Port       string
	BackendURL string
	ProxyURL   string

	TranscribeModel string
	VisionModel     string
	FrameSampleRate int

	PollInterval    time.Duration
	PollMaxAttempts int
	PollBackoff     float64
	PollMaxInterval time.Duration

	DisplayInterval time.Duration
	HTTPTimeout     time.Duration

	Database   database.Config
	ResultsDir string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// LoadDotEnv reads .env.local and .env from the working directory. Variables
// already present in the environment win.
func LoadDotEnv() {
	for _, path := range []string{".env.local", ".env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("Warning: failed to load %s: %v", path, err)
		}
	}
}

// Load builds the configuration from the environment after loading dotenv
// files.
func Load() (*Config, error) {
	LoadDotEnv()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		Port:            port,
		BackendURL:      strings.TrimRight(getEnv("ANALYSIS_API_URL", DefaultBackendURL), "/"),
		ProxyURL:        strings.TrimRight(getEnv("PROXY_URL", "http://localhost:"+port), "/"),
		TranscribeModel: getEnv("TRANSCRIBE_MODEL", "whisper-1"),
		VisionModel:     getEnv("VISION_MODEL", "gpt-4o"),
		ResultsDir:      getEnv("RESULTS_DIR", "./results"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}

	var err error
	if cfg.FrameSampleRate, err = getEnvInt("FRAME_SAMPLE_RATE", 1); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getEnvDuration("POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollMaxAttempts, err = getEnvInt("POLL_MAX_ATTEMPTS", 60); err != nil {
		return nil, err
	}
	if cfg.PollBackoff, err = getEnvFloat("POLL_BACKOFF", 1); err != nil {
		return nil, err
	}
	if cfg.PollMaxInterval, err = getEnvDuration("POLL_MAX_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DisplayInterval, err = getEnvDuration("DISPLAY_POLL_INTERVAL", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("invalid POLL_MAX_ATTEMPTS: must be positive")
	}
	if cfg.PollBackoff < 1 {
		return nil, fmt.Errorf("invalid POLL_BACKOFF: must be >= 1")
	}

	if cfg.Database, err = databaseFromEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ToolsConfig is the start request and wait policy the tools use.
func (c *Config) ToolsConfig() tools.Config {
	return tools.Config{
		TranscribeModel: c.TranscribeModel,
		VisionModel:     c.VisionModel,
		FrameSampleRate: c.FrameSampleRate,
		Poller: tools.Poller{
			Interval:    c.PollInterval,
			MaxAttempts: c.PollMaxAttempts,
			Multiplier:  c.PollBackoff,
			MaxInterval: c.PollMaxInterval,
		},
	}
}

func databaseFromEnv() (database.Config, error) {
	dbConfig := database.Config{
		Type: getEnv("DB_TYPE", "sqlite"),
	}

	switch dbConfig.Type {
	case "postgres":
		port, err := getEnvInt("DB_PORT", 5432)
		if err != nil {
			return dbConfig, err
		}
		dbConfig.Host = getEnv("DB_HOST", "localhost")
		dbConfig.Port = port
		dbConfig.User = getEnv("DB_USER", "vidagent")
		dbConfig.Password = getEnv("DB_PASSWORD", "vidagent_dev")
		dbConfig.Name = getEnv("DB_NAME", "vidagent")
	case "sqlite":
		dbConfig.SQLitePath = getEnv("DB_PATH", "./vidagent.db")
	case "none":
	default:
		return dbConfig, fmt.Errorf("invalid DB_TYPE: %s", dbConfig.Type)
	}

	return dbConfig, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("5s") or a bare number of seconds.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	if secs, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
