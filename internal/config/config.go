package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Model  ModelConfig
	LLM    LLMConfig
	App    AppConfig
}

type ServerConfig struct {
	Host            string
	Port            string
	ShutdownTimeout time.Duration
}

type ModelConfig struct {
	Path       string
	LibPath    string
	InputName  string
	OutputName string
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type AppConfig struct {
	MaxUploadSize int64
	CORSOrigins   []string
	LogLevel      string
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("PORT", "8000")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("MODEL_PATH", "model/trained_model.onnx")
	v.SetDefault("ONNXRUNTIME_LIB", "")
	v.SetDefault("MODEL_INPUT_NAME", "")
	v.SetDefault("MODEL_OUTPUT_NAME", "")
	v.SetDefault("OPENROUTER_API_KEY", "")
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1/")
	v.SetDefault("LLM_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("LLM_TIMEOUT", "60s")
	v.SetDefault("MAX_UPLOAD_SIZE", 10<<20) // 10MB
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetString("PORT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Model: ModelConfig{
			Path:       v.GetString("MODEL_PATH"),
			LibPath:    v.GetString("ONNXRUNTIME_LIB"),
			InputName:  v.GetString("MODEL_INPUT_NAME"),
			OutputName: v.GetString("MODEL_OUTPUT_NAME"),
		},
		LLM: LLMConfig{
			APIKey:  strings.TrimSpace(v.GetString("OPENROUTER_API_KEY")),
			BaseURL: v.GetString("OPENROUTER_BASE_URL"),
			Model:   v.GetString("LLM_MODEL"),
			Timeout: v.GetDuration("LLM_TIMEOUT"),
		},
		App: AppConfig{
			MaxUploadSize: v.GetInt64("MAX_UPLOAD_SIZE"),
			CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
			LogLevel:      v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Model.Path == "" {
		return errors.New("MODEL_PATH must not be empty")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLM.Timeout)
	}
	if c.App.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.App.MaxUploadSize)
	}
	if !strings.HasSuffix(c.LLM.BaseURL, "/") {
		c.LLM.BaseURL += "/"
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
