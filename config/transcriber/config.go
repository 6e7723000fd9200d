package config

import (
	"errors"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

type Config struct {
	Port        int         `env:"PORT" env-default:"50051"`
	MetricsPort int         `env:"METRICS_PORT" env-default:"9090"`
	Log         LogConfig   `env-prefix:"LOG_"`
	Model       ModelConfig `env-prefix:"MODEL_"`
}

type LogConfig struct {
	Level string `env:"LEVEL" env-default:"info"`
	JSON  bool   `env:"JSON" env-default:"false"`
}

type ModelConfig struct {
	Provider    string        `env:"PROVIDER" env-default:"gemini"`
	APIKey      string        `env:"API_KEY"`
	Name        string        `env:"NAME"`
	AudioName   string        `env:"AUDIO_NAME"`
	BaseURL     string        `env:"BASE_URL"`
	CallTimeout time.Duration `env:"CALL_TIMEOUT" env-default:"45s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.Model.APIKey == "" {
		return nil, &entity.ConfigurationError{Field: "MODEL_API_KEY"}
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	return cfg
}
