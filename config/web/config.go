package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port               int           `env:"PORT" env-default:"8080"`
	JWTSecret          string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" env-default:"26214400"`
	AllowedOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	TranscriberService ServiceConfig `env-prefix:"TRANSCRIBER_"`
	Database           DatabaseConfig
	Fonts              FontConfig
	Log                LogConfig `env-prefix:"LOG_"`
}

type ServiceConfig struct {
	Port int    `env:"PORT" env-default:"50051"`
	Url  string `env:"URL" env-default:"localhost"`
}

// DatabaseConfig selects the history store. An empty host keeps history in memory.
type DatabaseConfig struct {
	User         string `env:"DB_USER"`
	Password     string `env:"DB_PASSWORD"`
	Host         string `env:"DB_HOST"`
	Name         string `env:"DB_NAME"`
	Port         int    `env:"DB_PORT" env-default:"5432"`
	SSLMode      string `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
}

func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Name,
		c.Password,
		c.SSLMode,
	)
}

// FontConfig points at TrueType files able to render Tamil script.
type FontConfig struct {
	TamilRegular string `env:"TAMIL_FONT_PATH"`
	TamilBold    string `env:"TAMIL_BOLD_FONT_PATH"`
}

type LogConfig struct {
	Level string `env:"LEVEL" env-default:"info"`
	JSON  bool   `env:"JSON" env-default:"false"`
}

func MustLoad() *Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic("failed to read env file: " + err.Error())
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}
	return &cfg
}
