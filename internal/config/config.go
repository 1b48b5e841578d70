package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Log      LogConfig
	Exchange ExchangeConfig
	Input    InputConfig
	Server   ServerConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type ExchangeConfig struct {
	Sender         string
	OutputPath     string
	OutputEncoding string
}

// InputConfig names the statement PDFs converted by a CLI run.
type InputConfig struct {
	PrivatPDF     string
	TaskombankPDF string
}

type ServerConfig struct {
	Addr        string
	BodyLimitMB int
}

// Load reads configuration from environment variables. Values from the
// given .env files (".env" when none is given) fill in variables that are
// not already set; missing files are skipped.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Exchange: ExchangeConfig{
			Sender:         getEnv("EXCHANGE_SENDER", "BankStatementConverter"),
			OutputPath:     getEnv("OUTPUT_PATH", "out_for_syrve_combined.txt"),
			OutputEncoding: getEnv("OUTPUT_ENCODING", "utf-8"),
		},
		Input: InputConfig{
			PrivatPDF:     getEnv("PRIVAT_PDF", "privat.pdf"),
			TaskombankPDF: getEnv("TASKOMBANK_PDF", "taskombank.pdf"),
		},
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			BodyLimitMB: getEnvAsInt("HTTP_BODY_LIMIT_MB", 32),
		},
	}

	if cfg.Server.BodyLimitMB <= 0 {
		return nil, errors.New("HTTP_BODY_LIMIT_MB must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
