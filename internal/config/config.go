package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	ReferenceWorkbook string
	ReportWorkbook    string

	TelegramToken  string
	TelegramChatID string
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewLineHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "boxline"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", ""),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "boxline"),
		DBUser:            getenv("DATABASE_USER", "boxline"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
		ReferenceWorkbook: getenv("REFERENCE_WORKBOOK", ""),
		ReportWorkbook:    getenv("REPORT_WORKBOOK", "reports.xlsx"),
		TelegramToken:     strings.TrimSpace(getenv("TELEGRAM_TOKEN", "")),
		TelegramChatID:    strings.TrimSpace(getenv("TELEGRAM_CHAT_ID", "")),
	}
}

// StoreConfigured reports whether a persistence backend is configured.
// An empty or "none" DATABASE_TYPE runs the service in the degraded,
// no-persistence mode: printing still renders, scanning is refused.
func (c Config) StoreConfigured() bool {
	dbType := strings.ToLower(strings.TrimSpace(c.DBType))
	return dbType != "" && dbType != "none"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
