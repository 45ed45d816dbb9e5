// Package config loads application configuration from the environment
// and an optional .env file, plus the hot-reloadable pricing file.
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
	Environment string
	HTTPAddr    string
	LogLevel    string

	// Upstream reporting endpoints.
	UsageServer     string
	CRMServer       string
	ReportingServer string

	// Static header-token auth for upstream fetches. This authenticates
	// our outbound calls, not callers of this server.
	AuthHeaderKey string
	AuthToken     string

	SSLVerify          bool
	ConnectTimeoutSecs int

	// Cron expression for scheduled ingestion; empty disables it.
	IngestCron       string
	IngestMonthsBack int

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "chargeview"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		UsageServer:     strings.TrimRight(getenv("USAGE_SERVER", "https://bman.ersa.edu.au"), "/"),
		CRMServer:       strings.TrimRight(getenv("CRM_SERVER", "https://bman.ersa.edu.au/bman"), "/"),
		ReportingServer: strings.TrimRight(getenv("REPORTING_SERVER", "https://reporting.ersa.edu.au"), "/"),

		AuthHeaderKey: getenv("AUTH_HEADER_KEY", "x-ersa-auth-token"),
		AuthToken:     getenv("ERSA_AUTH_TOKEN", "not-supplied"),

		SSLVerify:          getenvBool("SSL_VERIFY", true),
		ConnectTimeoutSecs: getenvInt("REMOTE_SERVER_CONNECT_TIMEOUT_SECS", 30),

		IngestCron:       strings.TrimSpace(getenv("INGEST_CRON", "")),
		IngestMonthsBack: getenvInt("INGEST_MONTHS_BACK", 2),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "chargeview"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
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

// Module wires Config and the pricing holder for the application.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPricingHolder),
)
