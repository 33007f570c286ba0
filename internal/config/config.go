package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

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

	// Gateway selects the active hosted-checkout provider and its
	// credentials. An empty callback secret makes webhook verification
	// permissive, which is only acceptable outside production.
	Gateway GatewayConfig

	Fees FeeConfig

	OrderTTL        time.Duration
	DefaultCurrency string
}

type GatewayConfig struct {
	Provider           string
	TripayMerchantCode string
	TripayAPIKey       string
	TripayPrivateKey   string
	XenditAPIKey       string
	XenditCallbackKey  string
}

type FeeConfig struct {
	// PlatformAmount is the flat per-order fee charged on top of the
	// item price, in minor units.
	PlatformAmount int64
	// PayoutPercentBps is the payout processing fee in basis points of
	// the gross amount; PayoutMinAmount is the flat floor.
	PayoutPercentBps int64
	PayoutMinAmount  int64
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "sitesell"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "sitesell"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		Gateway: GatewayConfig{
			Provider:           strings.ToLower(getenv("GATEWAY_PROVIDER", "tripay")),
			TripayMerchantCode: strings.TrimSpace(getenv("TRIPAY_MERCHANT_CODE", "")),
			TripayAPIKey:       strings.TrimSpace(getenv("TRIPAY_API_KEY", "")),
			TripayPrivateKey:   strings.TrimSpace(getenv("TRIPAY_PRIVATE_KEY", "")),
			XenditAPIKey:       strings.TrimSpace(getenv("XENDIT_API_KEY", "")),
			XenditCallbackKey:  strings.TrimSpace(getenv("XENDIT_CALLBACK_KEY", "")),
		},

		Fees: FeeConfig{
			PlatformAmount:   getenvInt64("FEE_PLATFORM_AMOUNT", 1000),
			PayoutPercentBps: getenvInt64("FEE_PAYOUT_PERCENT_BPS", 250),
			PayoutMinAmount:  getenvInt64("FEE_PAYOUT_MIN_AMOUNT", 2500),
		},

		OrderTTL:        time.Duration(getenvInt("ORDER_TTL_HOURS", 24)) * time.Hour,
		DefaultCurrency: strings.ToUpper(getenv("DEFAULT_CURRENCY", "IDR")),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
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

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
