package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StoreDriver    string
	MigrationsPath string

	JWTSecret string
	JWTIssuer string

	// Balance cache. An empty RedisURL selects the in-process LRU.
	RedisURL         string
	BalanceCacheSize int
	BalanceCacheTTL  time.Duration

	// Ledger policy
	BaseCurrency                   string
	RetainedEarningsAccount        string
	CashAccounts                   []string
	RequireZeroBalanceToDeactivate bool
	ReconcileToleranceDays         int

	RateLimit          string
	SeedFile           string
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("JWT_ISSUER", "school-ledger")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("BALANCE_CACHE_SIZE", 4096)
	v.SetDefault("BALANCE_CACHE_TTL", "10m")
	v.SetDefault("BASE_CURRENCY", "USD")
	v.SetDefault("RETAINED_EARNINGS_ACCOUNT", "3000")
	v.SetDefault("CASH_ACCOUNTS", "1000")
	v.SetDefault("REQUIRE_ZERO_BALANCE_TO_DEACTIVATE", false)
	v.SetDefault("RECONCILE_TOLERANCE_DAYS", 3)
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("SEED_FILE", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:                    v.GetString("PGSQL_URL"),
		Port:                           v.GetString("PORT"),
		IsProduction:                   v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:                  v.GetBool("ENABLE_DB_CHECK"),
		StoreDriver:                    strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		MigrationsPath:                 v.GetString("MIGRATIONS_PATH"),
		JWTSecret:                      v.GetString("JWT_SECRET"),
		JWTIssuer:                      v.GetString("JWT_ISSUER"),
		RedisURL:                       v.GetString("REDIS_URL"),
		BalanceCacheSize:               v.GetInt("BALANCE_CACHE_SIZE"),
		BaseCurrency:                   strings.ToUpper(v.GetString("BASE_CURRENCY")),
		RetainedEarningsAccount:        v.GetString("RETAINED_EARNINGS_ACCOUNT"),
		CashAccounts:                   splitList(v.GetString("CASH_ACCOUNTS")),
		RequireZeroBalanceToDeactivate: v.GetBool("REQUIRE_ZERO_BALANCE_TO_DEACTIVATE"),
		ReconcileToleranceDays:         v.GetInt("RECONCILE_TOLERANCE_DAYS"),
		RateLimit:                      v.GetString("RATE_LIMIT"),
		SeedFile:                       v.GetString("SEED_FILE"),
		CORSAllowedOrigins:             splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORE_DRIVER is %q", StoreDriverPostgres)
		}
	case StoreDriverMemory:
		if cfg.IsProduction {
			log.Println("Warning: memory store selected in production. Ledger data will not survive a restart.")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}

	ttlStr := v.GetString("BALANCE_CACHE_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil || ttl <= 0 {
		ttl = 10 * time.Minute
		log.Printf("Warning: Invalid value for BALANCE_CACHE_TTL ('%s'). Defaulting to %s.\n", ttlStr, ttl)
	}
	cfg.BalanceCacheTTL = ttl

	if cfg.BalanceCacheSize <= 0 {
		cfg.BalanceCacheSize = 4096
		log.Printf("Warning: BALANCE_CACHE_SIZE must be positive. Defaulting to %d.\n", cfg.BalanceCacheSize)
	}

	if len(cfg.BaseCurrency) != 3 {
		return nil, fmt.Errorf("BASE_CURRENCY must be a 3-letter code, got %q", cfg.BaseCurrency)
	}
	if cfg.RetainedEarningsAccount == "" {
		return nil, fmt.Errorf("RETAINED_EARNINGS_ACCOUNT must not be empty")
	}
	if len(cfg.CashAccounts) == 0 {
		return nil, fmt.Errorf("CASH_ACCOUNTS must list at least one account code")
	}
	if cfg.ReconcileToleranceDays < 0 {
		return nil, fmt.Errorf("RECONCILE_TOLERANCE_DAYS must not be negative")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
