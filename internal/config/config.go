package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pendergraft/verifyprep/internal/chains"
)

// Config holds all configuration for the server
type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Verification VerificationConfig
	Logging      LoggingConfig
	Metrics      MetricsConfig
	RateLimit    RateLimitConfig
	Security     SecurityConfig
	Proxy        ProxyConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	ReadTimeout    int // seconds
	WriteTimeout   int // seconds
	IdleTimeout    int // seconds
	RequestTimeout int // seconds
}

// StorageConfig selects where deployments are read from
type StorageConfig struct {
	Type     string // "blob", "sqlite" or "postgres"
	Blob     BlobConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Cache    CacheConfig
}

// BlobConfig holds the bucket holding Ignition deployment directories
type BlobConfig struct {
	URL string // gocloud.dev bucket URL: file://, s3://, gs://, mem://
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	URL string
}

// SQLiteConfig holds SQLite settings
type SQLiteConfig struct {
	Path string
}

// CacheConfig holds build info cache settings
type CacheConfig struct {
	BuildInfoEntries int // 0 disables the cache
}

// VerificationConfig holds defaults for payload preparation
type VerificationConfig struct {
	CustomChainsFile          string
	CustomChains              []chains.ChainConfig
	IncludeUnrelatedContracts bool
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string // "text" or "json"
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
	CleanupMinutes int
}

// SecurityConfig holds security filter settings
type SecurityConfig struct {
	FilterEnabled bool
}

// ProxyConfig holds trusted proxy settings for X-Forwarded-For handling
type ProxyConfig struct {
	TrustProxy     bool
	TrustedProxies []string // CIDR notation
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first; variables already set win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8080),
			Host:           getEnv("HOST", "0.0.0.0"),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", 120),
			IdleTimeout:    getEnvInt("SERVER_IDLE_TIMEOUT", 120),
			RequestTimeout: getEnvInt("SERVER_REQUEST_TIMEOUT", 60),
		},
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", "blob"),
			Blob: BlobConfig{
				URL: getEnv("DEPLOYMENTS_URL", "file://./ignition/deployments"),
			},
			Postgres: PostgresConfig{
				URL: getEnv("DATABASE_URL", ""),
			},
			SQLite: SQLiteConfig{
				Path: getEnv("SQLITE_PATH", "./data/verifyprep.db"),
			},
			Cache: CacheConfig{
				BuildInfoEntries: getEnvInt("BUILD_INFO_CACHE_SIZE", 64),
			},
		},
		Verification: VerificationConfig{
			CustomChainsFile:          getEnv("CUSTOM_CHAINS_FILE", ""),
			IncludeUnrelatedContracts: getEnvBool("INCLUDE_UNRELATED_CONTRACTS", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin: getEnvInt("RATE_LIMIT_RPM", 300),
			BurstSize:      getEnvInt("RATE_LIMIT_BURST", 50),
			CleanupMinutes: getEnvInt("RATE_LIMIT_CLEANUP_MINUTES", 10),
		},
		Security: SecurityConfig{
			FilterEnabled: getEnvBool("SECURITY_FILTER_ENABLED", true),
		},
		Proxy: ProxyConfig{
			TrustProxy:     getEnvBool("TRUST_PROXY", false),
			TrustedProxies: getEnvStringSlice("TRUSTED_PROXIES", []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}),
		},
	}

	// If DATABASE_URL is set and no storage type was chosen, use postgres
	if cfg.Storage.Postgres.URL != "" && os.Getenv("STORAGE_TYPE") == "" {
		cfg.Storage.Type = "postgres"
	}

	switch cfg.Storage.Type {
	case "blob", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}

	if cfg.Verification.CustomChainsFile != "" {
		custom, err := LoadCustomChains(cfg.Verification.CustomChainsFile)
		if err != nil {
			return nil, err
		}
		cfg.Verification.CustomChains = custom
	}

	return cfg, nil
}

// customChainsFile is the YAML layout of CUSTOM_CHAINS_FILE.
type customChainsFile struct {
	Chains []chains.ChainConfig `yaml:"chains"`
}

// LoadCustomChains reads and validates a YAML custom chains file.
func LoadCustomChains(path string) ([]chains.ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading custom chains: %w", err)
	}

	var f customChainsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing custom chains %s: %w", path, err)
	}

	if err := chains.Validate(f.Chains); err != nil {
		return nil, fmt.Errorf("invalid custom chains %s: %w", path, err)
	}
	return f.Chains, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
