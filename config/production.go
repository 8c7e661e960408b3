// Package config provides configuration management and environment variable handling for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Server     ServerConfig     `json:"server"`
	Security   SecurityConfig   `json:"security"`
	JWT        JWTConfig        `json:"jwt"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Upstream   UpstreamConfig   `json:"upstream"`
	Deployment DeploymentConfig `json:"deployment"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
	TrustedProxies  []string      `json:"trusted_proxies"`
	ProxyHeader     string        `json:"proxy_header"`
}

type SecurityConfig struct {
	// CORS
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	// Rate Limiting
	SignupRateLimit int           `json:"signup_rate_limit"` // requests per minute
	GlobalRateLimit int           `json:"global_rate_limit"` // requests per minute
	RateLimitWindow time.Duration `json:"rate_limit_window"`

	// Content Security
	CSPPolicy      string `json:"csp_policy"`
	XFrameOptions  string `json:"x_frame_options"`
	HSTSMaxAge     int    `json:"hsts_max_age"`
	ReferrerPolicy string `json:"referrer_policy"`

	// Password rules enforced before the payload leaves the service
	PasswordMinLength int `json:"password_min_length"`
}

type JWTConfig struct {
	SecretKey  string        `json:"secret_key"`
	PrivateKey string        `json:"private_key"`  // RSA private key in PEM format
	PublicKey  string        `json:"public_key"`   // RSA public key in PEM format
	UseRSAKeys bool          `json:"use_rsa_keys"` // Whether to use RSA keys instead of secret key
	SessionTTL time.Duration `json:"session_ttl"`  // Signup session token lifetime
	Issuer     string        `json:"issuer"`
	Audience   string        `json:"audience"`
	Algorithm  string        `json:"algorithm"`
}

type LoggingConfig struct {
	Level           string `json:"level"`  // debug, info, warn, error
	Format          string `json:"format"` // json, text
	Output          string `json:"output"` // stdout, file, both
	FilePath        string `json:"file_path"`
	EnableAccessLog bool   `json:"enable_access_log"`
	AccessLogPath   string `json:"access_log_path"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	RedisURL       string        `json:"redis_url"`
	RedisDB        int           `json:"redis_db"`
	RedisPassword  string        `json:"redis_password"`
	SessionTTL     time.Duration `json:"session_ttl"`     // Active signup scope lifetime
	RecordTTL      time.Duration `json:"record_ttl"`      // Durable registration record lifetime
	DashboardTTL   time.Duration `json:"dashboard_ttl"`   // Dashboard read-through cache lifetime
	HealthInterval time.Duration `json:"health_interval"` // Cache health probe cadence
	DialTimeout    time.Duration `json:"dial_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	PoolSize       int           `json:"pool_size"`
	MinIdleConns   int           `json:"min_idle_conns"`
}

// UpstreamConfig points the funnel at the product API that owns accounts.
type UpstreamConfig struct {
	ProductAPIBaseURL string        `json:"product_api_base_url"`
	SignupTimeout     time.Duration `json:"signup_timeout"`
	DashboardTimeout  time.Duration `json:"dashboard_timeout"`
}

type DeploymentConfig struct {
	Domain      string `json:"domain"`
	APIDomain   string `json:"api_domain"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file when present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 1*1024*1024), // 1MB
			TrustedProxies:  getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:     getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
		},
		Security: SecurityConfig{
			AllowedOrigins:    getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"https://referralpro.com", "https://www.referralpro.com", "https://app.referralpro.com"}),
			AllowedMethods:    getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:    getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"}),
			AllowCredentials:  getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			CORSMaxAge:        getEnvInt("CORS_MAX_AGE", 86400),
			SignupRateLimit:   getEnvInt("SIGNUP_RATE_LIMIT", 60),
			GlobalRateLimit:   getEnvInt("GLOBAL_RATE_LIMIT", 2000),
			RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			CSPPolicy:         getEnvString("CSP_POLICY", "default-src 'self'; frame-ancestors 'none';"),
			XFrameOptions:     getEnvString("X_FRAME_OPTIONS", "DENY"),
			HSTSMaxAge:        getEnvInt("HSTS_MAX_AGE", 31536000), // 1 year
			ReferrerPolicy:    getEnvString("REFERRER_POLICY", "strict-origin-when-cross-origin"),
			PasswordMinLength: getEnvInt("PASSWORD_MIN_LENGTH", 8),
		},
		JWT: JWTConfig{
			SecretKey:  getEnvString("JWT_SECRET_KEY", ""),
			PrivateKey: getEnvString("JWT_PRIVATE_KEY", ""),
			PublicKey:  getEnvString("JWT_PUBLIC_KEY", ""),
			UseRSAKeys: getEnvBool("JWT_USE_RSA_KEYS", false),
			SessionTTL: getEnvDuration("JWT_SESSION_TTL", 2*time.Hour),
			Issuer:     getEnvString("JWT_ISSUER", "referralpro-funnel"),
			Audience:   getEnvString("JWT_AUDIENCE", "referralpro-funnel-api"),
			Algorithm:  getEnvString("JWT_ALGORITHM", "HS256"),
		},
		Logging: LoggingConfig{
			Level:           getEnvString("LOG_LEVEL", "info"),
			Format:          getEnvString("LOG_FORMAT", "json"),
			Output:          getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:        getEnvString("LOG_FILE_PATH", "/var/log/funnel/app.log"),
			EnableAccessLog: getEnvBool("LOG_ENABLE_ACCESS", true),
			AccessLogPath:   getEnvString("LOG_ACCESS_PATH", "/var/log/funnel/access.log"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			RedisURL:       getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:        getEnvInt("CACHE_REDIS_DB", 0),
			RedisPassword:  getEnvString("REDIS_PASSWORD", ""),
			SessionTTL:     getEnvDuration("CACHE_SESSION_TTL", 2*time.Hour),
			RecordTTL:      getEnvDuration("CACHE_RECORD_TTL", 7*24*time.Hour),
			DashboardTTL:   getEnvDuration("CACHE_DASHBOARD_TTL", 1*time.Minute),
			HealthInterval: getEnvDuration("CACHE_HEALTH_INTERVAL", 30*time.Second),
			DialTimeout:    getEnvDuration("CACHE_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    getEnvDuration("CACHE_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   getEnvDuration("CACHE_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:       getEnvInt("CACHE_POOL_SIZE", 10),
			MinIdleConns:   getEnvInt("CACHE_MIN_IDLE_CONNS", 2),
		},
		Upstream: UpstreamConfig{
			ProductAPIBaseURL: getEnvString("PRODUCT_API_BASE_URL", "https://api.referralpro.com"),
			SignupTimeout:     getEnvDuration("PRODUCT_API_SIGNUP_TIMEOUT", 45*time.Second),
			DashboardTimeout:  getEnvDuration("PRODUCT_API_DASHBOARD_TIMEOUT", 10*time.Second),
		},
		Deployment: DeploymentConfig{
			Domain:      getEnvString("DOMAIN", "referralpro.com"),
			APIDomain:   getEnvString("API_DOMAIN", "funnel.referralpro.com"),
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate JWT configuration
	if cfg.JWT.UseRSAKeys {
		if cfg.JWT.PrivateKey == "" || cfg.JWT.PublicKey == "" {
			errors = append(errors, "JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required when JWT_USE_RSA_KEYS is set")
		}
	} else {
		if cfg.JWT.SecretKey == "" {
			errors = append(errors, "JWT_SECRET_KEY is required")
		}
		if len(cfg.JWT.SecretKey) < 32 {
			errors = append(errors, "JWT_SECRET_KEY must be at least 32 characters long")
		}
	}
	if cfg.JWT.SessionTTL <= 0 {
		errors = append(errors, "JWT_SESSION_TTL must be positive")
	}
	if cfg.JWT.Issuer == "" {
		errors = append(errors, "JWT_ISSUER is required")
	}
	if cfg.JWT.Audience == "" {
		errors = append(errors, "JWT_AUDIENCE is required")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Server.IdleTimeout <= 0 {
		errors = append(errors, "SERVER_IDLE_TIMEOUT must be positive")
	}

	// Validate security configuration
	if cfg.Security.PasswordMinLength < 6 {
		errors = append(errors, "PASSWORD_MIN_LENGTH must be at least 6")
	}

	// Validate cache configuration
	if cfg.Cache.RedisURL == "" {
		errors = append(errors, "CACHE_REDIS_URL is required")
	}
	if cfg.Cache.SessionTTL <= 0 {
		errors = append(errors, "CACHE_SESSION_TTL must be positive")
	}
	if cfg.Cache.RecordTTL < cfg.Cache.SessionTTL {
		errors = append(errors, "CACHE_RECORD_TTL must be at least CACHE_SESSION_TTL")
	}

	// Validate upstream configuration
	if cfg.Upstream.ProductAPIBaseURL == "" {
		errors = append(errors, "PRODUCT_API_BASE_URL is required")
	}
	if !strings.HasPrefix(cfg.Upstream.ProductAPIBaseURL, "http://") && !strings.HasPrefix(cfg.Upstream.ProductAPIBaseURL, "https://") {
		errors = append(errors, "PRODUCT_API_BASE_URL must be an http(s) URL")
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
