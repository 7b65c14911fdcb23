package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App      AppConfig
	Paths    PathsConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Pool     PoolConfig
	Monitor  MonitorConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
}

type PathsConfig struct {
	BaseDir  string
	Storages string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
	// ConnectRetry bounds the time spent waiting for the database to answer a ping on startup.
	ConnectRetry time.Duration
}

// CacheConfig selects and tunes the pricing cache backend.
type CacheConfig struct {
	Backend   string // memory, valkey or redis
	TTL       time.Duration
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

type PoolConfig struct {
	MaxConnections int
	AcquireTimeout time.Duration // 0 waits until the caller's context is done
}

// MonitorConfig sizes the in-memory log of recent store accesses.
type MonitorConfig struct {
	Buffer    int
	Retention time.Duration
}

const (
	CacheBackendMemory = "memory"
	CacheBackendValkey = "valkey"
	CacheBackendRedis  = "redis"
)

// Global provides access to the loaded configuration globally (Migration Helper)
var Global *Config

// LoadConfig loads configuration from a .env file (when present), Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := getEnvBool("APP_DEBUG", getEnvBool("DEBUG", false))

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.0.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		BaseDir:  baseDir,
		Storages: baseDir,
	}

	dbDriver := getEnv("DB_DRIVER", "sqlite")
	dbName := filepath.Join(pathsCfg.Storages, "pricing.db")
	if dbDriver == "postgres" {
		dbName = getEnv("DB_NAME", "pricing")
	}
	dbCfg := DatabaseConfig{
		Driver:       dbDriver,
		Name:         getEnv("DB_PATH", dbName),
		Host:         getEnv("DB_HOST", "localhost"),
		Port:         getEnvInt("DB_PORT", 5432),
		User:         getEnv("DB_USER", "postgres"),
		Password:     getEnv("DB_PASSWORD", ""),
		ConnectRetry: getEnvDuration("DB_CONNECT_RETRY", 30*time.Second),
	}

	cacheCfg := CacheConfig{
		Backend:   strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		TTL:       getEnvDuration("CACHE_TTL", 5*time.Minute),
		Address:   getEnv("CACHE_ADDRESS", "localhost:6379"),
		Password:  getEnv("CACHE_PASSWORD", ""),
		DB:        getEnvInt("CACHE_DB", 0),
		KeyPrefix: getEnv("CACHE_KEY_PREFIX", "azpricing:"),
	}

	poolCfg := PoolConfig{
		MaxConnections: getEnvInt("POOL_MAX_CONNECTIONS", 10),
		AcquireTimeout: getEnvDuration("POOL_ACQUIRE_TIMEOUT", 30*time.Second),
	}

	monitorCfg := MonitorConfig{
		Buffer:    getEnvInt("ACCESS_MONITOR_BUFFER", 200),
		Retention: getEnvDuration("ACCESS_MONITOR_TTL", 0),
	}

	cfg := &Config{
		App:      appCfg,
		Paths:    pathsCfg,
		Database: dbCfg,
		Cache:    cacheCfg,
		Pool:     poolCfg,
		Monitor:  monitorCfg,
	}

	Global = cfg
	return cfg, nil
}
