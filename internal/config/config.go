// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
)

type Config struct {
	Mode        domain.Mode
	Server      ServerConfig
	Log         LogConfig
	Storage     StorageConfig
	RateLimiter RateLimiterConfig
	Guards      domain.GuardSet
}

type ServerConfig struct {
	Port      string
	StaticDir string
}

type LogConfig struct {
	Debug bool
}

type StorageConfig struct {
	Type   string
	Redis  RedisConfig
	SQLite SQLiteConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

type RateLimiterConfig struct {
	DefaultRule     domain.RateLimitRule
	RouteRules      map[string]domain.RateLimitRule
	CleanupInterval time.Duration
}

var guardEnv = map[domain.Guard]string{
	domain.GuardInspection:  "GUARD_INSPECTION",
	domain.GuardContextMenu: "GUARD_CONTEXT_MENU",
	domain.GuardConsole:     "GUARD_CONSOLE",
	domain.GuardFetch:       "GUARD_FETCH",
	domain.GuardFraming:     "GUARD_FRAMING",
	domain.GuardSourceView:  "GUARD_SOURCE_VIEW",
	domain.GuardEvalAudit:   "GUARD_EVAL_AUDIT",
	domain.GuardGlobals:     "GUARD_GLOBALS",
}

func Load() (Config, error) {
	_ = godotenv.Load()

	debug, err := strconv.ParseBool(getEnv("LOG_DEBUG", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_DEBUG: %w", err)
	}

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return Config{}, err
	}

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	guards, err := buildGuards()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Mode: domain.ParseMode(getEnv("APP_ENV", string(domain.ModeDevelopment))),
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "8080"),
			StaticDir: strings.TrimSpace(os.Getenv("STATIC_DIR")),
		},
		Log: LogConfig{Debug: debug},
		Storage: StorageConfig{
			Type:   strings.ToLower(getEnv("STORAGE_TYPE", "memory")),
			Redis:  redisConfig,
			SQLite: SQLiteConfig{Path: getEnv("SQLITE_PATH", "cardguard.db")},
		},
		RateLimiter: rateLimiterConfig,
		Guards:      guards,
	}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	maxRequests, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX_REQUESTS", strconv.Itoa(domain.DefaultMaxRequests)))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_MAX_REQUESTS: %w", err)
	}
	windowMs, err := strconv.ParseInt(getEnv("RATE_LIMIT_WINDOW_MS", "60000"), 10, 64)
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW_MS: %w", err)
	}
	window, err := domain.WindowFromMillis(windowMs)
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW_MS: %w", err)
	}
	cleanupSeconds, err := strconv.Atoi(getEnv("RATE_LIMIT_CLEANUP_INTERVAL_SECONDS", "60"))
	if err != nil {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_CLEANUP_INTERVAL_SECONDS: %w", err)
	}
	if cleanupSeconds > int(domain.MaxWindow.Seconds()) {
		return RateLimiterConfig{}, fmt.Errorf("invalid RATE_LIMIT_CLEANUP_INTERVAL_SECONDS: above %s", domain.MaxWindow)
	}

	routeRules, err := buildRouteOverrides()
	if err != nil {
		return RateLimiterConfig{}, err
	}

	defaultRule := domain.RateLimitRule{
		MaxRequests: maxRequests,
		Window:      window,
	}

	return RateLimiterConfig{
		DefaultRule:     defaultRule.Normalize(domain.DefaultRule()),
		RouteRules:      routeRules,
		CleanupInterval: time.Duration(cleanupSeconds) * time.Second,
	}, nil
}

// buildRouteOverrides lê RATE_LIMIT_ROUTES no formato ROUTE:MAX_REQUESTS:WINDOW_MS,...
func buildRouteOverrides() (map[string]domain.RateLimitRule, error) {
	raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_ROUTES"))
	if raw == "" {
		return map[string]domain.RateLimitRule{}, nil
	}

	overrides := make(map[string]domain.RateLimitRule)
	items := strings.Split(raw, ",")

	for _, item := range items {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("route override must follow ROUTE:MAX_REQUESTS:WINDOW_MS: %s", item)
		}

		route := strings.TrimSpace(parts[0])
		if route == "" {
			return nil, fmt.Errorf("route override without route name: %s", item)
		}
		maxRequests, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid max requests for route %s: %w", route, err)
		}
		windowMs, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid window ms for route %s: %w", route, err)
		}
		window, err := domain.WindowFromMillis(windowMs)
		if err != nil {
			return nil, fmt.Errorf("invalid window ms for route %s: %w", route, err)
		}

		overrides[route] = domain.RateLimitRule{
			MaxRequests: maxRequests,
			Window:      window,
		}
	}

	return overrides, nil
}

func buildGuards() (domain.GuardSet, error) {
	guards := make(domain.GuardSet, len(guardEnv))
	for guard, key := range guardEnv {
		enabled, err := strconv.ParseBool(getEnv(key, "true"))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		guards[guard] = enabled
	}
	return guards, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
