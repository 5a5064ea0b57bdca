// Package redis disponibiliza a implementação do storage baseada em Redis.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
)

const defaultPrefix = "ratelimit:"

// hitScript executa o passo da janela fixa de forma atômica. O registro é um
// hash com os campos count e reset_at (milissegundos desde a época).
// Devolve {allowed, count, reset_at}.
var hitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local window = tonumber(ARGV[3])

local fields = redis.call('HMGET', key, 'count', 'reset_at')
local count = tonumber(fields[1])
local resetAt = tonumber(fields[2])

if count == nil or resetAt == nil or resetAt <= now then
  resetAt = now + window
  redis.call('HSET', key, 'count', 1, 'reset_at', resetAt)
  redis.call('PEXPIREAT', key, resetAt)
  return {1, 1, resetAt}
end

if count >= max then
  return {0, count, resetAt}
end

count = redis.call('HINCRBY', key, 'count', 1)
return {1, count, resetAt}
`)

type Storage struct {
	client *redis.Client
	prefix string
}

var _ ports.Storage = (*Storage)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func New(cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Storage{client: client, prefix: cfg.Prefix}, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) key(identifier string) string {
	return s.prefix + identifier
}

func (s *Storage) Hit(ctx context.Context, identifier string, rule domain.RateLimitRule, now time.Time) (domain.Decision, error) {
	res, err := hitScript.Run(ctx, s.client,
		[]string{s.key(identifier)},
		now.UnixMilli(), rule.MaxRequests, rule.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("redis rate limit script: %w", err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("redis rate limit script returned %d values", len(res))
	}

	return domain.Decision{
		Allowed:      res[0] == 1,
		Identifier:   identifier,
		AppliedRule:  rule,
		CurrentCount: res[1],
		ResetAt:      time.UnixMilli(res[2]),
	}, nil
}

func (s *Storage) Get(ctx context.Context, identifier string) (domain.RateLimitRecord, bool, error) {
	fields, err := s.client.HMGet(ctx, s.key(identifier), "count", "reset_at").Result()
	if err != nil {
		return domain.RateLimitRecord{}, false, err
	}
	rec, ok, err := parseRecord(identifier, fields)
	if err != nil {
		return domain.RateLimitRecord{}, false, fmt.Errorf("parse record %s: %w", identifier, err)
	}
	return rec, ok, nil
}

// Sweep percorre as chaves do prefixo e remove as que já expiraram. O Redis
// também expira as chaves sozinho via PEXPIREAT; o sweep cobre relógios
// divergentes entre a aplicação e o servidor.
func (s *Storage) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.HGet(ctx, key, "reset_at").Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return removed, err
		}
		resetAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return removed, fmt.Errorf("parse reset_at of %s: %w", key, err)
		}
		if now.UnixMilli() < resetAt {
			continue
		}
		deleted, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return removed, err
		}
		removed += int(deleted)
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

func parseRecord(identifier string, fields []interface{}) (domain.RateLimitRecord, bool, error) {
	if len(fields) != 2 || fields[0] == nil || fields[1] == nil {
		return domain.RateLimitRecord{}, false, nil
	}
	count, err := strconv.ParseInt(fmt.Sprint(fields[0]), 10, 64)
	if err != nil {
		return domain.RateLimitRecord{}, false, err
	}
	resetAt, err := strconv.ParseInt(fmt.Sprint(fields[1]), 10, 64)
	if err != nil {
		return domain.RateLimitRecord{}, false, err
	}
	return domain.RateLimitRecord{
		Identifier:    identifier,
		Count:         count,
		WindowResetAt: time.UnixMilli(resetAt),
	}, true, nil
}
