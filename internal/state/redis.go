package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

const (
	defaultRedisKey = "newsroom:processed_urls"
	redisPingWait   = 5 * time.Second
	// redisScanBatch is the HSCAN COUNT hint used by Load.
	redisScanBatch = 512
)

// ErrEmptyAddress is returned when the redis driver has no address.
var ErrEmptyAddress = errors.New("redis address is required")

// RedisConfig selects the server and the hash that holds the ledger.
// Address may be host:port or a redis:// URL.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
}

func (c RedisConfig) options() (*redis.Options, error) {
	if c.Address == "" {
		return nil, ErrEmptyAddress
	}
	if strings.Contains(c.Address, "://") {
		opts, err := redis.ParseURL(c.Address)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.Address, Password: c.Password, DB: c.DB}, nil
}

// RedisLedger keeps one hash field per URL. The value is
// "<outcome>|<RFC 3339 time>".
type RedisLedger struct {
	client *redis.Client
	key    string
}

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisLedger, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingWait)
	defer cancel()
	if err = client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return NewRedisLedger(client, cfg.Key), nil
}

// NewRedisLedger uses client as is. An empty key selects the default hash.
func NewRedisLedger(client *redis.Client, key string) *RedisLedger {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisLedger{client: client, key: key}
}

// Load walks the hash with HSCAN so large ledgers are not read in one reply.
func (l *RedisLedger) Load(ctx context.Context) (map[string]domain.LinkOutcome, error) {
	out := make(map[string]domain.LinkOutcome)

	iter := l.client.HScan(ctx, l.key, 0, "", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		url := iter.Val()
		if !iter.Next(ctx) {
			break
		}
		outcome, _, _ := strings.Cut(iter.Val(), "|")
		out[url] = domain.LinkOutcome(outcome)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", l.key, err)
	}
	return out, nil
}

func (l *RedisLedger) Record(ctx context.Context, url string, outcome domain.LinkOutcome, at time.Time) error {
	value := string(outcome) + "|" + at.UTC().Format(time.RFC3339)
	if err := l.client.HSet(ctx, l.key, url, value).Err(); err != nil {
		return fmt.Errorf("record %s in %s: %w", url, l.key, err)
	}
	return nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}
