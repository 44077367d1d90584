// Package cache fronts the analyzers with a Valkey backed result cache.
// Everything here is best effort: a cache failure degrades to a miss and
// never fails a request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/sentigate/config"
)

const keyNamespace = "sentigate:analysis:"

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close()
}

type ValkeyCache struct {
	client valkey.Client
}

func NewValkeyCache(cfg config.CacheSettings) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{
			cfg.Address,
		},
		Password:         cfg.Password,
		SelectDB:         cfg.DB,
		ConnWriteTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("[Cache] Failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[Cache] Failed to ping Valkey: %w", err)
	}

	slog.Info("[Cache] Successfully connected to valkey")
	return &ValkeyCache{client: client}, nil
}

func (c *ValkeyCache) Get(ctx context.Context, key string) (string, bool) {
	res := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := res.Error(); err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Warn("[Cache] Get failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return "", false
	}

	val, err := res.ToString()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *ValkeyCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := c.client.Do(ctx, c.client.B().Set().Key(key).Value(value).Ex(ttl).Build()).Error()
	if err != nil {
		return fmt.Errorf("[Cache] Set failed for key %s: %w", key, err)
	}
	return nil
}

func (c *ValkeyCache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *ValkeyCache) Close() {
	c.client.Close()
}

// AnalysisKey derives a stable cache key from the analysis kind and input.
// Hashing keeps arbitrary user text out of the keyspace.
func AnalysisKey(kind, language, text string) string {
	sum := sha256.Sum256([]byte(kind + ":" + language + ":" + text))
	return keyNamespace + hex.EncodeToString(sum[:])
}
