package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/spacesedan/sentigate/config"
	"github.com/spacesedan/sentigate/internal/inference"
	"github.com/spacesedan/sentigate/internal/models"
	"github.com/spacesedan/sentigate/internal/telemetry"
	"github.com/spacesedan/sentigate/internal/workers"
)

const syncFillTimeout = 2 * time.Second

// CachedAnalyzer wraps another Analyzer and serves repeated sentiment and
// classification inputs from the cache. Chat and image analysis pass
// through untouched since their outputs are not deterministic per input.
type CachedAnalyzer struct {
	inner inference.Analyzer
	cache Cache
	pool  *workers.Pool
	tele  *telemetry.Emitter
	ttl   time.Duration
}

func NewCachedAnalyzer(inner inference.Analyzer, cache Cache, cfg *config.Settings, pool *workers.Pool, tele *telemetry.Emitter) *CachedAnalyzer {
	return &CachedAnalyzer{
		inner: inner,
		cache: cache,
		pool:  pool,
		tele:  tele,
		ttl:   cfg.Cache.TTL,
	}
}

func (c *CachedAnalyzer) AnalyzeSentiment(ctx context.Context, text, language string) (models.SentimentResult, error) {
	key := AnalysisKey(inference.KindSentiment, language, text)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var cached models.SentimentResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			c.tele.CacheResult(telemetry.OutcomeHit)
			return cached, nil
		}
	}
	c.tele.CacheResult(telemetry.OutcomeMiss)

	result, err := c.inner.AnalyzeSentiment(ctx, text, language)
	if err != nil {
		return result, err
	}
	c.storeAsync(key, result)
	return result, nil
}

func (c *CachedAnalyzer) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	key := AnalysisKey(inference.KindClassify, "", text)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var cached models.ClassificationResult
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			c.tele.CacheResult(telemetry.OutcomeHit)
			return cached, nil
		}
	}
	c.tele.CacheResult(telemetry.OutcomeMiss)

	result, err := c.inner.Classify(ctx, text)
	if err != nil {
		return result, err
	}
	c.storeAsync(key, result)
	return result, nil
}

func (c *CachedAnalyzer) Chat(ctx context.Context, prompt string, maxTokens int, temperature float32) (models.ChatResult, error) {
	return c.inner.Chat(ctx, prompt, maxTokens, temperature)
}

func (c *CachedAnalyzer) ClassifyImage(ctx context.Context, filename string, img inference.Image) (models.ImageClassificationResult, error) {
	return c.inner.ClassifyImage(ctx, filename, img)
}

// storeAsync writes the result back without blocking the request path. When
// no pool is available it falls back to a short synchronous write.
func (c *CachedAnalyzer) storeAsync(key string, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("[Cache] Failed to marshal result for caching",
			slog.String("error", err.Error()))
		return
	}

	if c.pool != nil {
		c.pool.Submit(workers.Task{
			Name: "cache_fill",
			Run: func(ctx context.Context) error {
				return c.cache.Set(ctx, key, string(data), c.ttl)
			},
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncFillTimeout)
	defer cancel()
	if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
		slog.Warn("[Cache] Failed to store result",
			slog.String("error", err.Error()))
	}
}
