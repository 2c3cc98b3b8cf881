package emotion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"moodtune/logger"
)

// Cache stores prediction bodies by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CacheKey returns the cache key of text.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emotion:" + hex.EncodeToString(sum[:])
}

// CachedClassifier serves repeated texts from a cache. Cache errors are
// logged and bypassed; only successful upstream bodies are stored.
type CachedClassifier struct {
	next  Classifier
	cache Cache
	ttl   time.Duration
}

// NewCachedClassifier wraps next with cache.
func NewCachedClassifier(next Classifier, cache Cache, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{next: next, cache: cache, ttl: ttl}
}

// Predict implements Classifier.
func (c *CachedClassifier) Predict(ctx context.Context, text string) ([]byte, error) {
	key := CacheKey(text)

	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("[Emotion] cache lookup failed", logger.ErrorField(err))
	} else if ok {
		logger.Debug("[Emotion] cache hit", logger.String("key", key))
		return body, nil
	}

	body, err = c.next.Predict(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, body, c.ttl); err != nil {
		logger.Warn("[Emotion] cache store failed", logger.ErrorField(err))
	}
	return body, nil
}
