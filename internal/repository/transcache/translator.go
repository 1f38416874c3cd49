// Package transcache caches provider translations in a key-value store.
package transcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/db"
	"github.com/kailas-cloud/digesto/internal/domain"
)

const cacheKeyPrefix = "digesto:tr_cache:"

// store is the consumer interface for the translation cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedTranslator serves repeated translations from the store.
// Only successful translations are cached; store errors never fail a call.
type CachedTranslator struct {
	inner      domain.Translator
	store      store
	namespace  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. namespace separates entries produced by
// different providers or models. cacheTotal has the label "result"
// ("hit"/"miss") and may be nil.
func New(
	inner domain.Translator,
	s store,
	namespace string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedTranslator {
	return &CachedTranslator{
		inner:      inner,
		store:      s,
		namespace:  namespace,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Translate returns a cached translation or calls the inner translator.
func (c *CachedTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	key := c.cacheKey(text, sourceLang, targetLang)

	if out, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return out, nil
	}

	c.incCache("miss")

	out, err := c.inner.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return "", fmt.Errorf("translate text: %w", err)
	}

	c.putToCache(ctx, key, out)
	return out, nil
}

func (c *CachedTranslator) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedTranslator) cacheKey(text, sourceLang, targetLang string) string {
	h := sha256.New()
	for _, part := range []string{c.namespace, sourceLang, targetLang, text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedTranslator) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached translation", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		// Never written by putToCache; drop it so the next success replaces it.
		if err := c.store.Del(ctx, key); err != nil {
			c.logger.Warn("Failed to drop empty cached translation", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return string(data), true
}

func (c *CachedTranslator) putToCache(ctx context.Context, key, text string) {
	if err := c.store.SetWithTTL(ctx, key, []byte(text), c.ttl); err != nil {
		c.logger.Warn("Failed to cache translation", zap.String("key", key), zap.Error(err))
	}
}
