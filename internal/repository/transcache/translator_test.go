package transcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/db"
)

func TestTranslate_CacheMiss(t *testing.T) {
	inner := &mockTranslator{out: "la justicia"}
	ct, ms := newTestCachedTranslator(t, inner)

	var setKey string
	var setValue []byte
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		setKey, setValue, setTTL = key, value, ttl
		return nil
	}

	out, err := ct.Translate(context.Background(), "iustitia", "la", "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "la justicia" {
		t.Fatalf("unexpected output %q", out)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if !strings.HasPrefix(setKey, cacheKeyPrefix) {
		t.Errorf("unexpected cache key %q", setKey)
	}
	if string(setValue) != "la justicia" {
		t.Errorf("unexpected cached value %q", setValue)
	}
	if setTTL != time.Hour {
		t.Errorf("expected TTL 1h, got %s", setTTL)
	}
}

func TestTranslate_CacheHit(t *testing.T) {
	inner := &mockTranslator{out: "fresh"}
	ct, ms := newTestCachedTranslator(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("cached"), nil
	}

	out, err := ct.Translate(context.Background(), "iustitia", "la", "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "cached" {
		t.Fatalf("expected cached translation, got %q", out)
	}
	if inner.calls != 0 {
		t.Fatalf("expected no inner call on hit, got %d", inner.calls)
	}
}

func TestTranslate_EmptyEntryDroppedAndRefreshed(t *testing.T) {
	inner := &mockTranslator{out: "fresh"}
	ct, ms := newTestCachedTranslator(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{}, nil
	}
	var deleted, stored string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return errors.New("connection refused")
	}
	ms.setFn = func(_ context.Context, key string, _ []byte, _ time.Duration) error {
		stored = key
		return nil
	}

	out, err := ct.Translate(context.Background(), "iustitia", "la", "es")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "fresh" || inner.calls != 1 {
		t.Fatalf("expected inner call, got %q after %d calls", out, inner.calls)
	}
	if deleted == "" || deleted != stored {
		t.Errorf("expected empty entry %q to be dropped and rewritten, stored %q", deleted, stored)
	}
}

func TestTranslate_InnerErrorNotCached(t *testing.T) {
	inner := &mockTranslator{err: errors.New("provider down")}
	ct, ms := newTestCachedTranslator(t, inner)

	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		t.Fatal("SET must not be called on inner error")
		return nil
	}

	if _, err := ct.Translate(context.Background(), "iustitia", "la", "es"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTranslate_StoreErrorsIgnored(t *testing.T) {
	inner := &mockTranslator{out: "ok"}
	ct, ms := newTestCachedTranslator(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return &db.Error{Op: db.OpSet, Err: errors.New("connection refused")}
	}

	out, err := ct.Translate(context.Background(), "iustitia", "la", "es")
	if err != nil {
		t.Fatalf("store errors must not fail translation: %v", err)
	}
	if out != "ok" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCacheKey_SeparatesLanguagesAndNamespace(t *testing.T) {
	a := New(&mockTranslator{}, &mockKVStore{}, "openai:m", time.Hour, nil, zap.NewNop())
	b := New(&mockTranslator{}, &mockKVStore{}, "gemini:m", time.Hour, nil, zap.NewNop())

	keys := map[string]bool{
		a.cacheKey("lex", "la", "es"): true,
		a.cacheKey("lex", "la", "en"): true,
		a.cacheKey("lex", "el", "es"): true,
		b.cacheKey("lex", "la", "es"): true,
	}
	if len(keys) != 4 {
		t.Fatalf("expected 4 distinct keys, got %d", len(keys))
	}
	if a.cacheKey("lex", "la", "es") != a.cacheKey("lex", "la", "es") {
		t.Error("cache key must be deterministic")
	}
}

func TestTranslate_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	stored := map[string][]byte{}
	ms := &mockKVStore{
		getFn: func(_ context.Context, key string) ([]byte, error) {
			if v, ok := stored[key]; ok {
				return v, nil
			}
			return nil, db.ErrKeyNotFound
		},
		setFn: func(_ context.Context, key string, value []byte, _ time.Duration) error {
			stored[key] = value
			return nil
		},
	}
	ct := New(&mockTranslator{out: "lex"}, ms, "ns", time.Hour, counter, zap.NewNop())

	for range 3 {
		if _, err := ct.Translate(context.Background(), "lex", "la", "es"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("expected 1 miss, got %f", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 2 {
		t.Errorf("expected 2 hits, got %f", got)
	}
}
