package transcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/db"
)

type mockTranslator struct {
	out   string
	err   error
	calls int
}

func (m *mockTranslator) Translate(_ context.Context, _, _, _ string) (string, error) {
	m.calls++
	return m.out, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn func(ctx context.Context, key string) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKVStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestCachedTranslator(t *testing.T, inner *mockTranslator) (*CachedTranslator, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ct := New(inner, ms, "openai:gpt-4o-mini", time.Hour, nil, zap.NewNop())
	return ct, ms
}
