package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/domain"
	"github.com/kailas-cloud/digesto/internal/metrics"
)

// InstrumentedTranslator wraps a provider with a per-call timeout,
// Prometheus metrics and logging.
type InstrumentedTranslator struct {
	inner    domain.Translator
	provider string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewInstrumentedTranslator wraps inner. timeout <= 0 disables the per-call bound.
func NewInstrumentedTranslator(
	inner domain.Translator, provider string, timeout time.Duration, logger *zap.Logger,
) *InstrumentedTranslator {
	return &InstrumentedTranslator{
		inner:    inner,
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Translate implements domain.Translator.
func (t *InstrumentedTranslator) Translate(
	ctx context.Context, text, sourceLang, targetLang string,
) (string, error) {
	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()

	out, err := t.inner.Translate(callCtx, text, sourceLang, targetLang)

	duration := time.Since(start)
	metrics.TranslationRequestDuration.WithLabelValues(t.provider).Observe(duration.Seconds())

	if err != nil {
		status := "error"
		// Our own deadline fired, the caller's context is still live.
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			status = "timeout"
			err = fmt.Errorf("%w: no response within %s: %w", domain.ErrTranslationFailed, t.timeout, err)
		}
		metrics.TranslationRequestsTotal.WithLabelValues(t.provider, status).Inc()
		t.logger.Warn("Translation request failed",
			zap.String("provider", t.provider),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", fmt.Errorf("translate: %w", err)
	}

	metrics.TranslationRequestsTotal.WithLabelValues(t.provider, "success").Inc()
	t.logger.Debug("Translation request completed",
		zap.String("provider", t.provider),
		zap.Duration("duration", duration),
		zap.Int("input_len", len(text)),
		zap.Int("output_len", len(out)),
	)
	return out, nil
}
