// Package translation runs the per-fragment translation pass.
package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/domain"
	"github.com/kailas-cloud/digesto/internal/metrics"
)

// Config holds the fixed parameters of a pass.
type Config struct {
	SourceLang    string
	TargetLang    string
	Delay         time.Duration // pause after every provider call except the last one
	FailureMarker string        // recorded in place of a failed translation
}

// ProgressFunc is called before each fragment is handled. index is 1-based.
type ProgressFunc func(index, total int, f domain.Fragment)

// Stats summarizes a pass.
type Stats struct {
	Total      int
	Translated int
	Failed     int
	Skipped    int // blank bodies, no provider call
	Duration   time.Duration
}

// Service translates fragments one at a time. A provider failure degrades
// only the fragment it happened on; nothing is retried.
type Service struct {
	translator domain.Translator
	cfg        Config
	progress   ProgressFunc
	logger     *zap.Logger
}

// NewService creates a translation pass.
func NewService(t domain.Translator, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		translator: t,
		cfg:        cfg,
		logger:     logger,
	}
}

// WithProgress sets a progress callback.
func (s *Service) WithProgress(fn ProgressFunc) *Service {
	s.progress = fn
	return s
}

// Run translates frags in order and returns copies carrying the result.
// If ctx is cancelled the fragments handled so far are returned with ctx.Err().
func (s *Service) Run(ctx context.Context, frags []domain.Fragment) ([]domain.Fragment, Stats, error) {
	start := time.Now()
	total := len(frags)
	out := make([]domain.Fragment, 0, total)
	stats := Stats{Total: total}

	s.logger.Info("Starting translation pass",
		zap.Int("fragments", total),
		zap.String("source", s.cfg.SourceLang),
		zap.String("target", s.cfg.TargetLang),
	)

	for i, f := range frags {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			return out, stats, fmt.Errorf("translation interrupted after %d/%d: %w", len(out), total, err)
		}

		if s.progress != nil {
			s.progress(i+1, total, f)
		}
		s.logger.Info("Translating fragment",
			zap.Int("index", i+1),
			zap.Int("total", total),
			zap.String("citation", f.Citation),
		)

		if strings.TrimSpace(f.Text) == "" {
			out = append(out, f.WithTranslation(""))
			stats.Skipped++
			continue
		}

		translated, err := s.translator.Translate(ctx, f.Text, s.cfg.SourceLang, s.cfg.TargetLang)
		if err != nil {
			// A cancelled run is not a provider failure.
			if ctx.Err() != nil {
				stats.Duration = time.Since(start)
				return out, stats, fmt.Errorf("translation interrupted after %d/%d: %w", len(out), total, ctx.Err())
			}
			s.logger.Warn("Translation failed, recording marker",
				zap.String("citation", f.Citation),
				zap.Error(err),
			)
			metrics.TranslationFailuresTotal.Inc()
			out = append(out, f.WithTranslation(s.cfg.FailureMarker))
			stats.Failed++
		} else {
			out = append(out, f.WithTranslation(translated))
			stats.Translated++
		}

		if i < total-1 {
			if err := sleep(ctx, s.cfg.Delay); err != nil {
				stats.Duration = time.Since(start)
				return out, stats, fmt.Errorf("translation interrupted after %d/%d: %w", len(out), total, err)
			}
		}
	}

	stats.Duration = time.Since(start)
	s.logger.Info("Translation pass completed",
		zap.Int("translated", stats.Translated),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("duration", stats.Duration),
	)
	return out, stats, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
