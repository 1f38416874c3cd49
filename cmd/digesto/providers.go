package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/digesto/internal/db/redis"
	"github.com/kailas-cloud/digesto/internal/domain"
	"github.com/kailas-cloud/digesto/internal/metrics"
	"github.com/kailas-cloud/digesto/internal/repository/transcache"
	genaiTr "github.com/kailas-cloud/digesto/internal/transport/genai"
	openaiTr "github.com/kailas-cloud/digesto/internal/transport/openai"
	"github.com/kailas-cloud/digesto/internal/usecase/translation"
)

// buildTranslator assembles provider -> instrumentation -> optional cache.
// The returned func releases the cache connection.
func (a *app) buildTranslator(ctx context.Context) (domain.Translator, func(), error) {
	tc := a.cfg.Translation

	var provider domain.Translator
	switch tc.Provider {
	case "gemini":
		p, err := genaiTr.NewTranslator(ctx, &genaiTr.Config{
			APIKey:  tc.APIKey,
			BaseURL: tc.BaseURL,
			Model:   tc.Model,
			Logger:  a.logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create gemini translator: %w", err)
		}
		provider = p
	default:
		provider = openaiTr.NewTranslator(&openaiTr.Config{
			APIKey:  tc.APIKey,
			BaseURL: tc.BaseURL,
			Model:   tc.Model,
			Logger:  a.logger,
		})
	}

	var tr domain.Translator = translation.NewInstrumentedTranslator(provider, tc.Provider, tc.Timeout(), a.logger)
	a.logger.Info("Translator created",
		zap.String("provider", tc.Provider),
		zap.String("model", tc.Model),
		zap.String("source", tc.SourceLang),
		zap.String("target", tc.TargetLang),
	)

	cc := a.cfg.Cache
	if !cc.Enabled {
		return tr, func() {}, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cc.Addrs,
		Password: cc.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create cache store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cc.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("cache not ready: %w", err)
	}
	a.logger.Info("Translation cache connected", zap.Strings("addrs", cc.Addrs))
	a.health.Register("cache", store)

	tr = transcache.New(tr, store, tc.Provider+":"+tc.Model, cc.TTL(), metrics.TranslationCacheTotal, a.logger)
	return tr, store.Close, nil
}
