package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/config"
	logpkg "github.com/kailas-cloud/digesto/internal/logger"
	"github.com/kailas-cloud/digesto/internal/metrics"
	"github.com/kailas-cloud/digesto/internal/usecase/health"
	"github.com/kailas-cloud/digesto/internal/version"
)

// options holds flag values. A flag only overrides config when it was set.
type options struct {
	configPath  string
	input       string
	output      string
	encoding    string
	mode        string
	pattern     string
	maxLength   int
	format      string
	bytes       int
	source      string
	target      string
	delay       time.Duration
	provider    string
	metricsAddr string
	logLevel    string
}

// app carries state shared by the subcommands for a single invocation.
type app struct {
	opts    options
	cfg     config.Config
	logger  *zap.Logger
	health  *health.Service
	metrics *metrics.Server
}

func newApp() *app {
	return &app{health: health.New()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "digesto",
		Short: "Segment and translate the Latin Digest corpus",
		Long: `digesto turns a plain-text Digest corpus into citation-labeled JSON fragments.

  inspect    dump the first bytes of the corpus and try the known encodings
  segment    split the corpus at citation labels and write the fragments
  translate  segment, translate every fragment and write both texts`,
		Version:           version.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "path to YAML config (default config/<ENV>.yaml)")
	pf.StringVar(&a.opts.input, "input", "", "corpus file")
	pf.StringVar(&a.opts.encoding, "encoding", "", "input encoding: auto, utf-8, utf-8-sig, utf-16, utf-16-le, utf-16-be, latin-1, cp1252")
	pf.StringVar(&a.opts.metricsAddr, "metrics-addr", "", "serve /metrics on this address while the command runs")
	pf.StringVar(&a.opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(a.inspectCmd(), a.segmentCmd(), a.translateCmd())
	return root
}

// addSegmentFlags registers the flags shared by segment and translate.
func (a *app) addSegmentFlags(f *pflag.FlagSet) {
	f.StringVar(&a.opts.output, "output", "", "output JSON file")
	f.StringVar(&a.opts.mode, "mode", "", "segmentation mode: delimiter or lines")
	f.StringVar(&a.opts.pattern, "pattern", "", "citation pattern for the selected mode")
	f.IntVar(&a.opts.maxLength, "max-length", 0, "maximum fragment length in runes (lines mode)")
}

// setup loads .env and config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	env := config.GetEnv()
	cfg, err := config.Load(a.opts.configPath, env)
	if err != nil {
		return err
	}
	a.applyOverrides(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	a.cfg = cfg

	base, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger, _ = logpkg.ForRun(base, cmd.Name())
	a.logger.Debug("Starting",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)

	metrics.RegisterTranslationMetrics()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, a.logger).WithHealth(a.health)
		if err := srv.Start(); err != nil {
			return err
		}
		a.metrics = srv
	}

	cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), a.logger))
	return nil
}

func (a *app) applyOverrides(f *pflag.FlagSet, cfg *config.Config) {
	if f.Changed("input") {
		cfg.Input.Path = a.opts.input
	}
	if f.Changed("encoding") {
		cfg.Input.Encoding = a.opts.encoding
	}
	if f.Changed("mode") {
		cfg.Segment.Mode = a.opts.mode
	}
	if f.Changed("pattern") {
		if cfg.Segment.Mode == "lines" {
			cfg.Segment.LinePattern = a.opts.pattern
		} else {
			cfg.Segment.Pattern = a.opts.pattern
		}
	}
	if f.Changed("max-length") {
		cfg.Segment.MaxLength = a.opts.maxLength
	}
	if f.Changed("format") {
		cfg.Output.Format = a.opts.format
	}
	if f.Changed("bytes") {
		cfg.Inspect.Bytes = a.opts.bytes
	}
	if f.Changed("source") {
		cfg.Translation.SourceLang = a.opts.source
	}
	if f.Changed("target") {
		cfg.Translation.TargetLang = a.opts.target
	}
	if f.Changed("delay") {
		// 0 in config means "use the default"; an explicit zero flag means none.
		cfg.Translation.DelayMS = int(a.opts.delay.Milliseconds())
		if cfg.Translation.DelayMS == 0 {
			cfg.Translation.DelayMS = -1
		}
	}
	if f.Changed("provider") && a.opts.provider != cfg.Translation.Provider {
		cfg.Translation.Provider = a.opts.provider
		cfg.Translation.Model = config.DefaultModel(a.opts.provider)
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = a.opts.metricsAddr
	}
	if f.Changed("log-level") {
		cfg.Logging.Level = a.opts.logLevel
	}
}

// close releases what setup started. Safe to call when setup never ran.
func (a *app) close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metrics.Shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
		cancel()
		a.metrics = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
