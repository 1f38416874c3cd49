package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/domain"
	"github.com/kailas-cloud/digesto/internal/inspect"
	"github.com/kailas-cloud/digesto/internal/repository/fragment"
	"github.com/kailas-cloud/digesto/internal/segment"
	"github.com/kailas-cloud/digesto/internal/usecase/digest"
	"github.com/kailas-cloud/digesto/internal/usecase/translation"
)

func (a *app) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Hex-dump the start of the corpus and try each candidate encoding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := inspect.NewInspector(a.cfg.Inspect.Encodings, a.logger)
			return in.Inspect(cmd.Context(), cmd.OutOrStdout(), a.cfg.Input.Path, a.cfg.Inspect.Bytes)
		},
	}
	cmd.Flags().IntVar(&a.opts.bytes, "bytes", 0, "number of bytes to inspect")
	return cmd
}

func (a *app) segmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Split the corpus at citation labels and write the fragments as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.pipeline()
			if err != nil {
				return err
			}
			format, err := fragment.ParseFormat(a.cfg.Output.Format)
			if err != nil {
				return err
			}

			res, err := svc.Segment(cmd.Context(), digest.Request{
				InputPath:  a.cfg.Input.Path,
				Encoding:   a.cfg.Input.Encoding,
				OutputPath: a.outputPath(cmd, a.cfg.Output.Path),
				Format:     format,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d fragments (%s) written to %s\n",
				res.Fragments, res.Encoding, res.OutputPath)
			return nil
		},
	}
	a.addSegmentFlags(cmd.Flags())
	cmd.Flags().StringVar(&a.opts.format, "format", "", "output shape: fragments or texts")
	return cmd
}

func (a *app) translateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Segment the corpus, translate every fragment and write both texts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.pipeline()
			if err != nil {
				return err
			}

			tr, closeTranslator, err := a.buildTranslator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeTranslator()

			tc := a.cfg.Translation
			pass := translation.NewService(tr, translation.Config{
				SourceLang:    tc.SourceLang,
				TargetLang:    tc.TargetLang,
				Delay:         tc.Delay(),
				FailureMarker: tc.FailureMarker,
			}, a.logger).WithProgress(func(index, total int, f domain.Fragment) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", index, total, f.Citation)
			})

			res, err := svc.Translate(cmd.Context(), digest.Request{
				InputPath:  a.cfg.Input.Path,
				Encoding:   a.cfg.Input.Encoding,
				OutputPath: a.outputPath(cmd, a.cfg.Output.TranslatedPath),
			}, pass)
			if err != nil {
				return err
			}

			a.logger.Info("Translation finished",
				zap.Int("translated", res.Stats.Translated),
				zap.Int("failed", res.Stats.Failed),
				zap.Int("skipped", res.Stats.Skipped),
				zap.Duration("duration", res.Stats.Duration),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d fragments (%d failed) written to %s\n",
				res.Fragments, res.Stats.Failed, res.OutputPath)
			return nil
		},
	}
	a.addSegmentFlags(cmd.Flags())
	f := cmd.Flags()
	f.StringVar(&a.opts.source, "source", "", "source language code")
	f.StringVar(&a.opts.target, "target", "", "target language code")
	f.DurationVar(&a.opts.delay, "delay", 0, "pause after every provider call")
	f.StringVar(&a.opts.provider, "provider", "", "translation provider: openai or gemini")
	return cmd
}

func (a *app) pipeline() (*digest.Service, error) {
	seg, err := segment.New(a.cfg.Segment)
	if err != nil {
		return nil, err
	}
	return digest.NewService(seg, fragment.NewWriter(), a.logger), nil
}

// outputPath prefers --output over the configured path for this command.
func (a *app) outputPath(cmd *cobra.Command, configured string) string {
	if cmd.Flags().Changed("output") {
		return a.opts.output
	}
	return configured
}
