// Package digest wires corpus loading, segmentation, translation and output
// into the two end-to-end runs the CLI exposes.
package digest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/charset"
	"github.com/kailas-cloud/digesto/internal/domain"
	"github.com/kailas-cloud/digesto/internal/metrics"
	"github.com/kailas-cloud/digesto/internal/repository/fragment"
	"github.com/kailas-cloud/digesto/internal/usecase/translation"
)

// Request describes one run.
type Request struct {
	InputPath  string
	Encoding   string // charset name or "auto"
	OutputPath string
	Format     fragment.Format
}

// Result summarizes a completed run.
type Result struct {
	InputPath  string
	Encoding   string
	Fragments  int
	OutputPath string
	Stats      *translation.Stats // nil for segment-only runs
}

// Service runs the pipeline. Nothing is written unless every stage succeeds.
type Service struct {
	segmenter Segmenter
	writer    Writer
	logger    *zap.Logger
}

// NewService creates the pipeline.
func NewService(seg Segmenter, w Writer, logger *zap.Logger) *Service {
	return &Service{segmenter: seg, writer: w, logger: logger}
}

// Load reads and decodes the corpus.
func (s *Service) Load(path, encoding string) (domain.Corpus, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Corpus{}, fmt.Errorf("%w: %s", domain.ErrInputNotFound, path)
		}
		return domain.Corpus{}, fmt.Errorf("read %s: %w", path, err)
	}

	text, enc, err := charset.DecodeAuto(raw, encoding)
	if err != nil {
		return domain.Corpus{}, fmt.Errorf("decode %s: %w", path, err)
	}

	s.logger.Info("Corpus loaded",
		zap.String("path", path),
		zap.String("encoding", enc),
		zap.Int("bytes", len(raw)),
	)
	return domain.Corpus{Path: path, Raw: raw, Text: text, Encoding: enc}, nil
}

// Segment loads the corpus, segments it and writes req.Format to req.OutputPath.
func (s *Service) Segment(_ context.Context, req Request) (Result, error) {
	corpus, frags, err := s.loadAndSegment(req)
	if err != nil {
		return Result{}, err
	}

	if err := s.writer.Write(req.OutputPath, req.Format, frags); err != nil {
		return Result{}, fmt.Errorf("write output: %w", err)
	}
	s.logger.Info("Output written",
		zap.String("path", req.OutputPath),
		zap.String("format", string(req.Format)),
		zap.Int("fragments", len(frags)),
	)

	return Result{
		InputPath:  corpus.Path,
		Encoding:   corpus.Encoding,
		Fragments:  len(frags),
		OutputPath: req.OutputPath,
	}, nil
}

// Translate runs Segment's stages plus a translation pass and writes the
// translated format. An interrupted pass writes nothing.
func (s *Service) Translate(ctx context.Context, req Request, pass TranslationPass) (Result, error) {
	corpus, frags, err := s.loadAndSegment(req)
	if err != nil {
		return Result{}, err
	}

	translated, stats, err := pass.Run(ctx, frags)
	if err != nil {
		s.logger.Warn("Translation pass interrupted, no output written",
			zap.Int("done", len(translated)),
			zap.Int("total", len(frags)),
		)
		return Result{}, fmt.Errorf("translate: %w", err)
	}

	if err := s.writer.Write(req.OutputPath, fragment.FormatTranslated, translated); err != nil {
		return Result{}, fmt.Errorf("write output: %w", err)
	}
	s.logger.Info("Output written",
		zap.String("path", req.OutputPath),
		zap.String("format", string(fragment.FormatTranslated)),
		zap.Int("fragments", len(translated)),
		zap.Int("failed", stats.Failed),
	)

	return Result{
		InputPath:  corpus.Path,
		Encoding:   corpus.Encoding,
		Fragments:  len(translated),
		OutputPath: req.OutputPath,
		Stats:      &stats,
	}, nil
}

func (s *Service) loadAndSegment(req Request) (domain.Corpus, []domain.Fragment, error) {
	corpus, err := s.Load(req.InputPath, req.Encoding)
	if err != nil {
		return domain.Corpus{}, nil, err
	}

	frags := s.segmenter.Segment(corpus.Text)
	metrics.FragmentsTotal.WithLabelValues(s.segmenter.Mode()).Add(float64(len(frags)))

	if len(frags) == 0 {
		s.logger.Warn("No citations found", zap.String("mode", s.segmenter.Mode()))
	} else {
		s.logger.Info("Corpus segmented",
			zap.String("mode", s.segmenter.Mode()),
			zap.Int("fragments", len(frags)),
		)
	}
	return corpus, frags, nil
}
