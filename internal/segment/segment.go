// Package segment splits decoded corpus text into citation-labeled fragments.
//
// Two strategies exist because the corpus comes in two shapes: running text
// where "Dig.x.y.z" labels appear inline (DelimiterSplitter), and line-broken
// text where each fragment starts on its own citation line (LineGrouper).
package segment

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/digesto/internal/config"
	"github.com/kailas-cloud/digesto/internal/domain"
)

// Strategy names, as used in config and on the command line.
const (
	ModeDelimiter = "delimiter"
	ModeLines     = "lines"
)

// Segmenter turns decoded text into an ordered list of fragments.
type Segmenter interface {
	Segment(text string) []domain.Fragment
	Mode() string
}

// New builds the strategy selected by cfg.Mode.
func New(cfg config.SegmentConfig) (Segmenter, error) {
	switch cfg.Mode {
	case ModeDelimiter, "":
		return NewDelimiterSplitter(cfg.Pattern)
	case ModeLines:
		return NewLineGrouper(cfg.LinePattern, cfg.MaxLength, cfg.TruncationMarker)
	default:
		return nil, fmt.Errorf("unknown segment mode %q", cfg.Mode)
	}
}

func compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", domain.ErrInvalidPattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPattern, err)
	}
	// An empty match would label every position in the text.
	if re.MatchString("") {
		return nil, fmt.Errorf("%w: %q matches the empty string", domain.ErrInvalidPattern, pattern)
	}
	return re, nil
}
