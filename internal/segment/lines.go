package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/digesto/internal/domain"
)

// LineGrouper groups lines under the most recent citation-start line.
type LineGrouper struct {
	start     *regexp.Regexp
	maxLength int
	marker    string
}

// NewLineGrouper compiles pattern case-insensitively. maxLength is counted in
// runes; bodies longer than that are cut and suffixed with marker.
func NewLineGrouper(pattern string, maxLength int, marker string) (*LineGrouper, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", maxLength)
	}
	if pattern != "" && !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	re, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	return &LineGrouper{start: re, maxLength: maxLength, marker: marker}, nil
}

// Mode implements Segmenter.
func (g *LineGrouper) Mode() string { return ModeLines }

// Segment implements Segmenter. Whatever follows the label on a citation line
// opens the body. Blank lines are skipped without closing the current
// fragment, and lines before the first citation are dropped.
func (g *LineGrouper) Segment(text string) []domain.Fragment {
	var (
		frags    []domain.Fragment
		citation string
		body     []string
		open     bool
	)

	flush := func() {
		if !open || len(body) == 0 {
			return
		}
		frags = append(frags, domain.Fragment{
			Citation: citation,
			Text:     g.truncate(strings.Join(body, "\n")),
		})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}

		if loc := g.start.FindStringIndex(line); loc != nil {
			flush()
			open = true
			citation = strings.TrimSpace(line[loc[0]:loc[1]])
			body = body[:0]
			if rest := strings.TrimSpace(line[loc[1]:]); rest != "" {
				body = append(body, rest)
			}
			continue
		}

		if open {
			body = append(body, line)
		}
	}
	flush()

	return frags
}

func (g *LineGrouper) truncate(s string) string {
	if utf8.RuneCountInString(s) <= g.maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:g.maxLength]) + g.marker
}
