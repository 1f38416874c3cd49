package segment

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/digesto/internal/domain"
)

// DelimiterSplitter treats every match of its pattern as a citation label and
// the text up to the next match as that label's body.
type DelimiterSplitter struct {
	re *regexp.Regexp
}

// NewDelimiterSplitter compiles pattern as the citation label expression.
func NewDelimiterSplitter(pattern string) (*DelimiterSplitter, error) {
	re, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	return &DelimiterSplitter{re: re}, nil
}

// Mode implements Segmenter.
func (s *DelimiterSplitter) Mode() string { return ModeDelimiter }

// Segment implements Segmenter. Text before the first label is dropped, and
// labels whose trimmed body is empty produce no fragment.
func (s *DelimiterSplitter) Segment(text string) []domain.Fragment {
	locs := s.re.FindAllStringIndex(text, -1)
	frags := make([]domain.Fragment, 0, len(locs))

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		body := strings.TrimSpace(text[loc[1]:end])
		if body == "" {
			continue
		}
		frags = append(frags, domain.Fragment{
			Citation: strings.TrimSpace(text[loc[0]:loc[1]]),
			Text:     body,
		})
	}
	return frags
}
