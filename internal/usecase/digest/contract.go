package digest

import (
	"context"

	"github.com/kailas-cloud/digesto/internal/domain"
	"github.com/kailas-cloud/digesto/internal/repository/fragment"
	"github.com/kailas-cloud/digesto/internal/usecase/translation"
)

// Segmenter splits decoded text into fragments.
type Segmenter interface {
	Segment(text string) []domain.Fragment
	Mode() string
}

// Writer persists the output document.
type Writer interface {
	Write(path string, format fragment.Format, frags []domain.Fragment) error
}

// TranslationPass translates fragments in order.
type TranslationPass interface {
	Run(ctx context.Context, frags []domain.Fragment) ([]domain.Fragment, translation.Stats, error)
}
