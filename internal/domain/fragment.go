package domain

// Fragment is one citation-labeled unit of extracted text.
// Fragments keep source order; duplicate citations are legitimate and kept.
type Fragment struct {
	Citation    string
	Text        string
	Translation string
	// Translated is set once a translation pass has handled the fragment,
	// including when the sentinel failure marker was recorded.
	Translated bool
}

// WithTranslation returns a copy of f carrying the given translation.
func (f Fragment) WithTranslation(text string) Fragment {
	f.Translation = text
	f.Translated = true
	return f
}

// Corpus is the raw input of a single run.
type Corpus struct {
	Path     string
	Raw      []byte
	Text     string
	Encoding string
}
