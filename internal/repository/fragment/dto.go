package fragment

import "github.com/kailas-cloud/digesto/internal/domain"

// jsonFragment is the on-disk shape of the fragments format.
type jsonFragment struct {
	Citation string `json:"citation"`
	Text     string `json:"text"`
}

// jsonTranslated is the on-disk shape of the translated format.
type jsonTranslated struct {
	Citation       string `json:"citation"`
	TextOriginal   string `json:"text_original"`
	TextTranslated string `json:"text_translated"`
}

func buildDocument(format Format, frags []domain.Fragment) any {
	switch format {
	case FormatTexts:
		out := make([]string, 0, len(frags))
		for _, f := range frags {
			out = append(out, f.Text)
		}
		return out
	case FormatTranslated:
		out := make([]jsonTranslated, 0, len(frags))
		for _, f := range frags {
			out = append(out, jsonTranslated{
				Citation:       f.Citation,
				TextOriginal:   f.Text,
				TextTranslated: f.Translation,
			})
		}
		return out
	default:
		out := make([]jsonFragment, 0, len(frags))
		for _, f := range frags {
			out = append(out, jsonFragment{Citation: f.Citation, Text: f.Text})
		}
		return out
	}
}
