// Package prompt builds the instructions sent to chat-style translation providers.
package prompt

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName returns the English name of a BCP 47 code ("la" -> "Latin"),
// or the code itself when it is not recognized.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// System returns the system instruction for translating sourceLang to targetLang.
func System(sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"You are a translator of classical legal texts. Translate the user's text from %s to %s. "+
			"Reply with the translation only, without notes, quotes or commentary. "+
			"Keep citation labels such as \"Dig.1.1.0.\" unchanged.",
		LanguageName(sourceLang), LanguageName(targetLang),
	)
}
