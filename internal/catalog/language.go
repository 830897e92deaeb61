package catalog

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.French,
	language.Arabic,
})

// Match picks the supported language for the first preference that matches.
// Preferences may be plain codes ("ar") or Accept-Language values ("fr-CA,fr;q=0.9").
func Match(preferences ...string) models.Language {
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		if lang := models.Language(strings.ToLower(pref)); lang.IsValid() {
			return lang
		}

		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		return models.SupportedLanguages[idx]
	}
	return models.DefaultLanguage
}
