package models

// Language identifies one of the supported catalog languages
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguageArabic  Language = "ar"
)

// DefaultLanguage is used when a request carries no language or an unsupported one
const DefaultLanguage = LanguageEnglish

// SupportedLanguages lists every language a catalog must provide, in display order
var SupportedLanguages = []Language{LanguageEnglish, LanguageFrench, LanguageArabic}

// IsValid reports whether the language is one of the supported set
func (l Language) IsValid() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// IsRTL reports whether text in this language is laid out right-to-left
func (l Language) IsRTL() bool {
	return l == LanguageArabic
}

// Direction returns "rtl" or "ltr"
func (l Language) Direction() string {
	if l.IsRTL() {
		return "rtl"
	}
	return "ltr"
}

// Question is a single-choice assessment question.
// ID is stable across every language variant of the catalog.
type Question struct {
	ID      string   `json:"id"`
	Domain  string   `json:"domain"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Option is one selectable answer of a question
type Option struct {
	Value         string `json:"value"`
	Label         string `json:"label"`
	Points        int    `json:"points"`
	ReportContext string `json:"reportContext,omitempty"`
}

// Option returns the option whose value matches, or nil
func (q *Question) Option(value string) *Option {
	for i := range q.Options {
		if q.Options[i].Value == value {
			return &q.Options[i]
		}
	}
	return nil
}

// MaxPoints returns the highest points value among the options
func (q *Question) MaxPoints() int {
	max := 0
	for _, o := range q.Options {
		if o.Points > max {
			max = o.Points
		}
	}
	return max
}

// Domain groups questions under a readiness dimension
type Domain struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
	MaxPoints     int    `json:"maxPoints"`
}
