package api

import (
	"context"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

type contextKey string

const languageContextKey contextKey = "language"

// LanguageFromContext returns the negotiated request language, or the default language
func LanguageFromContext(ctx context.Context) models.Language {
	lang, ok := ctx.Value(languageContextKey).(models.Language)
	if !ok {
		return models.DefaultLanguage
	}
	return lang
}

// ContextWithLanguage adds the negotiated language to context
func ContextWithLanguage(ctx context.Context, lang models.Language) context.Context {
	return context.WithValue(ctx, languageContextKey, lang)
}
