package api

import (
	"net/http"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// languageMiddleware negotiates the response language.
// Supports "?lang=ar" and the Accept-Language header, in that order.
// Unsupported languages fall back to the default language.
func languageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := catalog.Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", string(lang))

		ctx := ContextWithLanguage(r.Context(), lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// maxBodyMiddleware rejects request bodies larger than limit
func maxBodyMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
