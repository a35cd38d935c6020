package i18n

import "net/http"

// Middleware injects a localizer into every request context. The language
// comes from the Accept-Language header when it names a loaded locale and is
// lang otherwise.
func Middleware(lang string) func(http.Handler) http.Handler {
	fallback := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc, chosen := fallback, lang
			if accept := r.Header.Get("Accept-Language"); accept != "" {
				chosen = Negotiate(accept)
				loc = NewLocalizer(chosen, lang)
			}
			w.Header().Set("Content-Language", chosen)
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
