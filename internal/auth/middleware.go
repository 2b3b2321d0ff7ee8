package auth

import (
	"fmt"
	"net/http"

	"ms-storefront/internal/logger"
)

// RequireSession redirects callers without a valid session to loginPath with
// 303 See Other instead of answering with an error status.
func RequireSession(provider SessionProvider, loginPath string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := provider.Session(r)
			if err != nil {
				log.LogSecurity("SESSION_REJECTED", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
			}
			if session == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
