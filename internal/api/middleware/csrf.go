// internal/api/middleware/csrf.go
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/newthinker/orderdesk/internal/api/response"
	"github.com/newthinker/orderdesk/internal/core"
)

// Names shared with the dashboard client and the page templates.
const (
	CookieName = "csrftoken"
	HeaderName = "X-CSRFToken"
	FieldName  = "csrfmiddlewaretoken"
)

// NewToken returns a fresh random token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// EnsureToken returns the request's csrf cookie value, issuing a new cookie
// on w when the request carries none.
func EnsureToken(w http.ResponseWriter, r *http.Request, secure bool) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	token := NewToken()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// CSRF returns middleware enforcing double-submit tokens on unsafe methods.
// The csrftoken cookie must match the X-CSRFToken header or, failing that,
// the csrfmiddlewaretoken form field.
func CSRF() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				response.Error(w, http.StatusForbidden, core.ErrCSRFMissing)
				return
			}

			provided := r.Header.Get(HeaderName)
			if provided == "" {
				provided = r.PostFormValue(FieldName)
			}
			if provided == "" {
				response.Error(w, http.StatusForbidden, core.ErrCSRFMissing)
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(cookie.Value)) != 1 {
				response.Error(w, http.StatusForbidden, core.ErrCSRFInvalid)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
