package middleware

import (
	"net/http"

	"github.com/chengzhnag/taskboard/internal/api/shared"
	"github.com/chengzhnag/taskboard/internal/service/auth"
)

// AuthCookieName is the cookie issued by GET /auth. Its value is the base64
// user:pass payload; the scheme prefix is re-attached before verification.
const AuthCookieName = "taskboard_auth"

// CredentialMiddleware guards mutating routes with the shared-credential
// check. Every request re-validates independently; there is no session.
type CredentialMiddleware struct {
	verifier auth.Verifier
}

// NewCredentialMiddleware creates a CredentialMiddleware using the given verifier.
func NewCredentialMiddleware(verifier auth.Verifier) *CredentialMiddleware {
	return &CredentialMiddleware{
		verifier: verifier,
	}
}

// CredentialFromRequest extracts the candidate credential from the request:
// the Authorization header when present, otherwise the auth cookie.
// Returns an empty string when neither carries a value.
func CredentialFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return header
	}

	cookie, err := r.Cookie(AuthCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return "Basic " + cookie.Value
}

// Authenticated reports whether the request carries a valid credential.
func (m *CredentialMiddleware) Authenticated(r *http.Request) bool {
	candidate := CredentialFromRequest(r)
	if candidate == "" {
		return false
	}
	return m.verifier.Verify(candidate)
}

// RequireCookie guards browser-facing routes. Requests without a valid
// credential are redirected to the login page rather than rejected.
func (m *CredentialMiddleware) RequireCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Authenticated(r) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCredential guards JSON API routes. Requests without a valid
// credential get a 401 error envelope.
func (m *CredentialMiddleware) RequireCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Authenticated(r) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or missing credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}
