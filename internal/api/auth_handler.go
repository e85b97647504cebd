package api

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chengzhnag/taskboard/internal/api/middleware"
	"github.com/chengzhnag/taskboard/internal/api/shared"
	"github.com/chengzhnag/taskboard/internal/platform/logger"
	"github.com/chengzhnag/taskboard/internal/service/auth"
)

// fallbackLoginPage is served when no login page URL is configured or the
// configured page cannot be fetched.
const fallbackLoginPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>taskboard login</title></head>
<body>
<form id="login">
  <input name="username" placeholder="username" autocomplete="username">
  <input name="password" type="password" placeholder="password" autocomplete="current-password">
  <button type="submit">Sign in</button>
</form>
<script>
document.getElementById('login').addEventListener('submit', async (e) => {
  e.preventDefault();
  const f = new FormData(e.target);
  const token = btoa(f.get('username') + ':' + f.get('password'));
  const res = await fetch('/auth', { headers: { Authorization: 'Basic ' + token } });
  if (res.ok) { window.location = '/'; } else { alert('login failed'); }
});
</script>
</body>
</html>`

// AuthHandler handles the login flow: credential verification, cookie
// issuance, and the login page itself.
type AuthHandler struct {
	verifier     auth.Verifier
	loginPageURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. loginPageURL may be empty, in
// which case the embedded fallback page is always served.
func NewAuthHandler(verifier auth.Verifier, loginPageURL string, log *slog.Logger) *AuthHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}

	return &AuthHandler{
		verifier:     verifier,
		loginPageURL: loginPageURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       log.With(slog.String("component", "auth_handler")),
	}
}

// Authenticate handles GET /auth requests. The Basic credential from the
// Authorization header is verified and, on success, echoed back as the auth
// cookie so subsequent browser requests carry it. Failure is a plain 401;
// there is no lockout or rate limiting.
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	header := r.Header.Get("Authorization")
	if header == "" || !h.verifier.Verify(header) {
		log.Warn("login attempt rejected", slog.String("remote_addr", r.RemoteAddr))
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// The cookie carries only the base64 payload; the scheme is re-attached
	// by the middleware on the way back in.
	_, payload, _ := strings.Cut(header, " ")
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    payload,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("login succeeded", slog.String("remote_addr", r.RemoteAddr))
	shared.RespondWithSuccess(w, r, "Login successful", nil)
}

// LoginPage handles GET /login requests. The page is fetched from the
// configured URL when one is set, falling back to the embedded page on any
// failure.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if h.loginPageURL != "" {
		if page, err := h.fetchLoginPage(r); err == nil {
			_, _ = w.Write(page)
			return
		} else {
			log.Warn("failed to fetch login page, serving fallback",
				slog.String("error", err.Error()))
		}
	}

	_, _ = io.WriteString(w, fallbackLoginPage)
}

func (h *AuthHandler) fetchLoginPage(r *http.Request) ([]byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.loginPageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
