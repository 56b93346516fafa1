package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader is the header name for the CSRF token in API requests.
const CSRFTokenHeader = "X-CSRF-Token"

const contextKeyCSRFToken = "csrf_token"

// CSRFMiddleware protects cookie-authenticated requests. It is skipped for:
//   - requests carrying a valid Bearer token
//   - requests without a session cookie (they fail authentication instead)
//   - the exempt paths, typically sign-in and sign-up
//
// Safe methods (GET, HEAD, OPTIONS, TRACE) pass through gorilla/csrf and
// receive a fresh token in the X-CSRF-Token response header.
func CSRFMiddleware(secret []byte, secure bool, authService *Service, sessions *SessionManager, exempt ...string) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	exemptPaths := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		exemptPaths[p] = true
	}

	return func(c *gin.Context) {
		if exemptPaths[c.FullPath()] || hasValidBearer(c, authService) {
			c.Next()
			return
		}
		if sessions != nil && !sessions.HasSessionCookie(c.Request) {
			c.Next()
			return
		}

		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}

		var passed bool
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			token := csrf.Token(r)
			c.Set(contextKeyCSRFToken, token)
			c.Header(CSRFTokenHeader, token)
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, req)
		if !passed {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"csrf_token_invalid"}`))
}

// hasValidBearer checks for a Bearer token that verifies. A nil authService
// only checks for the header.
func hasValidBearer(c *gin.Context, authService *Service) bool {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return false
	}
	if authService == nil {
		return true
	}
	_, err := authService.ValidateToken(c.Request.Context(), token)
	return err == nil
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(contextKeyCSRFToken)
}
