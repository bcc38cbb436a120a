package middleware

import (
	"errors"
	"net/http"

	"github.com/phrazzld/videosnap/internal/api/shared"
	"github.com/phrazzld/videosnap/internal/service/auth"
)

// APIKeyHeader carries the client's API key.
const APIKeyHeader = "X-API-Key"

// AuthMiddleware guards routes with a shared API key.
type AuthMiddleware struct {
	verifier auth.KeyVerifier
}

// NewAuthMiddleware creates an AuthMiddleware. A nil verifier disables
// authentication.
func NewAuthMiddleware(verifier auth.KeyVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate rejects requests whose X-API-Key does not verify.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	if m.verifier == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := m.verifier.Verify(r.Header.Get(APIKeyHeader))
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, auth.ErrMissingAPIKey):
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				shared.CodeUnauthorized, "API key required", err)
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				shared.CodeUnauthorized, "Invalid API key", err, shared.WithElevatedLogLevel())
		}
	})
}
