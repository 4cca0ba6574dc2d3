package httpapi

import (
	"errors"
	"net/http"

	"lsp-conflicts/internal/domain"
	"lsp-conflicts/internal/service"

	"go.uber.org/zap"
)

// APIKeyHeader carries the lender credential on inbound requests.
const APIKeyHeader = "X-API-Key"

// LenderHandlerFunc is a handler that runs with a resolved caller identity.
type LenderHandlerFunc func(w http.ResponseWriter, r *http.Request, lender *domain.Lender)

// Auth turns API keys into lender identities for protected routes.
type Auth struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuth(auth *service.AuthService, logger *zap.Logger) *Auth {
	return &Auth{auth: auth, logger: logger}
}

// RequireLender rejects the request with 401 unless the X-API-Key header
// resolves to an active lender. Rejected requests have no side effects.
func (a *Auth) RequireLender(next LenderHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lender, err := a.auth.ResolveAPIKey(r.Context(), r.Header.Get(APIKeyHeader))
		if err != nil {
			if errors.Is(err, service.ErrInvalidAPIKey) {
				writeError(w, http.StatusUnauthorized, "invalid or inactive API key")
				return
			}
			a.logger.Error("credential resolution failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		next(w, r, lender)
	}
}
