package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/worklog/internal/platform/httpx"
	"github.com/odyssey-erp/worklog/internal/shared"
)

// Middleware authenticates requests carrying an Authorization bearer token
// and stores the caller in the request context.
func Middleware(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httpx.RespondError(w, logger, fmt.Errorf("%w: missing bearer token", shared.ErrUnauthorized))
				return
			}
			caller, err := verifier.Verify(raw)
			if err != nil {
				logger.Debug("rejected bearer token", slog.Any("error", err))
				httpx.RespondError(w, logger, ErrInvalidToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithCaller(r.Context(), caller)))
		})
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := shared.CallerFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, nil, shared.ErrUnauthorized)
			return
		}
		if !caller.Admin {
			httpx.RespondError(w, nil, fmt.Errorf("admin role required: %w", shared.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
