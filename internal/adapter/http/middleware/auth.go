package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/infrastructure/auth"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// Auth authenticates requests with a bearer JWT and stores the user in the
// request context.
type Auth struct {
	verifier TokenVerifier
	failures *prometheus.CounterVec
}

// NewAuth creates a new Auth middleware. failures may be nil.
func NewAuth(verifier TokenVerifier, failures *prometheus.CounterVec) *Auth {
	return &Auth{verifier: verifier, failures: failures}
}

// Require rejects requests without a valid token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			a.fail(w, "missing", domain.ErrUnauthorized)
			return
		}

		claims, err := a.verifier.Verify(token)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, domain.ErrExpiredToken) {
				reason = "expired"
			}
			a.fail(w, reason, err)
			return
		}

		ctx := domain.ContextWithUser(r.Context(), claims.User())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional extracts the user when a valid token is present and otherwise
// continues anonymously.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := a.verifier.Verify(token); err == nil {
				r = r.WithContext(domain.ContextWithUser(r.Context(), claims.User()))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) fail(w http.ResponseWriter, reason string, err error) {
	if a.failures != nil {
		a.failures.WithLabelValues(reason).Inc()
	}
	writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
}

// RequirePermission rejects authenticated users whose role fails allowed.
// Without a user in the context the request passes, so it is a no-op when
// auth is disabled.
func RequirePermission(allowed func(domain.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := domain.UserFromContext(r.Context()); ok && !allowed(user.Role) {
				writeError(w, http.StatusForbidden, "forbidden", domain.ErrInsufficientRole.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
