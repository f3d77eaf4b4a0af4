package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/arabadanismani/backend/internal/auth"
	"github.com/arabadanismani/backend/internal/services"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthErrorCodes selects the error code written for each verification
// failure. The two API routes report them differently.
type AuthErrorCodes struct {
	Missing        string
	Invalid        string
	NotInitialized string
}

// RecommendAuthCodes distinguishes a missing token from a bad one.
var RecommendAuthCodes = AuthErrorCodes{
	Missing:        services.CodeUnauthorized,
	Invalid:        services.CodeInvalidToken,
	NotInitialized: services.CodeNotInitialized,
}

// PurchaseAuthCodes reports every credential failure as unauthorized.
var PurchaseAuthCodes = AuthErrorCodes{
	Missing:        services.CodeUnauthorized,
	Invalid:        services.CodeUnauthorized,
	NotInitialized: services.CodeServerError,
}

// RequireIdentity verifies the bearer token and stores the Identity in the
// request context.
func RequireIdentity(v auth.Verifier, codes AuthErrorCodes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				services.SendError(w, http.StatusInternalServerError, codes.NotInitialized)
				return
			}

			credential, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				services.SendError(w, http.StatusUnauthorized, codes.Missing)
				return
			}

			identity, err := v.Verify(r.Context(), credential)
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrVerifierNotInitialized):
				log.Printf("[AUTH] Verifier not initialized, rejecting %s %s", r.Method, r.URL.Path)
				services.SendError(w, http.StatusInternalServerError, codes.NotInitialized)
				return
			case errors.Is(err, auth.ErrMissingCredential):
				services.SendError(w, http.StatusUnauthorized, codes.Missing)
				return
			default:
				log.Printf("[AUTH] Token rejected: %v", err)
				services.SendError(w, http.StatusUnauthorized, codes.Invalid)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity set by RequireIdentity.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(auth.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
