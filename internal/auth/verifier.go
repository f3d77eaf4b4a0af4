// Package auth turns a bearer credential into a stable user identity.
package auth

import (
	"context"
	"errors"
	"log"

	"github.com/arabadanismani/backend/internal/config"
)

var (
	// ErrMissingCredential means no bearer token was presented.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential means the token was presented but failed verification.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrVerifierNotInitialized means the trust root was never established.
	// It is a configuration fault, never the caller's.
	ErrVerifierNotInitialized = errors.New("identity verifier not initialized")
)

// Identity is the verified caller.
type Identity struct {
	UserID string
	Email  string
}

type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, credential string) (Identity, error)

func (f VerifierFunc) Verify(ctx context.Context, credential string) (Identity, error) {
	return f(ctx, credential)
}

// unavailable fails closed for every credential.
type unavailable struct {
	cause error
}

func (u unavailable) Verify(context.Context, string) (Identity, error) {
	return Identity{}, u.cause
}

// NewVerifier picks the JWKS verifier when a key set URL is configured and
// the HMAC verifier otherwise. A verifier that could not be initialized is
// still returned; it rejects every request with ErrVerifierNotInitialized.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) Verifier {
	if cfg.JWKSURL != "" {
		v, err := NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.Issuer, cfg.Audience)
		if err != nil {
			log.Printf("[AUTH] JWKS verifier unavailable: %v", err)
			return unavailable{cause: ErrVerifierNotInitialized}
		}
		log.Printf("[AUTH] Verifying RS256 tokens against %s", cfg.JWKSURL)
		return v
	}
	if cfg.JWTSecret == "" {
		log.Printf("[AUTH] No JWT secret or JWKS URL configured, all authenticated routes will fail")
		return unavailable{cause: ErrVerifierNotInitialized}
	}
	log.Printf("[AUTH] Verifying HS256 tokens with the configured secret")
	return NewHMACVerifier(cfg.JWTSecret)
}
