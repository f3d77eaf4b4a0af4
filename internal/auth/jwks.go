package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// JWKSVerifier validates RS256 tokens (for example Firebase ID tokens)
// against a remote key set that is cached and refreshed in the background.
type JWKSVerifier struct {
	keys     func(ctx context.Context) (jwk.Set, error)
	issuer   string
	audience string
}

func NewJWKSVerifier(ctx context.Context, jwksURL, issuer, audience string) (*JWKSVerifier, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := cache.Refresh(fetchCtx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}

	return &JWKSVerifier{
		keys: func(ctx context.Context) (jwk.Set, error) {
			return cache.Get(ctx, jwksURL)
		},
		issuer:   issuer,
		audience: audience,
	}, nil
}

// NewStaticJWKSVerifier verifies against a fixed key set.
func NewStaticJWKSVerifier(set jwk.Set, issuer, audience string) *JWKSVerifier {
	return &JWKSVerifier{
		keys:     func(context.Context) (jwk.Set, error) { return set, nil },
		issuer:   issuer,
		audience: audience,
	}
}

func (v *JWKSVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrMissingCredential
	}

	keyset, err := v.keys(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrVerifierNotInitialized, err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keyset),
		jwt.WithValidate(true),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(credential), opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if token.Subject() == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrInvalidCredential)
	}

	identity := Identity{UserID: token.Subject()}
	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			identity.Email = emailStr
		}
	}
	return identity, nil
}
