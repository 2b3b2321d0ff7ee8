package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

type tokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// OIDCSessions accepts ID tokens from an external issuer, taken from the
// Authorization bearer header or the session cookie.
type OIDCSessions struct {
	verifier   tokenVerifier
	cookieName string
}

func NewOIDCSessions(ctx context.Context, issuer, cookieName string) (*OIDCSessions, error) {
	if issuer == "" {
		return nil, errors.New("OIDC issuer is not set")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	return &OIDCSessions{verifier: verifier, cookieName: cookieName}, nil
}

func newOIDCSessionsWithVerifier(v tokenVerifier, cookieName string) *OIDCSessions {
	return &OIDCSessions{verifier: v, cookieName: cookieName}
}

func (o *OIDCSessions) Session(r *http.Request) (*Session, error) {
	raw, err := o.rawToken(r)
	if err != nil || raw == "" {
		return nil, err
	}

	idToken, err := o.verifier.Verify(r.Context(), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", ErrInvalidSession, err)
	}

	subject := claims.Sub
	if claims.Email != "" {
		subject = claims.Email
	}
	return &Session{Subject: subject, ExpiresAt: idToken.Expiry}, nil
}

func (o *OIDCSessions) rawToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", fmt.Errorf("%w: invalid Authorization header format", ErrInvalidSession)
		}
		return parts[1], nil
	}
	if cookie, err := r.Cookie(o.cookieName); err == nil {
		return cookie.Value, nil
	}
	return "", nil
}
