package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "ms-storefront"

// JWTSessions issues and reads HS256 session tokens carried in a cookie.
type JWTSessions struct {
	Secret     []byte
	TTL        time.Duration
	CookieName string
	// Now defaults to time.Now and is replaced in tests.
	Now func() time.Time
}

func NewJWTSessions(secret string, ttl time.Duration, cookieName string) (*JWTSessions, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	return &JWTSessions{Secret: []byte(secret), TTL: ttl, CookieName: cookieName, Now: time.Now}, nil
}

func (j *JWTSessions) now() time.Time {
	if j.Now == nil {
		return time.Now()
	}
	return j.Now()
}

// Issue signs a token for subject and returns it with its expiry.
func (j *JWTSessions) Issue(subject string) (string, time.Time, error) {
	issuedAt := j.now()
	expiresAt := issuedAt.Add(j.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates a token and returns its session.
func (j *JWTSessions) Parse(token string) (*Session, error) {
	claims := new(jwt.RegisteredClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	return &Session{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (j *JWTSessions) Session(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(j.CookieName)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && cookie.Value == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j.Parse(cookie.Value)
}

// SetCookie writes the session cookie for token.
func (j *JWTSessions) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     j.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j *JWTSessions) ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     j.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
