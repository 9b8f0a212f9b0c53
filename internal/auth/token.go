package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Fixed issuer/audience claims; tokens minted for a different system are
// rejected during verification.
const (
	TokenIssuer   = "storefront-service"
	TokenAudience = "storefront-api"
)

// TokenKind distinguishes access tokens from refresh tokens. Refresh tokens
// are only usable to mint new access tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

var (
	// ErrExpiredToken is returned when the token validity window has passed.
	ErrExpiredToken = errors.New("token has expired")
	// ErrMalformedToken is returned for structural, signature, issuer or
	// audience failures.
	ErrMalformedToken = errors.New("malformed token")
	// ErrWrongTokenKind is returned when a valid token carries the wrong kind
	// claim for the endpoint, e.g. an access token sent to the refresh endpoint.
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Claims describes the JWT payload.
type Claims struct {
	Email string    `json:"email"`
	Kind  TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager handles issuing and validating signed bearer tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 7 * 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL returns the access token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration {
	return tm.accessTTL
}

// Sign builds and signs a token of the given kind for the subject.
func (tm *TokenManager) Sign(userID, email string, kind TokenKind) (string, time.Time, error) {
	ttl := tm.accessTTL
	if kind == TokenKindRefresh {
		ttl = tm.refreshTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature, issuer, audience and expiry, then the kind claim.
// Any tampering or claim mismatch fails closed.
func (tm *TokenManager) Verify(tokenStr string, expected TokenKind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithAudience(TokenAudience), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrMalformedToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	if expected != "" && claims.Kind != expected {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

// DecodeUnverified parses claims without checking signature or expiry. It
// exists for diagnostics such as displaying the session expiry; it must never
// be used to authorize a request.
func (tm *TokenManager) DecodeUnverified(tokenStr string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return nil, ErrMalformedToken
	}
	return &claims, nil
}
