package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key"

func newTestTokenManager() *TokenManager {
	return NewTokenManager(testSecret, 7*24*time.Hour, 30*24*time.Hour)
}

func TestTokenManager_SignAndVerifyRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	for _, kind := range []TokenKind{TokenKindAccess, TokenKindRefresh} {
		t.Run(string(kind), func(t *testing.T) {
			token, expiresAt, err := tm.Sign("user-123", "test@example.com", kind)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			if token == "" {
				t.Fatal("Sign() returned empty token")
			}
			if !expiresAt.After(time.Now()) {
				t.Error("Sign() returned expiry in the past")
			}

			claims, err := tm.Verify(token, kind)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if claims.Subject != "user-123" {
				t.Errorf("claims.Subject = %v, want user-123", claims.Subject)
			}
			if claims.Email != "test@example.com" {
				t.Errorf("claims.Email = %v, want test@example.com", claims.Email)
			}
			if claims.Kind != kind {
				t.Errorf("claims.Kind = %v, want %v", claims.Kind, kind)
			}
			if claims.Issuer != TokenIssuer {
				t.Errorf("claims.Issuer = %v, want %v", claims.Issuer, TokenIssuer)
			}
		})
	}
}

func TestTokenManager_TokenLifetimes(t *testing.T) {
	tm := newTestTokenManager()

	_, accessExp, err := tm.Sign("user-123", "a@b.com", TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign(access) error = %v", err)
	}
	_, refreshExp, err := tm.Sign("user-123", "a@b.com", TokenKindRefresh)
	if err != nil {
		t.Fatalf("Sign(refresh) error = %v", err)
	}

	if !refreshExp.After(accessExp) {
		t.Error("refresh token should outlive access token")
	}

	accessTTL := time.Until(accessExp)
	if accessTTL < 6*24*time.Hour || accessTTL > 8*24*time.Hour {
		t.Errorf("access TTL = %v, want ~7 days", accessTTL)
	}
}

func TestTokenManager_KindMismatch(t *testing.T) {
	tm := newTestTokenManager()

	access, _, err := tm.Sign("user-123", "a@b.com", TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if _, err := tm.Verify(access, TokenKindRefresh); !errors.Is(err, ErrWrongTokenKind) {
		t.Errorf("Verify(access as refresh) error = %v, want ErrWrongTokenKind", err)
	}

	refresh, _, err := tm.Sign("user-123", "a@b.com", TokenKindRefresh)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if _, err := tm.Verify(refresh, TokenKindAccess); !errors.Is(err, ErrWrongTokenKind) {
		t.Errorf("Verify(refresh as access) error = %v, want ErrWrongTokenKind", err)
	}
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	tm := newTestTokenManager()

	// Construct a token with the right signature but an already-elapsed
	// expiry.
	now := time.Now()
	claims := &Claims{
		Email: "a@b.com",
		Kind:  TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign fixture: %v", err)
	}

	if _, err := tm.Verify(token, TokenKindAccess); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify(expired) error = %v, want ErrExpiredToken", err)
	}

	// Expired tokens remain structurally decodable.
	decoded, err := tm.DecodeUnverified(token)
	if err != nil {
		t.Fatalf("DecodeUnverified() error = %v", err)
	}
	if decoded.Subject != "user-123" {
		t.Errorf("decoded.Subject = %v, want user-123", decoded.Subject)
	}
}

func TestTokenManager_TamperedToken(t *testing.T) {
	tm := newTestTokenManager()

	token, _, err := tm.Sign("user-123", "a@b.com", TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}

	// Flip one character in the payload segment.
	payload := []byte(parts[1])
	if payload[3] == 'A' {
		payload[3] = 'B'
	} else {
		payload[3] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := tm.Verify(tampered, TokenKindAccess); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Verify(tampered) error = %v, want ErrMalformedToken", err)
	}
}

func TestTokenManager_ForeignIssuerRejected(t *testing.T) {
	tm := newTestTokenManager()

	now := time.Now()
	claims := &Claims{
		Email: "a@b.com",
		Kind:  TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "some-other-system",
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign fixture: %v", err)
	}

	if _, err := tm.Verify(token, TokenKindAccess); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Verify(foreign issuer) error = %v, want ErrMalformedToken", err)
	}
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := newTestTokenManager()
	other := NewTokenManager("a-different-secret", 7*24*time.Hour, 30*24*time.Hour)

	token, _, err := other.Sign("user-123", "a@b.com", TokenKindAccess)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if _, err := tm.Verify(token, TokenKindAccess); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("Verify(wrong secret) error = %v, want ErrMalformedToken", err)
	}
}

func TestTokenManager_MalformedInput(t *testing.T) {
	tm := newTestTokenManager()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tm.Verify(tt.token, TokenKindAccess); !errors.Is(err, ErrMalformedToken) {
				t.Errorf("Verify(%q) error = %v, want ErrMalformedToken", tt.token, err)
			}
		})
	}
}
