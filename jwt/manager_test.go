package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		Secret:     testSecret,
		Issuer:     "authcore-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	_, err := NewManager(Config{
		Secret:     []byte("too-short"),
		AccessTTL:  time.Hour,
		RefreshTTL: time.Hour,
	})
	if err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestAccessRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.CreateAccess("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three-part token, got %q", token)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("sub = %q, want user-1", claims.Subject)
	}
	if claims.Email != "a@x.com" {
		t.Fatalf("email = %q, want a@x.com", claims.Email)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected exp and iat claims")
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.CreateRefresh("user-1", "fam-1", "jti-1")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	claims, err := m.ParseRefresh(token)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if claims.Subject != "user-1" || claims.FamilyID != "fam-1" || claims.ID != "jti-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsExpiredRegardlessOfSignature(t *testing.T) {
	m := newTestManager(t)

	// Correctly signed token with exp in the past.
	now := time.Now()
	expired := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, AccessClaims{
		Email: "a@x.com",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "authcore-test",
			IssuedAt:  jwtlib.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(-time.Second)),
		},
	})
	tokenStr, err := expired.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	_, err = m.ParseAccess(tokenStr)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseRejectsFlippedSignatureBit(t *testing.T) {
	m := newTestManager(t)

	token, err := m.CreateAccess("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	dot := strings.LastIndex(token, ".")
	sig := []byte(token[dot+1:])
	for i := range sig {
		flipped := make([]byte, len(sig))
		copy(flipped, sig)
		flipped[i] ^= 0x01

		tampered := token[:dot+1] + string(flipped)
		if tampered == token {
			continue
		}
		if _, err := m.ParseAccess(tampered); err == nil {
			t.Fatalf("tampered signature accepted at byte %d", i)
		}
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)

	other, err := NewManager(Config{
		Secret:     []byte("ffffffffffffffffffffffffffffffff"),
		Issuer:     "authcore-test",
		AccessTTL:  time.Hour,
		RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := other.CreateAccess("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	_, err = m.ParseAccess(token)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := m.ParseAccess(input); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("input %q: expected ErrTokenMalformed, got %v", input, err)
		}
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	m := newTestManager(t)

	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, AccessClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenStr, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := m.ParseAccess(tokenStr); err == nil {
		t.Fatal("token signed with none algorithm accepted")
	}
}

func TestParseRefreshRequiresFamilyClaims(t *testing.T) {
	m := newTestManager(t)

	// Signed and unexpired, but missing family_id and jti.
	bare := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "authcore-test",
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenStr, err := bare.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	_, err = m.ParseRefresh(tokenStr)
	if !errors.Is(err, ErrClaimsInvalid) {
		t.Fatalf("expected ErrClaimsInvalid, got %v", err)
	}
}

func TestRefreshTokenIsNotAValidAccessToken(t *testing.T) {
	m := newTestManager(t)

	refresh, err := m.CreateRefresh("user-1", "fam-1", "jti-1")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrClaimsInvalid) {
		t.Fatalf("expected ErrClaimsInvalid, got %v", err)
	}
}

func TestAccessTokenIsNotAValidRefreshToken(t *testing.T) {
	m := newTestManager(t)

	access, err := m.CreateAccess("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	if _, err := m.ParseRefresh(access); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}
