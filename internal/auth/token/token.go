// Package token issues and parses admin session tokens.
//
// A session token is an HS256 JWT. The backend access token travels inside it
// encrypted with XChaCha20-Poly1305, so a leaked session cookie does not expose
// the backend credential in clear text. Signing and encryption keys are both
// derived from the configured session secret with HKDF.
package token

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"medix/pkg/domain"
	dErrors "medix/pkg/domain-errors"
)

const (
	Issuer   = "medix-admin"
	Audience = "medix-admin-portal"
)

// Claims are the session token claims.
type Claims struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	AccessToken string `json:"at"` // encrypted, base64url
	jwt.RegisteredClaims
}

// Issued describes a freshly signed token.
type Issued struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Manager signs and verifies session tokens.
type Manager struct {
	signingKey []byte
	aead       cipher.AEAD
	ttl        time.Duration
}

// NewManager derives keys from secret. ttl is the session lifetime.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	signingKey, err := deriveKey(secret, "medix session signing", 32)
	if err != nil {
		return nil, err
	}
	encKey, err := deriveKey(secret, "medix session encryption", chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(encKey)
	if err != nil {
		return nil, fmt.Errorf("init session cipher: %w", err)
	}
	return &Manager{signingKey: signingKey, aead: aead, ttl: ttl}, nil
}

func deriveKey(secret, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for p valid from now for the configured lifetime.
func (m *Manager) Issue(p domain.Principal, now time.Time) (Issued, error) {
	jti := uuid.NewString()
	sealed, err := m.seal(p.AccessToken, jti)
	if err != nil {
		return Issued{}, err
	}

	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Email:       p.Email,
		Name:        p.Name,
		Role:        p.Role,
		AccessToken: sealed,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return Issued{}, fmt.Errorf("sign session token: %w", err)
	}
	return Issued{Token: signed, ID: jti, ExpiresAt: expiresAt}, nil
}

// Parse verifies tokenString and returns its claims and principal. Any
// failure is reported as CodeUnauthorized.
func (m *Manager) Parse(tokenString string, now time.Time) (*Claims, domain.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return nil, domain.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, domain.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session claims")
	}

	accessToken, err := m.open(claims.AccessToken, claims.ID)
	if err != nil {
		return nil, domain.Principal{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid session token")
	}

	return claims, domain.Principal{
		ID:          claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Role:        claims.Role,
		AccessToken: accessToken,
	}, nil
}

// seal encrypts plaintext bound to the token id.
func (m *Manager) seal(plaintext, jti string) (string, error) {
	nonce := make([]byte, m.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := m.aead.Seal(nonce, nonce, []byte(plaintext), []byte(jti))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (m *Manager) open(sealed, jti string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed token: %w", err)
	}
	n := m.aead.NonceSize()
	if len(raw) < n {
		return "", errors.New("sealed token too short")
	}
	plain, err := m.aead.Open(nil, raw[:n], raw[n:], []byte(jti))
	if err != nil {
		return "", fmt.Errorf("open sealed token: %w", err)
	}
	return string(plain), nil
}
