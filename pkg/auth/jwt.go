// Package auth validates the bearer tokens presented to the JSON and gRPC
// APIs and carries the caller's roles through the request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTConfig selects the key material. A private or public RSA key switches
// the service to RS256; otherwise Secret is an HS256 key.
type JWTConfig struct {
	Secret        string
	PrivateKeyPEM string
	PublicKeyPEM  string
	Issuer        string
	// Expiration is the lifetime of tokens minted by GenerateToken.
	Expiration time.Duration
}

// JWTService mints and verifies tokens with a single signing method.
type JWTService struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	ttl       time.Duration
}

// NewJWTService parses the key material in cfg.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	svc := &JWTService{issuer: cfg.Issuer, ttl: cfg.Expiration}

	switch {
	case cfg.PrivateKeyPEM != "":
		key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parsing RSA private key: %w", err)
		}
		svc.method, svc.signKey, svc.verifyKey = jwt.SigningMethodRS256, key, &key.PublicKey
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parsing RSA public key: %w", err)
		}
		svc.method, svc.verifyKey = jwt.SigningMethodRS256, key
	case cfg.Secret != "":
		secret := []byte(cfg.Secret)
		svc.method, svc.signKey, svc.verifyKey = jwt.SigningMethodHS256, secret, secret
	default:
		return nil, errors.New("jwt: one of PrivateKeyPEM, PublicKeyPEM or Secret is required")
	}
	return svc, nil
}

// GenerateToken issues a token for subject carrying roles. Operators and
// tests use it; riskd itself only validates.
func (s *JWTService) GenerateToken(subject string, roles []string) (string, error) {
	if s.signKey == nil {
		return "", errors.New("jwt: validation-only service cannot sign tokens")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Roles: roles,
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
	if err != nil {
		return "", fmt.Errorf("jwt: signing %s token: %w", s.method.Alg(), err)
	}
	return signed, nil
}

// ValidateToken checks signature, expiry and issuer and returns the claims.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	return claims, nil
}
