package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for snapshot links that are forged, expired or
// issued for another snapshot.
var ErrInvalidToken = errors.New("invalid snapshot token")

const tokenIssuer = "trackviz"

// SnapshotClaims 快照链接的 JWT 声明
type SnapshotClaims struct {
	Chart string `json:"chart"`
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies snapshot links with HS256.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner returns a signer whose tokens live for ttl.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign issues a token for snapshot id.
func (s *TokenSigner) Sign(id, chart string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := SnapshotClaims{
		Chart: chart,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign snapshot token: %w", err)
	}
	return token, expires, nil
}

// Verify checks that token is valid for snapshot id.
func (s *TokenSigner) Verify(token, id string) (*SnapshotClaims, error) {
	claims := &SnapshotClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(id),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
