package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by Service. Adapted from dittofs's jwt_service.go, pared
// down from its access/refresh token pair to the single bearer token
// spec §6's POST /auth/login returns.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidSecretLength = errors.New("secret key must be at least 16 characters")
)

// Claims is the JWT payload carried on every authenticated request.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Service issues and validates bearer tokens signed with a single shared
// secret (spec §6's SECRET_KEY environment variable).
type Service struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

// NewService builds a Service. secret must be at least 16 characters.
func NewService(secret string, lifetime time.Duration) (*Service, error) {
	if len(secret) < 16 {
		return nil, ErrInvalidSecretLength
	}
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), issuer: "upload2pc", lifetime: lifetime}, nil
}

// IssueToken mints a bearer token for username.
func (s *Service) IssueToken(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies tokenString, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
