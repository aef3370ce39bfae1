package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audience is the aud claim expected by the commerce backend.
const Audience = "inventory-api"

// renewBefore is how long before expiry a cached token is replaced.
const renewBefore = 30 * time.Second

// Common errors
var (
	ErrMissingSecret    = errors.New("service secret is required")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
)

// Claims represents the claims of a service-to-service token
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// ServiceTokenIssuer signs short-lived HS256 tokens that authenticate this
// service against the commerce backend. Tokens are cached and reissued
// shortly before they expire.
type ServiceTokenIssuer struct {
	secret  []byte
	issuer  string
	subject string
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	cached    string
	expiresAt time.Time
}

// NewServiceTokenIssuer creates an issuer from backend config
func NewServiceTokenIssuer(cfg config.BackendConfig) (*ServiceTokenIssuer, error) {
	if cfg.ServiceSecret == "" {
		return nil, ErrMissingSecret
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ServiceTokenIssuer{
		secret:  []byte(cfg.ServiceSecret),
		issuer:  cfg.ServiceIssuer,
		subject: cfg.ServiceSubject,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Token returns a valid bearer token, signing a new one when the cached
// token is missing or about to expire.
func (s *ServiceTokenIssuer) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != "" && now.Add(renewBefore).Before(s.expiresAt) {
		return s.cached, nil
	}

	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   s.subject,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scope: "inventory:adjust",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.cached = signed
	s.expiresAt = expiresAt
	return signed, nil
}

// Invalidate drops the cached token so the next call signs a fresh one.
// Used after the backend rejects a token with 401.
func (s *ServiceTokenIssuer) Invalidate() {
	s.mu.Lock()
	s.cached = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// Parse validates a token signed with the issuer's secret and returns its claims
func (s *ServiceTokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithAudience(Audience), jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
