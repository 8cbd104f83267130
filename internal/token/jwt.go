package token

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/finance-server/internal/model"
)

// SystemAudience is the audience of credentials accepted for privileged account actions.
const SystemAudience = "finance-system"

const (
	typeService   = "service"
	maxServiceTTL = 24 * time.Hour
)

// ErrServiceNotAllowed is returned for a well-formed token whose subject is not allowlisted.
var ErrServiceNotAllowed = errors.New("service is not allowed")

// ErrLifetimeTooLong is returned for a token issued for longer than the manager accepts.
var ErrLifetimeTooLong = errors.New("service token lifetime is too long")

// Claims represents service JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

var _ model.ServiceTokenManager = (*ServiceJWT)(nil)

// ServiceJWT issues and validates HMAC signed service credentials.
type ServiceJWT struct {
	secretKey []byte
	allowed   []string
	maxTTL    time.Duration
}

// NewServiceJWT creates a manager accepting tokens for the allowed service names
// whose lifetime does not exceed maxTTL. A maxTTL outside (0, 24h] is clamped to 24h.
func NewServiceJWT(secretKey string, allowed []string, maxTTL time.Duration) *ServiceJWT {
	if maxTTL <= 0 || maxTTL > maxServiceTTL {
		maxTTL = maxServiceTTL
	}
	return &ServiceJWT{secretKey: []byte(secretKey), allowed: allowed, maxTTL: maxTTL}
}

// MaxTTL returns the longest lifetime accepted by the manager.
func (j *ServiceJWT) MaxTTL() time.Duration {
	return j.maxTTL
}

// GenerateServiceToken mints a credential for service, valid for ttl.
func (j *ServiceJWT) GenerateServiceToken(service string, ttl time.Duration) (string, error) {
	if service == "" {
		return "", errors.New("service name is empty")
	}
	if ttl <= 0 || ttl > j.maxTTL {
		return "", fmt.Errorf("ttl must be within (0, %s]", j.maxTTL)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   service,
			Audience:  jwt.ClaimStrings{SystemAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typeService,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}

	return tokenString, nil
}

// ParseServiceToken validates the credential and returns the calling service name.
func (j *ServiceJWT) ParseServiceToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(SystemAudience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to parse service token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("service token is invalid")
	}
	if claims.IssuedAt == nil {
		return "", errors.New("service token has no issue time")
	}
	if lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time); lifetime > j.maxTTL {
		return "", fmt.Errorf("%w: %s exceeds %s", ErrLifetimeTooLong, lifetime, j.maxTTL)
	}
	if claims.TokenType != typeService {
		return "", fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	if !slices.Contains(j.allowed, claims.Subject) {
		return "", fmt.Errorf("%w: %q", ErrServiceNotAllowed, claims.Subject)
	}

	return claims.Subject, nil
}
