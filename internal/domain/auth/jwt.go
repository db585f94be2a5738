package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mise/internal/core/actor"
	"mise/internal/core/id"
)

// JWTConfig selects the signing secret, issuer and token lifetime.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig issues 15-minute tokens under the service issuer.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "mise",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims is the token payload. The tenant travels in the token;
// request handlers build the acting identity from it, never from
// ambient state.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	TenantID string `json:"tid"`
	Email    string `json:"email"`
}

// JWTService signs and validates access tokens with HMAC-SHA256.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// GenerateAccessToken issues a signed token for the user and returns
// it with its expiry.
func (s *JWTService) GenerateAccessToken(user *User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   user.ID.String(),
		TenantID: user.TenantID.String(),
		Email:    user.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken checks signature and expiry and returns the acting
// identity the token carries. The signing method check blocks tokens
// re-signed under "none" or an asymmetric algorithm.
func (s *JWTService) ValidateToken(tokenString string) (actor.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return actor.Actor{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return actor.Actor{}, fmt.Errorf("invalid token claims")
	}

	tenantID, err := id.Parse(claims.TenantID)
	if err != nil {
		return actor.Actor{}, fmt.Errorf("parse tenant id: %w", err)
	}

	act := actor.Actor{
		TenantID: tenantID,
		UserID:   claims.UserID,
	}
	if err := act.Validate(); err != nil {
		return actor.Actor{}, err
	}
	return act, nil
}
