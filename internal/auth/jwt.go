// Package auth verifies operator bearer tokens.
package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"helix/internal/config"
	"helix/internal/domain"
)

const audience = "helix-console"

// Claims are the operator claims carried by a console token.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// OperatorID is the token subject.
func (c *Claims) OperatorID() string {
	return c.Subject
}

// TokenVerifier validates operator tokens.
type TokenVerifier interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// JWT signs and verifies HS256 operator tokens.
type JWT struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWT creates a verifier from config.
func NewJWT(cfg *config.JWTConfig) *JWT {
	return &JWT{secret: []byte(cfg.Secret), issuer: cfg.Issuer, now: time.Now}
}

// Issue signs a token for an operator. The console server only verifies
// tokens; Issue exists for helixctl and local development.
func (j *JWT) Issue(operatorID, name, email, role string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{audience},
		},
		Name:  name,
		Email: email,
		Role:  role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// ValidateToken parses and checks signature, expiry, issuer and audience.
func (j *JWT) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	aud, _ := claims.GetAudience()
	if !slices.Contains(aud, audience) {
		return nil, fmt.Errorf("invalid token audience: %w", domain.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject: %w", domain.ErrUnauthorized)
	}
	return claims, nil
}
