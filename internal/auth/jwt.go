// Package auth resolves bearer tokens into the requesting identity.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/talentsync/interviewd/internal/model"
)

// Identity is the resolved actor behind a request.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Interviewer   bool
}

// Verifier validates a bearer token and resolves the identity behind it.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens issued by the identity service.
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAuth, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", model.ErrAuth)
	}

	return &Identity{
		UID:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Interviewer:   claims.Role == "interviewer",
	}, nil
}

// NewToken mints a token for the given identity. Used by the identity
// service and by tests.
func NewToken(secret, issuer string, ttl time.Duration, identity Identity) (string, error) {
	now := time.Now().UTC()
	role := ""
	if identity.Interviewer {
		role = "interviewer"
	}
	claims := Claims{
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
		Role:          role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
