// Package auth turns bearer tokens minted by the identity service into a
// tenant scoped shared.Caller.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/odyssey-erp/worklog/internal/shared"
)

// RoleAdmin grants access to billing endpoints.
const RoleAdmin = "admin"

// ErrInvalidToken indicates a missing, malformed, expired or forged token.
var ErrInvalidToken = fmt.Errorf("invalid token: %w", shared.ErrUnauthorized)

// Claims is the JWT payload. The subject carries the user id.
type Claims struct {
	TenantID int64    `json:"tenant_id"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifier constructs a Verifier. An empty issuer accepts any issuer.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second}
}

// Verify parses the token and returns the caller it identifies.
func (v *Verifier) Verify(raw string) (shared.Caller, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return shared.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return shared.Caller{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	if claims.TenantID <= 0 {
		return shared.Caller{}, fmt.Errorf("%w: missing tenant", ErrInvalidToken)
	}
	return shared.Caller{
		UserID:   userID,
		TenantID: claims.TenantID,
		Admin:    slices.Contains(claims.Roles, RoleAdmin),
	}, nil
}

// Issue signs a token for the caller. The identity service owns token
// issuance in production; operators and tests use this to mint tokens.
func (v *Verifier) Issue(caller shared.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TenantID: caller.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(caller.UserID, 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if caller.Admin {
		claims.Roles = []string{RoleAdmin}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
