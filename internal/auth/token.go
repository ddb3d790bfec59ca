package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims

	Role      string `json:"role"`
	Community string `json:"community,omitempty"`
}

// Verifier checks HS256 bearer tokens minted by the auth service.
type Verifier struct {
	Secret   string
	Issuer   string
	Audience string
}

func (v Verifier) Verify(tokenString string, now time.Time) (*Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if v.Secret == "" {
		return nil, fmt.Errorf("missing signing secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}

	claims := &Claims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(v.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("missing subject")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Community) == "" {
		return nil, fmt.Errorf("missing community")
	}

	return &Principal{
		UserID:      claims.Subject,
		Role:        role,
		CommunityID: claims.Community,
	}, nil
}

// Issue mints a token for p. Production tokens come from the auth service;
// this exists for dev tooling and tests.
func Issue(v Verifier, p Principal, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    v.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      string(p.Role),
		Community: p.CommunityID,
	}
	if v.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(v.Secret))
}
