package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"hotel_booking/internal/domain"
)

// Claims mirrors the session token issued by the identity provider. The role
// lives in the public metadata; older tokens carry it at the top level.
type Claims struct {
	Metadata struct {
		Role string `json:"role,omitempty"`
	} `json:"metadata"`
	Role string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

func (c Claims) role() string {
	if c.Metadata.Role != "" {
		return c.Metadata.Role
	}
	return c.Role
}

type Verifier struct {
	method jwtlib.SigningMethod
	key    any
	issuer string
}

// NewHMAC verifies HS256 tokens signed with secret.
func NewHMAC(secret, issuer string) *Verifier {
	return &Verifier{method: jwtlib.SigningMethodHS256, key: []byte(secret), issuer: issuer}
}

// NewRSA verifies RS256 tokens against a PEM-encoded public key.
func NewRSA(pemKey, issuer string) (*Verifier, error) {
	pub, err := jwtlib.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &Verifier{method: jwtlib.SigningMethodRS256, key: pub, issuer: issuer}, nil
}

// FromConfig prefers the public key when both are set. It returns nil when
// neither is configured.
func FromConfig(secret, publicKey, issuer string) (*Verifier, error) {
	switch {
	case publicKey != "":
		return NewRSA(publicKey, issuer)
	case secret != "":
		return NewHMAC(secret, issuer), nil
	default:
		return nil, nil
	}
}

func (v *Verifier) Verify(_ context.Context, token string) (domain.Principal, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{v.method.Alg()}),
		jwtlib.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(v.issuer))
	}
	claims := &Claims{}
	tok, err := jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return domain.Principal{}, domain.Unauthorized("Unauthorized")
	}
	if claims.Subject == "" {
		return domain.Principal{}, domain.Unauthorized("Unauthorized")
	}
	return domain.Principal{UserID: claims.Subject, Role: claims.role()}, nil
}

// IssueHS256 mints a token the HMAC verifier accepts. Used by tests and local
// tooling; production tokens come from the identity provider.
func IssueHS256(secret, issuer, subject, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required")
	}
	c := Claims{RegisteredClaims: jwtlib.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
	}}
	c.Metadata.Role = role
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString([]byte(secret))
}
