// Package token issues and verifies the signed, expiring credentials carried by API requests.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Kind tells which issuance path minted a credential.
type Kind string

const (
	KindSchool  Kind = "school"
	KindStudent Kind = "student"
)

// Error is an authentication failure. Its message is safe to show to callers.
type Error struct {
	message string
}

func (err Error) Error() string {
	return err.message
}

var (
	ErrMissingCredential = &Error{message: "Unauthorized"}
	ErrExpiredCredential = &Error{message: "Token expired"}
	ErrInvalidCredential = &Error{message: "Invalid token"}
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"kind"`
}

// Issuer mints and verifies HS256 tokens with a single secret.
type Issuer struct {
	secret     []byte
	appName    string
	defaultTTL time.Duration

	// Now is the clock used for issuing and verifying; replaceable in tests.
	Now func() time.Time
}

func NewIssuer(secret []byte, appName string, defaultTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     secret,
		appName:    appName,
		defaultTTL: defaultTTL,
		Now:        time.Now,
	}
}

// Issue returns a signed token for subjectID, expiring after ttl (or the default TTL when omitted).
func (iss *Issuer) Issue(subjectID string, kind Kind, ttl ...time.Duration) (string, error) {
	lifetime := iss.defaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		lifetime = ttl[0]
	}
	now := iss.Now().UTC()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    iss.appName,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
		Kind: kind,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(iss.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
func (iss *Issuer) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingCredential
	}

	claims := new(Claims)
	tkn, err := jwt.ParseWithClaims(
		raw, claims,
		func(*jwt.Token) (interface{}, error) { return iss.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(iss.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, ErrInvalidCredential
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
