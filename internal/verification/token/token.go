// Package token issues the client-held verification token. The browser
// stores it (non-HTTP-only cookie plus extension storage) and presents it to
// the check endpoint; signing keeps a tampered token from resolving to a
// different record id.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"agegate/internal/verification/models"
)

// Claims carries the verification id. Expiry matches the record TTL so the
// token and the record it points at go stale together.
type Claims struct {
	VerificationID string `json:"verification_id"`
	jwt.RegisteredClaims
}

// Issuer signs and parses verification tokens.
type Issuer struct {
	signingKey []byte
}

func NewIssuer(signingKey string) *Issuer {
	return &Issuer{signingKey: []byte(signingKey)}
}

// Issue signs a token for the given verification id, expiring with the
// record.
func (i *Issuer) Issue(verificationID string, now time.Time) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		VerificationID: verificationID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(models.RecordTTL)),
		},
	})

	signed, err := t.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}
	return signed, nil
}

// Parse validates the signature and expiry and returns the verification id.
// Callers treat any failure as a negative verification result, never an
// error surfaced to the client.
func (i *Issuer) Parse(tokenString string, now time.Time) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return i.signingKey, nil
		},
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", fmt.Errorf("parse verification token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.VerificationID == "" {
		return "", fmt.Errorf("invalid verification token claims")
	}
	return claims.VerificationID, nil
}
