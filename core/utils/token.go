package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const proposalIssuer = "schedule-agent"

// ProposalClaims binds a proposed agent action to its exact arguments.
type ProposalClaims struct {
	Action string `json:"act"`
	Digest string `json:"dig"`
	jwt.RegisteredClaims
}

// GenerateProposalToken signs action+digest with secret and expires after ttl.
func GenerateProposalToken(secret []byte, action, digest string, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("proposal token secret is empty")
	}
	claims := ProposalClaims{
		Action: action,
		Digest: digest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    proposalIssuer,
			ID:        NewRequestID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign proposal token: %w", err)
	}
	return signed, nil
}

// ParseProposalToken verifies signature, issuer and expiry and returns the claims.
func ParseProposalToken(secret []byte, raw string, now time.Time) (*ProposalClaims, error) {
	claims := &ProposalClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(proposalIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid proposal token")
	}
	return claims, nil
}
