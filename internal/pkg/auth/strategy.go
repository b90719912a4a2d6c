package auth

import (
	"errors"
	"time"
)

// ErrInvalidToken is returned for expired, malformed or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// Strategy abstracts bearer token issuance and validation. The subject is the
// identity-provider user id carried by the token.
type Strategy interface {
	IssueToken(subject string) (string, error)
	ParseToken(token string) (string, error)
	Name() string
}

// Options tune token issuance.
type Options struct {
	TTL    time.Duration
	Issuer string
}
