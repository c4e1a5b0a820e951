package oauth

import (
	"context"
	"errors"
)

// Verification failures, by provider error class.
var (
	ErrExpired   = errors.New("identity token expired")
	ErrMalformed = errors.New("identity token malformed")
	ErrRejected  = errors.New("identity token rejected")
)

// Identity is what a verified federated token says about its holder.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier checks an identity token issued by a federated provider.
// Errors wrap ErrExpired, ErrMalformed or ErrRejected.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

func claimString(m map[string]interface{}, k string) string {
	s, _ := m[k].(string)
	return s
}

func claimBool(m map[string]interface{}, k string) bool {
	b, _ := m[k].(bool)
	return b
}
