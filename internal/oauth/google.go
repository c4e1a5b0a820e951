package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	ggoogle "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates Google Sign-In ID tokens for one OAuth client.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (g *GoogleVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	if g.clientID == "" {
		return nil, fmt.Errorf("%w: google client id is not configured", ErrRejected)
	}
	p, err := g.validate(ctx, raw, g.clientID)
	if err != nil {
		return nil, classifyIDTokenErr(err)
	}
	return &Identity{
		Subject:       p.Subject,
		Email:         claimString(p.Claims, "email"),
		EmailVerified: claimBool(p.Claims, "email_verified"),
		Name:          claimString(p.Claims, "name"),
		Picture:       claimString(p.Claims, "picture"),
	}, nil
}

// idtoken has no sentinel errors; its messages are stable ("idtoken: token expired", ...).
func classifyIDTokenErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "expired"):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case strings.Contains(msg, "invalid token"),
		strings.Contains(msg, "segments"),
		strings.Contains(msg, "illegal base64"),
		strings.Contains(msg, "unable to unmarshal"):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
}

// CodeExchanger runs the authorization-code flow and hands back Google's id_token.
type CodeExchanger struct {
	cfg      *oauth2.Config
	stateKey []byte
}

func NewCodeExchanger(clientID, clientSecret, redirectURI, stateSecret string) *CodeExchanger {
	return &CodeExchanger{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes: []string{
				"openid", "email", "profile",
			},
			Endpoint: ggoogle.Endpoint,
		},
		stateKey: []byte(stateSecret),
	}
}

// Enabled reports whether enough configuration is present to run the flow.
func (g *CodeExchanger) Enabled() bool {
	return g != nil && g.cfg.ClientID != "" && g.cfg.ClientSecret != "" &&
		g.cfg.RedirectURL != "" && len(g.stateKey) > 0
}

// MakeState signs raw with HMAC for CSRF protection.
func (g *CodeExchanger) MakeState(raw string) string {
	mac := hmac.New(sha256.New, g.stateKey)
	mac.Write([]byte(raw))
	return raw + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (g *CodeExchanger) VerifyState(got string) bool {
	i := strings.IndexByte(got, '.')
	if i <= 0 {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(got[i+1:])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, g.stateKey)
	mac.Write([]byte(got[:i]))
	return hmac.Equal(mac.Sum(nil), sig)
}

func (g *CodeExchanger) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the raw id_token. The token still has to
// go through a Verifier.
func (g *CodeExchanger) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: code exchange: %v", ErrRejected, err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: %v", ErrRejected, errors.New("no id_token in token response"))
	}
	return raw, nil
}
