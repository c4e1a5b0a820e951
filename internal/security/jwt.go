package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	typAccess  = "access"
	typRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID is the token subject.
func (c *Claims) UserID() string { return c.Subject }

type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenIssuer signs access and refresh tokens with separate HS256 secrets and lifetimes.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
		now:           time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (ti *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *ti
	cp.now = now
	return &cp
}

func (ti *TokenIssuer) IssuePair(userID string) (Pair, error) {
	access, err := ti.IssueAccess(userID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := ti.sign(userID, typRefresh, ti.refreshSecret, ti.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (ti *TokenIssuer) IssueAccess(userID string) (string, error) {
	return ti.sign(userID, typAccess, ti.accessSecret, ti.accessTTL)
}

func (ti *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return ti.parse(token, typAccess, ti.accessSecret)
}

func (ti *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return ti.parse(token, typRefresh, ti.refreshSecret)
}

func (ti *TokenIssuer) sign(userID, typ string, secret []byte, ttl time.Duration) (string, error) {
	now := ti.now()
	c := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ti.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return s, nil
}

func (ti *TokenIssuer) parse(token, typ string, secret []byte) (*Claims, error) {
	c := &Claims{}
	t, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, errors.New("invalid token")
	}
	if c.Type != typ {
		return nil, ErrWrongTokenType
	}
	if c.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return c, nil
}
