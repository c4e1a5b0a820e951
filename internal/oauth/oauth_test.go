package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

const testProject = "demo-project"

type jwksServer struct {
	*httptest.Server
	key  *rsa.PrivateKey
	hits atomic.Int32
}

func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	s := &jwksServer{key: key}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{{
			Kty: "RSA",
			Kid: "k1",
			N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) sign(t *testing.T, kid string, c firebaseClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	tok.Header["kid"] = kid
	out, err := tok.SignedString(s.key)
	require.NoError(t, err)
	return out
}

func validClaims() firebaseClaims {
	now := time.Now()
	return firebaseClaims{
		Email:         "ann@example.com",
		EmailVerified: true,
		Name:          "Ann",
		Picture:       "https://img/a.png",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "fb-uid-1",
			Issuer:    "https://securetoken.google.com/" + testProject,
			Audience:  jwt.ClaimStrings{testProject},
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestFirebaseVerifier_Valid(t *testing.T) {
	srv := newJWKSServer(t)
	v := NewFirebaseVerifier(testProject, NewKeySet(srv.URL, time.Hour))

	id, err := v.Verify(context.Background(), srv.sign(t, "k1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, &Identity{
		Subject:       "fb-uid-1",
		Email:         "ann@example.com",
		EmailVerified: true,
		Name:          "Ann",
		Picture:       "https://img/a.png",
	}, id)

	_, err = v.Verify(context.Background(), srv.sign(t, "k1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.hits.Load(), "keys should be cached")
}

func TestFirebaseVerifier_Failures(t *testing.T) {
	srv := newJWKSServer(t)
	v := NewFirebaseVerifier(testProject, NewKeySet(srv.URL, time.Hour))
	ctx := context.Background()

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongAud := validClaims()
	wrongAud.Audience = jwt.ClaimStrings{"someone-else"}

	wrongIss := validClaims()
	wrongIss.Issuer = "https://accounts.example.com"

	noSub := validClaims()
	noSub.Subject = ""

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", srv.sign(t, "k1", expired), ErrExpired},
		{"garbage", "not.a.jwt", ErrMalformed},
		{"wrong audience", srv.sign(t, "k1", wrongAud), ErrRejected},
		{"wrong issuer", srv.sign(t, "k1", wrongIss), ErrRejected},
		{"unknown kid", srv.sign(t, "k9", validClaims()), ErrRejected},
		{"no subject", srv.sign(t, "k1", noSub), ErrRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(ctx, tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFirebaseVerifier_HS256Rejected(t *testing.T) {
	srv := newJWKSServer(t)
	v := NewFirebaseVerifier(testProject, NewKeySet(srv.URL, time.Hour))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	tok.Header["kid"] = "k1"
	raw, err := tok.SignedString([]byte("shared"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestFirebaseVerifier_NoProject(t *testing.T) {
	v := NewFirebaseVerifier("", NewKeySet("http://127.0.0.1:1", time.Hour))
	_, err := v.Verify(context.Background(), "a.b.c")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestGoogleVerifier(t *testing.T) {
	g := &GoogleVerifier{clientID: "client-1"}

	g.validate = func(_ context.Context, token, aud string) (*idtoken.Payload, error) {
		assert.Equal(t, "client-1", aud)
		return &idtoken.Payload{
			Subject: "g-123",
			Claims: map[string]interface{}{
				"email":          "gina@example.com",
				"email_verified": true,
				"name":           "Gina",
				"picture":        "https://img/g.png",
			},
		}, nil
	}
	id, err := g.Verify(context.Background(), "a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "g-123", id.Subject)
	assert.Equal(t, "gina@example.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "Gina", id.Name)

	cases := []struct {
		msg  string
		want error
	}{
		{msg: "idtoken: token expired: 1700000000 < 1700000100", want: ErrExpired},
		{msg: "idtoken: invalid token, token must have three segments; found 2", want: ErrMalformed},
		{msg: "idtoken: audience provided does not match aud claim in the JWT", want: ErrRejected},
		{msg: "idtoken: could not verify token signature", want: ErrRejected},
	}
	for _, tc := range cases {
		g.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
			return nil, errors.New(tc.msg)
		}
		_, err := g.Verify(context.Background(), "a.b.c")
		assert.ErrorIs(t, err, tc.want, tc.msg)
	}

	_, err = NewGoogleVerifier("").Verify(context.Background(), "a.b.c")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestCodeExchanger_State(t *testing.T) {
	g := NewCodeExchanger("id", "secret", "http://app.test/cb", "state-key")
	require.True(t, g.Enabled())

	st := g.MakeState("nonce123")
	assert.True(t, g.VerifyState(st))
	assert.False(t, g.VerifyState("nonce124"+st[len("nonce123"):]))
	assert.False(t, g.VerifyState("nonce123"))
	assert.False(t, g.VerifyState(".abc"))

	other := NewCodeExchanger("id", "secret", "http://app.test/cb", "other-key")
	assert.False(t, other.VerifyState(st))

	u := g.AuthURL(st)
	assert.True(t, strings.HasPrefix(u, "https://accounts.google.com/"))
	assert.Contains(t, u, "state="+st)
	assert.Contains(t, u, "client_id=id")
}

func TestCodeExchanger_Enabled(t *testing.T) {
	var nilEx *CodeExchanger
	assert.False(t, nilEx.Enabled())
	assert.False(t, NewCodeExchanger("id", "", "http://app.test/cb", "k").Enabled())
	assert.False(t, NewCodeExchanger("id", "secret", "http://app.test/cb", "").Enabled())
}

func TestCodeExchanger_Exchange(t *testing.T) {
	var withIDToken atomic.Bool
	withIDToken.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		assert.Equal(t, "the-code", r.Form.Get("code"))
		body := map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600}
		if withIDToken.Load() {
			body["id_token"] = "h.p.s"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	g := NewCodeExchanger("id", "secret", "http://app.test/cb", "k")
	g.cfg.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}

	raw, err := g.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "h.p.s", raw)

	withIDToken.Store(false)
	_, err = g.Exchange(context.Background(), "the-code")
	assert.ErrorIs(t, err, ErrRejected)
}
