package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/tazhibayda/auth-backend/internal/config"
	api "github.com/tazhibayda/auth-backend/internal/http"
	"github.com/tazhibayda/auth-backend/internal/log"
	"github.com/tazhibayda/auth-backend/internal/mail"
	"github.com/tazhibayda/auth-backend/internal/oauth"
	"github.com/tazhibayda/auth-backend/internal/repo"
	"github.com/tazhibayda/auth-backend/internal/security"
	"github.com/tazhibayda/auth-backend/internal/service"
)

type inbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (i *inbox) Send(_ context.Context, m mail.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, m)
	return nil
}

var resetLink = regexp.MustCompile(`/reset-password/([0-9a-f]{64})`)

func (i *inbox) resetToken(t *testing.T) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	require.NotEmpty(t, i.msgs, "no mail sent")
	m := resetLink.FindStringSubmatch(i.msgs[len(i.msgs)-1].HTML)
	require.Len(t, m, 2)
	return m[1]
}

type fixedIdentity struct{ id *oauth.Identity }

func (f fixedIdentity) Verify(context.Context, string) (*oauth.Identity, error) {
	c := *f.id
	return &c, nil
}

type testEnv struct {
	T      *testing.T
	Ctx    context.Context
	Mongo  *mongodb.MongoDBContainer
	Store  *repo.Store
	Mail   *inbox
	Router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	mc, err := mongodb.Run(ctx, "mongo:6")
	require.NoError(t, err, "mongo container")

	uri, err := mc.ConnectionString(ctx)
	require.NoError(t, err)

	_, err = log.Init(false)
	require.NoError(t, err)

	store, err := repo.NewStore(ctx, uri, "auth_test")
	require.NoError(t, err)
	require.NoError(t, store.EnsureIndexes(ctx))

	cfg := &config.Config{
		FrontendURL: "http://app.test",
		ResetTTL:    10 * time.Minute,
		Rabbit:      config.RabbitConfig{Exchange: "auth.events"},
	}
	tokens := security.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, time.Hour, "auth-test")
	box := &inbox{}
	svc := service.New(cfg, service.Deps{
		Store:  store,
		Tokens: tokens,
		Mailer: box,
		Verifier: fixedIdentity{id: &oauth.Identity{
			Subject: "g-42", Email: "gina@example.com", EmailVerified: true, Name: "Gina", Picture: "https://img/g.png",
		}},
	})

	h := api.NewHandler(svc, tokens, store, api.CookieConfig{Name: "refreshToken", TTL: 7 * 24 * time.Hour})
	h.Health = []api.Pinger{store}

	gin.SetMode(gin.TestMode)
	r := api.NewRouter(h, api.RouterOptions{AllowOrigin: "http://app.test"})

	return &testEnv{T: t, Ctx: ctx, Mongo: mc, Store: store, Mail: box, Router: r}
}

func (e *testEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close(e.Ctx)
	}
	if e.Mongo != nil {
		_ = e.Mongo.Terminate(e.Ctx)
	}
}

type call struct {
	method, path, body string
	bearer             string
	cookie             *http.Cookie
}

func (e *testEnv) do(c call) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(c.method, c.path, bytes.NewBufferString(c.body))
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

type session struct {
	Access  string
	Cookie  *http.Cookie
	UserID  string
	Role    string
	Payload map[string]any
}

// sessionFrom decodes {accessToken, user} and picks up the refresh cookie.
func sessionFrom(t *testing.T, w *httptest.ResponseRecorder) session {
	t.Helper()
	var body struct {
		Data struct {
			AccessToken string         `json:"accessToken"`
			User        map[string]any `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	require.NotEmpty(t, body.Data.AccessToken)

	s := session{Access: body.Data.AccessToken, Payload: body.Data.User}
	s.UserID, _ = body.Data.User["id"].(string)
	s.Role, _ = body.Data.User["role"].(string)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "refreshToken" {
			s.Cookie = ck
		}
	}
	require.NotNil(t, s.Cookie, "refresh cookie not set")
	return s
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Code
}
