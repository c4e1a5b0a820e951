package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/auth-backend/internal/domain"
	"github.com/tazhibayda/auth-backend/internal/mail"
	"github.com/tazhibayda/auth-backend/internal/oauth"
	"github.com/tazhibayda/auth-backend/internal/repo"
	"github.com/tazhibayda/auth-backend/internal/security"
)

// memStore mirrors repo.Store semantics, each method atomic under mu.
type memStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newMemStore() *memStore {
	return &memStore{users: map[primitive.ObjectID]*domain.User{}}
}

func clone(u *domain.User) *domain.User {
	c := *u
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		c.RefreshTokenHash = &h
	}
	if u.ResetTokenExpires != nil {
		t := *u.ResetTokenExpires
		c.ResetTokenExpires = &t
	}
	return &c
}

func (m *memStore) byID(id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repo.ErrNotFound
	}
	u, ok := m.users[oid]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return repo.ErrEmailExists
		}
	}
	u.ID = primitive.NewObjectID()
	u.PasswordHash = hash
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = clone(u)
	return nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.byID(id)
	if err != nil {
		return nil, err
	}
	return clone(u), nil
}

func (m *memStore) ListUsers(context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *clone(u))
	}
	return out, nil
}

func (m *memStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.byID(id)
	if err != nil {
		return err
	}
	delete(m.users, u.ID)
	return nil
}

func (m *memStore) UpdateProfile(_ context.Context, id string, p repo.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.byID(id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	return clone(u), nil
}

func (m *memStore) LinkFederated(_ context.Context, id string, l repo.FederatedLink) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.byID(id)
	if err != nil || u.FederatedID != "" {
		return nil, repo.ErrNotFound
	}
	u.FederatedID = l.FederatedID
	u.AuthType = l.AuthType
	if l.Avatar != "" {
		u.Avatar = l.Avatar
	}
	return clone(u), nil
}

func (m *memStore) SetRefreshHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.byID(id)
	if err != nil {
		return err
	}
	u.RefreshTokenHash = &hash
	return nil
}

func (m *memStore) ClearRefresh(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, err := m.byID(id); err == nil {
		u.RefreshTokenHash = nil
	}
	return nil
}

func (m *memStore) SetResetToken(_ context.Context, id, hash string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.byID(id)
	if err != nil {
		return err
	}
	u.ResetTokenHash = hash
	u.ResetTokenExpires = &expires
	return nil
}

func (m *memStore) ResetPassword(_ context.Context, hash, newPassword string, now time.Time) (*domain.User, error) {
	pw, err := security.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetTokenHash == hash && u.ResetTokenExpires != nil && u.ResetTokenExpires.After(now) {
			u.PasswordHash = pw
			u.RefreshTokenHash = nil
			u.ResetTokenHash = ""
			u.ResetTokenExpires = nil
			return clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (o *outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, m)
	return nil
}

func (o *outbox) last() (mail.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mail.Message{}, false
	}
	return o.sent[len(o.sent)-1], true
}

type stubVerifier struct {
	id  *oauth.Identity
	err error
}

func (v *stubVerifier) Verify(context.Context, string) (*oauth.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	c := *v.id
	return &c, nil
}

type recordedEvent struct {
	Key   string
	Event any
}

type eventLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *eventLog) Publish(_ context.Context, _, key string, event any, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{Key: key, Event: event})
	return nil
}

func (e *eventLog) Close() error { return nil }

func (e *eventLog) has(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev.Key == key {
			return true
		}
	}
	return false
}

var errSMTPDown = errors.New("smtp: connection refused")
