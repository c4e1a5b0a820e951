package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tazhibayda/auth-backend/internal/mail"
	"github.com/tazhibayda/auth-backend/internal/queue"
)

type memSeen struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (m *memSeen) MarkOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memSeen) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type countingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (c *countingMailer) Send(_ context.Context, m mail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m)
	return nil
}

func delivery(t *testing.T, id string, job queue.MailJob) queue.Delivery {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return queue.Delivery{MessageID: id, Body: b}
}

func TestHandle_DeliversOnce(t *testing.T) {
	m := &countingMailer{}
	h := &Handler{Mailer: m, Seen: &memSeen{keys: map[string]bool{}}, TTL: time.Hour, Logger: zap.NewNop()}
	d := delivery(t, "m-1", queue.MailJob{To: "a@b.c", Subject: "s", HTML: "h"})

	require.NoError(t, h.Handle(context.Background(), d))
	require.NoError(t, h.Handle(context.Background(), d))

	require.Len(t, m.sent, 1)
	assert.Equal(t, mail.Message{To: "a@b.c", Subject: "s", HTML: "h"}, m.sent[0])
}

func TestHandle_FailureAllowsRetry(t *testing.T) {
	m := &countingMailer{err: errors.New("smtp down")}
	h := &Handler{Mailer: m, Seen: &memSeen{keys: map[string]bool{}}, TTL: time.Hour, Logger: zap.NewNop()}
	d := delivery(t, "m-2", queue.MailJob{To: "a@b.c", Subject: "s", HTML: "h"})

	assert.Error(t, h.Handle(context.Background(), d))

	m.err = nil
	require.NoError(t, h.Handle(context.Background(), d))
	assert.Len(t, m.sent, 1)
}

func TestHandle_DropsMalformed(t *testing.T) {
	m := &countingMailer{}
	h := &Handler{Mailer: m, Logger: zap.NewNop()}

	assert.NoError(t, h.Handle(context.Background(), queue.Delivery{MessageID: "x", Body: []byte("{")}))
	assert.NoError(t, h.Handle(context.Background(), delivery(t, "y", queue.MailJob{Subject: "no recipient"})))
	assert.Empty(t, m.sent)
}

func TestHandle_DedupeUnavailable(t *testing.T) {
	m := &countingMailer{}
	h := &Handler{Mailer: m, Seen: &memSeen{err: errors.New("redis down")}, Logger: zap.NewNop()}

	assert.Error(t, h.Handle(context.Background(), delivery(t, "m-3", queue.MailJob{To: "a@b.c"})))
	assert.Empty(t, m.sent)
}

func TestHandle_NoDedupe(t *testing.T) {
	m := &countingMailer{}
	h := &Handler{Mailer: m, Logger: zap.NewNop()}
	d := delivery(t, "m-4", queue.MailJob{To: "a@b.c"})

	require.NoError(t, h.Handle(context.Background(), d))
	require.NoError(t, h.Handle(context.Background(), d))
	assert.Len(t, m.sent, 2)
}
