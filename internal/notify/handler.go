package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tazhibayda/auth-backend/internal/helper"
	"github.com/tazhibayda/auth-backend/internal/mail"
	"github.com/tazhibayda/auth-backend/internal/metrics"
	"github.com/tazhibayda/auth-backend/internal/queue"
)

// Dedupe remembers message ids already delivered.
type Dedupe interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Handler struct {
	Mailer mail.Mailer
	Seen   Dedupe // nil: every delivery is sent
	TTL    time.Duration
	Logger *zap.Logger
}

// Handle delivers one queued mail job. A returned error requeues the delivery;
// malformed jobs are dropped instead since they can never succeed.
func (h *Handler) Handle(ctx context.Context, d queue.Delivery) error {
	var job queue.MailJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.To == "" {
		metrics.MailJobs.WithLabelValues("dropped").Inc()
		h.Logger.Warn("drop malformed mail job", zap.String("message_id", d.MessageID), zap.Error(err))
		return nil
	}

	key := "notify:mail:" + d.MessageID
	if h.Seen != nil && d.MessageID != "" {
		first, err := h.Seen.MarkOnce(ctx, key, h.TTL)
		if err != nil {
			return fmt.Errorf("dedupe: %w", err)
		}
		if !first {
			metrics.MailJobs.WithLabelValues("duplicate").Inc()
			return nil
		}
	}

	err := h.Mailer.Send(ctx, mail.Message{To: job.To, Subject: job.Subject, HTML: job.HTML})
	if err != nil {
		if h.Seen != nil && d.MessageID != "" {
			_ = h.Seen.Forget(context.WithoutCancel(ctx), key)
		}
		metrics.MailJobs.WithLabelValues("failed").Inc()
		h.Logger.Error("mail delivery failed",
			zap.String("message_id", d.MessageID),
			zap.String("to_hash", helper.Hash8(job.To)),
			zap.Error(err))
		return err
	}

	metrics.MailJobs.WithLabelValues("sent").Inc()
	h.Logger.Info("mail delivered",
		zap.String("message_id", d.MessageID),
		zap.String("to_hash", helper.Hash8(job.To)))
	return nil
}
