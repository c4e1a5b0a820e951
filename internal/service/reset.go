package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tazhibayda/auth-backend/internal/helper"
	"github.com/tazhibayda/auth-backend/internal/log"
	"github.com/tazhibayda/auth-backend/internal/mail"
	"github.com/tazhibayda/auth-backend/internal/metrics"
	"github.com/tazhibayda/auth-backend/internal/queue"
	"github.com/tazhibayda/auth-backend/internal/repo"
	"github.com/tazhibayda/auth-backend/internal/security"
)

// RequestReset stores a fresh reset token hash and mails the plaintext token.
// A delivery failure is logged, not returned: the token stays valid and the caller
// sees the same answer either way.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	u, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrEmailNotFound
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	plain, hash, err := security.NewResetToken()
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}
	id := u.ID.Hex()
	if err := s.store.SetResetToken(ctx, id, hash, s.now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	s.emit(ctx, queue.KeyResetRequested, queue.PasswordReset{UserID: id})

	msg, err := mail.ResetMessage(u.Email, s.frontendURL+"/reset-password/"+plain, s.resetTTL)
	if err != nil {
		return fmt.Errorf("render reset mail: %w", err)
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
	defer cancel()
	if err := s.mailer.Send(sendCtx, msg); err != nil {
		metrics.AuthEvents.WithLabelValues("reset_mail", "failed").Inc()
		log.Ctx(ctx).Error("reset mail delivery failed",
			zap.String("user_id", id),
			zap.String("email_hash", helper.Hash8(u.Email)),
			zap.Error(err))
		return nil
	}
	metrics.AuthEvents.WithLabelValues("reset_mail", "ok").Inc()
	return nil
}

// ConsumeReset sets a new password if token matches a pending, unexpired reset.
// The token is single use.
func (s *Service) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrTokenInvalidOrExpired
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	u, err := s.store.ResetPassword(ctx, security.HashToken(token), newPassword, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrTokenInvalidOrExpired
	}
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.emit(ctx, queue.KeyResetCompleted, queue.PasswordReset{UserID: u.ID.Hex()})
	return nil
}
