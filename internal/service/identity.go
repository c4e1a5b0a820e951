package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tazhibayda/auth-backend/internal/domain"
	"github.com/tazhibayda/auth-backend/internal/metrics"
	"github.com/tazhibayda/auth-backend/internal/oauth"
	"github.com/tazhibayda/auth-backend/internal/queue"
	"github.com/tazhibayda/auth-backend/internal/repo"
	"github.com/tazhibayda/auth-backend/internal/security"
)

// LoginWithIdentityToken signs in the holder of a federated identity token, linking
// it to an existing account with the same email or creating a new account.
func (s *Service) LoginWithIdentityToken(ctx context.Context, idToken string) (*AuthResult, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrTokenRequired
	}
	if !jwtShaped(idToken) {
		return nil, ErrMalformedToken
	}
	if s.verifier == nil {
		return nil, wrap(CodeIdentityRejected, errors.New("identity provider is not configured"))
	}

	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		metrics.AuthEvents.WithLabelValues("identity", "rejected").Inc()
		switch {
		case errors.Is(err, oauth.ErrExpired):
			return nil, wrap(CodeIdentityExpired, err)
		case errors.Is(err, oauth.ErrMalformed):
			return nil, wrap(CodeIdentityMalformed, err)
		default:
			return nil, wrap(CodeIdentityRejected, err)
		}
	}
	if id.Email == "" || id.Subject == "" {
		return nil, wrap(CodeIdentityRejected, errors.New("token carries no email or subject"))
	}

	u, created, err := s.resolveFederated(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.startSession(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.AuthEvents.WithLabelValues("identity", "ok").Inc()
	if created {
		s.emit(ctx, queue.KeyUserRegistered, queue.UserRegistered{
			UserID: res.User.ID, Email: u.Email, Name: u.Name, AuthType: domain.AuthGoogle,
		})
	}
	s.emit(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: res.User.ID, AuthType: domain.AuthGoogle})
	return res, nil
}

func jwtShaped(tok string) bool {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// resolveFederated finds or creates the local account for id. A local account is
// linked at most once; an existing link is never replaced. Only the linked subject
// may sign in to an existing account with an unverified email.
func (s *Service) resolveFederated(ctx context.Context, id *oauth.Identity) (*domain.User, bool, error) {
	u, err := s.store.FindUserByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if u.FederatedID != id.Subject && !id.EmailVerified {
			return nil, false, wrap(CodeIdentityRejected, errors.New("email is not verified by the identity provider"))
		}
		if u.FederatedID != "" {
			return u, false, nil
		}
		link := repo.FederatedLink{FederatedID: id.Subject, AuthType: domain.AuthGoogle}
		if u.Avatar == "" {
			link.Avatar = id.Picture
		}
		linked, err := s.store.LinkFederated(ctx, u.ID.Hex(), link)
		if errors.Is(err, repo.ErrNotFound) {
			// linked by a concurrent request; use what is stored now
			return s.reload(ctx, id.Email)
		}
		if err != nil {
			return nil, false, fmt.Errorf("link identity: %w", err)
		}
		return linked, false, nil

	case errors.Is(err, repo.ErrNotFound):
		pw, err := security.RandomToken(32)
		if err != nil {
			return nil, false, fmt.Errorf("random password: %w", err)
		}
		name := strings.TrimSpace(id.Name)
		if name == "" {
			name, _, _ = strings.Cut(id.Email, "@")
		}
		nu := &domain.User{
			Email:       id.Email,
			Name:        name,
			Role:        domain.RoleUser,
			FederatedID: id.Subject,
			Avatar:      id.Picture,
			AuthType:    domain.AuthGoogle,
		}
		if err := s.store.CreateUser(ctx, nu, pw); err != nil {
			if errors.Is(err, repo.ErrEmailExists) {
				return s.reload(ctx, id.Email)
			}
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		return nu, true, nil

	default:
		return nil, false, fmt.Errorf("find user: %w", err)
	}
}

func (s *Service) reload(ctx context.Context, email string) (*domain.User, bool, error) {
	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("reload user: %w", err)
	}
	return u, false, nil
}
