package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tazhibayda/auth-backend/internal/config"
	"github.com/tazhibayda/auth-backend/internal/domain"
	"github.com/tazhibayda/auth-backend/internal/helper"
	"github.com/tazhibayda/auth-backend/internal/log"
	"github.com/tazhibayda/auth-backend/internal/mail"
	"github.com/tazhibayda/auth-backend/internal/metrics"
	"github.com/tazhibayda/auth-backend/internal/oauth"
	"github.com/tazhibayda/auth-backend/internal/queue"
	"github.com/tazhibayda/auth-backend/internal/repo"
	"github.com/tazhibayda/auth-backend/internal/security"
)

// UserStore is the credential store. Implementations hash passwords on write and
// return repo.ErrNotFound / repo.ErrEmailExists.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User, password string) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, p repo.ProfileUpdate) (*domain.User, error)
	LinkFederated(ctx context.Context, id string, l repo.FederatedLink) (*domain.User, error)
	SetRefreshHash(ctx context.Context, id, hash string) error
	ClearRefresh(ctx context.Context, id string) error
	SetResetToken(ctx context.Context, id, hash string, expires time.Time) error
	ResetPassword(ctx context.Context, hash, newPassword string, now time.Time) (*domain.User, error)
}

type Deps struct {
	Store    UserStore
	Tokens   *security.TokenIssuer
	Mailer   mail.Mailer
	Verifier oauth.Verifier // nil disables federated login
	Events   queue.Publisher
}

type Service struct {
	store    UserStore
	tokens   *security.TokenIssuer
	mailer   mail.Mailer
	verifier oauth.Verifier
	events   queue.Publisher

	exchange    string
	frontendURL string
	resetTTL    time.Duration
	mailTimeout time.Duration
	now         func() time.Time
}

func New(cfg *config.Config, d Deps) *Service {
	s := &Service{
		store:       d.Store,
		tokens:      d.Tokens,
		mailer:      d.Mailer,
		verifier:    d.Verifier,
		events:      d.Events,
		exchange:    cfg.Rabbit.Exchange,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		resetTTL:    cfg.ResetTTL,
		mailTimeout: 15 * time.Second,
		now:         time.Now,
	}
	if s.events == nil {
		s.events = queue.NewNoop()
	}
	if s.resetTTL <= 0 {
		s.resetTTL = 10 * time.Minute
	}
	return s
}

// SetClock replaces the time source used for reset expiry; tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// AuthResult is what every successful sign-in path returns.
type AuthResult struct {
	Tokens security.Pair
	User   domain.PublicUser
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("a valid email is required")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, invalid("role must be user or admin")
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	u := &domain.User{
		Email:    email,
		Name:     strings.TrimSpace(in.Name),
		Role:     role,
		AuthType: domain.AuthLocal,
	}
	if err := s.store.CreateUser(ctx, u, in.Password); err != nil {
		if errors.Is(err, repo.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err := s.startSession(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.AuthEvents.WithLabelValues("register", "ok").Inc()
	s.emit(ctx, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: res.User.ID, Email: u.Email, Name: u.Name, AuthType: u.AuthType,
	})
	return res, nil
}

func checkPassword(pw string) error {
	if pw == "" {
		return invalid("password is required")
	}
	if len(pw) > security.MaxPasswordBytes {
		return invalid("password must be at most 72 bytes")
	}
	return nil
}

// Login answers ErrInvalidCredentials for an unknown email and for a wrong password alike.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repo.ErrNotFound) {
		metrics.AuthEvents.WithLabelValues("login", "invalid").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !security.CheckPassword(u.PasswordHash, password) {
		metrics.AuthEvents.WithLabelValues("login", "invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	res, err := s.startSession(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.AuthEvents.WithLabelValues("login", "ok").Inc()
	s.emit(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: res.User.ID, AuthType: domain.AuthLocal})
	return res, nil
}

// startSession issues a token pair and makes its refresh token the only valid one.
func (s *Service) startSession(ctx context.Context, u *domain.User) (*AuthResult, error) {
	id := u.ID.Hex()
	pair, err := s.tokens.IssuePair(id)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetRefreshHash(ctx, id, security.HashToken(pair.RefreshToken)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &AuthResult{Tokens: pair, User: u.Public()}, nil
}

// Refresh mints a new access token. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		metrics.AuthEvents.WithLabelValues("refresh", "invalid").Inc()
		return "", wrap(CodeRefreshTokenInvalid, err)
	}

	u, err := s.store.FindUserByID(ctx, claims.UserID())
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return "", fmt.Errorf("find user: %w", err)
	}
	if u == nil || u.RefreshTokenHash == nil ||
		subtle.ConstantTimeCompare([]byte(*u.RefreshTokenHash), []byte(security.HashToken(refreshToken))) != 1 {
		metrics.AuthEvents.WithLabelValues("refresh", "mismatch").Inc()
		return "", ErrRefreshTokenNotMatch
	}

	access, err := s.tokens.IssueAccess(u.ID.Hex())
	if err != nil {
		return "", err
	}
	metrics.AuthEvents.WithLabelValues("refresh", "ok").Inc()
	return access, nil
}

// Me projects a user already resolved by the authentication middleware.
func (s *Service) Me(u *domain.User) domain.PublicUser {
	return u.Public()
}

// Logout is idempotent.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.store.ClearRefresh(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.emit(ctx, queue.KeyUserDeleted, queue.UserDeleted{UserID: userID})
	return nil
}

// UserPatch holds the editable profile fields; empty means unchanged.
type UserPatch struct {
	Name string
	Role domain.Role
}

// UpdateUser lets admins edit anyone (including role) and everyone else edit their
// own name. The role in patch is silently ignored for non-admins.
func (s *Service) UpdateUser(ctx context.Context, targetID string, patch UserPatch, actingID string, actingRole domain.Role) (domain.PublicUser, error) {
	admin := actingRole == domain.RoleAdmin
	if !admin && actingID != targetID {
		if _, err := s.store.FindUserByID(ctx, targetID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return domain.PublicUser{}, ErrUserNotFound
			}
			return domain.PublicUser{}, fmt.Errorf("find user: %w", err)
		}
		return domain.PublicUser{}, ErrNotAuthorized
	}

	var upd repo.ProfileUpdate
	if name := strings.TrimSpace(patch.Name); name != "" {
		upd.Name = &name
	}
	if admin && patch.Role != "" {
		if !patch.Role.Valid() {
			return domain.PublicUser{}, invalid("role must be user or admin")
		}
		role := patch.Role
		upd.Role = &role
	}

	u, err := s.store.UpdateProfile(ctx, targetID, upd)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.PublicUser{}, ErrUserNotFound
		}
		return domain.PublicUser{}, fmt.Errorf("update user: %w", err)
	}
	return u.Public(), nil
}

// ListUsers is restricted to admins.
func (s *Service) ListUsers(ctx context.Context, actingRole domain.Role) ([]domain.PublicUser, error) {
	if actingRole != domain.RoleAdmin {
		return nil, ErrNotAuthorized
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// emit publishes a domain event without holding up the request.
func (s *Service) emit(ctx context.Context, key string, event any) {
	reqID := helper.RequestID(ctx)
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.events.Publish(ctx, s.exchange, key, event, reqID); err != nil {
			log.Ctx(ctx).Warn("publish event", zap.String("key", key), zap.Error(err))
		}
	}()
}
