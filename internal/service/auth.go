package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/auth_service/internal/audit"
	"github.com/Skotchmaster/auth_service/internal/events"
	jwthelp "github.com/Skotchmaster/auth_service/internal/jwt"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	pkg_hash "github.com/Skotchmaster/auth_service/pkg/hash"
	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/pkg/tokens"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type RefreshStore interface {
	PersistRefreshToken(ctx context.Context, userID uint, ttl time.Duration) (*models.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, userID uint, ttl time.Duration) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id uint) error
}

type AuthService struct {
	Users  UserStore
	Tokens RefreshStore
	Issuer jwthelp.Issuer
	Events events.Publisher
	Audit  audit.Recorder
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Session is the token pair handed back to the client as cookies.
type Session struct {
	UserID       uint
	Role         string
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// dummyHash keeps the unknown-email path as slow as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, _ := pkg_hash.HashPassword("auth-service-timing-equaliser")
	return h
})

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrValidation
	}

	switch _, err := s.Users.GetUserByEmail(ctx, email); {
	case err == nil:
		l.Warn("register_error", "status", 400, "reason", "email already exists")
		return nil, ErrEmailTaken
	case !errors.Is(err, repo.ErrNotFound):
		l.Error("register_error", "status", 500, "reason", "cannot look up email", "error", err)
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Password:  pwHash,
		Role:      models.RoleCustomer,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_error", "status", 400, "reason", "email taken concurrently")
			return nil, ErrEmailTaken
		}
		l.Error("register_error", "status", 500, "reason", "cannot store user", "error", err)
		return nil, err
	}
	l.Info("user_registered", "user_id", user.ID)

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	s.publish(ctx, events.TypeUserRegistered, user)
	return sess, nil
}

// Login answers an unknown email and a wrong password with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			l.Error("login_failed", "status", 500, "error", err)
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		pkg_hash.CheckPassword(dummyHash(), password)
		metrics.LoginFailures.Inc()
		l.Warn("login_failed", "status", 400, "reason", "email or password does not match")
		return nil, ErrInvalidCredentials
	}

	if !pkg_hash.CheckPassword(user.Password, password) {
		metrics.LoginFailures.Inc()
		l.Warn("login_failed", "status", 400, "reason", "email or password does not match")
		return nil, ErrInvalidCredentials
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}
	l.Info("login_successful", "user_id", user.ID)

	s.publish(ctx, events.TypeUserLoggedIn, user)
	return sess, nil
}

// Refresh expects claims already verified by the refresh gate. The presented token is
// rotated: a successor row is stored and the old row deleted in one transaction.
func (s *AuthService) Refresh(ctx context.Context, claims *tokens.RefreshClaims) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	tokenID, err := claims.TokenID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 400, "reason", "user not found", "user_id", userID)
			return nil, ErrUserNotFound
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	access, err := s.Issuer.AccessToken(user.ID, user.Role)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, err
	}

	record, err := s.Tokens.RotateRefreshToken(ctx, tokenID, user.ID, s.Issuer.RefreshTTL())
	if err != nil {
		if errors.Is(err, repo.ErrRefreshTokenNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "token already rotated", "token_id", tokenID)
			return nil, ErrInvalidRefreshToken
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot rotate refresh token", "error", err)
		return nil, err
	}

	refresh, err := s.Issuer.RefreshToken(user.ID, user.Role, record.ID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign refresh token", "error", err)
		return nil, err
	}
	metrics.TokensIssued.WithLabelValues(metrics.TokenAccess).Inc()
	metrics.TokensIssued.WithLabelValues(metrics.TokenRefresh).Inc()

	s.recordRevocation(ctx, tokenID, user.ID, audit.ReasonRotation)
	l.Info("refresh_successful", "user_id", user.ID)

	return &Session{
		UserID:       user.ID,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    s.Issuer.AccessTTL(),
		RefreshTTL:   s.Issuer.RefreshTTL(),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, claims *tokens.RefreshClaims) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	tokenID, err := claims.TokenID()
	if err != nil {
		return ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return ErrInvalidRefreshToken
	}

	if err := s.Tokens.RevokeRefreshToken(ctx, tokenID); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return err
	}
	s.recordRevocation(ctx, tokenID, userID, audit.ReasonLogout)
	s.publish(ctx, events.TypeUserLoggedOut, &models.User{ID: userID, Role: claims.Role})

	l.Info("successful_logout", "user_id", userID)
	return nil
}

func (s *AuthService) Self(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// issueSession signs the access token, then persists the refresh row so its id can be
// embedded in the refresh token.
func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	access, err := s.Issuer.AccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	metrics.TokensIssued.WithLabelValues(metrics.TokenAccess).Inc()

	record, err := s.Tokens.PersistRefreshToken(ctx, user.ID, s.Issuer.RefreshTTL())
	if err != nil {
		return nil, err
	}

	refresh, err := s.Issuer.RefreshToken(user.ID, user.Role, record.ID)
	if err != nil {
		return nil, err
	}
	metrics.TokensIssued.WithLabelValues(metrics.TokenRefresh).Inc()

	return &Session{
		UserID:       user.ID,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    s.Issuer.AccessTTL(),
		RefreshTTL:   s.Issuer.RefreshTTL(),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, typ string, user *models.User) {
	if s.Events == nil {
		return
	}
	ev := events.Event{Type: typ, UserID: user.ID, Role: user.Role, OccurredAt: time.Now().UTC()}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "error", err)
	}
}

func (s *AuthService) recordRevocation(ctx context.Context, tokenID, userID uint, reason string) {
	if s.Audit == nil {
		return
	}
	rev := audit.Revocation{TokenID: tokenID, UserID: userID, Reason: reason, RevokedAt: time.Now().UTC()}
	if err := s.Audit.RecordRevocation(ctx, rev); err != nil {
		logging.FromContext(ctx).Warn("audit_record_failed", "token_id", tokenID, "reason", reason, "error", err)
	}
}
