package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/models"
	"github.com/mkovtun/study-tracker/internal/repository"
	"github.com/mkovtun/study-tracker/pkg/hash"
	"github.com/mkovtun/study-tracker/pkg/jwt"
	"github.com/mkovtun/study-tracker/pkg/validation"
)

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPairResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPairResponse, error)
	Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenPairResponse, error)
	Logout(ctx context.Context, sessionID string) error
	RevokeAll(ctx context.Context, userID string) error
	ValidateSession(ctx context.Context, sessionID string) error
}

// SessionStore is the session backend; repository.SessionStorage is the
// Redis implementation.
type SessionStore interface {
	Set(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

type authService struct {
	userRepo     repository.UserRepository
	sessions     SessionStore
	tokenManager *jwt.TokenManager
	refreshTTL   time.Duration
	logger       zerolog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessions SessionStore,
	tokenManager *jwt.TokenManager,
	refreshTTL time.Duration,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		sessions:     sessions,
		tokenManager: tokenManager,
		refreshTTL:   refreshTTL,
		logger:       logger,
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenPairResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	passwordHash, err := hash.Password(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Role:         models.RoleStudent,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("Student registered")

	return s.issueTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPairResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := hash.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, hash.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("User logged in")

	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenPairResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	claims, err := s.tokenManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, ErrSessionExpired
	}

	if _, err := s.sessions.Get(ctx, claims.SessionID.String()); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionExpired
	}

	// Rotate: the old session is revoked before new tokens are issued.
	if err := s.sessions.Delete(ctx, claims.SessionID.String()); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// RevokeAll drops every session of a user. Used when the user's role
// changes, since outstanding tokens still carry the old role claim.
func (s *authService) RevokeAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Msg("All sessions revoked")
	return nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionID string) error {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionExpired
		}
		return err
	}
	return nil
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*models.TokenPairResponse, error) {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	sessionID := uuid.New()
	now := time.Now().UTC()

	session := &models.Session{
		ID:        sessionID.String(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, err
	}

	accessToken, accessExpiry, err := s.tokenManager.GenerateAccessToken(userID, sessionID, string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExpiry, err := s.tokenManager.GenerateRefreshToken(userID, sessionID, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &models.TokenPairResponse{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  accessExpiry,
		RefreshTokenExpiresAt: refreshExpiry,
		User:                  user,
	}, nil
}
