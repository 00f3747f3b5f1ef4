package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkovtun/study-tracker/internal/models"
	"github.com/mkovtun/study-tracker/internal/repository"
	"github.com/mkovtun/study-tracker/internal/service/reporting"
	"github.com/mkovtun/study-tracker/pkg/hash"
	"github.com/mkovtun/study-tracker/pkg/validation"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	UploadPhoto(ctx context.Context, userID string, file io.Reader, size int64, contentType string) (string, error)
	DownloadPhoto(ctx context.Context, userID string) (io.ReadCloser, string, error)
	ListStudents(ctx context.Context, search, sortBy string, page, limit int) ([]models.UserWithStats, int, error)
	ProvisionAccount(ctx context.Context, req *models.ProvisionAccountRequest) (*models.User, error)
	BootstrapAdmin(ctx context.Context, userID string) (*models.User, error)
}

type userService struct {
	userRepo     repository.UserRepository
	photos       *repository.PhotoStorage
	maxPhotoSize int64
	logger       zerolog.Logger
	now          func() time.Time
}

func NewUserService(userRepo repository.UserRepository, photos *repository.PhotoStorage, maxPhotoSize int64, logger zerolog.Logger) UserService {
	return &userService{
		userRepo:     userRepo,
		photos:       photos,
		maxPhotoSize: maxPhotoSize,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Bio = strings.TrimSpace(req.Bio)
	user.UpdatedAt = s.now().UTC()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

func (s *userService) UploadPhoto(ctx context.Context, userID string, file io.Reader, size int64, contentType string) (string, error) {
	if size <= 0 {
		return "", ErrNoPhoto
	}
	if size > s.maxPhotoSize {
		return "", ErrPhotoTooBig
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrInvalidPhoto
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	key := path.Join("users", userID, uuid.New().String())
	if err := s.photos.Upload(ctx, key, file, size, contentType); err != nil {
		return "", err
	}

	if err := s.userRepo.UpdatePhotoKey(ctx, userID, key); err != nil {
		return "", fmt.Errorf("failed to store photo reference: %w", err)
	}

	// Drop the previous photo; a failure here only leaks an orphan object.
	if user.PhotoKey != "" {
		if err := s.photos.Delete(ctx, user.PhotoKey); err != nil {
			s.logger.Warn().Err(err).Str("key", user.PhotoKey).Msg("Failed to delete previous photo")
		}
	}

	return key, nil
}

func (s *userService) DownloadPhoto(ctx context.Context, userID string) (io.ReadCloser, string, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user.PhotoKey == "" {
		return nil, "", ErrNoPhoto
	}
	return s.photos.Download(ctx, user.PhotoKey)
}

func (s *userService) ListStudents(ctx context.Context, search, sortBy string, page, limit int) ([]models.UserWithStats, int, error) {
	page, limit = normalizePage(page, limit)
	offset := (page - 1) * limit

	today := reporting.StartOfDay(s.now())
	students, total, err := s.userRepo.GetStudentsWithStats(ctx, strings.TrimSpace(search), sortBy, today, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}

	return students, total, nil
}

// ProvisionAccount is the admin-initiated account creation. Token-based
// auth keeps the acting admin's session untouched: issuing the new
// credential never displaces anyone.
func (s *userService) ProvisionAccount(ctx context.Context, req *models.ProvisionAccountRequest) (*models.User, error) {
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

	role := models.RoleStudent
	if req.Role != "" {
		role = models.Role(req.Role)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
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
		Str("role", string(user.Role)).
		Msg("Account provisioned by admin")

	return user, nil
}

// BootstrapAdmin promotes the caller to ADMIN, but only while the system
// has no admin at all. This is the self-service recovery path for a fresh
// deployment.
func (s *userService) BootstrapAdmin(ctx context.Context, userID string) (*models.User, error) {
	admins, err := s.userRepo.CountAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count admins: %w", err)
	}
	if admins > 0 {
		return nil, ErrAdminExists
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRole(ctx, userID, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}
	user.Role = models.RoleAdmin

	s.logger.Warn().Str("user_id", userID).Msg("First admin bootstrapped")
	return user, nil
}
