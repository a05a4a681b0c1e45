package profile

import (
	"context"
	"strings"

	"anoa.com/tutorhub/internal/entity"
	profileDto "anoa.com/tutorhub/internal/modules/profile/dto"
	search "anoa.com/tutorhub/internal/modules/search/service"
	userRepo "anoa.com/tutorhub/internal/modules/user/repository"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/storage"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput) (*profileDto.ProfileResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input profileDto.ChangePasswordInput) error
	DeleteAccount(ctx context.Context, userID uuid.UUID, input profileDto.DeleteAccountInput) (*profileDto.DeleteAccountResult, error)
}

type profileService struct {
	repo     userRepo.UserRepository
	files    storage.FileStore
	index    search.ResourceIndex
	log      *logger.Logger
	hashCost int
}

// NewProfileService wires account management. index may be nil when search
// is not configured.
func NewProfileService(repo userRepo.UserRepository, files storage.FileStore, index search.ResourceIndex, log *logger.Logger) ProfileService {
	return &profileService{
		repo:     repo,
		files:    files,
		index:    index,
		log:      log,
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &profileDto.ProfileResponse{User: user, Role: user.RoleName()}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput) (*profileDto.ProfileResponse, error) {
	input.Email = validator.NormalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, userID, validator.NormalizeName(input.FullName), input.Email); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, apperror.ErrDuplicateEmail
		case database.IsNotFound(err):
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}

	return s.GetProfile(ctx, userID)
}

func (s *profileService) ChangePassword(ctx context.Context, userID uuid.UUID, input profileDto.ChangePasswordInput) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
		return apperror.ErrInvalidCredentials
	}
	if err := validator.Struct(input); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.hashCost)
	if err != nil {
		return apperror.Storage(err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *profileService) DeleteAccount(ctx context.Context, userID uuid.UUID, input profileDto.DeleteAccountInput) (*profileDto.DeleteAccountResult, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	resources, err := s.repo.Delete(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}

	result := &profileDto.DeleteAccountResult{RemovedResources: len(resources)}
	ids := make([]uuid.UUID, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.ID)
		if r.Type != entity.ResourceTypeFile || r.Path == nil || s.files == nil {
			continue
		}
		if err := s.files.Delete(ctx, *r.Path); err != nil {
			s.log.Warn("failed to remove stored file of deleted account", "resource_id", r.ID, "error", err)
			continue
		}
		result.RemovedFiles++
	}

	if s.index != nil && len(ids) > 0 {
		if err := s.index.DeleteResources(ctx, ids); err != nil {
			s.log.Warn("failed to remove deleted resources from search index", "user_id", userID, "error", err)
		}
	}

	s.log.Info("account deleted", "user_id", userID, "resources", len(resources))
	return result, nil
}

func (s *profileService) load(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}
	return user, nil
}
