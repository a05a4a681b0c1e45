package service

import (
	"context"
	"strings"
	"time"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/modules/user/dto"
	"anoa.com/tutorhub/internal/modules/user/repository"
	"anoa.com/tutorhub/internal/session"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const dateLayout = "2006-01-02"

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*entity.User, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	// Resume exchanges a valid remember token for a fresh session token.
	Resume(ctx context.Context, rememberToken string) (*dto.AuthResponse, error)
	// CurrentUser loads the account a verified token was issued for.
	CurrentUser(ctx context.Context, subject string) (*entity.User, error)
}

type authService struct {
	repo     repository.UserRepository
	sessions *session.Manager
	log      *logger.Logger
	hashCost int
	now      func() time.Time
}

func NewAuthService(repo repository.UserRepository, sessions *session.Manager, log *logger.Logger) AuthService {
	return &authService{
		repo:     repo,
		sessions: sessions,
		log:      log,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*entity.User, error) {
	input.Email = validator.NormalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	if input.Role == entity.RoleGuardian {
		return nil, apperror.Invalid("role", "guardian accounts are not supported yet")
	}

	dob, err := time.Parse(dateLayout, input.DateOfBirth)
	if err != nil {
		return nil, apperror.Invalid("date_of_birth", "Date of birth must be a date in the form 2006-01-02")
	}
	if !dob.Before(s.now().UTC().Truncate(24 * time.Hour)) {
		return nil, apperror.Invalid("date_of_birth", "Date of birth must be in the past")
	}

	role, err := s.repo.FindRoleByName(ctx, input.Role)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.Invalid("role", "Role must be one of: learner tutor")
		}
		return nil, apperror.Storage(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	user := &entity.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     validator.NormalizeName(input.FullName),
		DateOfBirth:  dob,
		RoleID:       role.ID,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.ErrDuplicateEmail
		}
		return nil, apperror.Storage(err)
	}

	user.Role = role
	s.log.Info("user registered", "user_id", user.ID, "role", role.Name)
	return user, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, validator.NormalizeEmail(input.Email))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Storage(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, apperror.Storage(err)
	}
	user.LastLogin = &now

	res, err := s.buildAuthResponse(user)
	if err != nil {
		return nil, err
	}

	if input.Remember {
		remember, _, err := s.sessions.Issue(user.ID, user.RoleName(), session.KindRemember)
		if err != nil {
			return nil, apperror.Storage(err)
		}
		res.RememberToken = remember
	}
	return res, nil
}

func (s *authService) Resume(ctx context.Context, rememberToken string) (*dto.AuthResponse, error) {
	claims, err := s.sessions.Parse(rememberToken, session.KindRemember)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}

	user, err := s.findBySubject(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return s.buildAuthResponse(user)
}

func (s *authService) CurrentUser(ctx context.Context, subject string) (*entity.User, error) {
	return s.findBySubject(ctx, subject)
}

func (s *authService) findBySubject(ctx context.Context, subject string) (*entity.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, apperror.Storage(err)
	}
	return user, nil
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.sessions.Issue(user.ID, user.RoleName(), session.KindSession)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt.Unix(),
		User:        user,
		Role:        user.Role,
	}, nil
}
