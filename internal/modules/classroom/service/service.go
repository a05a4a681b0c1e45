package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/modules/classroom/dto"
	classRepo "anoa.com/tutorhub/internal/modules/classroom/repository"
	notifDto "anoa.com/tutorhub/internal/modules/notification/dto"
	notifService "anoa.com/tutorhub/internal/modules/notification/service"
	userRepo "anoa.com/tutorhub/internal/modules/user/repository"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/google/uuid"
)

type ClassService interface {
	CreateClass(ctx context.Context, tutorID uuid.UUID, input dto.CreateClassInput) (*entity.Class, error)
	ListClasses(ctx context.Context, tutorID uuid.UUID) ([]dto.ClassSummary, error)
	ListLearnerClasses(ctx context.Context, learnerID uuid.UUID) ([]entity.Class, error)
	Enroll(ctx context.Context, tutorID, classID uuid.UUID, input dto.EnrollInput) (*entity.ClassEnrollment, error)
	Unenroll(ctx context.Context, tutorID, classID, userID uuid.UUID) error
	Students(ctx context.Context, tutorID, classID uuid.UUID) ([]dto.StudentResponse, error)
}

type classService struct {
	repo          classRepo.ClassRepository
	users         userRepo.UserRepository
	notifications notifService.NotificationService
	log           *logger.Logger
}

func NewClassService(repo classRepo.ClassRepository, users userRepo.UserRepository, notifications notifService.NotificationService, log *logger.Logger) ClassService {
	return &classService{
		repo:          repo,
		users:         users,
		notifications: notifications,
		log:           log,
	}
}

func (s *classService) CreateClass(ctx context.Context, tutorID uuid.UUID, input dto.CreateClassInput) (*entity.Class, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Subject = strings.TrimSpace(input.Subject)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	if err := s.requireRole(ctx, tutorID, entity.RoleTutor); err != nil {
		return nil, err
	}

	class := &entity.Class{
		Title:     input.Title,
		Subject:   input.Subject,
		YearGroup: input.YearGroup,
		TutorID:   tutorID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, apperror.Storage(err)
	}

	s.log.Info("class created", "class_id", class.ID, "tutor_id", tutorID)
	return class, nil
}

func (s *classService) ListClasses(ctx context.Context, tutorID uuid.UUID) ([]dto.ClassSummary, error) {
	classes, err := s.repo.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return classes, nil
}

func (s *classService) ListLearnerClasses(ctx context.Context, learnerID uuid.UUID) ([]entity.Class, error) {
	classes, err := s.repo.ListForLearner(ctx, learnerID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return classes, nil
}

func (s *classService) Enroll(ctx context.Context, tutorID, classID uuid.UUID, input dto.EnrollInput) (*entity.ClassEnrollment, error) {
	input.Email = validator.NormalizeEmail(input.Email)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" && input.Email == "" {
		return nil, apperror.Invalid("email", "Provide the learner's email or user id")
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	class, err := s.ownedClass(ctx, tutorID, classID)
	if err != nil {
		return nil, err
	}

	learner, err := s.findTarget(ctx, input)
	if err != nil {
		return nil, err
	}
	if learner.RoleName() != entity.RoleLearner {
		return nil, apperror.Invalid("user_id", "Only learners can be enrolled in a class")
	}

	enrollment, err := s.repo.Enroll(ctx, class.ID, learner.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.ErrAlreadyEnrolled
		}
		return nil, apperror.Storage(err)
	}

	s.log.Info("learner enrolled", "class_id", class.ID, "user_id", learner.ID)

	classID = class.ID
	s.notifications.Notify(ctx, notifDto.Event{
		UserID:     learner.ID,
		Type:       entity.NotificationEnrolled,
		Message:    fmt.Sprintf("You have been enrolled in %s", class.Title),
		EntityType: "class",
		EntityID:   &classID,
	})
	return enrollment, nil
}

func (s *classService) Unenroll(ctx context.Context, tutorID, classID, userID uuid.UUID) error {
	if _, err := s.ownedClass(ctx, tutorID, classID); err != nil {
		return err
	}

	removed, err := s.repo.Unenroll(ctx, classID, userID)
	if err != nil {
		return apperror.Storage(err)
	}
	if !removed {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *classService) Students(ctx context.Context, tutorID, classID uuid.UUID) ([]dto.StudentResponse, error) {
	if _, err := s.ownedClass(ctx, tutorID, classID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Students(ctx, classID)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	students := make([]dto.StudentResponse, 0, len(rows))
	for _, row := range rows {
		if row.User == nil {
			continue
		}
		students = append(students, dto.StudentResponse{
			ID:         row.User.ID,
			FullName:   row.User.FullName,
			Email:      row.User.Email,
			EnrolledAt: row.EnrolledAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return students, nil
}

func (s *classService) ownedClass(ctx context.Context, tutorID, classID uuid.UUID) (*entity.Class, error) {
	class, err := s.repo.FindOwned(ctx, tutorID, classID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}
	return class, nil
}

func (s *classService) findTarget(ctx context.Context, input dto.EnrollInput) (*entity.User, error) {
	var (
		user *entity.User
		err  error
	)
	if input.UserID != "" {
		user, err = s.users.FindByID(ctx, uuid.MustParse(input.UserID))
	} else {
		user, err = s.users.FindByEmail(ctx, input.Email)
	}
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}
	return user, nil
}

func (s *classService) requireRole(ctx context.Context, userID uuid.UUID, role string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return apperror.ErrUnauthorized
		}
		return apperror.Storage(err)
	}
	if user.RoleName() != role {
		return apperror.ErrForbidden
	}
	return nil
}
