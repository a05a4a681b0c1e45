package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/tutorhub/internal/entity"
	assignmentRepo "anoa.com/tutorhub/internal/modules/assignment/repository"
	classRepo "anoa.com/tutorhub/internal/modules/classroom/repository"
	notifDto "anoa.com/tutorhub/internal/modules/notification/dto"
	notifService "anoa.com/tutorhub/internal/modules/notification/service"
	"anoa.com/tutorhub/internal/modules/submission/dto"
	submissionRepo "anoa.com/tutorhub/internal/modules/submission/repository"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type SubmissionService interface {
	Submit(ctx context.Context, learnerID, assignmentID uuid.UUID, input dto.SubmitInput) (*entity.Submission, error)
	Grade(ctx context.Context, tutorID, submissionID uuid.UUID, input dto.GradeInput) (*dto.GradeResult, error)
	ListForAssignment(ctx context.Context, tutorID, assignmentID uuid.UUID) ([]entity.Submission, error)
	ListMine(ctx context.Context, learnerID uuid.UUID) ([]entity.Submission, error)
}

type submissionService struct {
	repo          submissionRepo.SubmissionRepository
	assignments   assignmentRepo.AssignmentRepository
	classes       classRepo.ClassRepository
	notifications notifService.NotificationService
	sanitizer     *bluemonday.Policy
	log           *logger.Logger
	now           func() time.Time
}

func NewSubmissionService(
	repo submissionRepo.SubmissionRepository,
	assignments assignmentRepo.AssignmentRepository,
	classes classRepo.ClassRepository,
	notifications notifService.NotificationService,
	log *logger.Logger,
) SubmissionService {
	return &submissionService{
		repo:          repo,
		assignments:   assignments,
		classes:       classes,
		notifications: notifications,
		sanitizer:     bluemonday.StrictPolicy(),
		log:           log,
		now:           time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, learnerID, assignmentID uuid.UUID, input dto.SubmitInput) (*entity.Submission, error) {
	input.Note = strings.TrimSpace(s.sanitizer.Sanitize(input.Note))
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}

	enrolled, err := s.classes.IsEnrolled(ctx, assignment.ClassID, learnerID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if !enrolled {
		return nil, apperror.ErrForbidden
	}

	submission := &entity.Submission{
		AssignmentID: assignment.ID,
		UserID:       learnerID,
		Note:         input.Note,
		Status:       entity.SubmissionSubmitted,
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, apperror.Storage(err)
	}

	s.log.Info("assignment submitted", "submission_id", submission.ID, "assignment_id", assignment.ID, "user_id", learnerID)
	return submission, nil
}

func (s *submissionService) Grade(ctx context.Context, tutorID, submissionID uuid.UUID, input dto.GradeInput) (*dto.GradeResult, error) {
	input.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(input.Feedback))
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	submission, granted, err := s.repo.Grade(ctx, tutorID, submissionID, *input.Score, input.Feedback, s.now().UTC())
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}

	s.log.Info("submission graded", "submission_id", submission.ID, "score", *input.Score, "rewards", len(granted))

	title := "your assignment"
	if submission.Assignment != nil {
		title = submission.Assignment.Title
	}
	subID := submission.ID
	events := []notifDto.Event{{
		UserID:     submission.UserID,
		Type:       entity.NotificationGraded,
		Message:    fmt.Sprintf("%s was graded: %.0f/100", title, *input.Score),
		EntityType: "submission",
		EntityID:   &subID,
	}}
	for _, reward := range granted {
		rewardID := reward.ID
		events = append(events, notifDto.Event{
			UserID:     submission.UserID,
			Type:       entity.NotificationRewardEarned,
			Message:    fmt.Sprintf("You earned the %s reward", reward.Title),
			EntityType: "reward",
			EntityID:   &rewardID,
		})
	}
	s.notifications.Notify(ctx, events...)

	if granted == nil {
		granted = []entity.Reward{}
	}
	return &dto.GradeResult{Submission: submission, RewardsEarned: granted}, nil
}

func (s *submissionService) ListForAssignment(ctx context.Context, tutorID, assignmentID uuid.UUID) ([]entity.Submission, error) {
	if _, err := s.assignments.FindOwned(ctx, tutorID, assignmentID); err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.Storage(err)
	}

	rows, err := s.repo.ListForAssignment(ctx, assignmentID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return rows, nil
}

func (s *submissionService) ListMine(ctx context.Context, learnerID uuid.UUID) ([]entity.Submission, error) {
	rows, err := s.repo.ListByUser(ctx, learnerID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return rows, nil
}
