package service

import (
	"context"
	"strings"
	"time"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/modules/assignment/dto"
	assignmentRepo "anoa.com/tutorhub/internal/modules/assignment/repository"
	classRepo "anoa.com/tutorhub/internal/modules/classroom/repository"
	resourceRepo "anoa.com/tutorhub/internal/modules/resource/repository"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate accepts RFC3339, an HTML datetime-local value or a plain
// date. Values without a zone are taken as UTC. An empty string means no
// due date.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperror.Invalid("due_date", "Due date must be a date (2006-01-02) or date and time (2006-01-02T15:04)")
}

type AssignmentService interface {
	CreateAssignment(ctx context.Context, tutorID uuid.UUID, input dto.CreateAssignmentInput) (*entity.Assignment, error)
	DeleteAssignment(ctx context.Context, tutorID, id uuid.UUID) error
	ListAssignments(ctx context.Context, tutorID uuid.UUID) (*dto.AssignmentsPage, error)
}

type assignmentService struct {
	repo      assignmentRepo.AssignmentRepository
	classes   classRepo.ClassRepository
	resources resourceRepo.ResourceRepository
	sanitizer *bluemonday.Policy
	log       *logger.Logger
}

func NewAssignmentService(repo assignmentRepo.AssignmentRepository, classes classRepo.ClassRepository, resources resourceRepo.ResourceRepository, log *logger.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		classes:   classes,
		resources: resources,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
}

func (s *assignmentService) CreateAssignment(ctx context.Context, tutorID uuid.UUID, input dto.CreateAssignmentInput) (*entity.Assignment, error) {
	input.Title = strings.TrimSpace(s.sanitizer.Sanitize(input.Title))
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	due, err := ParseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	classID := uuid.MustParse(input.ClassID)
	resourceID := uuid.MustParse(input.ResourceID)

	if _, err := s.classes.FindOwned(ctx, tutorID, classID); err != nil {
		return nil, notFoundOrStorage(err)
	}
	if _, err := s.resources.FindOwned(ctx, tutorID, resourceID); err != nil {
		return nil, notFoundOrStorage(err)
	}

	assignment := &entity.Assignment{
		ClassID:    classID,
		ResourceID: resourceID,
		Title:      input.Title,
		DueDate:    due,
	}
	if err := s.repo.Create(ctx, assignment, tutorID); err != nil {
		return nil, apperror.Storage(err)
	}

	s.log.Info("assignment created", "assignment_id", assignment.ID, "class_id", classID)
	return assignment, nil
}

func (s *assignmentService) DeleteAssignment(ctx context.Context, tutorID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, tutorID, id)
	if err != nil {
		return apperror.Storage(err)
	}
	if !deleted {
		return apperror.ErrNotFound
	}
	s.log.Info("assignment deleted", "assignment_id", id, "tutor_id", tutorID)
	return nil
}

func (s *assignmentService) ListAssignments(ctx context.Context, tutorID uuid.UUID) (*dto.AssignmentsPage, error) {
	assignments, err := s.repo.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	classes, err := s.classes.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	resources, err := s.resources.ListByOwner(ctx, tutorID)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	return &dto.AssignmentsPage{
		Assignments: assignments,
		Classes:     classes,
		Resources:   resources,
	}, nil
}

func notFoundOrStorage(err error) error {
	if database.IsNotFound(err) {
		return apperror.ErrNotFound
	}
	return apperror.Storage(err)
}
