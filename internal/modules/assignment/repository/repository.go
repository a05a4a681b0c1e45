package repository

import (
	"context"
	"errors"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *entity.Assignment, tutorID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error)
	FindOwned(ctx context.Context, tutorID, id uuid.UUID) (*entity.Assignment, error)
	ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]entity.Assignment, error)
	// Delete removes the assignment and its submissions. It reports false
	// when the assignment does not exist or belongs to another tutor.
	Delete(ctx context.Context, tutorID, id uuid.UUID) (bool, error)
}

type assignmentRepository struct {
	db       *gorm.DB
	activity activityRepo.ActivityRepository
}

func NewAssignmentRepository(db *gorm.DB, activity activityRepo.ActivityRepository) AssignmentRepository {
	return &assignmentRepository{db: db, activity: activity}
}

func ownedBy(db *gorm.DB, tutorID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN classes ON classes.id = assignments.class_id").
		Where("classes.tutor_id = ?", tutorID)
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *entity.Assignment, tutorID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Class", "Resource").Create(assignment).Error; err != nil {
			return err
		}
		return r.activity.Log(ctx, tx, tutorID, activityRepo.ActionAssignmentCreated)
	})
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	var assignment entity.Assignment
	err := r.db.WithContext(ctx).
		Preload("Class").
		First(&assignment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) FindOwned(ctx context.Context, tutorID, id uuid.UUID) (*entity.Assignment, error) {
	var assignment entity.Assignment
	err := ownedBy(r.db.WithContext(ctx), tutorID).
		Preload("Class").
		Where("assignments.id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]entity.Assignment, error) {
	var assignments []entity.Assignment
	err := ownedBy(r.db.WithContext(ctx), tutorID).
		Preload("Class").
		Preload("Resource").
		Order("assignments.created_at DESC").
		Order("assignments.id DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) Delete(ctx context.Context, tutorID, id uuid.UUID) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment entity.Assignment
		err := ownedBy(tx, tutorID).
			Where("assignments.id = ?", id).
			First(&assignment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("assignment_id = ?", id).Delete(&entity.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.Assignment{}, "id = ?", id).Error; err != nil {
			return err
		}
		deleted = true
		return r.activity.Log(ctx, tx, tutorID, activityRepo.ActionAssignmentDeleted)
	})
	return deleted, err
}
