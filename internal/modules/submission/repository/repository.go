package repository

import (
	"context"
	"time"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	rewardRepo "anoa.com/tutorhub/internal/modules/reward/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubmissionRepository interface {
	// Create stores the submission and counts the attempt in one transaction.
	Create(ctx context.Context, submission *entity.Submission) error
	// Grade scores a submission on one of tutorID's assignments, raises the
	// learner's best score and grants newly reached rewards, all in one
	// transaction. gorm.ErrRecordNotFound means no such submission for tutorID.
	Grade(ctx context.Context, tutorID, id uuid.UUID, score float64, feedback string, at time.Time) (*entity.Submission, []entity.Reward, error)
	ListForAssignment(ctx context.Context, assignmentID uuid.UUID) ([]entity.Submission, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Submission, error)
}

type submissionRepository struct {
	db       *gorm.DB
	activity activityRepo.ActivityRepository
	rewards  rewardRepo.RewardRepository
}

func NewSubmissionRepository(db *gorm.DB, activity activityRepo.ActivityRepository, rewards rewardRepo.RewardRepository) SubmissionRepository {
	return &submissionRepository{db: db, activity: activity, rewards: rewards}
}

func (r *submissionRepository) Create(ctx context.Context, submission *entity.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Assignment", "User").Create(submission).Error; err != nil {
			return err
		}

		at := submission.SubmittedAt
		progress := &entity.Progress{UserID: submission.UserID, Attempts: 1, LastAttempted: &at}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"attempts":       gorm.Expr("progress.attempts + 1"),
				"last_attempted": at,
			}),
		}).Omit("User").Create(progress).Error
		if err != nil {
			return err
		}

		return r.activity.Log(ctx, tx, submission.UserID, activityRepo.ActionSubmitted)
	})
}

func (r *submissionRepository) Grade(ctx context.Context, tutorID, id uuid.UUID, score float64, feedback string, at time.Time) (*entity.Submission, []entity.Reward, error) {
	var (
		submission entity.Submission
		granted    []entity.Reward
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
			Joins("JOIN classes ON classes.id = assignments.class_id").
			Where("submissions.id = ? AND classes.tutor_id = ?", id, tutorID).
			Preload("Assignment").
			First(&submission).Error
		if err != nil {
			return err
		}

		submission.Status = entity.SubmissionGraded
		submission.Score = &score
		submission.Feedback = feedback
		submission.GradedAt = &at
		err = tx.Model(&entity.Submission{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":    submission.Status,
			"score":     score,
			"feedback":  feedback,
			"graded_at": at,
		}).Error
		if err != nil {
			return err
		}

		progress := &entity.Progress{UserID: submission.UserID, BestScore: &score}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"best_score": gorm.Expr("CASE WHEN progress.best_score IS NULL OR progress.best_score < ? THEN ? ELSE progress.best_score END", score, score),
			}),
		}).Omit("User").Create(progress).Error
		if err != nil {
			return err
		}

		points, err := r.rewards.Points(ctx, tx, submission.UserID)
		if err != nil {
			return err
		}
		if granted, err = r.rewards.GrantEligible(ctx, tx, submission.UserID, points); err != nil {
			return err
		}

		return r.activity.Log(ctx, tx, submission.UserID, activityRepo.ActionGraded)
	})
	if err != nil {
		return nil, nil, err
	}
	return &submission, granted, nil
}

func (r *submissionRepository) ListForAssignment(ctx context.Context, assignmentID uuid.UUID) ([]entity.Submission, error) {
	var rows []entity.Submission
	err := r.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "email")
		}).
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Submission, error) {
	var rows []entity.Submission
	err := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Assignment.Class").
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&rows).Error
	return rows, err
}
