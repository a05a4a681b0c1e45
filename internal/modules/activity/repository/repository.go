package repository

import (
	"context"

	"anoa.com/tutorhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actions written to the activity log.
const (
	ActionRegistered        = "registered"
	ActionLogin             = "login"
	ActionPasswordChanged   = "password_changed"
	ActionProfileUpdated    = "profile_updated"
	ActionClassCreated      = "class_created"
	ActionEnrolled          = "enrolled"
	ActionAssignmentCreated = "assignment_created"
	ActionAssignmentDeleted = "assignment_deleted"
	ActionSubmitted         = "submitted"
	ActionGraded            = "graded"
	ActionRewardEarned      = "reward_earned"
	ActionResourceAdded     = "resource_added"
)

// ActivityRepository appends to and reads the activity log. Methods taking a
// tx write through it when non-nil so that the entry commits together with
// the change it describes.
type ActivityRepository interface {
	Log(ctx context.Context, tx *gorm.DB, userID uuid.UUID, action string) error
	RecentForUsers(ctx context.Context, tx *gorm.DB, userIDs *gorm.DB, limit int) ([]entity.ActivityLog, error)
	RecentForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]entity.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *activityRepository) Log(ctx context.Context, tx *gorm.DB, userID uuid.UUID, action string) error {
	return r.conn(ctx, tx).Create(&entity.ActivityLog{UserID: userID, Action: action}).Error
}

// RecentForUsers returns the newest entries of the users selected by the
// userIDs subquery.
func (r *activityRepository) RecentForUsers(ctx context.Context, tx *gorm.DB, userIDs *gorm.DB, limit int) ([]entity.ActivityLog, error) {
	var logs []entity.ActivityLog
	err := r.conn(ctx, tx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "email")
		}).
		Where("user_id IN (?)", userIDs).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *activityRepository) RecentForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]entity.ActivityLog, error) {
	var logs []entity.ActivityLog
	err := r.conn(ctx, tx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
