package repository

import (
	"context"
	"time"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	"anoa.com/tutorhub/internal/modules/classroom/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassRepository interface {
	Create(ctx context.Context, class *entity.Class) error
	FindOwned(ctx context.Context, tutorID, classID uuid.UUID) (*entity.Class, error)
	ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]dto.ClassSummary, error)
	ListForLearner(ctx context.Context, userID uuid.UUID) ([]entity.Class, error)
	Enroll(ctx context.Context, classID, userID uuid.UUID) (*entity.ClassEnrollment, error)
	Unenroll(ctx context.Context, classID, userID uuid.UUID) (bool, error)
	IsEnrolled(ctx context.Context, classID, userID uuid.UUID) (bool, error)
	Students(ctx context.Context, classID uuid.UUID) ([]entity.ClassEnrollment, error)
}

type classRepository struct {
	db       *gorm.DB
	activity activityRepo.ActivityRepository
}

func NewClassRepository(db *gorm.DB, activity activityRepo.ActivityRepository) ClassRepository {
	return &classRepository{db: db, activity: activity}
}

func (r *classRepository) Create(ctx context.Context, class *entity.Class) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tutor").Create(class).Error; err != nil {
			return err
		}
		return r.activity.Log(ctx, tx, class.TutorID, activityRepo.ActionClassCreated)
	})
}

func (r *classRepository) FindOwned(ctx context.Context, tutorID, classID uuid.UUID) (*entity.Class, error) {
	var class entity.Class
	err := r.db.WithContext(ctx).
		Where("id = ? AND tutor_id = ?", classID, tutorID).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]dto.ClassSummary, error) {
	var summaries []dto.ClassSummary
	err := r.db.WithContext(ctx).
		Model(&entity.Class{}).
		Select("classes.*, COUNT(class_enrollments.user_id) AS student_count").
		Joins("LEFT JOIN class_enrollments ON class_enrollments.class_id = classes.id").
		Where("classes.tutor_id = ?", tutorID).
		Group("classes.id").
		Order("classes.created_at DESC").
		Scan(&summaries).Error
	return summaries, err
}

func (r *classRepository) ListForLearner(ctx context.Context, userID uuid.UUID) ([]entity.Class, error) {
	var classes []entity.Class
	err := r.db.WithContext(ctx).
		Preload("Tutor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "email")
		}).
		Joins("JOIN class_enrollments ON class_enrollments.class_id = classes.id").
		Where("class_enrollments.user_id = ?", userID).
		Order("classes.title ASC").
		Find(&classes).Error
	return classes, err
}

// Enroll inserts the enrollment row. A repeated pair surfaces as the
// composite key violation from the store.
func (r *classRepository) Enroll(ctx context.Context, classID, userID uuid.UUID) (*entity.ClassEnrollment, error) {
	enrollment := &entity.ClassEnrollment{ClassID: classID, UserID: userID, EnrolledAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}
		return r.activity.Log(ctx, tx, userID, activityRepo.ActionEnrolled)
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (r *classRepository) Unenroll(ctx context.Context, classID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Delete(&entity.ClassEnrollment{})
	return res.RowsAffected > 0, res.Error
}

func (r *classRepository) IsEnrolled(ctx context.Context, classID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ClassEnrollment{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *classRepository) Students(ctx context.Context, classID uuid.UUID) ([]entity.ClassEnrollment, error) {
	var rows []entity.ClassEnrollment
	err := r.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "email")
		}).
		Where("class_id = ?", classID).
		Order("enrolled_at ASC").
		Find(&rows).Error
	return rows, err
}
