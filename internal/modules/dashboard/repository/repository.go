package repository

import (
	"context"
	"time"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/modules/dashboard/dto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DashboardRepository holds the aggregation queries. Every method reads
// through the given tx so that callers can run them in one snapshot.
type DashboardRepository interface {
	CountClasses(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) (int64, error)
	CountDistinctStudents(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) (int64, error)
	CountAssignments(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) (int64, error)
	SubmissionRatios(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) ([]dto.SubmissionRatio, error)
	Leaderboard(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID, limit int) ([]dto.LeaderboardEntry, error)
	// StudentIDs is a subquery selecting the learners enrolled in the
	// tutor's classes.
	StudentIDs(tx *gorm.DB, tutorID uuid.UUID) *gorm.DB

	LearnerClasses(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]entity.Class, error)
	OpenAssignments(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, now time.Time) ([]entity.Assignment, error)
	Progress(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (*entity.Progress, error)
	GradedPoints(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, since *time.Time) (float64, error)
}

type dashboardRepository struct{}

func NewDashboardRepository() DashboardRepository {
	return &dashboardRepository{}
}

func (r *dashboardRepository) CountClasses(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&entity.Class{}).Where("tutor_id = ?", tutorID).Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountDistinctStudents(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).
		Table("class_enrollments").
		Joins("JOIN classes ON classes.id = class_enrollments.class_id").
		Where("classes.tutor_id = ?", tutorID).
		Distinct("class_enrollments.user_id").
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountAssignments(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) (int64, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&entity.Assignment{}).
		Joins("JOIN classes ON classes.id = assignments.class_id").
		Where("classes.tutor_id = ?", tutorID).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) SubmissionRatios(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID) ([]dto.SubmissionRatio, error) {
	var rows []dto.SubmissionRatio
	err := tx.WithContext(ctx).Raw(`
		SELECT a.id AS assignment_id,
		       a.title AS title,
		       c.title AS class_title,
		       (SELECT COUNT(DISTINCT s.user_id) FROM submissions s WHERE s.assignment_id = a.id) AS submitted,
		       (SELECT COUNT(*) FROM class_enrollments ce WHERE ce.class_id = a.class_id) AS class_size
		FROM assignments a
		JOIN classes c ON c.id = a.class_id
		WHERE c.tutor_id = ?
		ORDER BY a.created_at DESC, a.id DESC`, tutorID).
		Scan(&rows).Error
	return rows, err
}

func (r *dashboardRepository) Leaderboard(ctx context.Context, tx *gorm.DB, tutorID uuid.UUID, limit int) ([]dto.LeaderboardEntry, error) {
	var rows []dto.LeaderboardEntry
	err := tx.WithContext(ctx).Raw(`
		SELECT u.id AS user_id,
		       u.full_name AS full_name,
		       COALESCE(SUM(s.score), 0) AS points,
		       COUNT(s.id) AS graded
		FROM submissions s
		JOIN assignments a ON a.id = s.assignment_id
		JOIN classes c ON c.id = a.class_id
		JOIN users u ON u.id = s.user_id
		WHERE c.tutor_id = ? AND s.status = ?
		GROUP BY u.id, u.full_name
		ORDER BY points DESC, u.full_name ASC
		LIMIT ?`, tutorID, entity.SubmissionGraded, limit).
		Scan(&rows).Error
	return rows, err
}

func (r *dashboardRepository) StudentIDs(tx *gorm.DB, tutorID uuid.UUID) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true}).
		Table("class_enrollments").
		Select("DISTINCT class_enrollments.user_id").
		Joins("JOIN classes ON classes.id = class_enrollments.class_id").
		Where("classes.tutor_id = ?", tutorID)
}

func (r *dashboardRepository) LearnerClasses(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) ([]entity.Class, error) {
	var classes []entity.Class
	err := tx.WithContext(ctx).
		Preload("Tutor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name")
		}).
		Joins("JOIN class_enrollments ON class_enrollments.class_id = classes.id").
		Where("class_enrollments.user_id = ?", learnerID).
		Order("classes.title ASC").
		Find(&classes).Error
	return classes, err
}

// OpenAssignments lists assignments of the learner's classes that the learner
// has not submitted and whose due date, if any, has not passed.
func (r *dashboardRepository) OpenAssignments(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, now time.Time) ([]entity.Assignment, error) {
	db := tx.WithContext(ctx)
	submitted := db.Session(&gorm.Session{NewDB: true}).
		Model(&entity.Submission{}).
		Select("assignment_id").
		Where("user_id = ?", learnerID)

	var assignments []entity.Assignment
	err := db.
		Preload("Class").
		Preload("Resource").
		Joins("JOIN class_enrollments ON class_enrollments.class_id = assignments.class_id").
		Where("class_enrollments.user_id = ?", learnerID).
		Where("assignments.id NOT IN (?)", submitted).
		Where("assignments.due_date IS NULL OR assignments.due_date >= ?", now).
		Order("assignments.due_date IS NULL").
		Order("assignments.due_date ASC").
		Order("assignments.created_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *dashboardRepository) Progress(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID) (*entity.Progress, error) {
	var rows []entity.Progress
	if err := tx.WithContext(ctx).Where("user_id = ?", learnerID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *dashboardRepository) GradedPoints(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, since *time.Time) (float64, error) {
	q := tx.WithContext(ctx).
		Model(&entity.Submission{}).
		Select("COALESCE(SUM(score), 0)").
		Where("user_id = ? AND status = ?", learnerID, entity.SubmissionGraded)
	if since != nil {
		q = q.Where("graded_at >= ?", *since)
	}

	var points float64
	err := q.Scan(&points).Error
	return points, err
}
