package repository

import (
	"context"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RewardRepository interface {
	List(ctx context.Context) ([]entity.Reward, error)
	Create(ctx context.Context, reward *entity.Reward) error
	EarnedBy(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]entity.UserReward, error)
	// Points is the sum of the user's graded submission scores.
	Points(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error)
	// GrantEligible awards every reward whose criteria is at most points and
	// returns the ones that were not held before.
	GrantEligible(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points float64) ([]entity.Reward, error)
}

type rewardRepository struct {
	db       *gorm.DB
	activity activityRepo.ActivityRepository
}

func NewRewardRepository(db *gorm.DB, activity activityRepo.ActivityRepository) RewardRepository {
	return &rewardRepository{db: db, activity: activity}
}

func (r *rewardRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *rewardRepository) List(ctx context.Context) ([]entity.Reward, error) {
	var rewards []entity.Reward
	err := r.db.WithContext(ctx).Order("criteria ASC").Order("title ASC").Find(&rewards).Error
	return rewards, err
}

func (r *rewardRepository) Create(ctx context.Context, reward *entity.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *rewardRepository) EarnedBy(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]entity.UserReward, error) {
	var earned []entity.UserReward
	err := r.conn(ctx, tx).
		Preload("Reward").
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&earned).Error
	return earned, err
}

func (r *rewardRepository) Points(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error) {
	var points float64
	err := r.conn(ctx, tx).
		Model(&entity.Submission{}).
		Select("COALESCE(SUM(score), 0)").
		Where("user_id = ? AND status = ?", userID, entity.SubmissionGraded).
		Scan(&points).Error
	return points, err
}

func (r *rewardRepository) GrantEligible(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points float64) ([]entity.Reward, error) {
	db := r.conn(ctx, tx)

	var eligible []entity.Reward
	err := db.
		Where("criteria <= ?", points).
		Where("id NOT IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&entity.UserReward{}).
			Select("reward_id").
			Where("user_id = ?", userID)).
		Order("criteria ASC").
		Find(&eligible).Error
	if err != nil {
		return nil, err
	}

	granted := make([]entity.Reward, 0, len(eligible))
	for _, reward := range eligible {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entity.UserReward{UserID: userID, RewardID: reward.ID})
		if res.Error != nil {
			return nil, res.Error
		}
		// a concurrent grader may have inserted it first
		if res.RowsAffected == 0 {
			continue
		}
		if err := r.activity.Log(ctx, db, userID, activityRepo.ActionRewardEarned); err != nil {
			return nil, err
		}
		granted = append(granted, reward)
	}
	return granted, nil
}
