package repository

import (
	"context"
	"time"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindRoleByName(ctx context.Context, name string) (*entity.Role, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, email string) error
	Delete(ctx context.Context, id uuid.UUID) ([]entity.Resource, error)
}

type userRepository struct {
	db       *gorm.DB
	activity activityRepo.ActivityRepository
}

func NewUserRepository(db *gorm.DB, activity activityRepo.ActivityRepository) UserRepository {
	return &userRepository{db: db, activity: activity}
}

// Create inserts the user and its first activity entry together. A taken
// email surfaces as the store's unique violation.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Role").Create(user).Error; err != nil {
			return err
		}
		return r.activity.Log(ctx, tx, user.ID, activityRepo.ActionRegistered)
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *userRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.User{}).Where("id = ?", id).UpdateColumn("last_login", at)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.activity.Log(ctx, tx, id, activityRepo.ActionLogin)
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.User{}).Where("id = ?", id).UpdateColumn("password_hash", passwordHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.activity.Log(ctx, tx, id, activityRepo.ActionPasswordChanged)
	})
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName, email string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"full_name": fullName,
			"email":     email,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.activity.Log(ctx, tx, id, activityRepo.ActionProfileUpdated)
	})
}

// Delete removes the user and everything the user owns in one transaction.
// It returns the deleted resources so their stored files and index entries
// can be cleaned up after commit.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) ([]entity.Resource, error) {
	var resources []entity.Resource

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user entity.User
		if err := tx.Select("id").Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}

		if err := tx.Where("owner_id = ?", id).Find(&resources).Error; err != nil {
			return err
		}

		classIDs := tx.Model(&entity.Class{}).Select("id").Where("tutor_id = ?", id)
		resourceIDs := tx.Model(&entity.Resource{}).Select("id").Where("owner_id = ?", id)
		assignmentIDs := tx.Model(&entity.Assignment{}).Select("id").
			Where("class_id IN (?) OR resource_id IN (?)", classIDs, resourceIDs)

		steps := []func() error{
			func() error {
				return tx.Where("user_id = ? OR assignment_id IN (?)", id, assignmentIDs).Delete(&entity.Submission{}).Error
			},
			func() error {
				return tx.Where("class_id IN (?) OR resource_id IN (?)", classIDs, resourceIDs).Delete(&entity.Assignment{}).Error
			},
			func() error {
				return tx.Where("user_id = ? OR class_id IN (?)", id, classIDs).Delete(&entity.ClassEnrollment{}).Error
			},
			func() error { return tx.Where("tutor_id = ?", id).Delete(&entity.Class{}).Error },
			func() error { return tx.Where("owner_id = ?", id).Delete(&entity.Resource{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&entity.Progress{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&entity.UserReward{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&entity.ActivityLog{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&entity.Notification{}).Error },
			func() error { return tx.Where("id = ?", id).Delete(&entity.User{}).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resources, nil
}
