package bootstrap

import (
	"anoa.com/tutorhub/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Class{},
		&entity.ClassEnrollment{},
		&entity.Resource{},
		&entity.Assignment{},
		&entity.Submission{},
		&entity.Progress{},
		&entity.Reward{},
		&entity.UserReward{},
		&entity.ActivityLog{},
		&entity.Notification{},
	)
}

func SeedRoles(db *gorm.DB) error {
	defaultRoles := []entity.Role{
		{Name: entity.RoleLearner, Description: "Learner"},
		{Name: entity.RoleTutor, Description: "Tutor"},
		{Name: entity.RoleGuardian, Description: "Guardian"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&entity.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// DefaultRewards is the catalogue seeded on first boot. Criteria is the
// number of points (sum of graded scores) needed to earn the reward.
var DefaultRewards = []entity.Reward{
	{Title: "First Steps", Description: "Earn your first 50 points", Criteria: 50},
	{Title: "Rising Star", Description: "Reach 250 points", Criteria: 250},
	{Title: "Scholar", Description: "Reach 1000 points", Criteria: 1000},
	{Title: "Champion", Description: "Reach 5000 points", Criteria: 5000},
}

func SeedRewards(db *gorm.DB) error {
	for _, r := range DefaultRewards {
		reward := r
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title"}},
			DoNothing: true,
		}).Create(&reward).Error; err != nil {
			return err
		}
	}
	return nil
}

// Run migrates the schema and seeds reference data.
func Run(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}
	if err := SeedRoles(db); err != nil {
		return err
	}
	return SeedRewards(db)
}
