package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reward is unlocked once a learner's points reach Criteria.
type Reward struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:120;uniqueIndex;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Criteria    int       `gorm:"not null;index" json:"criteria"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Reward) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

// UserReward records an earned reward. The composite key prevents awarding
// the same reward twice.
type UserReward struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RewardID uuid.UUID `gorm:"type:uuid;primaryKey" json:"reward_id"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reward   *Reward   `gorm:"foreignKey:RewardID;constraint:OnDelete:CASCADE" json:"reward,omitempty"`
	EarnedAt time.Time `gorm:"autoCreateTime" json:"earned_at"`
}

// ActivityLog is append-only.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_user_date,priority:1" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_activity_user_date,priority:2;index" json:"created_at"`
}
