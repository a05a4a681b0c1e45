package dto

import (
	"time"

	"anoa.com/tutorhub/internal/entity"
)

type CreateRewardInput struct {
	Title       string `json:"title" form:"title" binding:"required,max=120"`
	Description string `json:"description" form:"description" binding:"max=2000"`
	Criteria    int    `json:"criteria" form:"criteria" binding:"required,min=1"`
}

type RewardStatus struct {
	entity.Reward
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}
