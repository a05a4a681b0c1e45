package dto

import "anoa.com/tutorhub/internal/entity"

type SubmitInput struct {
	Note string `json:"note" form:"note" binding:"max=5000"`
}

type GradeInput struct {
	Score    *float64 `json:"score" form:"score" binding:"required,min=0,max=100"`
	Feedback string   `json:"feedback" form:"feedback" binding:"max=5000"`
}

type GradeResult struct {
	Submission    *entity.Submission `json:"submission"`
	RewardsEarned []entity.Reward    `json:"rewards_earned"`
}
