package dto

import "github.com/google/uuid"

type ListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Event describes a notification to deliver to one user.
type Event struct {
	UserID     uuid.UUID
	Type       string
	Message    string
	EntityType string
	EntityID   *uuid.UUID
}
