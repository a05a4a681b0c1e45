package dto

import (
	"anoa.com/tutorhub/internal/entity"
	"github.com/google/uuid"
)

type CreateClassInput struct {
	Title     string `json:"title" form:"title" binding:"required,max=120"`
	Subject   string `json:"subject" form:"subject" binding:"required,max=80"`
	YearGroup int    `json:"year_group" form:"year_group" binding:"required,yeargroup"`
}

// EnrollInput names the learner by id or by email.
type EnrollInput struct {
	UserID string `json:"user_id" form:"user_id" binding:"omitempty,uuid"`
	Email  string `json:"email" form:"email" binding:"omitempty,email,max=254"`
}

type ClassSummary struct {
	entity.Class
	StudentCount int64 `json:"student_count"`
}

type StudentResponse struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	EnrolledAt string    `json:"enrolled_at"`
}

type NewClassForm struct {
	MinYearGroup int `json:"min_year_group"`
	MaxYearGroup int `json:"max_year_group"`
}
