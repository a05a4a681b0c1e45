package dto

import (
	"anoa.com/tutorhub/internal/entity"
	classDto "anoa.com/tutorhub/internal/modules/classroom/dto"
)

type CreateAssignmentInput struct {
	Title      string `json:"title" form:"title" binding:"required,max=120"`
	ClassID    string `json:"class_id" form:"class_id" binding:"required,uuid"`
	ResourceID string `json:"resource_id" form:"resource_id" binding:"required,uuid"`
	// DueDate is optional: RFC3339, an HTML datetime-local value or a date.
	DueDate string `json:"due_date" form:"due_date"`
}

// AssignmentsPage carries what the assignments screen lists and the choices
// its create form offers.
type AssignmentsPage struct {
	Assignments []entity.Assignment     `json:"assignments"`
	Classes     []classDto.ClassSummary `json:"classes"`
	Resources   []entity.Resource       `json:"resources"`
}
