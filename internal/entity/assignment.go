package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Assignment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_assignments_class_created,priority:1" json:"class_id"`
	Class      *Class     `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"class,omitempty"`
	ResourceID uuid.UUID  `gorm:"type:uuid;not null;index" json:"resource_id"`
	Resource   *Resource  `gorm:"foreignKey:ResourceID;constraint:OnDelete:CASCADE" json:"resource,omitempty"`
	Title      string     `gorm:"size:120;not null" json:"title"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index:idx_assignments_class_created,priority:2" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

const (
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
)

// Submission is one submit event. A learner may submit the same assignment
// more than once.
type Submission struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID   `gorm:"type:uuid;not null;index" json:"assignment_id"`
	Assignment   *Assignment `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"assignment,omitempty"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Note         string      `gorm:"type:text" json:"note"`
	Status       string      `gorm:"size:16;not null;default:submitted" json:"status"`
	Score        *float64    `json:"score,omitempty"`
	Feedback     string      `gorm:"type:text" json:"feedback"`
	SubmittedAt  time.Time   `gorm:"autoCreateTime" json:"submitted_at"`
	GradedAt     *time.Time  `json:"graded_at,omitempty"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}

// Progress is the per-user rolling best score and attempt counter.
type Progress struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User          *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BestScore     *float64   `json:"best_score,omitempty"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	LastAttempted *time.Time `json:"last_attempted,omitempty"`
}

func (Progress) TableName() string {
	return "progress"
}

func (p *Progress) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
