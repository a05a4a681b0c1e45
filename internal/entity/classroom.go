package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinYearGroup = 1
	MaxYearGroup = 13
)

type Class struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"size:120;not null" json:"title"`
	Subject   string    `gorm:"size:80;not null" json:"subject"`
	YearGroup int       `gorm:"not null" json:"year_group"`
	TutorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tutor_id"`
	Tutor     *User     `gorm:"foreignKey:TutorID;constraint:OnDelete:CASCADE" json:"tutor,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Class) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// ClassEnrollment joins a learner to a class. The composite primary key
// allows one row per (class, user) pair.
type ClassEnrollment struct {
	ClassID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"class_id"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	Class      *Class    `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"class,omitempty"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
}
