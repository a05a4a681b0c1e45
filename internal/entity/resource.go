package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ResourceTypeFile = "file"
	ResourceTypeLink = "link"
)

// Resource is an uploaded file or an external link. Links carry URL; files
// carry StoredName, Path, Mime and Size.
type Resource struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index:idx_resources_owner_created,priority:1" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:120;not null" json:"title"`
	Subject     string    `gorm:"size:80;not null;default:misc" json:"subject"`
	Type        string    `gorm:"size:16;not null" json:"type"`
	Description string    `gorm:"type:text" json:"description"`
	URL         *string   `gorm:"size:2048" json:"url,omitempty"`
	StoredName  *string   `gorm:"size:255;index" json:"stored_name,omitempty"`
	Path        *string   `gorm:"size:2048" json:"-"`
	Mime        *string   `gorm:"size:127" json:"mime,omitempty"`
	Size        *int64    `json:"size,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_resources_owner_created,priority:2" json:"created_at"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
