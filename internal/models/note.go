package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxNoteTitleLength   = 255
	MaxNoteContentLength = 100000
)

// Note uses a UUID primary key so note IDs cannot be enumerated.
type Note struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	UserID     uint   `gorm:"not null;index"`
	CategoryID *uint  `gorm:"index"`
	Title      string `gorm:"size:255"`
	Content    string `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time `gorm:"index"`

	// Relationships
	User     User      `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
