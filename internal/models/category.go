package models

import (
	"time"

	"gorm.io/gorm"
)

// Category groups posts. Name and slug are each globally unique.
type Category struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Name      string         `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Slug      string         `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	Posts     []PostCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"posts,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`

	// PostCount is the number of post associations, computed at query time.
	PostCount int64 `gorm:"-" json:"postCount"`
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
