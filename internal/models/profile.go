package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile holds optional presentation details for exactly one user.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Bio       *string   `gorm:"size:500" json:"bio"`
	Avatar    *string   `gorm:"size:2048" json:"avatar"`
	Website   *string   `gorm:"size:2048" json:"website"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Owner *UserSummary `gorm:"-" json:"user,omitempty"`
}

func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
