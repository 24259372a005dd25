package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is a user's authorization role.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account that authors posts and comments.
type User struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Email     string         `gorm:"size:320;not null;uniqueIndex" json:"email"`
	Name      *string        `gorm:"size:255" json:"name"`
	Role      Role           `gorm:"size:16;not null;index" json:"role"`
	Profile   *Profile       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Posts     []Post         `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// PostCount and CommentCount are computed at query time.
	PostCount    int64 `gorm:"-" json:"postCount"`
	CommentCount int64 `gorm:"-" json:"commentCount"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	assignID(&u.ID)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// UserSummary is the author projection attached to posts and comments.
type UserSummary struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email,omitempty"`
	Role  Role    `json:"role,omitempty"`
}

// SummaryDetail selects how much of a user a summary exposes.
type SummaryDetail int

const (
	SummaryName SummaryDetail = iota
	SummaryEmail
	SummaryFull
)

// Summary projects u for embedding in another record. A nil user yields nil.
func (u *User) Summary(detail SummaryDetail) *UserSummary {
	if u == nil {
		return nil
	}
	s := &UserSummary{ID: u.ID, Name: u.Name}
	if detail >= SummaryEmail {
		s.Email = u.Email
	}
	if detail >= SummaryFull {
		s.Role = u.Role
	}
	return s
}
