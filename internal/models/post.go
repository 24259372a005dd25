package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is a node of the post lifecycle: DRAFT -> PUBLISHED -> ARCHIVED.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
	PostStatusArchived  PostStatus = "ARCHIVED"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// Post represents an authored article. Soft-deleted posts keep their rows and
// relations but are hidden from every lookup.
type Post struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Content    *string        `gorm:"type:text" json:"content"`
	Status     PostStatus     `gorm:"size:16;not null;index" json:"status"`
	AuthorID   string         `gorm:"size:36;not null;index" json:"authorId"`
	Author     *User          `gorm:"foreignKey:AuthorID" json:"-"`
	Categories []PostCategory `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	Comments   []Comment      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// AuthorSummary is filled from Author before the post leaves the service layer.
	AuthorSummary *UserSummary `gorm:"-" json:"author,omitempty"`
	// CommentCount is not persisted; computed at query time.
	CommentCount int64 `gorm:"-" json:"commentCount"`
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	assignID(&p.ID)
	if p.Status == "" {
		p.Status = PostStatusDraft
	}
	return nil
}

// PostCategory is the join row between a post and a category.
type PostCategory struct {
	PostID     string    `gorm:"primaryKey;size:36" json:"postId"`
	CategoryID string    `gorm:"primaryKey;size:36;index" json:"categoryId"`
	Post       *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assignedAt"`
}

// PostPage is one page of a cursor-paginated post listing.
type PostPage struct {
	Items      []*Post `json:"items"`
	NextCursor *string `json:"nextCursor,omitempty"`
}
