package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a post comment. ParentID links a reply to another comment on the
// same post; replies are removed with their parent by the storage layer.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AuthorID  string    `gorm:"size:36;not null;index" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"-"`
	PostID    string    `gorm:"size:36;not null;index:idx_comments_post_parent" json:"postId"`
	ParentID  *string   `gorm:"size:36;index:idx_comments_post_parent" json:"parentId"`
	Replies   []Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	AuthorSummary *UserSummary `gorm:"-" json:"author,omitempty"`
	// ReplyCount counts direct replies; filled by thread reads only.
	ReplyCount *int64 `gorm:"-" json:"replyCount,omitempty"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// CommentPage is one page of top-level comments with their materialized replies.
type CommentPage struct {
	Items      []*Comment `json:"items"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}
