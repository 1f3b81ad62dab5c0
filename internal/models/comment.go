package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is attached to a post and optionally replies to another comment on the same post.
type Comment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	AuthorID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"authorId"`
	Author          *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	PostID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"postId"`
	ParentCommentID *uuid.UUID `gorm:"type:uuid;index" json:"parentCommentId"`
	Replies         []Comment  `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
