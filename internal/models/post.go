package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostType classifies a post by which of its optional fields are populated.
type PostType string

const (
	PostTypeText          PostType = "text"
	PostTypeImage         PostType = "image"
	PostTypeTextWithImage PostType = "text_with_image"
)

// Valid reports whether t is one of the known post types.
func (t PostType) Valid() bool {
	switch t {
	case PostTypeText, PostTypeImage, PostTypeTextWithImage:
		return true
	}
	return false
}

// InferPostType derives a type from field presence: an image with any text is
// text_with_image, an image alone is image, anything else is text.
func InferPostType(imageURL, description, content *string) PostType {
	hasImage := imageURL != nil && *imageURL != ""
	hasText := (description != nil && *description != "") || (content != nil && *content != "")
	switch {
	case hasImage && hasText:
		return PostTypeTextWithImage
	case hasImage:
		return PostTypeImage
	default:
		return PostTypeText
	}
}

// Post represents a post authored by a single user.
type Post struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       *string   `gorm:"size:255" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Content     *string   `gorm:"type:text" json:"content"`
	ImageURL    *string   `json:"imageUrl"`
	Type        PostType  `gorm:"size:20;not null;default:text" json:"type"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"authorId"`
	Author      *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Likes       []Like    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"likes,omitempty"`
	Comments    []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`

	// LikesCount and CommentsCount are computed at query time and never migrated.
	LikesCount    int `gorm:"->;-:migration" json:"likesCount"`
	CommentsCount int `gorm:"->;-:migration" json:"commentsCount"`

	// Liked is set per viewer on single post reads and never stored.
	Liked *bool `gorm:"-" json:"liked,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a random UUID when none was set.
func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
