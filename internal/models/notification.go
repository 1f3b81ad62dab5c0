package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType names the event a notification reports.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationReply   NotificationType = "reply"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
)

// Notification is an event directed at a recipient. Actor, post and comment are optional.
type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Type        NotificationType `gorm:"size:20;not null" json:"type"`
	Message     *string          `gorm:"type:text" json:"message"`
	IsRead      bool             `gorm:"not null;default:false" json:"isRead"`
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index" json:"recipientId"`
	Recipient   *User            `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
	ActorID     *uuid.UUID       `gorm:"type:uuid" json:"actorId"`
	Actor       *User            `gorm:"foreignKey:ActorID;constraint:OnDelete:SET NULL" json:"actor,omitempty"`
	PostID      *uuid.UUID       `gorm:"type:uuid" json:"postId"`
	Post        *Post            `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CommentID   *uuid.UUID       `gorm:"type:uuid" json:"commentId"`
	Comment     *Comment         `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time        `gorm:"index" json:"createdAt"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
