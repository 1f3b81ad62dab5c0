package service

import (
	"context"
	"log/slog"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/observability"
	"socialhub/internal/repository"

	"github.com/google/uuid"
)

type NotificationService struct {
	repo     repository.NotificationRepository
	notifier *notifications.Notifier
}

type NotifyInput struct {
	Type        models.NotificationType
	RecipientID uuid.UUID
	ActorID     uuid.UUID
	PostID      *uuid.UUID
	CommentID   *uuid.UUID
	Message     string
}

func NewNotificationService(repo repository.NotificationRepository, notifier *notifications.Notifier) *NotificationService {
	return &NotificationService{repo: repo, notifier: notifier}
}

// Notify stores a notification and publishes it to the recipient's channel.
// It is a side effect of another action, so failures are logged only.
// Self notifications are skipped.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) {
	if in.RecipientID == in.ActorID {
		return
	}
	actor := in.ActorID
	n := &models.Notification{
		Type:        in.Type,
		RecipientID: in.RecipientID,
		ActorID:     &actor,
		PostID:      in.PostID,
		CommentID:   in.CommentID,
	}
	if in.Message != "" {
		msg := in.Message
		n.Message = &msg
	}

	if err := s.repo.Create(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to store notification",
			slog.String("type", string(in.Type)),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.NotificationsCreated.WithLabelValues(string(in.Type)).Inc()

	if err := s.notifier.PublishUser(ctx, in.RecipientID, "notification", n); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.String("recipient_id", in.RecipientID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *NotificationService) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, page PageRequest) ([]*models.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID, unreadOnly, page.toPage())
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

// MarkRead is owner-checked: NotFound, then Forbidden.
func (s *NotificationService) MarkRead(ctx context.Context, subjectID, id uuid.UUID) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(n.RecipientID, subjectID, "read your own notifications"); err != nil {
		return nil, err
	}
	if !n.IsRead {
		if err := s.repo.MarkRead(ctx, id); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}
