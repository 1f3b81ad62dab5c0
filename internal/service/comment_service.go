package service

import (
	"context"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/repository"
	"socialhub/internal/validation"

	"github.com/google/uuid"
)

type CommentService struct {
	commentRepo   repository.CommentRepository
	postRepo      repository.PostRepository
	notifications *NotificationService
}

type CreateCommentInput struct {
	AuthorID        uuid.UUID
	PostID          uuid.UUID
	Content         string
	ParentCommentID *uuid.UUID
}

type UpdateCommentInput struct {
	SubjectID uuid.UUID
	CommentID uuid.UUID
	Content   string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	notifications *NotificationService,
) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		postRepo:      postRepo,
		notifications: notifications,
	}
}

// CreateComment adds a comment or a reply. A parent must already exist on the
// same post, so a comment can never become its own ancestor.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var parent *models.Comment
	if in.ParentCommentID != nil {
		parent, err = s.commentRepo.GetByID(ctx, *in.ParentCommentID)
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				return nil, models.NewValidationError("Parent comment does not exist")
			}
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		Content:         content,
		AuthorID:        in.AuthorID,
		PostID:          post.ID,
		ParentCommentID: in.ParentCommentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.notifications != nil {
		s.notifications.Notify(ctx, NotifyInput{
			Type:        models.NotificationComment,
			RecipientID: post.AuthorID,
			ActorID:     in.AuthorID,
			PostID:      &post.ID,
			CommentID:   &comment.ID,
			Message:     "commented on your post",
		})
		if parent != nil && parent.AuthorID != post.AuthorID {
			s.notifications.Notify(ctx, NotifyInput{
				Type:        models.NotificationReply,
				RecipientID: parent.AuthorID,
				ActorID:     in.AuthorID,
				PostID:      &post.ID,
				CommentID:   &comment.ID,
				Message:     "replied to your comment",
			})
		}
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(comment.AuthorID, in.SubjectID, "edit your own comments"); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment removes an owned comment and its replies.
func (s *CommentService) DeleteComment(ctx context.Context, subjectID, commentID uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := ensureOwner(comment.AuthorID, subjectID, "delete your own comments"); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, comment)
}
