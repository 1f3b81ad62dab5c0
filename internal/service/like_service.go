package service

import (
	"context"
	"fmt"

	"socialhub/internal/models"
	"socialhub/internal/repository"

	"github.com/google/uuid"
)

// LikeState is the caller's like status and the post's like total after a change.
type LikeState struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

type LikeService struct {
	postRepo      repository.PostRepository
	notifications *NotificationService
}

func NewLikeService(postRepo repository.PostRepository, notifications *NotificationService) *LikeService {
	return &LikeService{postRepo: postRepo, notifications: notifications}
}

// Like is idempotent. The post author is notified the first time someone else likes it.
func (s *LikeService) Like(ctx context.Context, userID, postID uuid.UUID) (*LikeState, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	created, err := s.postRepo.Like(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if created && post.AuthorID != userID && s.notifications != nil {
		s.notifications.Notify(ctx, NotifyInput{
			Type:        models.NotificationLike,
			RecipientID: post.AuthorID,
			ActorID:     userID,
			PostID:      &post.ID,
			Message:     fmt.Sprintf("liked your post %q", postLabel(post)),
		})
	}
	return s.state(ctx, postID, true)
}

func (s *LikeService) Unlike(ctx context.Context, userID, postID uuid.UUID) (*LikeState, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
		return nil, err
	}
	return s.state(ctx, postID, false)
}

// IsLiked reports whether userID currently likes postID.
func (s *LikeService) IsLiked(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return s.postRepo.IsLiked(ctx, userID, postID)
}

func (s *LikeService) state(ctx context.Context, postID uuid.UUID, liked bool) (*LikeState, error) {
	count, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: liked, LikesCount: count}, nil
}

func postLabel(p *models.Post) string {
	if p.Title != nil && *p.Title != "" {
		return *p.Title
	}
	return "untitled"
}
