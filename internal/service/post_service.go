package service

import (
	"context"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/repository"
	"socialhub/internal/validation"

	"github.com/google/uuid"
)

// PageRequest holds the optional page and limit query values; zero means absent.
// Rows are skipped only when both are present, a limit alone caps the result,
// and neither returns everything.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) toPage() repository.Page {
	if p.Limit <= 0 {
		return repository.Page{}
	}
	if p.Page <= 0 {
		return repository.Page{Limit: p.Limit}
	}
	return repository.Page{Limit: p.Limit, Offset: (p.Page - 1) * p.Limit}
}

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	images   ImageRemover
}

type CreatePostInput struct {
	AuthorID    uuid.UUID
	Title       string
	Description *string
	Content     *string
	ImageURL    *string
	Type        *string
}

// UpdatePostInput uses nil for fields absent from the request.
type UpdatePostInput struct {
	SubjectID   uuid.UUID
	PostID      uuid.UUID
	Title       *string
	Description *string
	Content     *string
	ImageURL    *string
	Type        *string
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, images ImageRemover) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo, images: images}
}

func (s *PostService) ListPosts(ctx context.Context, page PageRequest) ([]*models.Post, error) {
	return s.postRepo.List(ctx, page.toPage())
}

// ListUserPosts returns NotFound for an unknown user rather than an empty list.
func (s *PostService) ListUserPosts(ctx context.Context, userID uuid.UUID, page PageRequest) ([]*models.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.postRepo.ListByAuthor(ctx, userID, page.toPage())
}

func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.ValidatePostTitle(in.Title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	title := strings.TrimSpace(in.Title)
	post := &models.Post{
		Title:       &title,
		Description: in.Description,
		Content:     in.Content,
		ImageURL:    blankToNil(in.ImageURL),
		AuthorID:    in.AuthorID,
	}

	postType, err := resolvePostType(in.Type, post)
	if err != nil {
		return nil, err
	}
	post.Type = postType

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// UpdatePost re-derives the type only when the request touches type or
// imageUrl. Editing text alone keeps the stored type.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(post.AuthorID, in.SubjectID, "update your own posts"); err != nil {
		return nil, err
	}

	if in.Title != nil {
		if err := validation.ValidatePostTitle(*in.Title); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		title := strings.TrimSpace(*in.Title)
		post.Title = &title
	}
	if in.Description != nil {
		post.Description = blankToNil(in.Description)
	}
	if in.Content != nil {
		post.Content = blankToNil(in.Content)
	}

	var replacedImage string
	if in.ImageURL != nil {
		next := blankToNil(in.ImageURL)
		if post.ImageURL != nil && (next == nil || *next != *post.ImageURL) {
			replacedImage = *post.ImageURL
		}
		post.ImageURL = next
	}

	if in.Type != nil || in.ImageURL != nil {
		postType, err := resolvePostType(in.Type, post)
		if err != nil {
			return nil, err
		}
		post.Type = postType
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	if replacedImage != "" {
		s.removeImage(ctx, replacedImage)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes an owned post with its likes, comments and image.
func (s *PostService) DeletePost(ctx context.Context, subjectID, postID uuid.UUID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := ensureOwner(post.AuthorID, subjectID, "delete your own posts"); err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	if post.ImageURL != nil {
		s.removeImage(ctx, *post.ImageURL)
	}
	return nil
}

func (s *PostService) removeImage(ctx context.Context, url string) {
	if s.images != nil {
		s.images.DeleteImage(ctx, url)
	}
}

// resolvePostType honours an explicit type and otherwise infers one from the
// post's current fields.
func resolvePostType(explicit *string, post *models.Post) (models.PostType, error) {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		t := models.PostType(strings.TrimSpace(*explicit))
		if !t.Valid() {
			return "", models.NewValidationError("Type must be one of: text, image, text_with_image")
		}
		return t, nil
	}
	return models.InferPostType(post.ImageURL, post.Description, post.Content), nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
