package server

import (
	"log/slog"
	"strings"

	"socialhub/internal/middleware"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postRequest is the create and update body. A null clears the field, so
// {"imageUrl": null} removes the image.
type postRequest struct {
	Title       optional[string] `json:"title"`
	Description optional[string] `json:"description"`
	Content     optional[string] `json:"content"`
	ImageURL    optional[string] `json:"imageUrl"`
	Type        optional[string] `json:"type"`
}

// parsePostRequest reads a JSON or form body. Form posts send every field as
// text, so blank form values count as absent.
func parsePostRequest(c *fiber.Ctx) (postRequest, error) {
	var req postRequest
	if !isFormRequest(c) {
		return req, parseBody(c, &req)
	}
	formValue := func(key string) optional[string] {
		v := c.FormValue(key)
		if strings.TrimSpace(v) == "" {
			return optional[string]{}
		}
		return some(v)
	}
	req.Title = formValue("title")
	req.Description = formValue("description")
	req.Content = formValue("content")
	req.ImageURL = formValue("imageUrl")
	req.Type = formValue("type")
	return req, nil
}

func isFormRequest(c *fiber.Ctx) bool {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	return strings.HasPrefix(ct, fiber.MIMEMultipartForm) || strings.HasPrefix(ct, fiber.MIMEApplicationForm)
}

// GetPosts handles GET /posts
// @Summary List posts
// @Description Newest first. Rows are skipped only when both page and limit are given.
// @Tags posts
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := s.postService.ListPosts(ctx, parsePageRequest(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts handles GET /posts/user/:userId
// @Summary List a user's posts
// @Tags posts
// @Produce json
// @Param userId path string true "User ID"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/user/{userId} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := parseUUID(c, "userId")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := s.postService.ListUserPosts(ctx, userID, parsePageRequest(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /posts/:id. Signed-in callers also get their like state.
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	if viewer, ok := middleware.CurrentUserID(c); ok {
		liked, err := s.likeService.IsLiked(ctx, viewer, post.ID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to load like state", slog.String("error", err.Error()))
		} else {
			post.Liked = &liked
		}
	}
	return c.JSON(post)
}

// CreatePost handles POST /posts
// @Summary Create post
// @Description Accepts JSON or a form. A form may carry the image itself in the "image" field.
// @Tags posts
// @Accept json,multipart/form-data
// @Produce json
// @Param request body postRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	req, err := parsePostRequest(c)
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var uploaded string
	if hasImageFile(c) {
		uploaded, err = s.receiveImage(ctx, c, service.ImageKindPost)
		if err != nil {
			return respondServiceError(c, err)
		}
		req.ImageURL = some(uploaded)
	}

	title := ""
	if req.Title.Value != nil {
		title = *req.Title.Value
	}
	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID:    currentUserID(c),
		Title:       title,
		Description: req.Description.Value,
		Content:     req.Content.Value,
		ImageURL:    req.ImageURL.Value,
		Type:        req.Type.Value,
	})
	if err != nil {
		if uploaded != "" {
			s.uploadService.DeleteImage(ctx, uploaded)
		}
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /posts/:id
// @Summary Update own post
// @Description The type is re-derived only when type or imageUrl is sent. A null clears a field.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body postRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	req, err := parsePostRequest(c)
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
		SubjectID:   currentUserID(c),
		PostID:      id,
		Title:       req.Title.patch(),
		Description: req.Description.patch(),
		Content:     req.Content.patch(),
		ImageURL:    req.ImageURL.patch(),
		Type:        req.Type.patch(),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /posts/:id
// @Summary Delete own post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} object{success=bool}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.postService.DeletePost(ctx, currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// LikePost handles POST /posts/:id/like
// @Summary Like a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	state, err := s.likeService.Like(ctx, currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(state)
}

// UnlikePost handles DELETE /posts/:id/like
// @Summary Remove a like
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	state, err := s.likeService.Unlike(ctx, currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(state)
}
