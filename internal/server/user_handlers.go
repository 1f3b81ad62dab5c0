package server

import (
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// updateUserRequest is the profile update body. A null bio or imageUrl clears it.
type updateUserRequest struct {
	Name     optional[string] `json:"name"`
	Username optional[string] `json:"username"`
	Email    optional[string] `json:"email"`
	Bio      optional[string] `json:"bio"`
	ImageURL optional[string] `json:"imageUrl"`
}

// CreateUser handles POST /users
// @Summary Create user
// @Description Same rules as registration, without starting a session
// @Tags users
// @Accept json
// @Produce json
// @Param request body registerRequest true "User"
// @Success 201 {object} models.PublicUser
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.CreateUser(ctx, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Username: req.Username,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUsers handles GET /users
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {array} models.PublicUser
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.userService.ListUsers(ctx, parsePageRequest(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /users/:id
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.PublicUser
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.GetUserByID(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateUser handles PUT /users/:id
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body updateUserRequest true "Fields to change"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseUUID(c, "id")
	if err != nil {
		return nil
	}
	var req updateUserRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.UpdateProfile(ctx, service.UpdateProfileInput{
		SubjectID: currentUserID(c),
		UserID:    id,
		Name:      req.Name.patch(),
		Username:  req.Username.patch(),
		Email:     req.Email.patch(),
		Bio:       req.Bio.patch(),
		ImageURL:  req.ImageURL.patch(),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// DeleteUserByEmail handles POST /users/delete-by-email. Development only.
// @Summary Delete a user by email
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Email"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/delete-by-email [post]
func (s *Server) DeleteUserByEmail(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Email == "" {
		return badRequest(c, "Email is required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.userService.DeleteByEmail(ctx, req.Email); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}
