package server

import (
	"log/slog"

	"socialhub/internal/middleware"
	"socialhub/internal/service"
	"socialhub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register
// @Summary Register
// @Description Create an account and start a cookie session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration"
// @Success 201 {object} object{user=models.PublicUser}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.authService.Register(ctx, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Username: req.Username,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.setSessionCookie(c, res.Token)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": res.User})
}

// Login handles POST /auth/login
// @Summary Login
// @Description Authenticate with email and password and start a cookie session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} object{user=models.PublicUser}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	s.setSessionCookie(c, res.Token)
	return c.JSON(fiber.Map{"user": res.User})
}

// Logout handles POST /auth/logout
// @Summary Logout
// @Description Clear the session cookie and revoke the token when one is present
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if token := middleware.TokenFromRequest(c); token != "" {
		ctx, cancel := requestContext(c)
		defer cancel()
		if err := s.authService.Logout(ctx, token); err != nil {
			// The cookie is cleared regardless.
			middleware.Logger.WarnContext(ctx, "failed to revoke session", slog.String("error", err.Error()))
		}
	}

	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Me handles GET /auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.authService.Me(ctx, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// ValidateField handles POST /auth/validate
// @Summary Check email or username availability
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{field=string,value=string} true "Field to check"
// @Success 200 {object} service.UniquenessResult
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/validate [post]
func (s *Server) ValidateField(c *fiber.Ctx) error {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	field, err := validation.ParseUniqueField(req.Field)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.authService.ValidateFieldUniqueness(ctx, field, req.Value)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// ForgotPassword handles POST /auth/forgot-password
// @Summary Request a password reset code
// @Description Always answers with the same message whether or not the email is registered
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/forgot-password [post]
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := s.recoveryService.ForgotPassword(ctx, req.Email)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

// VerifyCode handles POST /auth/verify-code
// @Summary Check a password reset code without consuming it
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,code=string} true "Email and code"
// @Success 200 {object} object{valid=bool,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/verify-code [post]
func (s *Server) VerifyCode(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.recoveryService.VerifyCode(ctx, req.Email, req.Code); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"valid": true, "message": "Code verified"})
}

// ResetPassword handles POST /auth/reset-password
// @Summary Reset a password with a recovery code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,code=string,newPassword=string,confirmPassword=string} true "Reset request"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/reset-password [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email           string `json:"email"`
		Code            string `json:"code"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	err := s.recoveryService.ResetPassword(ctx, service.ResetPasswordInput{
		Email:           req.Email,
		Code:            req.Code,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password has been reset successfully"})
}
