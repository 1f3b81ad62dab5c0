package service

import (
	"context"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/repository"
	"socialhub/internal/validation"

	"github.com/google/uuid"
)

// ImageRemover deletes a previously uploaded image by its public URL. It never fails.
type ImageRemover interface {
	DeleteImage(ctx context.Context, url string)
}

type UserService struct {
	userRepo repository.UserRepository
	images   ImageRemover
}

// UpdateProfileInput carries the fields a user may change on their own profile.
// Nil fields are left untouched.
type UpdateProfileInput struct {
	SubjectID uuid.UUID
	UserID    uuid.UUID
	Name      *string
	Username  *string
	Email     *string
	Bio       *string
	ImageURL  *string
}

func NewUserService(userRepo repository.UserRepository, images ImageRemover) *UserService {
	return &UserService{userRepo: userRepo, images: images}
}

// CreateUser applies the same rules as registration without issuing a session.
func (s *UserService) CreateUser(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	user, err := createAccount(ctx, s.userRepo, in)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

func (s *UserService) ListUsers(ctx context.Context, page PageRequest) ([]models.PublicUser, error) {
	users, err := s.userRepo.List(ctx, page.toPage())
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// UpdateProfile checks existence, then ownership, then conflicts with other
// users, then applies the provided fields.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(user.ID, in.SubjectID, "update your own profile"); err != nil {
		return nil, err
	}

	if in.Email != nil {
		addr := validation.NormalizeEmail(*in.Email)
		if err := validation.ValidateEmail(addr); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.ensureFree(ctx, s.userRepo.GetByEmail, addr, user.ID, "Email already in use"); err != nil {
			return nil, err
		}
		user.Email = addr
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.ensureFree(ctx, s.userRepo.GetByUsername, username, user.ID, "Username already taken"); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = &name
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Bio = blankToNil(in.Bio)
	}

	var replacedImage string
	if in.ImageURL != nil {
		next := blankToNil(in.ImageURL)
		if user.ImageURL != nil && (next == nil || *next != *user.ImageURL) {
			replacedImage = *user.ImageURL
		}
		user.ImageURL = next
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if replacedImage != "" && s.images != nil {
		s.images.DeleteImage(ctx, replacedImage)
	}

	pub := user.Public()
	return &pub, nil
}

func (s *UserService) ensureFree(
	ctx context.Context,
	lookup func(context.Context, string) (*models.User, error),
	value string,
	self uuid.UUID,
	msg string,
) error {
	other, err := lookup(ctx, value)
	if err != nil {
		return err
	}
	if other != nil && other.ID != self {
		return models.NewConflictError(msg)
	}
	return nil
}

// DeleteByEmail removes an account and everything it owns. Development tooling only.
func (s *UserService) DeleteByEmail(ctx context.Context, emailAddr string) error {
	addr := validation.NormalizeEmail(emailAddr)
	if addr == "" {
		return models.NewValidationError("Email is required")
	}
	user, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if user == nil {
		return &models.AppError{Code: models.CodeNotFound, Message: "User not found"}
	}
	return s.userRepo.Delete(ctx, user.ID)
}
