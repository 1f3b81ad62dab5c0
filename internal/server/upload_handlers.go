package server

import (
	"context"
	"strconv"
	"strings"

	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// imageFormField is the multipart field carrying an uploaded image.
const imageFormField = "image"

// receiveImage stores the image sent in the request's "image" field. A request
// without one reaches the upload service with no content and is rejected there.
func (s *Server) receiveImage(ctx context.Context, c *fiber.Ctx, kind service.ImageKind) (string, error) {
	in := service.UploadInput{Kind: kind}
	if fh, err := c.FormFile(imageFormField); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		in.Filename = fh.Filename
		in.ContentType = fh.Header.Get(fiber.HeaderContentType)
		in.Size = fh.Size
		in.Content = f
	}
	return s.uploadService.Upload(ctx, in)
}

func hasImageFile(c *fiber.Ctx) bool {
	_, err := c.FormFile(imageFormField)
	return err == nil
}

func (s *Server) handleUpload(c *fiber.Ctx, kind service.ImageKind, message string) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	url, err := s.receiveImage(ctx, c, kind)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"imageUrl": url,
		"message":  message,
	})
}

// UploadUserAvatar handles POST /upload/user-avatar
// @Summary Upload an avatar
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image (jpeg, png, gif or webp, 5MB max)"
// @Success 200 {object} object{imageUrl=string,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /upload/user-avatar [post]
func (s *Server) UploadUserAvatar(c *fiber.Ctx) error {
	return s.handleUpload(c, service.ImageKindUser, "Avatar uploaded successfully")
}

// UploadPostImage handles POST /upload/post-image
// @Summary Upload a post image
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image (jpeg, png, gif or webp, 5MB max)"
// @Success 200 {object} object{imageUrl=string,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /upload/post-image [post]
func (s *Server) UploadPostImage(c *fiber.Ctx) error {
	return s.handleUpload(c, service.ImageKindPost, "Image uploaded successfully")
}

// ServeImage handles GET /images/:kind/:name
// @Summary Serve an uploaded image
// @Tags upload
// @Produce image/png,image/jpeg,image/gif,image/webp
// @Param kind path string true "users or posts"
// @Param name path string true "File name"
// @Success 200 {file} file
// @Failure 404 {object} models.ErrorResponse
// @Router /images/{kind}/{name} [get]
func (s *Server) ServeImage(c *fiber.Ctx) error {
	// The body is streamed after the handler returns, so the object must not
	// be tied to a context cancelled on return.
	obj, err := s.uploadService.Open(c.UserContext(), c.Params("kind"), c.Params("name"))
	if err != nil {
		return respondServiceError(c, err)
	}

	// Only image types are served inline; anything else is an opaque download.
	contentType := obj.ContentType
	if !strings.HasPrefix(contentType, "image/") || strings.Contains(contentType, "svg") {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	// Names are random UUIDs, so an object never changes once written.
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	if obj.Size > 0 {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
		return c.SendStream(obj, int(obj.Size))
	}
	return c.SendStream(obj)
}
