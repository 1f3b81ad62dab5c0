package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF for DecodeConfig
	_ "image/jpeg" // register JPEG for DecodeConfig
	_ "image/png"  // register PNG for DecodeConfig
	"io"
	"log/slog"
	"path"
	"strings"

	"socialhub/internal/config"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/storage"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register WebP for DecodeConfig
)

const (
	DefaultMaxUploadSizeMB = 5
	// ImagePathPrefix is the public path uploaded images are served under.
	ImagePathPrefix = "/images/"
)

// ImageKind selects the directory an upload is stored in.
type ImageKind string

const (
	ImageKindUser ImageKind = "users"
	ImageKindPost ImageKind = "posts"
)

func (k ImageKind) Valid() bool {
	return k == ImageKindUser || k == ImageKindPost
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// imageFormat describes a decoder format the upload service stores.
type imageFormat struct {
	contentType string
	extensions  []string // first entry is the default
}

// imageFormats is keyed by the format name image.DecodeConfig reports.
var imageFormats = map[string]imageFormat{
	"jpeg": {contentType: "image/jpeg", extensions: []string{"jpg", "jpeg"}},
	"png":  {contentType: "image/png", extensions: []string{"png"}},
	"gif":  {contentType: "image/gif", extensions: []string{"gif"}},
	"webp": {contentType: "image/webp", extensions: []string{"webp"}},
}

type UploadInput struct {
	Kind        ImageKind
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type UploadService struct {
	store    storage.Store
	maxBytes int64
}

func NewUploadService(store storage.Store, cfg *config.Config) *UploadService {
	maxMB := DefaultMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxMB = cfg.ImageMaxUploadSizeMB
	}
	return &UploadService{store: store, maxBytes: int64(maxMB) * 1024 * 1024}
}

// MaxBytes is the largest accepted upload.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates and stores one image and returns its public path.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (string, error) {
	url, err := s.upload(ctx, in)
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeFailure
	}
	observability.ImageUploads.WithLabelValues(string(in.Kind), outcome).Inc()
	return url, err
}

func (s *UploadService) upload(ctx context.Context, in UploadInput) (string, error) {
	if !in.Kind.Valid() {
		return "", models.NewValidationError("Invalid upload type")
	}
	if in.Content == nil {
		return "", models.NewValidationError("No file uploaded")
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !allowedImageTypes[contentType] {
		return "", models.NewValidationError("Invalid file type. Only JPEG, PNG, GIF and WebP images are allowed")
	}
	if in.Size > s.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}

	// The declared size can lie; never store more than the limit.
	limited := io.LimitReader(in.Content, s.maxBytes+1)

	// The declared type can lie too: the header must decode as an allowed
	// image. Bytes consumed while sniffing are replayed in front of the rest.
	var head bytes.Buffer
	_, format, err := image.DecodeConfig(io.TeeReader(limited, &head))
	if err != nil && head.Len() == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	detected, ok := imageFormats[format]
	if err != nil || !ok {
		return "", models.NewValidationError("Invalid file type. Only JPEG, PNG, GIF and WebP images are allowed")
	}
	counted := &countingReader{r: io.MultiReader(&head, limited)}

	name := uuid.New().String() + "." + imageExtension(in.Filename, detected)
	key := string(in.Kind) + "/" + name
	if err := s.store.Put(ctx, key, counted, in.Size, detected.contentType); err != nil {
		return "", models.NewInternalError(fmt.Errorf("store image: %w", err))
	}
	if counted.n > s.maxBytes {
		s.remove(ctx, key)
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}
	if counted.n == 0 {
		s.remove(ctx, key)
		return "", models.NewValidationError("No file uploaded")
	}

	observability.ImageUploadBytes.Observe(float64(counted.n))
	return ImagePathPrefix + key, nil
}

// Open returns a stored image for serving.
func (s *UploadService) Open(ctx context.Context, kind, name string) (*storage.Object, error) {
	if !ImageKind(kind).Valid() {
		return nil, models.NewNotFoundError("Image", name)
	}
	key, err := storage.CleanKey(kind + "/" + name)
	if err != nil || strings.Count(key, "/") != 1 {
		return nil, models.NewNotFoundError("Image", name)
	}
	obj, err := s.store.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.NewNotFoundError("Image", name)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return obj, nil
}

// DeleteImage removes a previously uploaded image given its public path.
// Anything outside ImagePathPrefix is ignored and failures are only logged.
func (s *UploadService) DeleteImage(ctx context.Context, url string) {
	if !strings.HasPrefix(url, ImagePathPrefix) {
		return
	}
	key, err := storage.CleanKey(strings.TrimPrefix(url, ImagePathPrefix))
	if err != nil {
		middleware.Logger.WarnContext(ctx, "refusing to delete image", slog.String("url", url))
		return
	}
	s.remove(ctx, key)
}

func (s *UploadService) remove(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete image",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// imageExtension keeps the client's extension only when it names the
// detected format.
func imageExtension(filename string, f imageFormat) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	for _, allowed := range f.extensions {
		if ext == allowed {
			return ext
		}
	}
	return f.extensions[0]
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
