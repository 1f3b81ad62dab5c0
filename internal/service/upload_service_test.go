package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"socialhub/internal/models"
	"socialhub/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadService(t *testing.T) (*UploadService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)
	return NewUploadService(store, testConfig()), dir
}

// webpPixel is a 1x1 lossless WebP.
var webpPixel = []byte("RIFF\x1a\x00\x00\x00WEBPVP8L\x0d\x00\x00\x00\x2f\x00\x00\x00\x10\x07\x10\x11\x11\x88\x88\xfe\x07\x00")

// encodedImage returns a small valid image in format (png, jpeg, gif or webp).
func encodedImage(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "webp":
		return append([]byte(nil), webpPixel...)
	default:
		t.Fatalf("unknown format %q", format)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

// paddedImage appends zeros to a valid image until it is n bytes long.
func paddedImage(t *testing.T, format string, n int) []byte {
	t.Helper()
	data := encodedImage(t, format)
	if len(data) < n {
		data = append(data, make([]byte, n-len(data))...)
	}
	return data
}

func TestUploadService_Upload(t *testing.T) {
	ctx := context.Background()
	svc, dir := newUploadService(t)

	t.Run("accepts a 1MB png", func(t *testing.T) {
		data := paddedImage(t, "png", 1<<20)
		url, err := svc.Upload(ctx, UploadInput{
			Kind:        ImageKindPost,
			Filename:    "Holiday.PNG",
			ContentType: "image/png",
			Size:        int64(len(data)),
			Content:     bytes.NewReader(data),
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "/images/posts/"))
		assert.True(t, strings.HasSuffix(url, ".png"))

		stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, ImagePathPrefix))))
		require.NoError(t, err)
		assert.Equal(t, data, stored, "bytes are stored unchanged")
	})

	t.Run("accepts every allowed format", func(t *testing.T) {
		for _, tt := range []struct{ format, filename, contentType, ext string }{
			{"jpeg", "a.jpeg", "image/jpeg", ".jpeg"},
			{"jpeg", "a.jpg", "image/jpg", ".jpg"},
			{"gif", "a.gif", "image/gif", ".gif"},
			{"webp", "a.webp", "image/webp", ".webp"},
		} {
			data := encodedImage(t, tt.format)
			url, err := svc.Upload(ctx, UploadInput{
				Kind:        ImageKindUser,
				Filename:    tt.filename,
				ContentType: tt.contentType,
				Size:        int64(len(data)),
				Content:     bytes.NewReader(data),
			})
			require.NoError(t, err, tt.filename)
			assert.True(t, strings.HasSuffix(url, tt.ext), url)
		}
	})

	t.Run("rejects a 6MB file", func(t *testing.T) {
		data := paddedImage(t, "jpeg", 6<<20)
		_, err := svc.Upload(ctx, UploadInput{
			Kind:        ImageKindUser,
			Filename:    "big.jpg",
			ContentType: "image/jpeg",
			Size:        int64(len(data)),
			Content:     bytes.NewReader(data),
		})
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("rejects an oversized body with a lying size", func(t *testing.T) {
		before, _ := os.ReadDir(filepath.Join(dir, "users"))
		data := paddedImage(t, "jpeg", 6<<20)
		_, err := svc.Upload(ctx, UploadInput{
			Kind:        ImageKindUser,
			Filename:    "big.jpg",
			ContentType: "image/jpeg",
			Size:        10,
			Content:     bytes.NewReader(data),
		})
		assertAppCode(t, err, models.CodeValidation)

		after, err := os.ReadDir(filepath.Join(dir, "users"))
		require.NoError(t, err)
		assert.Equal(t, len(before), len(after), "the partial upload is removed")
	})

	t.Run("rejects a pdf", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadInput{
			Kind:        ImageKindPost,
			Filename:    "doc.pdf",
			ContentType: "application/pdf",
			Size:        4,
			Content:     strings.NewReader("%PDF"),
		})
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("rejects markup declared as an image", func(t *testing.T) {
		before, _ := os.ReadDir(filepath.Join(dir, "posts"))
		page := "<html><script>alert(document.cookie)</script></html>"
		_, err := svc.Upload(ctx, UploadInput{
			Kind:        ImageKindPost,
			Filename:    "evil.html",
			ContentType: "image/png",
			Size:        int64(len(page)),
			Content:     strings.NewReader(page),
		})
		assertAppCode(t, err, models.CodeValidation)

		after, _ := os.ReadDir(filepath.Join(dir, "posts"))
		assert.Equal(t, len(before), len(after), "nothing is stored")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadInput{Kind: ImageKindPost, ContentType: "image/png"})
		assertAppCode(t, err, models.CodeValidation)

		_, err = svc.Upload(ctx, UploadInput{Kind: ImageKindPost, ContentType: "image/png", Content: strings.NewReader("")})
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("extension follows the detected format", func(t *testing.T) {
		for _, tt := range []struct{ filename, ext string }{
			{"avatar", ".webp"},
			{"avatar.html", ".webp"},
			{"avatar.png", ".webp"},
			{"avatar.WEBP", ".webp"},
		} {
			url, err := svc.Upload(ctx, UploadInput{
				Kind:        ImageKindUser,
				Filename:    tt.filename,
				ContentType: "image/webp",
				Size:        int64(len(webpPixel)),
				Content:     bytes.NewReader(webpPixel),
			})
			require.NoError(t, err, tt.filename)
			assert.True(t, strings.HasSuffix(url, tt.ext), "%s stored as %s", tt.filename, url)
		}
	})

	t.Run("stores the detected content type", func(t *testing.T) {
		data := encodedImage(t, "png")
		url, err := svc.Upload(ctx, UploadInput{
			Kind:        ImageKindPost,
			Filename:    "photo.jpg",
			ContentType: "image/jpeg",
			Size:        int64(len(data)),
			Content:     bytes.NewReader(data),
		})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(url, ".png"), url)
	})
}

func TestUploadService_OpenAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUploadService(t)

	data := encodedImage(t, "gif")
	url, err := svc.Upload(ctx, UploadInput{
		Kind:        ImageKindUser,
		Filename:    "me.gif",
		ContentType: "image/gif",
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	})
	require.NoError(t, err)
	name := strings.TrimPrefix(url, "/images/users/")

	obj, err := svc.Open(ctx, "users", name)
	require.NoError(t, err)
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	require.NoError(t, obj.Close())
	assert.Equal(t, data, body)
	assert.Equal(t, "image/gif", obj.ContentType)

	_, err = svc.Open(ctx, "secrets", name)
	assertAppCode(t, err, models.CodeNotFound)
	_, err = svc.Open(ctx, "users", "../users/"+name)
	assertAppCode(t, err, models.CodeNotFound)

	svc.DeleteImage(ctx, url)
	_, err = svc.Open(ctx, "users", name)
	assertAppCode(t, err, models.CodeNotFound)

	// Best effort: missing files and foreign URLs are ignored.
	svc.DeleteImage(ctx, url)
	svc.DeleteImage(ctx, "https://cdn.example.com/a.png")
	svc.DeleteImage(ctx, "/images/../etc/passwd")
}

func TestImageExtension(t *testing.T) {
	jpegFormat := imageFormats["jpeg"]
	assert.Equal(t, "jpeg", imageExtension("a.JPEG", jpegFormat))
	assert.Equal(t, "jpg", imageExtension("a.jpg", jpegFormat))
	assert.Equal(t, "jpg", imageExtension("noext", jpegFormat))
	assert.Equal(t, "jpg", imageExtension("weird.p$g", jpegFormat))
	assert.Equal(t, "jpg", imageExtension("x.svg", jpegFormat))
	assert.Equal(t, "png", imageExtension("x.jpg", imageFormats["png"]))
}
