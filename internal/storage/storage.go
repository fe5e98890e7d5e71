// Package storage keeps uploaded photo objects outside the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/oggyb/dating-api/internal/config"
)

// ErrNotImage is returned when an upload cannot be decoded as an image.
var ErrNotImage = errors.New("upload is not a supported image")

// PhotoStore is the external store photo rows point into.
type PhotoStore interface {
	// Upload stores the image and returns its public URL and the id used to delete it.
	Upload(ctx context.Context, userID uint64, filename string, r io.Reader) (url, externalID string, err error)
	Delete(ctx context.Context, externalID string) error
}

// LocalStore writes square-cropped JPEGs under Dir and serves them from BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
	Size    int
}

// NewLocalStore creates the storage directory if needed.
func NewLocalStore(cfg *config.Config) (*LocalStore, error) {
	if err := os.MkdirAll(cfg.Photo.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	size := cfg.Photo.Size
	if size <= 0 {
		size = 500
	}
	return &LocalStore{
		Dir:     cfg.Photo.Dir,
		BaseURL: strings.TrimRight(cfg.Photo.BaseURL, "/"),
		Size:    size,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// Upload decodes the image, fill-crops it to Size x Size around the center
// and writes it as <userID>/<uuid>-<name>.jpg.
func (s *LocalStore) Upload(ctx context.Context, userID uint64, filename string, r io.Reader) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	img = imaging.Fill(img, s.Size, s.Size, imaging.Center, imaging.Lanczos)

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = unsafeChars.ReplaceAllString(base, "_")
	key := fmt.Sprintf("%d/%s-%s.jpg", userID, uuid.NewString(), base)

	path := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", "", err
	}
	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", "", err
	}
	if err := f.Close(); err != nil {
		return "", "", err
	}

	return s.BaseURL + "/" + key, key, nil
}

// Delete removes the object. A missing object is not an error.
func (s *LocalStore) Delete(ctx context.Context, externalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := filepath.Clean("/" + externalID)
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
