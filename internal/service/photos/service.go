package photos

import (
	"context"
	"errors"
	"io"

	"gorm.io/gorm"

	"github.com/oggyb/dating-api/internal/app"
	"github.com/oggyb/dating-api/internal/db"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/repository"
	"github.com/oggyb/dating-api/internal/service/dto"
	"github.com/oggyb/dating-api/internal/storage"
)

// UploadRequest is one image upload. Body is consumed by the call.
type UploadRequest struct {
	Filename    string
	Description string `validate:"max=512"`
	Body        io.Reader
}

// DeleteResult carries the storage warning when the external delete failed.
type DeleteResult struct {
	Warning string `json:"warning,omitempty"`
}

// Service manages user photos and the main photo designation.
type Service struct {
	appCtx    *app.AppContext
	photoRepo *repository.PhotoRepository
}

// NewPhotosService creates the service with repositories bound to appCtx.DB.
func NewPhotosService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		photoRepo: repository.NewPhotoRepository(appCtx.DB),
	}
}

// Upload stores the image and records it for the caller.
//
// Behavior:
//   - The first photo of a user becomes main, decided inside the insert transaction.
//   - If the row cannot be written the stored object is removed again, best effort.
//   - A storage failure is a Dependency error; a non-image upload is a Validation error.
func (s *Service) Upload(ctx context.Context, callerID uint64, req UploadRequest) (*dto.Photo, error) {
	s.appCtx.Logger.Debug("Upload called", "caller", callerID, "filename", req.Filename)

	if req.Body == nil {
		return nil, svcErr.Validation("file is required")
	}
	if err := s.appCtx.Validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.FromValidator(err)
	}

	url, externalID, err := s.appCtx.Photos.Upload(ctx, callerID, req.Filename, req.Body)
	if errors.Is(err, storage.ErrNotImage) {
		return nil, svcErr.Validation("file must be a jpeg, png or gif image")
	} else if err != nil {
		s.appCtx.Logger.Error("photo upload failed", "caller", callerID, "err", err)
		return nil, svcErr.Dependency("photo storage is unavailable", err)
	}

	photo := &db.Photo{
		UserID:      callerID,
		URL:         url,
		ExternalID:  &externalID,
		Description: req.Description,
		AddedAt:     s.appCtx.Now(),
	}
	if err := s.photoRepo.Add(ctx, photo); err != nil {
		s.appCtx.Logger.Error("Add photo failed", "caller", callerID, "err", err)
		if derr := s.appCtx.Photos.Delete(context.WithoutCancel(ctx), externalID); derr != nil {
			s.appCtx.Logger.Warn("orphaned photo object", "external_id", externalID, "err", derr)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("user not found")
		}
		return nil, svcErr.Map(err)
	}

	out := dto.NewPhoto(*photo)
	return &out, nil
}

// Get returns one of userID's photos.
func (s *Service) Get(ctx context.Context, userID, photoID uint64) (*dto.Photo, error) {
	s.appCtx.Logger.Debug("Get photo called", "user", userID, "photo", photoID)

	p, err := s.photoRepo.Get(ctx, photoID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && p.UserID != userID) {
		return nil, svcErr.NotFound("photo not found")
	} else if err != nil {
		s.appCtx.Logger.Error("Get photo failed", "photo", photoID, "err", err)
		return nil, svcErr.Map(err)
	}

	out := dto.NewPhoto(*p)
	return &out, nil
}

// List returns userID's photos, main first. Unknown users have none.
func (s *Service) List(ctx context.Context, userID uint64) ([]dto.Photo, error) {
	s.appCtx.Logger.Debug("List photos called", "user", userID)

	rows, err := s.photoRepo.ListByUser(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("ListByUser failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	out := make([]dto.Photo, 0, len(rows))
	for _, p := range rows {
		out = append(out, dto.NewPhoto(p))
	}
	return out, nil
}

// SetMain makes photoID the caller's main photo. The old main is cleared in
// the same transaction.
func (s *Service) SetMain(ctx context.Context, callerID, photoID uint64) error {
	s.appCtx.Logger.Debug("SetMain called", "caller", callerID, "photo", photoID)

	err := s.photoRepo.SetMain(ctx, callerID, photoID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotOwner):
		return svcErr.Unauthorized("photo belongs to another user")
	case errors.Is(err, repository.ErrAlreadyMain):
		return svcErr.Conflict("this is already your main photo")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return svcErr.NotFound("photo not found")
	default:
		s.appCtx.Logger.Error("SetMain failed", "caller", callerID, "photo", photoID, "err", err)
		return svcErr.Map(err)
	}
}

// Delete removes one of the caller's photos.
//
// Behavior:
//   - The main photo cannot be deleted while the user has others.
//   - Someone else's photo is a Validation error.
//   - The row is removed first; a failed delete in photo storage is reported
//     in DeleteResult.Warning, not as an error.
func (s *Service) Delete(ctx context.Context, callerID, photoID uint64) (*DeleteResult, error) {
	s.appCtx.Logger.Debug("Delete photo called", "caller", callerID, "photo", photoID)

	photo, err := s.photoRepo.Delete(ctx, callerID, photoID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrMainPhoto):
		return nil, svcErr.Validation("you cannot delete your main photo")
	case errors.Is(err, repository.ErrNotOwner):
		return nil, svcErr.Validation("photo belongs to another user")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, svcErr.NotFound("photo not found")
	default:
		s.appCtx.Logger.Error("Delete photo failed", "caller", callerID, "photo", photoID, "err", err)
		return nil, svcErr.Map(err)
	}

	result := &DeleteResult{}
	if photo.ExternalID == nil {
		return result, nil
	}
	if err := s.appCtx.Photos.Delete(ctx, *photo.ExternalID); err != nil {
		werr := svcErr.Dependency("photo removed, but deleting it from storage failed", err)
		s.appCtx.Logger.Warn("photo storage delete failed", "external_id", *photo.ExternalID, "err", err)
		result.Warning = svcErr.PublicMessage(werr)
	}
	return result, nil
}
