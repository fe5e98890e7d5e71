package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/dating-api/internal/db"
)

var (
	// ErrNotOwner is returned when the photo belongs to another user.
	ErrNotOwner = errors.New("photo belongs to another user")
	// ErrAlreadyMain is returned by SetMain when the photo is already main.
	ErrAlreadyMain = errors.New("photo is already the main photo")
	// ErrMainPhoto is returned by Delete for a main photo while others exist.
	ErrMainPhoto = errors.New("cannot delete the main photo")
)

// PhotoRepository provides data access for photos and owns the
// one-main-photo-per-user invariant.
type PhotoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new repository bound to the given DB connection.
func NewPhotoRepository(database *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: database}
}

// Add inserts a photo for p.UserID. The first photo of a user becomes main.
// The user row is locked so concurrent first uploads cannot both win.
func (r *PhotoRepository) Add(ctx context.Context, p *db.Photo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, p.UserID); err != nil {
			return err
		}

		var mains int64
		if err := tx.Model(&db.Photo{}).
			Where("user_id = ? AND is_main = ?", p.UserID, true).
			Count(&mains).Error; err != nil {
			return err
		}
		p.IsMain = mains == 0

		return tx.Create(p).Error
	})
}

// Get loads a photo by id.
func (r *PhotoRepository) Get(ctx context.Context, id uint64) (*db.Photo, error) {
	var p db.Photo
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns a user's photos, main first.
func (r *PhotoRepository) ListByUser(ctx context.Context, userID uint64) ([]db.Photo, error) {
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_main DESC, id ASC").
		Find(&photos).Error
	return photos, err
}

// SetMain makes photoID the user's main photo.
//
// Behavior:
//   - Clear of the previous main and set of the new one commit together.
//   - gorm.ErrRecordNotFound if the photo does not exist.
//   - ErrNotOwner if it belongs to someone else, ErrAlreadyMain if it is main.
func (r *PhotoRepository) SetMain(ctx context.Context, userID, photoID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		var photo db.Photo
		if err := tx.First(&photo, photoID).Error; err != nil {
			return err
		}
		if photo.UserID != userID {
			return ErrNotOwner
		}
		if photo.IsMain {
			return ErrAlreadyMain
		}

		if err := tx.Model(&db.Photo{}).
			Where("user_id = ? AND is_main = ?", userID, true).
			Update("is_main", false).Error; err != nil {
			return err
		}
		return tx.Model(&db.Photo{}).
			Where("id = ?", photoID).
			Update("is_main", true).Error
	})
}

// Delete removes photoID and returns the deleted row so the caller can clean
// up external storage.
//
// Behavior:
//   - ErrMainPhoto if the photo is main and the user has other photos.
//   - Deleting the only photo (main or not) is allowed; the user then has no main.
func (r *PhotoRepository) Delete(ctx context.Context, userID, photoID uint64) (*db.Photo, error) {
	var photo db.Photo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		if err := tx.First(&photo, photoID).Error; err != nil {
			return err
		}
		if photo.UserID != userID {
			return ErrNotOwner
		}

		if photo.IsMain {
			var others int64
			if err := tx.Model(&db.Photo{}).
				Where("user_id = ? AND id <> ?", userID, photoID).
				Count(&others).Error; err != nil {
				return err
			}
			if others > 0 {
				return ErrMainPhoto
			}
		}

		return tx.Delete(&db.Photo{}, photoID).Error
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// lockUser takes a row lock on the user, serializing photo changes per user.
// SQLite drops the FOR UPDATE clause and relies on its write lock instead.
func lockUser(tx *gorm.DB, userID uint64) error {
	var u db.User
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&u, userID).Error
}
