package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/dating-api/internal/db"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries on liker -> likee edges.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Create inserts the edge liker -> likee.
//
// Behavior:
//   - The composite PK rejects a second insert of the same pair; with
//     TranslateError enabled that arrives as gorm.ErrDuplicatedKey.
//   - Edges are never updated, only created and deleted.
//
// Example:
//
//	repo.Create(ctx, 1, 2) // user 1 liked user 2
func (r *LikeRepository) Create(ctx context.Context, likerID, likeeID uint64) error {
	return r.db.WithContext(ctx).Create(&db.Like{
		LikerID: likerID,
		LikeeID: likeeID,
	}).Error
}

// Delete removes the edge if present and reports whether a row was removed.
func (r *LikeRepository) Delete(ctx context.Context, likerID, likeeID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("liker_id = ? AND likee_id = ?", likerID, likeeID).
		Delete(&db.Like{})
	return res.RowsAffected > 0, res.Error
}

// HasLiked checks whether liker has liked likee.
//
// Example:
//
//	repo.HasLiked(ctx, 1, 2) // -> true if user 1 liked user 2
func (r *LikeRepository) HasLiked(ctx context.Context, likerID, likeeID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND likee_id = ?", likerID, likeeID).
		Count(&count).Error
	return count > 0, err
}

// CountLikers returns how many users liked the given user.
// Used in conjunction with Redis cache (DB is fallback).
func (r *LikeRepository) CountLikers(ctx context.Context, likeeID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("likee_id = ?", likeeID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
