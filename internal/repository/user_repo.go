package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/utils/pagination"
)

// Sort keys for user listings.
const (
	OrderByLastActive = "lastActive"
	OrderByCreated    = "created"
)

// UserFilter narrows a user listing. Zero values disable a predicate.
type UserFilter struct {
	ExcludeID uint64
	Gender    string
	// DOB range, inclusive. Zero times disable the bound.
	BornAfter  time.Time
	BornBefore time.Time
	// LikersOf lists users who liked this user; LikeesOf lists users this user liked.
	LikersOf uint64
	LikeesOf uint64
	OrderBy  string
}

// UserSummary is the listing projection of a user plus its main photo URL.
type UserSummary struct {
	ID          uint64
	Username    string
	KnownAs     string
	Gender      string
	DateOfBirth time.Time
	City        string
	Country     string
	CreatedAt   time.Time
	LastActive  time.Time
	PhotoURL    *string
}

// ProfileUpdate carries the self-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	KnownAs      *string
	Bio          *string
	Introduction *string
	LookingFor   *string
	Interests    *string
	City         *string
	Country      *string
}

// UserRepository provides data access for users.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user. A taken username surfaces as gorm.ErrDuplicatedKey.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Omit("Photos").Create(u).Error
}

// GetByID loads a user with photos, main photo first then by id.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).
		Preload("Photos", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("is_main DESC, id ASC")
		}).
		First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks a user up by its lowercase username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with the id exists.
func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// UsernameTaken reports whether the username is already registered.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// UpdateProfile applies the non-nil fields of upd.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, upd ProfileUpdate) error {
	fields := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	set("known_as", upd.KnownAs)
	set("bio", upd.Bio)
	set("introduction", upd.Introduction)
	set("looking_for", upd.LookingFor)
	set("interests", upd.Interests)
	set("city", upd.City)
	set("country", upd.Country)
	if len(fields) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastActive records activity for the user.
func (r *UserRepository) TouchLastActive(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		UpdateColumn("last_active", at).Error
}

// List returns one page of users matching f and the total matching count.
//
// Behavior:
//   - Count and page share the same predicate, so the window is exact.
//   - Main photo URL is joined in; users without photos get a nil PhotoURL.
//   - Ordered by last_active or created_at DESC, id DESC as tiebreaker.
//   - A page past the end yields an empty slice.
func (r *UserRepository) List(
	ctx context.Context,
	f UserFilter,
	p pagination.Params,
) ([]UserSummary, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []UserSummary{}
	if total == 0 {
		return users, 0, nil
	}

	order := "u.last_active DESC, u.id DESC"
	if f.OrderBy == OrderByCreated {
		order = "u.created_at DESC, u.id DESC"
	}

	err := r.filtered(ctx, f).
		Select(`u.id, u.username, u.known_as, u.gender, u.date_of_birth, u.city, u.country,
			u.created_at, u.last_active, p.url AS photo_url`).
		Joins("LEFT JOIN photos p ON p.user_id = u.id AND p.is_main = ?", true).
		Order(order).
		Offset(p.Offset()).
		Limit(p.Limit()).
		Scan(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) filtered(ctx context.Context, f UserFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Table("users u")

	if f.ExcludeID != 0 {
		q = q.Where("u.id <> ?", f.ExcludeID)
	}
	if f.Gender != "" {
		q = q.Where("u.gender = ?", f.Gender)
	}
	if !f.BornAfter.IsZero() {
		q = q.Where("u.date_of_birth >= ?", f.BornAfter)
	}
	if !f.BornBefore.IsZero() {
		q = q.Where("u.date_of_birth <= ?", f.BornBefore)
	}
	if f.LikersOf != 0 {
		q = q.Where("u.id IN (?)", r.db.Table("likes").Select("liker_id").Where("likee_id = ?", f.LikersOf))
	}
	if f.LikeesOf != 0 {
		q = q.Where("u.id IN (?)", r.db.Table("likes").Select("likee_id").Where("liker_id = ?", f.LikeesOf))
	}
	return q
}
