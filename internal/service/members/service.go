package members

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/dating-api/internal/app"
	"github.com/oggyb/dating-api/internal/db"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/repository"
	"github.com/oggyb/dating-api/internal/service/dto"
	"github.com/oggyb/dating-api/internal/utils/age"
	"github.com/oggyb/dating-api/internal/utils/pagination"
)

// Age range applied when a listing does not set one.
const (
	DefaultMinAge = 18
	DefaultMaxAge = 99
)

// Like listing predicates.
const (
	PredicateLikers = "likers"
	PredicateLikees = "likees"
)

// ListUsersRequest filters the member listing. Nil ages use the defaults;
// an empty Gender means the opposite of the caller's.
type ListUsersRequest struct {
	Gender  string `validate:"omitempty,oneof=male female other"`
	MinAge  *int   `validate:"omitempty,min=0,max=150"`
	MaxAge  *int   `validate:"omitempty,min=0,max=150"`
	OrderBy string `validate:"omitempty,oneof=lastActive created"`
	Page    pagination.Params
}

// UpdateUserRequest holds the self-editable profile fields. Absent fields stay unchanged.
type UpdateUserRequest struct {
	KnownAs      *string `json:"knownAs" validate:"omitempty,min=1,max=64"`
	Bio          *string `json:"bio" validate:"omitempty,max=2000"`
	Introduction *string `json:"introduction" validate:"omitempty,max=2000"`
	LookingFor   *string `json:"lookingFor" validate:"omitempty,max=2000"`
	Interests    *string `json:"interests" validate:"omitempty,max=2000"`
	City         *string `json:"city" validate:"omitempty,max=128"`
	Country      *string `json:"country" validate:"omitempty,max=128"`
}

// Service implements member discovery, profiles and likes.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
	likeRepo *repository.LikeRepository
}

// NewMembersService creates the service with repositories bound to appCtx.DB.
func NewMembersService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
		likeRepo: repository.NewLikeRepository(appCtx.DB),
	}
}

// ListUsers returns one page of other members.
//
// Behavior:
//   - Gender defaults to the opposite of the caller's; callers with gender
//     "other" see every gender unless they ask for one.
//   - Ages default to 18..99 and translate into an inclusive date-of-birth range.
//   - The caller is never listed.
//   - Ordered by last activity (or creation) newest first.
//
// Example:
//
//	svc.ListUsers(ctx, 1, members.ListUsersRequest{Page: pagination.Params{Page: 1, PageSize: 10}})
func (s *Service) ListUsers(ctx context.Context, callerID uint64, req ListUsersRequest) (pagination.Page[dto.UserSummary], error) {
	s.appCtx.Logger.Debug("ListUsers called",
		"caller", callerID, "gender", req.Gender, "page", req.Page.Page, "page_size", req.Page.PageSize)

	var out pagination.Page[dto.UserSummary]

	if err := s.appCtx.Validate.StructCtx(ctx, req); err != nil {
		return out, svcErr.FromValidator(err)
	}
	if err := req.Page.Validate(); err != nil {
		return out, svcErr.Validation(err.Error())
	}

	minAge, maxAge := DefaultMinAge, DefaultMaxAge
	if req.MinAge != nil {
		minAge = *req.MinAge
	}
	if req.MaxAge != nil {
		maxAge = *req.MaxAge
	}
	if minAge > maxAge {
		return out, svcErr.Validation("minAge must not exceed maxAge")
	}

	caller, err := s.userRepo.GetByID(ctx, callerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, svcErr.Unauthorized("caller no longer exists")
	} else if err != nil {
		s.appCtx.Logger.Error("GetByID failed", "caller", callerID, "err", err)
		return out, svcErr.Map(err)
	}

	gender := req.Gender
	if gender == "" {
		gender = oppositeGender(caller.Gender)
	}

	today := s.appCtx.Now()
	earliest, latest := age.BirthBounds(minAge, maxAge, today)

	filter := repository.UserFilter{
		ExcludeID:  callerID,
		Gender:     gender,
		BornAfter:  earliest,
		BornBefore: latest,
		OrderBy:    req.OrderBy,
	}
	return s.page(ctx, filter, req.Page)
}

// GetUser returns a member's full profile as seen by callerID,
// including whether the caller already likes them.
func (s *Service) GetUser(ctx context.Context, callerID, id uint64) (*dto.UserDetail, error) {
	s.appCtx.Logger.Debug("GetUser called", "caller", callerID, "user", id)

	u, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("user not found")
	} else if err != nil {
		s.appCtx.Logger.Error("GetByID failed", "user", id, "err", err)
		return nil, svcErr.Map(err)
	}

	detail := dto.NewUserDetail(u, s.appCtx.Now())
	if callerID != id {
		liked, err := s.likeRepo.HasLiked(ctx, callerID, id)
		if err != nil {
			s.appCtx.Logger.Error("HasLiked failed", "caller", callerID, "user", id, "err", err)
			return nil, svcErr.Map(err)
		}
		detail.Liked = liked
	}
	return &detail, nil
}

// UpdateUser edits the caller's own profile.
func (s *Service) UpdateUser(ctx context.Context, callerID, id uint64, req UpdateUserRequest) error {
	s.appCtx.Logger.Debug("UpdateUser called", "caller", callerID, "user", id)

	if callerID != id {
		return svcErr.Unauthorized("you can only edit your own profile")
	}
	if err := s.appCtx.Validate.StructCtx(ctx, req); err != nil {
		return svcErr.FromValidator(err)
	}
	if req.KnownAs != nil {
		trimmed := strings.TrimSpace(*req.KnownAs)
		if trimmed == "" {
			return svcErr.Validation("knownAs must not be blank")
		}
		req.KnownAs = &trimmed
	}

	err := s.userRepo.UpdateProfile(ctx, id, repository.ProfileUpdate{
		KnownAs:      req.KnownAs,
		Bio:          req.Bio,
		Introduction: req.Introduction,
		LookingFor:   req.LookingFor,
		Interests:    req.Interests,
		City:         req.City,
		Country:      req.Country,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("user not found")
	} else if err != nil {
		s.appCtx.Logger.Error("UpdateProfile failed", "user", id, "err", err)
		return svcErr.Map(err)
	}
	return nil
}

// Like records callerID -> targetID.
//
// Behavior:
//   - Liking yourself is a Validation error.
//   - Unknown target is NotFound.
//   - A second like of the same target is a Conflict. Concurrent duplicates
//     are settled by the primary key, not by the pre-check.
//   - Drops the target's cached like count.
func (s *Service) Like(ctx context.Context, callerID, targetID uint64) error {
	s.appCtx.Logger.Debug("Like called", "caller", callerID, "target", targetID)

	if callerID == targetID {
		return svcErr.Validation("you cannot like yourself")
	}

	exists, err := s.userRepo.Exists(ctx, targetID)
	if err != nil {
		s.appCtx.Logger.Error("Exists failed", "target", targetID, "err", err)
		return svcErr.Map(err)
	}
	if !exists {
		return svcErr.NotFound("user not found")
	}

	if err := s.likeRepo.Create(ctx, callerID, targetID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return svcErr.Conflict("you already like this user")
		}
		s.appCtx.Logger.Error("Create like failed", "caller", callerID, "target", targetID, "err", err)
		return svcErr.Map(err)
	}

	s.invalidateLikeCount(ctx, targetID)
	return nil
}

// Unlike removes callerID -> targetID. Removing a missing like succeeds.
func (s *Service) Unlike(ctx context.Context, callerID, targetID uint64) error {
	s.appCtx.Logger.Debug("Unlike called", "caller", callerID, "target", targetID)

	removed, err := s.likeRepo.Delete(ctx, callerID, targetID)
	if err != nil {
		s.appCtx.Logger.Error("Delete like failed", "caller", callerID, "target", targetID, "err", err)
		return svcErr.Map(err)
	}
	if removed {
		s.invalidateLikeCount(ctx, targetID)
	}
	return nil
}

// ListLikes pages users who liked the caller (likers) or whom the caller liked (likees).
func (s *Service) ListLikes(ctx context.Context, callerID uint64, predicate string, p pagination.Params) (pagination.Page[dto.UserSummary], error) {
	s.appCtx.Logger.Debug("ListLikes called", "caller", callerID, "predicate", predicate)

	if err := p.Validate(); err != nil {
		return pagination.Page[dto.UserSummary]{}, svcErr.Validation(err.Error())
	}

	filter := repository.UserFilter{}
	switch strings.ToLower(predicate) {
	case "", PredicateLikers:
		filter.LikersOf = callerID
	case PredicateLikees:
		filter.LikeesOf = callerID
	default:
		return pagination.Page[dto.UserSummary]{}, svcErr.Validation("predicate must be likers or likees")
	}
	return s.page(ctx, filter, p)
}

// CountLikers returns how many users liked userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On miss or Redis failure, falls back to DB via repository.CountLikers.
//  3. On DB fetch, stores the count with a 1h TTL.
func (s *Service) CountLikers(ctx context.Context, userID uint64) (int64, error) {
	s.appCtx.Logger.Debug("CountLikers called", "user", userID)

	key := s.appCtx.RedisCache.KeyForLikeCount(userID)

	n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key)
	if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "key", key, "err", err)
	} else if ok {
		return n, nil
	}

	count, err := s.likeRepo.CountLikers(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("CountLikers failed", "user", userID, "err", err)
		return 0, svcErr.Map(err)
	}

	if err := s.appCtx.RedisCache.SetCount(ctx, key, count); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "key", key, "err", err)
	}
	return count, nil
}

func (s *Service) page(ctx context.Context, f repository.UserFilter, p pagination.Params) (pagination.Page[dto.UserSummary], error) {
	rows, total, err := s.userRepo.List(ctx, f, p)
	if err != nil {
		s.appCtx.Logger.Error("List users failed", "err", err)
		return pagination.Page[dto.UserSummary]{}, svcErr.Map(err)
	}

	today := s.appCtx.Now()
	items := make([]dto.UserSummary, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.NewUserSummary(r, today))
	}

	s.appCtx.Logger.Debug("user page", "count", len(items), "total", total)
	return pagination.Page[dto.UserSummary]{Items: items, Window: pagination.NewWindow(total, p)}, nil
}

func (s *Service) invalidateLikeCount(ctx context.Context, userID uint64) {
	key := s.appCtx.RedisCache.KeyForLikeCount(userID)
	if err := s.appCtx.RedisCache.Invalidate(ctx, key); err != nil {
		s.appCtx.Logger.Warn("like count cache invalidate failed", "key", key, "err", err)
	}
}

func oppositeGender(g string) string {
	switch g {
	case db.GenderMale:
		return db.GenderFemale
	case db.GenderFemale:
		return db.GenderMale
	default:
		return ""
	}
}
