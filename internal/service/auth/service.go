package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/dating-api/internal/app"
	authn "github.com/oggyb/dating-api/internal/auth"
	"github.com/oggyb/dating-api/internal/db"
	svcErr "github.com/oggyb/dating-api/internal/errors"
	"github.com/oggyb/dating-api/internal/repository"
	"github.com/oggyb/dating-api/internal/service/dto"
	"github.com/oggyb/dating-api/internal/utils/age"
)

// MinAge is the youngest age allowed to register.
const MinAge = 18

const dateLayout = "2006-01-02"

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=32"`
	Password    string `json:"password" validate:"required,min=4,max=64"`
	KnownAs     string `json:"knownAs" validate:"required,max=64"`
	Gender      string `json:"gender" validate:"required,oneof=male female other"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	City        string `json:"city" validate:"required,max=128"`
	Country     string `json:"country" validate:"required,max=128"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string         `json:"token"`
	User  dto.UserDetail `json:"user"`
}

// Service registers users and exchanges credentials for bearer tokens.
type Service struct {
	appCtx   *app.AppContext
	userRepo *repository.UserRepository
}

func NewAuthService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		userRepo: repository.NewUserRepository(appCtx.DB),
	}
}

// Register creates a user.
//
// Behavior:
//   - Username is trimmed and lowercased before validation and storage.
//   - Users younger than MinAge are rejected.
//   - A taken username is a Conflict; the unique index backs the pre-check.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*dto.UserDetail, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.KnownAs = strings.TrimSpace(req.KnownAs)

	s.appCtx.Logger.Debug("Register called", "username", req.Username)

	if err := s.appCtx.Validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.FromValidator(err)
	}

	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return nil, svcErr.Validation("dateOfBirth must be YYYY-MM-DD")
	}
	now := s.appCtx.Now()
	if age.Years(dob, now) < MinAge {
		return nil, svcErr.Validation("you must be at least 18 years old")
	}

	taken, err := s.userRepo.UsernameTaken(ctx, req.Username)
	if err != nil {
		s.appCtx.Logger.Error("UsernameTaken failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if taken {
		return nil, svcErr.Conflict("username already exists")
	}

	hash, err := authn.HashPassword(req.Password)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	u := &db.User{
		Username:     req.Username,
		PasswordHash: hash,
		KnownAs:      req.KnownAs,
		Gender:       req.Gender,
		DateOfBirth:  age.Date(dob),
		City:         req.City,
		Country:      req.Country,
		LastActive:   now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, svcErr.Conflict("username already exists")
		}
		s.appCtx.Logger.Error("Create user failed", "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("user registered", "user_id", u.ID)
	detail := dto.NewUserDetail(u, now)
	return &detail, nil
}

// Login checks credentials and issues a token.
// Unknown user and wrong password fail identically.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	s.appCtx.Logger.Debug("Login called", "username", req.Username)

	if err := s.appCtx.Validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.FromValidator(err)
	}

	invalid := svcErr.Unauthorized("invalid username or password")

	u, err := s.userRepo.GetByUsername(ctx, req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	} else if err != nil {
		s.appCtx.Logger.Error("GetByUsername failed", "err", err)
		return nil, svcErr.Map(err)
	}

	ok, err := authn.CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		s.appCtx.Logger.Error("stored password hash unreadable", "user_id", u.ID, "err", err)
		return nil, invalid
	}
	if !ok {
		return nil, invalid
	}

	token, err := s.appCtx.Tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	full, err := s.userRepo.GetByID(ctx, u.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	return &LoginResponse{Token: token, User: dto.NewUserDetail(full, s.appCtx.Now())}, nil
}
