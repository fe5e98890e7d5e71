package messages

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
	"github.com/oggyb/dating-api/internal/utils/pagination"
)

// MaxContentLength bounds a message body, counted in characters after trimming.
const MaxContentLength = 2000

type SendRequest struct {
	RecipientID uint64 `json:"recipientId" validate:"required"`
	Content     string `json:"content" validate:"required,max=2000"`
}

// Service implements messaging between members.
type Service struct {
	appCtx      *app.AppContext
	userRepo    *repository.UserRepository
	messageRepo *repository.MessageRepository
}

// NewMessagesService creates the service with repositories bound to appCtx.DB.
func NewMessagesService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		userRepo:    repository.NewUserRepository(appCtx.DB),
		messageRepo: repository.NewMessageRepository(appCtx.DB),
	}
}

// ParseContainer maps a query value onto a container, case-insensitively.
// Empty means Unread.
func ParseContainer(s string) (repository.Container, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unread":
		return repository.ContainerUnread, nil
	case "inbox":
		return repository.ContainerInbox, nil
	case "outbox":
		return repository.ContainerOutbox, nil
	default:
		return "", svcErr.Validation("container must be Unread, Inbox or Outbox")
	}
}

// List pages the caller's messages in a container, newest first.
func (s *Service) List(ctx context.Context, callerID uint64, container string, p pagination.Params) (pagination.Page[dto.Message], error) {
	s.appCtx.Logger.Debug("List messages called", "caller", callerID, "container", container)

	c, err := ParseContainer(container)
	if err != nil {
		return pagination.Page[dto.Message]{}, err
	}
	if err := p.Validate(); err != nil {
		return pagination.Page[dto.Message]{}, svcErr.Validation(err.Error())
	}

	rows, total, err := s.messageRepo.List(ctx, callerID, c, p)
	if err != nil {
		s.appCtx.Logger.Error("List messages failed", "caller", callerID, "err", err)
		return pagination.Page[dto.Message]{}, svcErr.Map(err)
	}

	return pagination.Page[dto.Message]{
		Items:  dto.NewMessages(rows),
		Window: pagination.NewWindow(total, p),
	}, nil
}

// Thread returns the conversation with otherID, oldest first, minus the
// messages the caller deleted. Reading a thread does not mark anything read.
func (s *Service) Thread(ctx context.Context, callerID, otherID uint64) ([]dto.Message, error) {
	s.appCtx.Logger.Debug("Thread called", "caller", callerID, "other", otherID)

	rows, err := s.messageRepo.Thread(ctx, callerID, otherID)
	if err != nil {
		s.appCtx.Logger.Error("Thread failed", "caller", callerID, "other", otherID, "err", err)
		return nil, svcErr.Map(err)
	}
	return dto.NewMessages(rows), nil
}

// Get returns one message the caller takes part in and has not deleted.
func (s *Service) Get(ctx context.Context, callerID, messageID uint64) (*dto.Message, error) {
	s.appCtx.Logger.Debug("Get message called", "caller", callerID, "message", messageID)

	row, err := s.messageRepo.GetRow(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("message not found")
	} else if err != nil {
		s.appCtx.Logger.Error("GetRow failed", "message", messageID, "err", err)
		return nil, svcErr.Map(err)
	}

	visible := (row.SenderID == callerID && !row.SenderDeleted) ||
		(row.RecipientID == callerID && !row.RecipientDeleted)
	if !visible {
		return nil, svcErr.NotFound("message not found")
	}

	out := dto.NewMessage(*row)
	return &out, nil
}

// Send creates a message from callerID.
//
// Behavior:
//   - Content is trimmed; blank content is a Validation error.
//   - Messaging yourself is a Validation error; an unknown recipient is NotFound.
//   - Drops the recipient's cached unread count.
func (s *Service) Send(ctx context.Context, callerID uint64, req SendRequest) (*dto.Message, error) {
	s.appCtx.Logger.Debug("Send called", "caller", callerID, "recipient", req.RecipientID)

	req.Content = strings.TrimSpace(req.Content)
	if err := s.appCtx.Validate.StructCtx(ctx, req); err != nil {
		return nil, svcErr.FromValidator(err)
	}
	if req.RecipientID == callerID {
		return nil, svcErr.Validation("you cannot message yourself")
	}

	exists, err := s.userRepo.Exists(ctx, req.RecipientID)
	if err != nil {
		s.appCtx.Logger.Error("Exists failed", "recipient", req.RecipientID, "err", err)
		return nil, svcErr.Map(err)
	}
	if !exists {
		return nil, svcErr.NotFound("recipient not found")
	}

	m := &db.Message{
		SenderID:    callerID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		SentAt:      s.appCtx.Now(),
	}
	if err := s.messageRepo.Create(ctx, m); err != nil {
		s.appCtx.Logger.Error("Create message failed", "caller", callerID, "err", err)
		return nil, svcErr.Map(err)
	}
	s.invalidateUnread(ctx, req.RecipientID)

	row, err := s.messageRepo.GetRow(ctx, m.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := dto.NewMessage(*row)
	return &out, nil
}

// MarkRead marks a message read by its recipient.
//
// Behavior:
//   - NotFound if the message does not exist.
//   - Unauthorized unless the caller is the recipient.
//   - Already read is a no-op; the first read time is kept.
func (s *Service) MarkRead(ctx context.Context, callerID, messageID uint64) error {
	s.appCtx.Logger.Debug("MarkRead called", "caller", callerID, "message", messageID)

	m, err := s.messageRepo.Get(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.NotFound("message not found")
	} else if err != nil {
		s.appCtx.Logger.Error("Get message failed", "message", messageID, "err", err)
		return svcErr.Map(err)
	}
	if m.RecipientID != callerID {
		return svcErr.Unauthorized("only the recipient can mark a message read")
	}
	if m.IsRead {
		return nil
	}

	changed, err := s.messageRepo.MarkRead(ctx, messageID, callerID, s.appCtx.Now())
	if err != nil {
		s.appCtx.Logger.Error("MarkRead failed", "message", messageID, "err", err)
		return svcErr.Map(err)
	}
	if changed {
		s.invalidateUnread(ctx, callerID)
	}
	return nil
}

// Delete hides a message from the caller; once both parties deleted it the
// row is purged. Deleting an already hidden message again is a no-op.
func (s *Service) Delete(ctx context.Context, callerID, messageID uint64) error {
	s.appCtx.Logger.Debug("Delete message called", "caller", callerID, "message", messageID)

	purged, err := s.messageRepo.DeleteForUser(ctx, messageID, callerID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotParticipant):
		return svcErr.Unauthorized("you are not part of this conversation")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return svcErr.NotFound("message not found")
	default:
		s.appCtx.Logger.Error("DeleteForUser failed", "message", messageID, "err", err)
		return svcErr.Map(err)
	}

	s.appCtx.Logger.Debug("message deleted", "message", messageID, "purged", purged)
	s.invalidateUnread(ctx, callerID)
	return nil
}

// CountUnread returns the caller's unread message count.
// Cache-first strategy:
//  1. Attempts to read from Redis (messages:unread:userID).
//  2. On miss or Redis failure, counts in the DB.
//  3. On DB fetch, stores the count with a 1h TTL.
func (s *Service) CountUnread(ctx context.Context, callerID uint64) (int64, error) {
	s.appCtx.Logger.Debug("CountUnread called", "caller", callerID)

	key := s.appCtx.RedisCache.KeyForUnreadCount(callerID)
	n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key)
	if err != nil {
		s.appCtx.Logger.Warn("unread cache read failed", "key", key, "err", err)
	} else if ok {
		return n, nil
	}

	count, err := s.messageRepo.CountUnread(ctx, callerID)
	if err != nil {
		s.appCtx.Logger.Error("CountUnread failed", "caller", callerID, "err", err)
		return 0, svcErr.Map(err)
	}
	if err := s.appCtx.RedisCache.SetCount(ctx, key, count); err != nil {
		s.appCtx.Logger.Warn("unread cache write failed", "key", key, "err", err)
	}
	return count, nil
}

func (s *Service) invalidateUnread(ctx context.Context, userID uint64) {
	key := s.appCtx.RedisCache.KeyForUnreadCount(userID)
	if err := s.appCtx.RedisCache.Invalidate(ctx, key); err != nil {
		s.appCtx.Logger.Warn("unread cache invalidate failed", "key", key, "err", err)
	}
}
