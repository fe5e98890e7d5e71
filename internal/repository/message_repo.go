package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/utils/pagination"
)

// Container selects which message view a listing shows.
type Container string

const (
	ContainerUnread Container = "Unread"
	ContainerInbox  Container = "Inbox"
	ContainerOutbox Container = "Outbox"
)

// ErrNotParticipant is returned when the user is neither sender nor recipient.
var ErrNotParticipant = errors.New("user is not a participant of the message")

// MessageRow is a message joined with both parties' display name and main photo.
type MessageRow struct {
	ID                uint64
	SenderID          uint64
	RecipientID       uint64
	Content           string
	IsRead            bool
	ReadAt            *time.Time
	SentAt            time.Time
	SenderDeleted     bool
	RecipientDeleted  bool
	SenderKnownAs     string
	SenderPhotoURL    *string
	RecipientKnownAs  string
	RecipientPhotoURL *string
}

// MessageRepository provides data access for messages.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create inserts a new message.
func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

// Get loads the raw message row.
func (r *MessageRepository) Get(ctx context.Context, id uint64) (*db.Message, error) {
	var m db.Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetRow loads a message with its projected party fields.
func (r *MessageRepository) GetRow(ctx context.Context, id uint64) (*MessageRow, error) {
	var rows []MessageRow
	if err := r.joined(ctx).Where("m.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// List returns one page of the user's messages in the given container,
// newest first, along with the total count of the container.
//
// Behavior:
//   - Unread: recipient is user, not read, not deleted by recipient.
//   - Inbox:  recipient is user, not deleted by recipient.
//   - Outbox: sender is user, not deleted by sender.
func (r *MessageRepository) List(
	ctx context.Context,
	userID uint64,
	container Container,
	p pagination.Params,
) ([]MessageRow, int64, error) {
	var total int64
	if err := containerScope(r.db.WithContext(ctx).Table("messages m"), userID, container).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []MessageRow{}
	if total == 0 {
		return rows, 0, nil
	}

	err := containerScope(r.joined(ctx), userID, container).
		Order("m.sent_at DESC, m.id DESC").
		Offset(p.Offset()).
		Limit(p.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Thread returns the conversation between user and other, oldest first,
// hiding the messages user has deleted.
func (r *MessageRepository) Thread(ctx context.Context, userID, otherID uint64) ([]MessageRow, error) {
	rows := []MessageRow{}
	err := r.joined(ctx).
		Where(
			"(m.sender_id = ? AND m.recipient_id = ? AND m.sender_deleted = ?) OR "+
				"(m.sender_id = ? AND m.recipient_id = ? AND m.recipient_deleted = ?)",
			userID, otherID, false,
			otherID, userID, false,
		).
		Order("m.sent_at ASC, m.id ASC").
		Scan(&rows).Error
	return rows, err
}

// MarkRead flips is_read for a message addressed to recipientID.
// Only an unread row is touched, so a repeated call keeps the first read_at.
// Returns whether the row changed.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID, recipientID uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", messageID, recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected > 0, res.Error
}

// DeleteForUser hides the message for userID and purges it once both parties
// have deleted it. The flag update and the purge commit together.
// Returns whether the message was physically removed.
func (r *MessageRepository) DeleteForUser(ctx context.Context, messageID, userID uint64) (bool, error) {
	purged := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m db.Message
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, messageID).Error; err != nil {
			return err
		}

		switch userID {
		case m.SenderID:
			m.SenderDeleted = true
		case m.RecipientID:
			m.RecipientDeleted = true
		default:
			return ErrNotParticipant
		}

		if m.SenderDeleted && m.RecipientDeleted {
			purged = true
			return tx.Delete(&db.Message{}, m.ID).Error
		}
		return tx.Model(&db.Message{}).
			Where("id = ?", m.ID).
			Updates(map[string]any{
				"sender_deleted":    m.SenderDeleted,
				"recipient_deleted": m.RecipientDeleted,
			}).Error
	})
	return purged, err
}

// CountUnread returns the number of unread, undeleted messages for the user.
func (r *MessageRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := containerScope(r.db.WithContext(ctx).Table("messages m"), userID, ContainerUnread).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("messages m").
		Select(`m.id, m.sender_id, m.recipient_id, m.content, m.is_read, m.read_at, m.sent_at,
			m.sender_deleted, m.recipient_deleted,
			s.known_as AS sender_known_as, sp.url AS sender_photo_url,
			rc.known_as AS recipient_known_as, rp.url AS recipient_photo_url`).
		Joins("JOIN users s ON s.id = m.sender_id").
		Joins("LEFT JOIN photos sp ON sp.user_id = m.sender_id AND sp.is_main = ?", true).
		Joins("JOIN users rc ON rc.id = m.recipient_id").
		Joins("LEFT JOIN photos rp ON rp.user_id = m.recipient_id AND rp.is_main = ?", true)
}

func containerScope(q *gorm.DB, userID uint64, c Container) *gorm.DB {
	switch c {
	case ContainerInbox:
		return q.Where("m.recipient_id = ? AND m.recipient_deleted = ?", userID, false)
	case ContainerOutbox:
		return q.Where("m.sender_id = ? AND m.sender_deleted = ?", userID, false)
	default:
		return q.Where("m.recipient_id = ? AND m.is_read = ? AND m.recipient_deleted = ?", userID, false, false)
	}
}
