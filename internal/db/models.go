package db

import (
	"time"
)

// Gender values accepted for User.Gender.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// User table.
//
// DateOfBirth is stored as a UTC midnight date; age is always derived from it.
// LastActive is bumped after every authenticated request.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	KnownAs      string    `gorm:"size:64;not null"`
	Gender       string    `gorm:"size:16;not null;index:idx_users_gender_dob,priority:1"`
	DateOfBirth  time.Time `gorm:"not null;index:idx_users_gender_dob,priority:2"`
	City         string    `gorm:"size:128"`
	Country      string    `gorm:"size:128"`
	Bio          string    `gorm:"type:text"`
	Introduction string    `gorm:"type:text"`
	LookingFor   string    `gorm:"type:text"`
	Interests    string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	LastActive   time.Time `gorm:"index"`

	Photos []Photo `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Photo belongs to a user.
//
// At most one photo per user has IsMain set; the repository keeps that
// invariant inside transactions.
//
// Fields:
//   - ExternalID: object key in photo storage, nil when the URL is not
//     backed by our storage (e.g. seeded placeholder images).
type Photo struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      uint64    `gorm:"not null;index:idx_photos_user_main,priority:1"`
	URL         string    `gorm:"size:512;not null"`
	ExternalID  *string   `gorm:"size:255"`
	IsMain      bool      `gorm:"not null;default:false;index:idx_photos_user_main,priority:2"`
	Description string    `gorm:"size:512"`
	AddedAt     time.Time `gorm:"autoCreateTime"`
}

// Like is a directed liker -> likee edge.
//
// Composite PK: (LikerID, LikeeID)
//   - A second like for the same ordered pair fails on the key, which is how
//     concurrent duplicate likes are serialized.
//
// Indexes:
//   - idx_likes_likee(likee_id, created_at DESC) for "who liked me" lists.
type Like struct {
	LikerID   uint64    `gorm:"primaryKey;autoIncrement:false"`
	LikeeID   uint64    `gorm:"primaryKey;autoIncrement:false;index:idx_likes_likee,priority:1"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_likes_likee,priority:2,sort:desc"`
}

// Message between two users.
//
// A message stays in the table until both SenderDeleted and RecipientDeleted
// are set; at that point it is purged in the same transaction.
type Message struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	SenderID         uint64 `gorm:"not null;index:idx_messages_sender,priority:1"`
	RecipientID      uint64 `gorm:"not null;index:idx_messages_recipient,priority:1"`
	Content          string `gorm:"type:text;not null"`
	IsRead           bool   `gorm:"not null;default:false;index:idx_messages_recipient,priority:2"`
	ReadAt           *time.Time
	SentAt           time.Time `gorm:"not null;index:idx_messages_sender,priority:2;index:idx_messages_recipient,priority:3"`
	SenderDeleted    bool      `gorm:"not null;default:false"`
	RecipientDeleted bool      `gorm:"not null;default:false"`

	Sender    User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Recipient User `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{&User{}, &Photo{}, &Like{}, &Message{}}
}
