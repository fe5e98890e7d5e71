// Package dto holds the JSON shapes the API returns and their mapping from rows.
package dto

import (
	"time"

	"github.com/oggyb/dating-api/internal/db"
	"github.com/oggyb/dating-api/internal/repository"
	"github.com/oggyb/dating-api/internal/utils/age"
)

type Photo struct {
	ID          uint64    `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	IsMain      bool      `json:"isMain"`
	AddedAt     time.Time `json:"addedAt"`
}

// UserSummary is a user in a listing. PhotoURL is empty when the user has no main photo.
type UserSummary struct {
	ID         uint64    `json:"id"`
	Username   string    `json:"username"`
	KnownAs    string    `json:"knownAs"`
	Gender     string    `json:"gender"`
	Age        int       `json:"age"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"lastActive"`
	PhotoURL   string    `json:"photoUrl"`
}

// UserDetail is the full profile with photos, main first.
type UserDetail struct {
	UserSummary
	Bio          string  `json:"bio"`
	Introduction string  `json:"introduction"`
	LookingFor   string  `json:"lookingFor"`
	Interests    string  `json:"interests"`
	Photos       []Photo `json:"photos"`
	// Liked reports whether the viewer likes this member.
	Liked bool `json:"liked"`
}

type Message struct {
	ID                uint64     `json:"id"`
	SenderID          uint64     `json:"senderId"`
	SenderKnownAs     string     `json:"senderKnownAs"`
	SenderPhotoURL    string     `json:"senderPhotoUrl"`
	RecipientID       uint64     `json:"recipientId"`
	RecipientKnownAs  string     `json:"recipientKnownAs"`
	RecipientPhotoURL string     `json:"recipientPhotoUrl"`
	Content           string     `json:"content"`
	IsRead            bool       `json:"isRead"`
	ReadAt            *time.Time `json:"dateRead"`
	SentAt            time.Time  `json:"messageSent"`
}

func NewPhoto(p db.Photo) Photo {
	return Photo{
		ID:          p.ID,
		URL:         p.URL,
		Description: p.Description,
		IsMain:      p.IsMain,
		AddedAt:     p.AddedAt,
	}
}

func NewUserSummary(u repository.UserSummary, today time.Time) UserSummary {
	return UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		KnownAs:    u.KnownAs,
		Gender:     u.Gender,
		Age:        age.Years(u.DateOfBirth, today),
		City:       u.City,
		Country:    u.Country,
		Created:    u.CreatedAt,
		LastActive: u.LastActive,
		PhotoURL:   deref(u.PhotoURL),
	}
}

// NewUserDetail expects u.Photos to be loaded main first.
func NewUserDetail(u *db.User, today time.Time) UserDetail {
	d := UserDetail{
		UserSummary: UserSummary{
			ID:         u.ID,
			Username:   u.Username,
			KnownAs:    u.KnownAs,
			Gender:     u.Gender,
			Age:        age.Years(u.DateOfBirth, today),
			City:       u.City,
			Country:    u.Country,
			Created:    u.CreatedAt,
			LastActive: u.LastActive,
		},
		Bio:          u.Bio,
		Introduction: u.Introduction,
		LookingFor:   u.LookingFor,
		Interests:    u.Interests,
		Photos:       make([]Photo, 0, len(u.Photos)),
	}
	for _, p := range u.Photos {
		if p.IsMain {
			d.PhotoURL = p.URL
		}
		d.Photos = append(d.Photos, NewPhoto(p))
	}
	return d
}

func NewMessage(m repository.MessageRow) Message {
	return Message{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderKnownAs:     m.SenderKnownAs,
		SenderPhotoURL:    deref(m.SenderPhotoURL),
		RecipientID:       m.RecipientID,
		RecipientKnownAs:  m.RecipientKnownAs,
		RecipientPhotoURL: deref(m.RecipientPhotoURL),
		Content:           m.Content,
		IsRead:            m.IsRead,
		ReadAt:            m.ReadAt,
		SentAt:            m.SentAt,
	}
}

func NewMessages(rows []repository.MessageRow) []Message {
	out := make([]Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewMessage(r))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
