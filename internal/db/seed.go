package db

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/dating-api/internal/logger"
	"github.com/oggyb/dating-api/internal/utils/age"
)

// SeedPassword is the password of every seeded user.
const SeedPassword = "password"

var seedCities = []struct{ City, Country string }{
	{"Lisbon", "Portugal"},
	{"Porto", "Portugal"},
	{"London", "United Kingdom"},
	{"Manchester", "United Kingdom"},
	{"Berlin", "Germany"},
	{"Madrid", "Spain"},
}

var seedNames = map[string][]string{
	GenderMale:   {"Liam", "Noah", "Oliver", "Elijah", "James", "Lucas", "Mateo", "Theo", "Hugo", "Leo"},
	GenderFemale: {"Olivia", "Emma", "Amelia", "Sophia", "Mia", "Isla", "Ava", "Lily", "Nora", "Zara"},
}

// SeedTestData resets the database and populates it with demo members.
//
// Behavior:
//  1. Clears messages, likes, photos and users.
//  2. Creates 20 users (10 male, 10 female) aged 18..60, password SeedPassword,
//     each with one main photo and one extra photo.
//  3. Each user likes ~5 users of the opposite gender; every 3rd like is mutual.
//  4. Mutual likes get a short message exchange, the reply left unread.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB, now time.Time) error {
	r := rand.New(rand.NewSource(now.UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "likes", "photos", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE messages AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE photos AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('messages', 'photos', 'users')")
	}

	logger.Info("cleared existing data")

	// one hash for everyone; bcrypt is deliberately slow
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed Users (10 male, 10 female) ---
	users := make([]User, 0, 20)
	for i := 0; i < 20; i++ {
		gender, portraits := GenderMale, "men"
		if i >= 10 {
			gender, portraits = GenderFemale, "women"
		}
		name := seedNames[gender][i%10]
		place := seedCities[r.Intn(len(seedCities))]
		years := 18 + r.Intn(43)

		u := User{
			Username:     fmt.Sprintf("%s%d", strings.ToLower(name), i+1),
			PasswordHash: string(hash),
			KnownAs:      name,
			Gender:       gender,
			DateOfBirth:  age.Date(now.AddDate(-years, 0, -r.Intn(365))),
			City:         place.City,
			Country:      place.Country,
			Bio:          fmt.Sprintf("%s from %s.", name, place.City),
			Introduction: "Hi, I'm " + name + ".",
			LookingFor:   "Someone kind.",
			Interests:    "Travel, food, music",
			LastActive:   now.Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Omit("Photos").Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		photos := []Photo{
			{UserID: u.ID, URL: fmt.Sprintf("https://randomuser.me/api/portraits/%s/%d.jpg", portraits, i%10), IsMain: true, AddedAt: now},
			{UserID: u.ID, URL: fmt.Sprintf("https://randomuser.me/api/portraits/%s/%d.jpg", portraits, 50+i%10), AddedAt: now},
		}
		if err := db.Create(&photos).Error; err != nil {
			return fmt.Errorf("failed to seed photos: %w", err)
		}
		users = append(users, u)
	}
	logger.Info("seeded users", "count", len(users))

	// --- Seed Likes and Messages ---
	counter, messages := 0, 0
	var likes int64
	for _, actor := range users {
		for j := 0; j < 5; j++ {
			target := users[r.Intn(len(users))]
			if target.ID == actor.ID || target.Gender == actor.Gender {
				continue
			}

			res := db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&Like{LikerID: actor.ID, LikeeID: target.ID})
			if res.Error != nil {
				return fmt.Errorf("failed to seed like: %w", res.Error)
			}
			likes += res.RowsAffected

			// guarantee a mutual like every 3rd pair, with a short conversation
			if counter%3 == 0 {
				res := db.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&Like{LikerID: target.ID, LikeeID: actor.ID})
				if res.Error != nil {
					return fmt.Errorf("failed to seed like: %w", res.Error)
				}
				likes += res.RowsAffected

				sent := now.Add(-time.Duration(r.Intn(72)+1) * time.Hour)
				readAt := sent.Add(10 * time.Minute)
				convo := []Message{
					{SenderID: actor.ID, RecipientID: target.ID, Content: "Hi " + target.KnownAs + "!", SentAt: sent, IsRead: true, ReadAt: &readAt},
					{SenderID: target.ID, RecipientID: actor.ID, Content: "Hey " + actor.KnownAs + ", how are you?", SentAt: sent.Add(30 * time.Minute)},
				}
				if err := db.Omit(clause.Associations).Create(&convo).Error; err != nil {
					return fmt.Errorf("failed to seed messages: %w", err)
				}
				messages += len(convo)
			}
			counter++
		}
	}

	logger.Info("seeded relationships", "likes", likes, "messages", messages)
	return nil
}
