package seed

import (
	"fmt"
	"log"
	"strings"

	"techfeed/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with test data: users, link posts, comments
// and votes with a realistic engagement spread.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("%d test users created", len(users))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.r.Intn(len(users))]
		posts = append(posts, f.BuildPost(author))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	comments := 0
	for _, post := range posts {
		for i := 0; i < f.r.Intn(5); i++ {
			commenter := users[f.r.Intn(len(users))]
			if _, err := f.CreateComment(commenter, post); err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
			comments++
		}
	}
	log.Printf("%d comments created", comments)

	votes := 0
	for _, post := range posts {
		// a third of the user base upvotes on average
		for _, user := range users {
			if f.r.Intn(3) != 0 {
				continue
			}
			if err := f.CreateVote(user, post); err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			votes++
		}
	}
	log.Printf("%d votes recorded", votes)

	log.Println("Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE votes, comments, posts, users RESTART IDENTITY CASCADE;`).Error
	}
	for _, table := range []string{"votes", "comments", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
