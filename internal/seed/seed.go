package seed

import (
	"fmt"
	"log"

	"diorama/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder orchestrates populating the database with demo data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder with the given options.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// ClearAll removes every seeded table's contents. Postgres only.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE notifications, reactions, comments, messages, posts, users RESTART IDENTITY CASCADE;`
	return s.db.Exec(sql).Error
}

// Run populates the database: users with avatar configs, posts scattered
// through the scene, then reactions, comments, notifications and a few
// direct message threads.
func (s *Seeder) Run() error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", s.opts.NumUsers, s.opts.NumPosts)

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := s.createUsers()
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	posts, err := s.createPosts(users)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	if err := s.createEngagement(users, posts); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	if err := s.createMessageThreads(users); err != nil {
		return fmt.Errorf("failed to create message threads: %w", err)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func (s *Seeder) createUsers() ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)

	// Always include some specific users for consistency when cleaning
	if s.opts.NumUsers >= 3 {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		for _, name := range []string{"demo", "ada", "test"} {
			name := name
			user, err := s.factory.CreateUser(func(u *models.User) {
				u.Username = name
				u.Email = fmt.Sprintf("%s@example.com", name)
				u.Password = string(hashedPassword)
				u.Bio = "One of the OGs."
			})
			if err == nil {
				users = append(users, user)
			}
		}
	}

	for i := len(users); i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i%100 == 0 && i > 0 {
			log.Printf("Created %d users...", i)
		}
	}

	return users, nil
}

func (s *Seeder) createPosts(users []*models.User) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		posts = append(posts, s.factory.BuildPost(author))
	}

	// Batch insert in chunks to keep single statements reasonable
	const chunk = 100
	for start := 0; start < len(posts); start += chunk {
		end := start + chunk
		if end > len(posts) {
			end = len(posts)
		}
		batch := posts[start:end]
		if err := s.factory.CreatePostsBatch(batch); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (s *Seeder) createEngagement(users []*models.User, posts []*models.Post) error {
	rng := s.factory.rng
	var reactions, comments int

	for _, post := range posts {
		// 0 to 8 reactions per post, random reactors
		for i := 0; i < rng.Intn(9); i++ {
			reactor := users[rng.Intn(len(users))]
			reactionType := s.factory.RandomReactionType()
			if err := s.factory.CreateReaction(reactor, post, reactionType); err != nil {
				return err
			}
			if err := s.factory.CreateNotification(reactor, post, models.NotificationReaction); err != nil {
				return err
			}
			reactions++
		}

		// roughly a third of posts get comments
		if rng.Float32() < 0.35 {
			for i := 0; i < rng.Intn(4)+1; i++ {
				commenter := users[rng.Intn(len(users))]
				if _, err := s.factory.CreateComment(commenter, post); err != nil {
					return err
				}
				if err := s.factory.CreateNotification(commenter, post, models.NotificationComment); err != nil {
					return err
				}
				comments++
			}
		}
	}

	log.Printf("✓ %d reactions and %d comments created", reactions, comments)
	return nil
}

func (s *Seeder) createMessageThreads(users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	rng := s.factory.rng
	threads := len(users) / 4
	if threads < 1 {
		threads = 1
	}

	var messages int
	for i := 0; i < threads; i++ {
		a := users[rng.Intn(len(users))]
		b := users[rng.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		// a short back-and-forth
		for j := 0; j < rng.Intn(6)+2; j++ {
			sender, recipient := a, b
			if j%2 == 1 {
				sender, recipient = b, a
			}
			if _, err := s.factory.CreateMessage(sender, recipient); err != nil {
				return err
			}
			messages++
		}
	}

	log.Printf("✓ %d direct messages created", messages)
	return nil
}
