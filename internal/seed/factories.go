// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"diorama/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// MaxDays spreads generated created_at timestamps over the past N days.
	MaxDays int
	// SkipBcrypt stores the plaintext demo password instead of hashing it.
	// Much faster for large runs; never use outside local development.
	SkipBcrypt bool
	// DryRun logs what would be created without touching the database.
	DryRun bool
}

// Avatar customization pools. These mirror the variation and color sets the
// frontend character editor offers.
var (
	characterParts = []string{"head", "torso", "legs", "accessory"}

	meshVariations = map[string][]string{
		"head":      {"round", "square", "oval", "blocky"},
		"torso":     {"slim", "broad", "hoodie", "jacket"},
		"legs":      {"standard", "shorts", "long", "robot"},
		"accessory": {"none", "cap", "glasses", "headphones", "scarf"},
	}

	characterColors = []string{
		"#e63946", "#f1faee", "#a8dadc", "#457b9d", "#1d3557",
		"#ffb703", "#fb8500", "#8ecae6", "#219ebc", "#023047",
		"#606c38", "#283618", "#dda15e", "#bc6c25",
	}
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and by tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // weak randomness is fine for demo data
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, rng: rng, nextID: 1000}
}

// RandomCharacter builds a plausible avatar configuration: one mesh
// variation and one color per body part.
func (f *Factory) RandomCharacter() models.CharacterConfig {
	cfg := models.CharacterConfig{
		Variations: make(map[string]string, len(characterParts)),
		Colors:     make(map[string]string, len(characterParts)),
	}
	for _, part := range characterParts {
		variations := meshVariations[part]
		cfg.Variations[part] = variations[f.rng.Intn(len(variations))]
		cfg.Colors[part] = characterColors[f.rng.Intn(len(characterColors))]
	}
	return cfg
}

// RandomPosition places a post somewhere inside the diorama scene bounds.
func (f *Factory) RandomPosition() models.Position {
	return models.Position{
		X: f.rng.Float64()*20 - 10,
		Y: f.rng.Float64() * 3,
		Z: f.rng.Float64()*20 - 10,
	}
}

func (f *Factory) spreadTimestamp() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:     gofakeit.Email(),
		Bio:       gofakeit.Sentence(10),
		Character: f.RandomCharacter(),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post struct for the given author without persisting
// it. The author's current character config is snapshotted onto the post,
// matching what the post service does at publish time.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Content:   gofakeit.Paragraph(1, 3, 5, "\n"),
		AuthorID:  author.ID,
		Character: author.Character,
		Position:  f.RandomPosition(),
	}
	post.CreatedAt = f.spreadTimestamp()

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost constructs and persists a sample `models.Post` for the author.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: author=%d content=%.40q", post.AuthorID, post.Content)
		return post, nil
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateReaction persists a reaction from `user` on `post`. Duplicate
// (post, user) pairs are silently skipped so random sampling does not have
// to track which pairs were already used.
func (f *Factory) CreateReaction(user *models.User, post *models.Post, reactionType models.ReactionType) error {
	if f.opts.DryRun {
		return nil
	}
	reaction := &models.Reaction{
		PostID:    post.ID,
		UserID:    user.ID,
		Type:      reactionType,
		CreatedAt: f.spreadTimestamp(),
	}
	return f.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(reaction).Error
}

// RandomReactionType picks a reaction type, weighted toward likes the way
// real engagement skews.
func (f *Factory) RandomReactionType() models.ReactionType {
	if f.rng.Float32() < 0.6 {
		return models.ReactionLike
	}
	return models.ReactionTypes[f.rng.Intn(len(models.ReactionTypes))]
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateNotification persists an interaction notification for the post
// author. Self-notifications are skipped, matching runtime behaviour.
func (f *Factory) CreateNotification(sender *models.User, post *models.Post, notificationType models.NotificationType) error {
	if sender.ID == post.AuthorID || f.opts.DryRun {
		return nil
	}
	notification := &models.Notification{
		RecipientID: post.AuthorID,
		SenderID:    sender.ID,
		Type:        notificationType,
		PostID:      post.ID,
		IsRead:      f.rng.Float32() < 0.5,
	}
	return f.db.Create(notification).Error
}

// CreateMessage constructs and persists a direct message between two users.
func (f *Factory) CreateMessage(sender, recipient *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	message := &models.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     gofakeit.Sentence(10),
		IsRead:      f.rng.Float32() < 0.7,
	}
	message.CreatedAt = f.spreadTimestamp()

	for _, override := range overrides {
		override(message)
	}

	if f.opts.DryRun {
		f.nextID++
		message.ID = f.nextID
		return message, nil
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}
