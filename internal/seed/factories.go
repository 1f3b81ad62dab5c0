// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"socialhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder, presets and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	r     *rand.Rand

	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.Seed picks a time-based seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(seed),
		r:     rand.New(rand.NewSource(seed)), // #nosec G404
	}
}

// hashedPassword hashes DefaultPassword once per factory. Fast mode uses the
// minimum bcrypt cost so seeded accounts can still sign in.
func (f *Factory) hashedPassword() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", err
	}
	f.passwordHash = string(hash)
	return f.passwordHash, nil
}

// createdAt returns a timestamp spread over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.r.Intn(maxDays))*24*time.Hour +
		time.Duration(f.r.Intn(24))*time.Hour +
		time.Duration(f.r.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// BuildUser constructs a user without persisting it. Usernames carry a
// numeric suffix so large runs stay unique.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.hashedPassword()
	if err != nil {
		return nil, err
	}
	name := f.faker.Name()
	bio := f.faker.Sentence(10)
	username := strings.ToLower(f.faker.Username()) + fmt.Sprintf("%d", f.faker.Number(100, 99999))
	if len(username) > 50 {
		username = username[:50]
	}
	user := &models.User{
		Name:     &name,
		Username: username,
		Email:    username + "@example.com",
		Bio:      &bio,
		Password: hash,
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		user.ID = uuid.New()
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post of the given type for author without persisting it.
func (f *Factory) BuildPost(author *models.User, postType models.PostType, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(f.faker.Sentence(5), ".")
	post := &models.Post{
		Title:     &title,
		AuthorID:  author.ID,
		Type:      postType,
		CreatedAt: f.createdAt(),
	}
	post.UpdatedAt = post.CreatedAt

	if postType != models.PostTypeImage {
		content := f.faker.Paragraph(1, 3, 8, "\n")
		post.Content = &content
		if f.r.Intn(2) == 0 {
			desc := f.faker.Sentence(12)
			post.Description = &desc
		}
	}
	if postType != models.PostTypeText {
		img := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
		post.ImageURL = &img
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in batches of opts.BatchSize.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = uuid.New()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(posts, batch).Error
}

// CreateComment persists a comment on post, optionally replying to parent.
func (f *Factory) CreateComment(author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		Content:  f.faker.Sentence(f.faker.Number(4, 16)),
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
	}
	if f.opts.DryRun {
		comment.ID = uuid.New()
		return comment, nil
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post. Repeats are ignored.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	like := &models.Like{UserID: user.ID, PostID: post.ID}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}

// CreateNotification records an event for recipient unless actor is the recipient.
func (f *Factory) CreateNotification(kind models.NotificationType, recipient, actor *models.User, post *models.Post, comment *models.Comment) error {
	if recipient.ID == actor.ID || f.opts.DryRun {
		return nil
	}
	n := &models.Notification{
		Type:        kind,
		RecipientID: recipient.ID,
		ActorID:     &actor.ID,
		PostID:      &post.ID,
		IsRead:      f.r.Intn(3) == 0,
	}
	var msg string
	switch kind {
	case models.NotificationLike:
		msg = "liked your post"
		if post.Title != nil {
			msg = fmt.Sprintf("liked your post %q", *post.Title)
		}
	case models.NotificationComment:
		msg = "commented on your post"
	case models.NotificationReply:
		msg = "replied to your comment"
	}
	if msg != "" {
		n.Message = &msg
	}
	if comment != nil {
		n.CommentID = &comment.ID
	}
	return f.db.Create(n).Error
}
