package seed

import (
	"fmt"
	"log"

	"socialhub/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// SkipBcrypt hashes with the minimum cost for fast local runs.
	SkipBcrypt bool
	// DryRun builds entities without writing them.
	DryRun    bool
	MaxDays   int
	BatchSize int
	// Upper bounds per post; the actual numbers are random.
	LikesPerPost    int
	CommentsPerPost int
	Distribution    Distribution
	// Seed makes runs reproducible; zero picks a time-based seed.
	Seed int64
}

// Distribution weights the post types of a run. Values are relative.
type Distribution struct {
	Text          int `yaml:"text"`
	Image         int `yaml:"image"`
	TextWithImage int `yaml:"textWithImage"`
}

var defaultDistribution = Distribution{Text: 50, Image: 20, TextWithImage: 30}

// Stats counts what a run created.
type Stats struct {
	Users         int
	Posts         int
	Likes         int
	Comments      int
	Notifications int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d users, %d posts, %d likes, %d comments, %d notifications",
		s.Users, s.Posts, s.Likes, s.Comments, s.Notifications)
}

// computeCounts splits n posts by d using largest remainders so the parts
// always sum to n.
func computeCounts(n int, d Distribution) (text, image, textWithImage int) {
	total := d.Text + d.Image + d.TextWithImage
	if total <= 0 || n <= 0 {
		return n, 0, 0
	}
	weights := [3]int{d.Text, d.Image, d.TextWithImage}
	var counts, rems [3]int
	assigned := 0
	for i, w := range weights {
		counts[i] = n * w / total
		rems[i] = n * w % total
		assigned += counts[i]
	}
	for ; assigned < n; assigned++ {
		best := 0
		for i := 1; i < 3; i++ {
			if rems[i] > rems[best] {
				best = i
			}
		}
		counts[best]++
		rems[best] = -1
	}
	return counts[0], counts[1], counts[2]
}

// Seeder populates the database through a Factory.
type Seeder struct {
	db   *gorm.DB
	f    *Factory
	opts Options
}

// NewSeeder fills unset limits with development defaults.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.LikesPerPost <= 0 {
		opts.LikesPerPost = 10
	}
	if opts.CommentsPerPost <= 0 {
		opts.CommentsPerPost = 5
	}
	if opts.Distribution == (Distribution{}) {
		opts.Distribution = defaultDistribution
	}
	return &Seeder{db: db, f: NewFactory(db, opts), opts: opts}
}

// ClearAll deletes every row the application owns, children first.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		log.Println("[dry-run] ClearAll skipped")
		return nil
	}
	log.Println("🗑️  Clearing existing data...")
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{
		&models.Notification{},
		&models.Like{},
		&models.Comment{},
		&models.Post{},
		&models.PasswordResetCode{},
		&models.User{},
	} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

// baseAccounts always exist after a run so there is something to sign in with.
var baseAccounts = []Account{
	{Username: "alice", Name: "Alice Example", Bio: "Seeded account."},
	{Username: "bob", Name: "Bob Example", Bio: "Seeded account."},
	{Username: "test", Name: "Test User", Bio: "Seeded account."},
}

// SeedUsers creates count users, starting with the fixed accounts.
func (s *Seeder) SeedUsers(count int, accounts ...Account) ([]*models.User, error) {
	if len(accounts) == 0 {
		accounts = baseAccounts
	}
	users := make([]*models.User, 0, count)
	for _, a := range accounts {
		if len(users) >= count {
			break
		}
		u, err := s.f.CreateUser(a.apply)
		if err != nil {
			return nil, fmt.Errorf("create account %s: %w", a.Username, err)
		}
		users = append(users, u)
	}
	for len(users) < count {
		u, err := s.f.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, u)
		if len(users)%100 == 0 {
			log.Printf("Created %d users...", len(users))
		}
	}
	return users, nil
}

// SeedPosts spreads count posts over users following the run's distribution.
func (s *Seeder) SeedPosts(users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 || count <= 0 {
		return nil, nil
	}
	text, image, withImage := computeCounts(count, s.opts.Distribution)
	posts := make([]*models.Post, 0, count)
	for _, part := range []struct {
		kind models.PostType
		n    int
	}{
		{models.PostTypeText, text},
		{models.PostTypeImage, image},
		{models.PostTypeTextWithImage, withImage},
	} {
		for i := 0; i < part.n; i++ {
			author := users[s.f.r.Intn(len(users))]
			posts = append(posts, s.f.BuildPost(author, part.kind))
		}
	}
	if err := s.f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

// SeedEngagement adds likes, comments and replies to posts, with the
// notifications the API would have produced for them.
func (s *Seeder) SeedEngagement(users []*models.User, posts []*models.Post) (Stats, error) {
	var st Stats
	if len(users) == 0 {
		return st, nil
	}
	authors := make(map[string]*models.User, len(users))
	for _, u := range users {
		authors[u.ID.String()] = u
	}

	for _, post := range posts {
		postAuthor := authors[post.AuthorID.String()]

		for _, idx := range s.f.r.Perm(len(users))[:s.f.r.Intn(min(s.opts.LikesPerPost, len(users))+1)] {
			liker := users[idx]
			if err := s.f.CreateLike(liker, post); err != nil {
				return st, fmt.Errorf("create like: %w", err)
			}
			st.Likes++
			if postAuthor != nil && liker.ID != postAuthor.ID {
				if err := s.f.CreateNotification(models.NotificationLike, postAuthor, liker, post, nil); err != nil {
					return st, err
				}
				st.Notifications++
			}
		}

		var thread []*models.Comment
		for i := s.f.r.Intn(s.opts.CommentsPerPost + 1); i > 0; i-- {
			author := users[s.f.r.Intn(len(users))]
			var parent *models.Comment
			if len(thread) > 0 && s.f.r.Intn(3) == 0 {
				parent = thread[s.f.r.Intn(len(thread))]
			}
			c, err := s.f.CreateComment(author, post, parent)
			if err != nil {
				return st, fmt.Errorf("create comment: %w", err)
			}
			thread = append(thread, c)
			st.Comments++

			if postAuthor != nil && author.ID != postAuthor.ID {
				if err := s.f.CreateNotification(models.NotificationComment, postAuthor, author, post, c); err != nil {
					return st, err
				}
				st.Notifications++
			}
			if parent != nil {
				parentAuthor := authors[parent.AuthorID.String()]
				if parentAuthor != nil && parentAuthor.ID != author.ID && (postAuthor == nil || parentAuthor.ID != postAuthor.ID) {
					if err := s.f.CreateNotification(models.NotificationReply, parentAuthor, author, post, c); err != nil {
						return st, err
					}
					st.Notifications++
				}
			}
		}
	}
	return st, nil
}

// Run seeds users, posts and engagement as configured.
func (s *Seeder) Run(accounts ...Account) (Stats, error) {
	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return Stats{}, err
		}
	}

	users, err := s.SeedUsers(s.opts.NumUsers, accounts...)
	if err != nil {
		return Stats{}, err
	}
	log.Printf("✓ %d users created", len(users))

	posts, err := s.SeedPosts(users, s.opts.NumPosts)
	if err != nil {
		return Stats{}, err
	}
	log.Printf("✓ %d posts created", len(posts))

	st, err := s.SeedEngagement(users, posts)
	if err != nil {
		return Stats{}, err
	}
	st.Users = len(users)
	st.Posts = len(posts)
	log.Printf("🎉 Seeding completed: %s", st)
	return st, nil
}
