// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"ripple/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options tunes the volume and shape of generated data.
type Options struct {
	Users      int
	Posts      int
	MaxDays    int
	SkipBcrypt bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// usernameFor squeezes a fake username into the 3-15 char handle format.
func usernameFor() string {
	base := strings.ToLower(gofakeit.Username())
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			return r
		default:
			return -1
		}
	}, base)
	if len(base) > 11 {
		base = base[:11]
	}
	for len(base) < 3 {
		base += "x"
	}
	return fmt.Sprintf("%s%03d", base, gofakeit.Number(0, 999))
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	bio := gofakeit.Sentence(10)
	avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID())

	user := &models.User{
		Username:    usernameFor(),
		Email:       gofakeit.Email(),
		DisplayName: gofakeit.Name(),
		Bio:         &bio,
		AvatarURL:   &avatar,
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// pastTime returns a timestamp spread over the configured window so
// feeds look lived-in rather than all created in one burst.
func (f *Factory) pastTime() time.Time {
	daysBack := f.rng.Intn(f.opts.MaxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}

// BuildPost constructs a post without persisting it. Useful for batching.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		UserID:    user.ID,
		Content:   gofakeit.Sentence(f.rng.Intn(20) + 4),
		CreatedAt: f.pastTime(),
	}

	// roughly a third of posts carry media
	if f.rng.Intn(3) == 0 {
		n := f.rng.Intn(models.MaxMediaPerItem) + 1
		for i := 0; i < n; i++ {
			post.Media = append(post.Media, models.Media{
				URL:        fmt.Sprintf("https://picsum.photos/seed/%s/800/800", uuid.NewString()),
				Type:       models.MediaTypeImage,
				OrderIndex: i,
			})
		}
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment persists a comment or, when parent is non-nil, a reply.
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    user.ID,
		Content:   gofakeit.Sentence(f.rng.Intn(12) + 3),
		CreatedAt: f.pastTime(),
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateList persists a list owned by the given user.
func (f *Factory) CreateList(owner *models.User, private bool) (*models.List, error) {
	desc := gofakeit.Sentence(8)
	title := gofakeit.Phrase()
	if len(title) > models.MaxListTitleLen {
		title = title[:models.MaxListTitleLen]
	}
	list := &models.List{
		OwnerID:     owner.ID,
		Title:       title,
		Description: &desc,
		IsPrivate:   private,
	}
	if err := f.db.Create(list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
