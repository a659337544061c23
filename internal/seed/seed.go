package seed

import (
	"fmt"
	"log"

	"ripple/internal/models"

	"gorm.io/gorm"
)

// Seeder orchestrates demo-data generation.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder with the given options.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// ClearAll removes all seeded data. Delete order respects foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("clearing existing data...")
	tables := []string{
		"comment_likes", "likes", "bookmarks",
		"list_posts", "list_members", "lists",
		"media", "comments", "posts",
		"follows", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Run populates the database with a connected social mesh: users with
// follow edges, posts with comments and replies, engagement rows, and a
// few public and private lists.
func (s *Seeder) Run() error {
	log.Println("starting database seeding...")

	users, err := s.createUsers()
	if err != nil {
		return fmt.Errorf("create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	if err := s.createFollows(users); err != nil {
		return fmt.Errorf("create follows: %w", err)
	}

	posts, err := s.createPosts(users)
	if err != nil {
		return fmt.Errorf("create posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := s.createComments(users, posts); err != nil {
		return fmt.Errorf("create comments: %w", err)
	}

	if err := s.createEngagement(users, posts); err != nil {
		return fmt.Errorf("create engagement: %w", err)
	}

	if err := s.createLists(users, posts); err != nil {
		return fmt.Errorf("create lists: %w", err)
	}

	log.Println("database seeding completed")
	return nil
}

func (s *Seeder) createUsers() ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createFollows(users []*models.User) error {
	count := 0
	for _, follower := range users {
		n := s.factory.rng.Intn(len(users)/2 + 1)
		for i := 0; i < n; i++ {
			target := users[s.factory.rng.Intn(len(users))]
			if target.ID == follower.ID {
				continue
			}
			res := s.db.Where(models.Follow{
				FollowerID:  follower.ID,
				FollowingID: target.ID,
			}).FirstOrCreate(&models.Follow{
				FollowerID:  follower.ID,
				FollowingID: target.ID,
			})
			if res.Error != nil {
				return res.Error
			}
			count++
		}
	}
	log.Printf("created %d follow edges", count)
	return nil
}

func (s *Seeder) createPosts(users []*models.User) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		posts = append(posts, s.factory.BuildPost(author))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Seeder) createComments(users []*models.User, posts []*models.Post) error {
	total := 0
	for _, post := range posts {
		n := s.factory.rng.Intn(6)
		for i := 0; i < n; i++ {
			author := users[s.factory.rng.Intn(len(users))]
			anchor, err := s.factory.CreateComment(author, post, nil)
			if err != nil {
				return err
			}
			total++
			// some anchors get replies
			replies := s.factory.rng.Intn(3)
			for j := 0; j < replies; j++ {
				replier := users[s.factory.rng.Intn(len(users))]
				if _, err := s.factory.CreateComment(replier, post, anchor); err != nil {
					return err
				}
				total++
			}
		}
	}
	log.Printf("created %d comments", total)
	return nil
}

func (s *Seeder) createEngagement(users []*models.User, posts []*models.Post) error {
	likes, bookmarks := 0, 0
	for _, post := range posts {
		n := s.factory.rng.Intn(len(users)/3 + 1)
		for i := 0; i < n; i++ {
			user := users[s.factory.rng.Intn(len(users))]
			res := s.db.Where(models.Like{UserID: user.ID, PostID: post.ID}).
				FirstOrCreate(&models.Like{UserID: user.ID, PostID: post.ID})
			if res.Error != nil {
				return res.Error
			}
			likes++
			if s.factory.rng.Intn(4) == 0 {
				res := s.db.Where(models.Bookmark{UserID: user.ID, PostID: post.ID}).
					FirstOrCreate(&models.Bookmark{UserID: user.ID, PostID: post.ID})
				if res.Error != nil {
					return res.Error
				}
				bookmarks++
			}
		}
	}
	log.Printf("created %d likes, %d bookmarks", likes, bookmarks)
	return nil
}

func (s *Seeder) createLists(users []*models.User, posts []*models.Post) error {
	count := 0
	for i := 0; i < len(users)/5+1; i++ {
		owner := users[s.factory.rng.Intn(len(users))]
		list, err := s.factory.CreateList(owner, s.factory.rng.Intn(4) == 0)
		if err != nil {
			return err
		}
		count++

		members := s.factory.rng.Intn(5)
		for j := 0; j < members; j++ {
			member := users[s.factory.rng.Intn(len(users))]
			if member.ID == owner.ID {
				continue
			}
			res := s.db.Where(models.ListMember{ListID: list.ID, UserID: member.ID}).
				FirstOrCreate(&models.ListMember{ListID: list.ID, UserID: member.ID})
			if res.Error != nil {
				return res.Error
			}
		}

		items := s.factory.rng.Intn(10)
		for j := 0; j < items; j++ {
			post := posts[s.factory.rng.Intn(len(posts))]
			res := s.db.Where(models.ListPost{ListID: list.ID, PostID: post.ID}).
				FirstOrCreate(&models.ListPost{ListID: list.ID, PostID: post.ID, AddedByID: owner.ID})
			if res.Error != nil {
				return res.Error
			}
		}
	}
	log.Printf("created %d lists", count)
	return nil
}
