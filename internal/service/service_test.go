package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ripple/internal/database"
	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/storage"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(database.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}

// testEnv bundles every service over one in-memory database so tests
// can mix writes and feed reads.
type testEnv struct {
	db       *gorm.DB
	posts    *PostService
	comments *CommentService
	feeds    *FeedService
	follows  *FollowService
	lists    *ListService
	users    *UserService
	resolver *EngagementResolver
	cleaner  *recordingCleaner
}

// recordingCleaner captures blob removal requests instead of issuing them.
type recordingCleaner struct {
	removed []string
}

func (c *recordingCleaner) Remove(_ context.Context, urls []string) {
	c.removed = append(c.removed, urls...)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)
	engRepo := repository.NewEngagementRepository(db)
	listRepo := repository.NewListRepository(db)

	resolver := NewEngagementResolver(engRepo)
	cleaner := &recordingCleaner{}

	return &testEnv{
		db:       db,
		posts:    NewPostService(postRepo, engRepo, resolver, cleaner),
		comments: NewCommentService(commentRepo, postRepo, engRepo, resolver, cleaner),
		feeds:    NewFeedService(postRepo, listRepo, resolver),
		follows:  NewFollowService(followRepo, userRepo),
		lists:    NewListService(listRepo, postRepo, userRepo, cleaner),
		users:    NewUserService(userRepo, followRepo, cleaner),
		resolver: resolver,
		cleaner:  cleaner,
	}
}

var _ storage.Cleaner = (*recordingCleaner)(nil)

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
		Password:    "hashed-password",
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

func (e *testEnv) createPost(t *testing.T, userID uint, content string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Content: content}
	if err := e.db.Create(post).Error; err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return post
}

// createPostAt backdates a post so ordering tests avoid timestamp ties.
func (e *testEnv) createPostAt(t *testing.T, userID uint, content string, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Content: content, CreatedAt: at}
	if err := e.db.Create(post).Error; err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return post
}

func (e *testEnv) createPostSeries(t *testing.T, userID uint, n int) []*models.Post {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, e.createPostAt(t, userID,
			fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	return posts
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := err.(*models.AppError)
	if !ok {
		t.Fatalf("expected *models.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}
