package server

import (
	"context"
	"fmt"
	"time"

	"ripple/internal/cache"
	"ripple/internal/config"
	"ripple/internal/database"
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/service"
	"ripple/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	engRepo     repository.EngagementRepository
	listRepo    repository.ListRepository

	resolver       *service.EngagementResolver
	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	listService    *service.ListService
	userService    *service.UserService

	app *fiber.App
}

// NewServer creates a new server instance with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	middleware.InitMiddleware(cfg)

	var cleaner storage.Cleaner = storage.NopCleaner{}
	if cfg.MediaBaseURL != "" {
		cleaner = storage.NewHTTPCleaner()
	}

	s := NewServerWithDB(cfg, db, cleaner)
	s.redis = redisClient
	return s, nil
}

// NewServerWithDB wires repositories and services on top of an existing
// database handle. Tests use this with an in-memory store.
func NewServerWithDB(cfg *config.Config, db *gorm.DB, cleaner storage.Cleaner) *Server {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)
	engRepo := repository.NewEngagementRepository(db)
	listRepo := repository.NewListRepository(db)

	resolver := service.NewEngagementResolver(engRepo)

	return &Server{
		config:      cfg,
		db:          db,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		followRepo:  followRepo,
		engRepo:     engRepo,
		listRepo:    listRepo,

		resolver:       resolver,
		feedService:    service.NewFeedService(postRepo, listRepo, resolver),
		postService:    service.NewPostService(postRepo, engRepo, resolver, cleaner),
		commentService: service.NewCommentService(commentRepo, postRepo, engRepo, resolver, cleaner),
		followService:  service.NewFollowService(followRepo, userRepo),
		listService:    service.NewListService(listRepo, postRepo, userRepo, cleaner),
		userService:    service.NewUserService(userRepo, followRepo, cleaner),
	}
}

// App builds (once) and returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName: "Ripple API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.setupMiddleware(app)
	s.setupRoutes(app)

	s.app = app
	return app
}

func (s *Server) setupMiddleware(app *fiber.App) {
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	prom := middleware.InitMetrics("ripple")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

func (s *Server) setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/", s.HealthCheck)

	// Public reads. OptionalAuth lets signed-in viewers get their
	// liked/bookmarked flags without blocking anonymous traffic.
	public := api.Group("", middleware.OptionalAuth)
	public.Get("/feed", s.GetGlobalFeed)
	public.Get("/feed/trending", s.GetTrendingFeed)
	public.Get("/posts/:id/comments", s.GetComments)
	public.Get("/posts/:id", s.GetPost)
	public.Get("/comments/:id/replies", s.GetReplies)
	public.Get("/users/search", middleware.RateLimit(s.redis, 10, time.Minute, "search"), s.SearchUsers)
	public.Get("/users/:id/posts", s.GetUserPosts)
	public.Get("/users/:id/followers", s.GetFollowers)
	public.Get("/users/:id/following", s.GetFollowing)
	public.Get("/users/:id/lists", s.GetUserLists)
	public.Get("/users/:id", s.GetProfile)
	public.Get("/profiles/:username", s.GetProfileByUsername)
	public.Get("/lists/:id/posts", s.GetListFeed)
	public.Get("/lists/:id/members", s.GetListMembers)
	public.Get("/lists/:id", s.GetList)

	protected := api.Group("", middleware.AuthRequired)

	protected.Get("/bookmarks", s.GetBookmarksFeed)

	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", s.TogglePostLike)
	posts.Post("/:id/bookmark", s.ToggleBookmark)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Post("/:id/like", s.ToggleCommentLike)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	users := protected.Group("/users")
	users.Put("/me/username", s.ChangeUsername)
	users.Put("/me/password", s.ChangePassword)
	users.Put("/me", s.UpdateProfile)
	users.Post("/:id/follow", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.ToggleFollow)

	protected.Delete("/followers/:id", s.RemoveFollower)

	lists := protected.Group("/lists")
	lists.Post("/", s.CreateList)
	lists.Post("/:id/members", s.JoinList)
	lists.Delete("/:id/members", s.LeaveList)
	lists.Post("/:id/posts/:postId", s.AddPostToList)
	lists.Delete("/:id/posts/:postId", s.RemovePostFromList)
	lists.Put("/:id", s.UpdateList)
	lists.Delete("/:id", s.DeleteList)
}

// HealthCheck reports database and redis connectivity.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "ripple",
		"status":  "healthy",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start runs the HTTP listener until it fails or is shut down.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown drains the listener and closes the database and redis handles.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down http listener", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
