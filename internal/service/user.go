package service

import (
	"context"
	"regexp"
	"time"

	"ripple/internal/cache"
	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.]{3,15}$`)

// UserService owns profile reads and updates.
type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	cleaner    storage.Cleaner
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, cleaner storage.Cleaner) *UserService {
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
		cleaner:    cleaner,
	}
}

// ProfileByUsername resolves the username through the cache-aside
// username->id mapping, then loads the profile with fresh counts.
// Counts are never cached.
func (s *UserService) ProfileByUsername(ctx context.Context, username string, viewerID uint) (*models.User, error) {
	var userID uint
	err := cache.Aside(ctx, cache.UsernameKey(username), &userID, cache.UsernameTTL, func() error {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		userID = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID, viewerID)
}

// Profile returns a user with followers/following/posts counts and,
// for a logged-in viewer, whether the viewer follows them.
func (s *UserService) Profile(ctx context.Context, userID, viewerID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.FollowersCount, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
		return nil, err
	}
	if user.FollowingCount, err = s.followRepo.CountFollowing(ctx, userID); err != nil {
		return nil, err
	}
	if user.PostsCount, err = s.userRepo.CountPosts(ctx, userID); err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != userID {
		if user.IsFollowing, err = s.followRepo.Exists(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}
	return user, nil
}

type UpdateProfileInput struct {
	DisplayName string
	Bio         *string
	Location    *string
	Website     *string
	BirthDate   *time.Time
	AvatarURL   *string
	CoverURL    *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	if in.DisplayName == "" {
		return nil, models.NewValidationError("Display name is required")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var replaced []string
	if user.AvatarURL != nil && in.AvatarURL != nil && *user.AvatarURL != *in.AvatarURL {
		replaced = append(replaced, *user.AvatarURL)
	}
	if user.CoverURL != nil && in.CoverURL != nil && *user.CoverURL != *in.CoverURL {
		replaced = append(replaced, *user.CoverURL)
	}

	user.DisplayName = in.DisplayName
	user.Bio = in.Bio
	user.Location = in.Location
	user.Website = in.Website
	user.BirthDate = in.BirthDate
	if in.AvatarURL != nil {
		user.AvatarURL = in.AvatarURL
	}
	if in.CoverURL != nil {
		user.CoverURL = in.CoverURL
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cleaner.Remove(ctx, replaced)
	return user, nil
}

// ChangeUsername updates the handle and drops the stale cache mapping.
func (s *UserService) ChangeUsername(ctx context.Context, userID uint, username string) (*models.User, error) {
	if !usernameRe.MatchString(username) {
		return nil, models.NewValidationError("Username must be 3-15 characters of letters, digits, underscore or dot")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	old := user.Username
	if old == username {
		return user, nil
	}
	user.Username = username
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.UsernameKey(old), cache.UsernameKey(username))
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < 8 {
		return models.NewValidationError("Password must be at least 8 characters")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return models.NewForbiddenError("Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	return s.userRepo.Update(ctx, user)
}

// Search matches users by username or display name substring and
// annotates each result with the viewer's follow state.
func (s *UserService) Search(ctx context.Context, query string, viewerID uint, page, limit int) ([]*models.User, bool, error) {
	if query == "" {
		return nil, false, models.NewValidationError("Search query is required")
	}
	users, err := s.userRepo.Search(ctx, query, limit, Offset(page, limit))
	if err != nil {
		return nil, false, err
	}
	if viewerID != 0 && len(users) > 0 {
		ids := make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		followed, err := s.followRepo.FollowedIDs(ctx, viewerID, ids)
		if err != nil {
			return nil, false, err
		}
		set := idSet(followed)
		for _, u := range users {
			u.IsFollowing = set[u.ID]
		}
	}
	return users, pageFull(len(users), limit), nil
}
