package service

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/repository"
)

// FollowService mutates and reads the follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService creates a new follow service
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// FollowState is the refreshed aggregate view returned after a toggle:
// followers of the followed user, following count of the follower.
type FollowState struct {
	IsFollowing    bool `json:"is_following"`
	FollowersCount int  `json:"followers_count"`
	FollowingCount int  `json:"following_count"`
}

// Toggle flips the (followerID -> followingID) edge. The existence
// check and the write are separate steps; two racing toggles may both
// observe "not following" and both insert, in which case the store's
// uniqueness constraint absorbs the second insert and it resolves as
// isFollowing=true rather than an error.
func (s *FollowService) Toggle(ctx context.Context, followerID, followingID uint) (*FollowState, error) {
	if followerID == followingID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	exists, err := s.userRepo.Exists(ctx, followingID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User", followingID)
	}

	following, err := s.followRepo.Exists(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}

	var isFollowing bool
	if following {
		if _, err := s.followRepo.Delete(ctx, followerID, followingID); err != nil {
			return nil, err
		}
		isFollowing = false
	} else {
		// created=false means another toggle won the race; the edge
		// exists either way.
		if _, err := s.followRepo.Create(ctx, followerID, followingID); err != nil {
			return nil, err
		}
		isFollowing = true
	}

	return s.state(ctx, followerID, followingID, isFollowing)
}

// state recomputes counts fresh after a mutation; nothing is cached.
func (s *FollowService) state(ctx context.Context, followerID, followingID uint, isFollowing bool) (*FollowState, error) {
	followers, err := s.followRepo.CountFollowers(ctx, followingID)
	if err != nil {
		return nil, err
	}
	followingCount, err := s.followRepo.CountFollowing(ctx, followerID)
	if err != nil {
		return nil, err
	}
	return &FollowState{
		IsFollowing:    isFollowing,
		FollowersCount: followers,
		FollowingCount: followingCount,
	}, nil
}

// RemoveFollower detaches someone who follows currentUserID, without
// requiring that the target follow back. Fails if no such edge exists.
func (s *FollowService) RemoveFollower(ctx context.Context, targetID, currentUserID uint) error {
	deleted, err := s.followRepo.Delete(ctx, targetID, currentUserID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Follower", targetID)
	}
	return nil
}

// Followers lists userID's followers with each row annotated with
// whether the viewer follows that user.
func (s *FollowService) Followers(ctx context.Context, userID, viewerID uint, page, limit int) ([]*models.User, bool, error) {
	users, err := s.followRepo.Followers(ctx, userID, limit, Offset(page, limit))
	if err != nil {
		return nil, false, err
	}
	if err := s.annotateFollowing(ctx, users, viewerID); err != nil {
		return nil, false, err
	}
	return users, pageFull(len(users), limit), nil
}

// Following lists the users userID follows.
func (s *FollowService) Following(ctx context.Context, userID, viewerID uint, page, limit int) ([]*models.User, bool, error) {
	users, err := s.followRepo.Following(ctx, userID, limit, Offset(page, limit))
	if err != nil {
		return nil, false, err
	}
	if err := s.annotateFollowing(ctx, users, viewerID); err != nil {
		return nil, false, err
	}
	return users, pageFull(len(users), limit), nil
}

func (s *FollowService) annotateFollowing(ctx context.Context, users []*models.User, viewerID uint) error {
	if viewerID == 0 || len(users) == 0 {
		return nil
	}
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := s.followRepo.FollowedIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	set := idSet(followed)
	for _, u := range users {
		u.IsFollowing = set[u.ID]
	}
	return nil
}
