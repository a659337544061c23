package service

import (
	"context"
	"testing"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementResolver_ResolvePosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, "author")
	u1 := env.createUser(t, "u1")
	u2 := env.createUser(t, "u2")

	posts := env.createPostSeries(t, author.ID, 3)

	// posts[0]: 2 likes, 1 bookmark, 1 anchor with 1 reply
	// posts[1]: 1 like
	// posts[2]: untouched
	_, err := env.posts.ToggleLike(ctx, u1.ID, posts[0].ID)
	require.NoError(t, err)
	_, err = env.posts.ToggleLike(ctx, u2.ID, posts[0].ID)
	require.NoError(t, err)
	_, err = env.posts.ToggleBookmark(ctx, u1.ID, posts[0].ID)
	require.NoError(t, err)
	anchor, err := env.comments.Create(ctx, CreateCommentInput{
		UserID: u1.ID, PostID: posts[0].ID, Content: "anchor",
	})
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, CreateCommentInput{
		UserID: u2.ID, PostID: posts[0].ID, ParentCommentID: &anchor.ID, Content: "reply",
	})
	require.NoError(t, err)
	_, err = env.posts.ToggleLike(ctx, u1.ID, posts[1].ID)
	require.NoError(t, err)

	t.Run("Batch annotates every post in the page", func(t *testing.T) {
		page := []*models.Post{
			{ID: posts[0].ID, UserID: author.ID},
			{ID: posts[1].ID, UserID: author.ID},
			{ID: posts[2].ID, UserID: author.ID},
		}
		err := env.resolver.ResolvePosts(ctx, page, u1.ID, PostResolveOptions{Bookmarks: true})
		require.NoError(t, err)

		assert.Equal(t, 2, page[0].LikesCount)
		assert.True(t, page[0].Liked)
		assert.Equal(t, 1, page[0].CommentsCount, "anchors only")
		assert.Equal(t, 1, page[0].BookmarksCount)
		assert.True(t, page[0].Bookmarked)

		assert.Equal(t, 1, page[1].LikesCount)
		assert.True(t, page[1].Liked)
		assert.Equal(t, 0, page[1].CommentsCount)

		assert.Equal(t, 0, page[2].LikesCount)
		assert.False(t, page[2].Liked)
	})

	t.Run("Write then read is immediately visible", func(t *testing.T) {
		_, err := env.posts.ToggleLike(ctx, u2.ID, posts[2].ID)
		require.NoError(t, err)

		page := []*models.Post{{ID: posts[2].ID, UserID: author.ID}}
		require.NoError(t, env.resolver.ResolvePosts(ctx, page, u2.ID, PostResolveOptions{}))
		assert.Equal(t, 1, page[0].LikesCount)
		assert.True(t, page[0].Liked)
	})

	t.Run("Anonymous viewer gets counts without flags", func(t *testing.T) {
		page := []*models.Post{{ID: posts[0].ID, UserID: author.ID}}
		require.NoError(t, env.resolver.ResolvePosts(ctx, page, 0, PostResolveOptions{Bookmarks: true}))
		assert.Equal(t, 2, page[0].LikesCount)
		assert.False(t, page[0].Liked)
		assert.False(t, page[0].Bookmarked)
	})

	t.Run("Empty page is a no-op", func(t *testing.T) {
		require.NoError(t, env.resolver.ResolvePosts(ctx, nil, u1.ID, PostResolveOptions{}))
	})

	t.Run("Total comments only on a single-post page", func(t *testing.T) {
		single := []*models.Post{{ID: posts[0].ID, UserID: author.ID}}
		require.NoError(t, env.resolver.ResolvePosts(ctx, single, 0, PostResolveOptions{TotalComments: true}))
		assert.Equal(t, 2, single[0].CommentsCount, "anchor plus reply")

		many := []*models.Post{
			{ID: posts[0].ID, UserID: author.ID},
			{ID: posts[1].ID, UserID: author.ID},
		}
		require.NoError(t, env.resolver.ResolvePosts(ctx, many, 0, PostResolveOptions{TotalComments: true}))
		assert.Equal(t, 1, many[0].CommentsCount, "pages keep the anchor-only count")
	})
}

func TestEngagementResolver_ResolveComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, "author")
	liker := env.createUser(t, "liker")
	post := env.createPost(t, author.ID, "post")

	anchor, err := env.comments.Create(ctx, CreateCommentInput{
		UserID: author.ID, PostID: post.ID, Content: "anchor",
	})
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, CreateCommentInput{
		UserID: liker.ID, PostID: post.ID, ParentCommentID: &anchor.ID, Content: "reply",
	})
	require.NoError(t, err)
	_, err = env.comments.ToggleLike(ctx, liker.ID, anchor.ID)
	require.NoError(t, err)

	page := []*models.Comment{{ID: anchor.ID, PostID: post.ID, UserID: author.ID}}
	require.NoError(t, env.resolver.ResolveComments(ctx, page, liker.ID))
	assert.Equal(t, 1, page[0].LikesCount)
	assert.True(t, page[0].Liked)
	assert.Equal(t, 1, page[0].RepliesCount)
}
