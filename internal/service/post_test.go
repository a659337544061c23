package service

import (
	"context"
	"strings"
	"testing"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "writer")

	t.Run("Empty content", func(t *testing.T) {
		_, err := env.posts.Create(ctx, CreatePostInput{UserID: user.ID, Content: "  "})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	})

	t.Run("Content over the limit", func(t *testing.T) {
		_, err := env.posts.Create(ctx, CreatePostInput{
			UserID:  user.ID,
			Content: strings.Repeat("x", models.MaxContentLen+1),
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	})

	t.Run("Multibyte content counts runes, not bytes", func(t *testing.T) {
		post, err := env.posts.Create(ctx, CreatePostInput{
			UserID:  user.ID,
			Content: strings.Repeat("日", models.MaxContentLen),
		})
		require.NoError(t, err)
		assert.NotZero(t, post.ID)
	})

	t.Run("Too many attachments", func(t *testing.T) {
		media := make([]models.Media, models.MaxMediaPerItem+1)
		for i := range media {
			media[i] = models.Media{URL: "https://cdn.example.com/x.png", Type: models.MediaTypeImage}
		}
		_, err := env.posts.Create(ctx, CreatePostInput{UserID: user.ID, Content: "hi", Media: media})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	})

	t.Run("Unknown media type", func(t *testing.T) {
		_, err := env.posts.Create(ctx, CreatePostInput{
			UserID:  user.ID,
			Content: "hi",
			Media:   []models.Media{{URL: "https://cdn.example.com/x.bin", Type: "binary"}},
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	})

	t.Run("Media keeps submission order", func(t *testing.T) {
		post, err := env.posts.Create(ctx, CreatePostInput{
			UserID:  user.ID,
			Content: "gallery",
			Media: []models.Media{
				{URL: "https://cdn.example.com/1.png", Type: models.MediaTypeImage},
				{URL: "https://cdn.example.com/2.mp4", Type: models.MediaTypeVideo},
				{URL: "https://cdn.example.com/3.gif", Type: models.MediaTypeGif},
			},
		})
		require.NoError(t, err)
		require.Len(t, post.Media, 3)
		for i, m := range post.Media {
			assert.Equal(t, i, m.OrderIndex)
		}
		assert.Equal(t, "https://cdn.example.com/1.png", post.Media[0].URL)
		assert.Equal(t, "https://cdn.example.com/3.gif", post.Media[2].URL)
	})
}

func TestPostService_Get_Detail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, "author")
	viewer := env.createUser(t, "viewer")
	post := env.createPost(t, author.ID, "detailed")

	anchor, err := env.comments.Create(ctx, CreateCommentInput{
		UserID: viewer.ID, PostID: post.ID, Content: "anchor",
	})
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, CreateCommentInput{
		UserID: author.ID, PostID: post.ID, ParentCommentID: &anchor.ID, Content: "reply",
	})
	require.NoError(t, err)

	t.Run("Detail counts replies too", func(t *testing.T) {
		detail, err := env.posts.Get(ctx, post.ID, viewer.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, detail.CommentsCount)
	})

	t.Run("Feeds count thread anchors only", func(t *testing.T) {
		feed, err := env.feeds.Global(ctx, viewer.ID, 1, 10)
		require.NoError(t, err)
		require.Len(t, feed.Posts, 1)
		assert.Equal(t, 1, feed.Posts[0].CommentsCount)
	})

	t.Run("Unknown post", func(t *testing.T) {
		_, err := env.posts.Get(ctx, 9999, viewer.ID)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", appCode(t, err))
	})
}

func TestPostService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	other := env.createUser(t, "other")

	post, err := env.posts.Create(ctx, CreatePostInput{
		UserID:  owner.ID,
		Content: "original",
		Media: []models.Media{
			{URL: "https://cdn.example.com/old1.png", Type: models.MediaTypeImage},
			{URL: "https://cdn.example.com/old2.png", Type: models.MediaTypeImage},
		},
	})
	require.NoError(t, err)

	t.Run("Non-owner is rejected", func(t *testing.T) {
		_, err := env.posts.Update(ctx, UpdatePostInput{
			UserID: other.ID, PostID: post.ID, Content: "hijack",
		})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appCode(t, err))
	})

	t.Run("Full media replace releases old blobs", func(t *testing.T) {
		updated, err := env.posts.Update(ctx, UpdatePostInput{
			UserID:  owner.ID,
			PostID:  post.ID,
			Content: "edited",
			Media: []models.Media{
				{URL: "https://cdn.example.com/new.png", Type: models.MediaTypeImage},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Content)
		require.Len(t, updated.Media, 1)
		assert.Equal(t, "https://cdn.example.com/new.png", updated.Media[0].URL)
		assert.Contains(t, env.cleaner.removed, "https://cdn.example.com/old1.png")
		assert.Contains(t, env.cleaner.removed, "https://cdn.example.com/old2.png")
	})
}

func TestPostService_Delete_Cascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	other := env.createUser(t, "other")

	post, err := env.posts.Create(ctx, CreatePostInput{
		UserID:  owner.ID,
		Content: "doomed",
		Media:   []models.Media{{URL: "https://cdn.example.com/doomed.png", Type: models.MediaTypeImage}},
	})
	require.NoError(t, err)

	anchor, err := env.comments.Create(ctx, CreateCommentInput{
		UserID: other.ID, PostID: post.ID, Content: "anchor",
	})
	require.NoError(t, err)
	reply, err := env.comments.Create(ctx, CreateCommentInput{
		UserID: owner.ID, PostID: post.ID, ParentCommentID: &anchor.ID, Content: "reply",
	})
	require.NoError(t, err)
	_, err = env.comments.ToggleLike(ctx, owner.ID, anchor.ID)
	require.NoError(t, err)
	_, err = env.posts.ToggleLike(ctx, other.ID, post.ID)
	require.NoError(t, err)
	_, err = env.posts.ToggleBookmark(ctx, other.ID, post.ID)
	require.NoError(t, err)

	list, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "keeper"})
	require.NoError(t, err)
	require.NoError(t, env.lists.AddPost(ctx, owner.ID, list.ID, post.ID))

	t.Run("Non-owner cannot delete", func(t *testing.T) {
		err := env.posts.Delete(ctx, other.ID, post.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appCode(t, err))
	})

	t.Run("Cascade leaves nothing behind", func(t *testing.T) {
		require.NoError(t, env.posts.Delete(ctx, owner.ID, post.ID))

		var count int64
		env.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
		assert.Zero(t, count, "post")
		env.db.Model(&models.Comment{}).Where("id IN ?", []uint{anchor.ID, reply.ID}).Count(&count)
		assert.Zero(t, count, "comments")
		env.db.Model(&models.CommentLike{}).Where("comment_id = ?", anchor.ID).Count(&count)
		assert.Zero(t, count, "comment likes")
		env.db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count)
		assert.Zero(t, count, "likes")
		env.db.Model(&models.Bookmark{}).Where("post_id = ?", post.ID).Count(&count)
		assert.Zero(t, count, "bookmarks")
		env.db.Model(&models.ListPost{}).Where("post_id = ?", post.ID).Count(&count)
		assert.Zero(t, count, "list attachments")
		env.db.Model(&models.Media{}).Where("post_id = ?", post.ID).Count(&count)
		assert.Zero(t, count, "media rows")

		assert.Contains(t, env.cleaner.removed, "https://cdn.example.com/doomed.png")

		// the list itself survives
		var lists int64
		env.db.Model(&models.List{}).Where("id = ?", list.ID).Count(&lists)
		assert.EqualValues(t, 1, lists)
	})
}

func TestPostService_Toggles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createUser(t, "author")
	viewer := env.createUser(t, "viewer")
	post := env.createPost(t, author.ID, "toggle me")

	t.Run("Like parity", func(t *testing.T) {
		liked, err := env.posts.ToggleLike(ctx, viewer.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, liked.Liked)
		assert.Equal(t, 1, liked.LikesCount)

		unliked, err := env.posts.ToggleLike(ctx, viewer.ID, post.ID)
		require.NoError(t, err)
		assert.False(t, unliked.Liked)
		assert.Equal(t, 0, unliked.LikesCount)
	})

	t.Run("Bookmark parity", func(t *testing.T) {
		marked, err := env.posts.ToggleBookmark(ctx, viewer.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, marked.Bookmarked)
		assert.Equal(t, 1, marked.BookmarksCount)

		unmarked, err := env.posts.ToggleBookmark(ctx, viewer.ID, post.ID)
		require.NoError(t, err)
		assert.False(t, unmarked.Bookmarked)
		assert.Equal(t, 0, unmarked.BookmarksCount)
	})

	t.Run("Toggle on a missing post", func(t *testing.T) {
		_, err := env.posts.ToggleLike(ctx, viewer.ID, 9999)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", appCode(t, err))
	})

	t.Run("Likes are per viewer", func(t *testing.T) {
		_, err := env.posts.ToggleLike(ctx, viewer.ID, post.ID)
		require.NoError(t, err)

		asAuthor, err := env.posts.Get(ctx, post.ID, author.ID)
		require.NoError(t, err)
		assert.False(t, asAuthor.Liked)
		assert.Equal(t, 1, asAuthor.LikesCount)
	})
}
