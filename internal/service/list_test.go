package service

import (
	"context"
	"strings"
	"testing"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListService_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	stranger := env.createUser(t, "stranger")

	t.Run("Title is required", func(t *testing.T) {
		_, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "   "})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	})

	t.Run("Title length bound", func(t *testing.T) {
		_, err := env.lists.Create(ctx, owner.ID, ListInput{
			Title: strings.Repeat("t", models.MaxListTitleLen+1),
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	})

	t.Run("Description length bound", func(t *testing.T) {
		desc := strings.Repeat("d", models.MaxListDescriptionLen+1)
		_, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "ok", Description: &desc})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	})

	t.Run("Public list is readable by anyone", func(t *testing.T) {
		list, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "public"})
		require.NoError(t, err)

		got, err := env.lists.Get(ctx, list.ID, stranger.ID)
		require.NoError(t, err)
		assert.Equal(t, "public", got.Title)
	})

	t.Run("Private list is hidden from strangers", func(t *testing.T) {
		list, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "secret", IsPrivate: true})
		require.NoError(t, err)

		_, err = env.lists.Get(ctx, list.ID, stranger.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appCode(t, err))

		got, err := env.lists.Get(ctx, list.ID, owner.ID)
		require.NoError(t, err)
		assert.True(t, got.IsPrivate)
	})
}

func TestListService_Membership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	joiner := env.createUser(t, "joiner")

	public, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "open"})
	require.NoError(t, err)
	private, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "closed", IsPrivate: true})
	require.NoError(t, err)

	t.Run("Join a public list", func(t *testing.T) {
		require.NoError(t, env.lists.Join(ctx, joiner.ID, public.ID))

		got, err := env.lists.Get(ctx, public.ID, joiner.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MembersCount)
	})

	t.Run("Joining twice stays a set", func(t *testing.T) {
		require.NoError(t, env.lists.Join(ctx, joiner.ID, public.ID))

		got, err := env.lists.Get(ctx, public.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MembersCount)
	})

	t.Run("Owner cannot join", func(t *testing.T) {
		err := env.lists.Join(ctx, owner.ID, public.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appCode(t, err))
	})

	t.Run("Cannot join a private list", func(t *testing.T) {
		err := env.lists.Join(ctx, joiner.ID, private.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appCode(t, err))
	})

	t.Run("Members listing", func(t *testing.T) {
		members, hasMore, err := env.lists.Members(ctx, public.ID, owner.ID, 1, 10)
		require.NoError(t, err)
		assert.False(t, hasMore)
		require.Len(t, members, 1)
		assert.Equal(t, joiner.ID, members[0].UserID)
	})

	t.Run("Leave", func(t *testing.T) {
		require.NoError(t, env.lists.Leave(ctx, joiner.ID, public.ID))

		err := env.lists.Leave(ctx, joiner.ID, public.ID)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", appCode(t, err), "second leave finds no membership")
	})

	t.Run("Owner cannot leave", func(t *testing.T) {
		err := env.lists.Leave(ctx, owner.ID, public.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appCode(t, err))
	})
}

func TestListService_Posts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	member := env.createUser(t, "member")
	outsider := env.createUser(t, "outsider")
	post := env.createPost(t, owner.ID, "collectible")

	list, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "collection"})
	require.NoError(t, err)
	require.NoError(t, env.lists.Join(ctx, member.ID, list.ID))

	t.Run("Outsider cannot attach", func(t *testing.T) {
		err := env.lists.AddPost(ctx, outsider.ID, list.ID, post.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appCode(t, err))
	})

	t.Run("Member attaches and duplicate is absorbed", func(t *testing.T) {
		require.NoError(t, env.lists.AddPost(ctx, member.ID, list.ID, post.ID))
		require.NoError(t, env.lists.AddPost(ctx, owner.ID, list.ID, post.ID))

		got, err := env.lists.Get(ctx, list.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.PostsCount)
	})

	t.Run("Attach unknown post", func(t *testing.T) {
		err := env.lists.AddPost(ctx, owner.ID, list.ID, 9999)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", appCode(t, err))
	})

	t.Run("Detach", func(t *testing.T) {
		require.NoError(t, env.lists.RemovePost(ctx, owner.ID, list.ID, post.ID))

		err := env.lists.RemovePost(ctx, owner.ID, list.ID, post.ID)
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", appCode(t, err))
	})
}

func TestListService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "owner")
	other := env.createUser(t, "other")

	cover := "https://cdn.example.com/cover-old.png"
	list, err := env.lists.Create(ctx, owner.ID, ListInput{Title: "mine", CoverURL: &cover})
	require.NoError(t, err)

	t.Run("Only the owner updates", func(t *testing.T) {
		_, err := env.lists.Update(ctx, other.ID, list.ID, ListInput{Title: "stolen"})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", appCode(t, err))
	})

	t.Run("Replacing the cover releases the old blob", func(t *testing.T) {
		newCover := "https://cdn.example.com/cover-new.png"
		updated, err := env.lists.Update(ctx, owner.ID, list.ID, ListInput{
			Title:    "renamed",
			CoverURL: &newCover,
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.Contains(t, env.cleaner.removed, cover)
	})

	t.Run("Delete removes memberships and attachments", func(t *testing.T) {
		post := env.createPost(t, owner.ID, "attached")
		require.NoError(t, env.lists.AddPost(ctx, owner.ID, list.ID, post.ID))
		require.NoError(t, env.lists.Join(ctx, other.ID, list.ID))

		require.NoError(t, env.lists.Delete(ctx, owner.ID, list.ID))

		var count int64
		env.db.Model(&models.List{}).Where("id = ?", list.ID).Count(&count)
		assert.Zero(t, count)
		env.db.Model(&models.ListMember{}).Where("list_id = ?", list.ID).Count(&count)
		assert.Zero(t, count)
		env.db.Model(&models.ListPost{}).Where("list_id = ?", list.ID).Count(&count)
		assert.Zero(t, count)

		// the attached post itself survives
		env.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
		assert.EqualValues(t, 1, count)
	})
}
