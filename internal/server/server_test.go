package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"ripple/internal/config"
	"ripple/internal/database"
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret-key"

func setupTestServer(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	cfg := &config.Config{JWTSecret: testJWTSecret, Env: "test"}
	middleware.InitMiddleware(cfg)

	srv := NewServerWithDB(cfg, db, storage.NopCleaner{})
	return srv.App(), db
}

func tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
		Password:    "hashed-password",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupTestServer(t)

	resp := doRequest(t, app, "GET", "/api/", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ripple", body["service"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestCreatePost(t *testing.T) {
	app, db := setupTestServer(t)
	user := createTestUser(t, db, "author")
	token := tokenFor(t, user.ID)

	tests := []struct {
		name           string
		body           map[string]interface{}
		token          string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Valid post",
			body:           map[string]interface{}{"content": "hello world"},
			token:          token,
			expectedStatus: fiber.StatusCreated,
		},
		{
			name: "Post with media",
			body: map[string]interface{}{
				"content": "with attachments",
				"media": []map[string]string{
					{"url": "https://cdn.example.com/a.png", "type": "image"},
					{"url": "https://cdn.example.com/b.png", "type": "image"},
				},
			},
			token:          token,
			expectedStatus: fiber.StatusCreated,
		},
		{
			name:           "Empty content",
			body:           map[string]interface{}{"content": "   "},
			token:          token,
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "No token",
			body:           map[string]interface{}{"content": "hello"},
			token:          "",
			expectedStatus: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, app, "POST", "/api/posts", tt.token, tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
			}
			if tt.expectedStatus == fiber.StatusCreated {
				assert.NotZero(t, body["id"])
				assert.Equal(t, tt.body["content"], body["content"])
			}
		})
	}
}

func TestGetPost(t *testing.T) {
	app, db := setupTestServer(t)
	user := createTestUser(t, db, "author")

	post := &models.Post{UserID: user.ID, Content: "detail view"}
	require.NoError(t, db.Create(post).Error)

	t.Run("Found", func(t *testing.T) {
		resp := doRequest(t, app, "GET", fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "detail view", body["content"])
		author := body["user"].(map[string]interface{})
		assert.Equal(t, "author", author["username"])
	})

	t.Run("Not Found", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/api/posts/9999", "", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeBody(t, resp)["code"])
	})

	t.Run("Malformed ID", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/api/posts/abc", "", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, resp)["code"])
	})
}

func TestGlobalFeedEnvelope(t *testing.T) {
	app, db := setupTestServer(t)
	user := createTestUser(t, db, "writer")

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Post{
			UserID:  user.ID,
			Content: fmt.Sprintf("post %d", i),
		}).Error)
	}

	resp := doRequest(t, app, "GET", "/api/feed?page=1&limit=3", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	posts := body["posts"].([]interface{})
	assert.Len(t, posts, 3)

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(3), pagination["limit"])
	assert.Equal(t, true, pagination["has_more"])

	// Page past the end comes back empty with has_more false.
	resp = doRequest(t, app, "GET", "/api/feed?page=3&limit=3", "", nil)
	body = decodeBody(t, resp)
	assert.Empty(t, body["posts"])
	assert.Equal(t, false, body["pagination"].(map[string]interface{})["has_more"])
}

func TestTogglePostLike(t *testing.T) {
	app, db := setupTestServer(t)
	author := createTestUser(t, db, "author")
	viewer := createTestUser(t, db, "viewer")
	token := tokenFor(t, viewer.ID)

	post := &models.Post{UserID: author.ID, Content: "like me"}
	require.NoError(t, db.Create(post).Error)

	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	resp := doRequest(t, app, "POST", path, token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, float64(1), body["likes_count"])

	resp = doRequest(t, app, "POST", path, token, nil)
	body = decodeBody(t, resp)
	assert.Equal(t, false, body["liked"])
	assert.Equal(t, float64(0), body["likes_count"])
}

func TestFollowEndpoints(t *testing.T) {
	app, db := setupTestServer(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	token := tokenFor(t, alice.ID)

	t.Run("Toggle On", func(t *testing.T) {
		resp := doRequest(t, app, "POST", fmt.Sprintf("/api/users/%d/follow", bob.ID), token, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["is_following"])
		assert.Equal(t, float64(1), body["followers_count"])
	})

	t.Run("Self Follow Rejected", func(t *testing.T) {
		resp := doRequest(t, app, "POST", fmt.Sprintf("/api/users/%d/follow", alice.ID), token, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, resp)["code"])
	})

	t.Run("Followers Listing", func(t *testing.T) {
		resp := doRequest(t, app, "GET", fmt.Sprintf("/api/users/%d/followers", bob.ID), "", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		followers := body["followers"].([]interface{})
		require.Len(t, followers, 1)
		assert.Equal(t, "alice", followers[0].(map[string]interface{})["username"])
	})

	t.Run("Unauthenticated Toggle", func(t *testing.T) {
		resp := doRequest(t, app, "POST", fmt.Sprintf("/api/users/%d/follow", bob.ID), "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCommentFlow(t *testing.T) {
	app, db := setupTestServer(t)
	author := createTestUser(t, db, "author")
	commenter := createTestUser(t, db, "commenter")
	token := tokenFor(t, commenter.ID)

	post := &models.Post{UserID: author.ID, Content: "discuss"}
	require.NoError(t, db.Create(post).Error)

	resp := doRequest(t, app, "POST", fmt.Sprintf("/api/posts/%d/comments", post.ID), token,
		map[string]interface{}{"content": "first!"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	anchorID := uint(created["id"].(float64))

	resp = doRequest(t, app, "POST", fmt.Sprintf("/api/posts/%d/comments", post.ID), token,
		map[string]interface{}{"content": "a reply", "parent_comment_id": anchorID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	t.Run("Anchors Exclude Replies", func(t *testing.T) {
		resp := doRequest(t, app, "GET", fmt.Sprintf("/api/posts/%d/comments", post.ID), "", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		comments := body["comments"].([]interface{})
		require.Len(t, comments, 1)
		anchor := comments[0].(map[string]interface{})
		assert.Equal(t, "first!", anchor["content"])
		assert.Equal(t, float64(1), anchor["replies_count"])
	})

	t.Run("Replies Listing", func(t *testing.T) {
		resp := doRequest(t, app, "GET", fmt.Sprintf("/api/comments/%d/replies", anchorID), "", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		replies := body["replies"].([]interface{})
		require.Len(t, replies, 1)
		assert.Equal(t, "a reply", replies[0].(map[string]interface{})["content"])
	})
}

func TestBookmarksRequireAuth(t *testing.T) {
	app, db := setupTestServer(t)
	user := createTestUser(t, db, "reader")
	token := tokenFor(t, user.ID)

	resp := doRequest(t, app, "GET", "/api/bookmarks", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/bookmarks", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Empty(t, body["posts"])
}

func TestSearchUsers(t *testing.T) {
	app, db := setupTestServer(t)
	createTestUser(t, db, "gopher_one")
	createTestUser(t, db, "gopher_two")
	createTestUser(t, db, "unrelated")

	t.Run("Missing Query", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/api/users/search", "", nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Matches", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/api/users/search?q=gopher", "", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		users := body["users"].([]interface{})
		assert.Len(t, users, 2)
	})
}

func TestUpdateOwnershipEnforced(t *testing.T) {
	app, db := setupTestServer(t)
	owner := createTestUser(t, db, "owner")
	intruder := createTestUser(t, db, "intruder")

	post := &models.Post{UserID: owner.ID, Content: "mine"}
	require.NoError(t, db.Create(post).Error)

	resp := doRequest(t, app, "PUT", fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, intruder.ID),
		map[string]interface{}{"content": "hijacked"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeBody(t, resp)["code"])

	resp = doRequest(t, app, "PUT", fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, owner.ID),
		map[string]interface{}{"content": "edited"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "edited", decodeBody(t, resp)["content"])
}

func TestDeleteRecordsCascadeMetric(t *testing.T) {
	app, db := setupTestServer(t)
	owner := createTestUser(t, db, "owner")
	token := tokenFor(t, owner.ID)

	post := &models.Post{UserID: owner.ID, Content: "counted"}
	require.NoError(t, db.Create(post).Error)

	before := testutil.ToFloat64(middleware.CascadeDeletes.WithLabelValues("post"))

	resp := doRequest(t, app, "DELETE", fmt.Sprintf("/api/posts/%d", post.ID), token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(middleware.CascadeDeletes.WithLabelValues("post")))

	// A rejected delete must not count.
	other := createTestUser(t, db, "other")
	kept := &models.Post{UserID: other.ID, Content: "kept"}
	require.NoError(t, db.Create(kept).Error)

	resp = doRequest(t, app, "DELETE", fmt.Sprintf("/api/posts/%d", kept.ID), token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(middleware.CascadeDeletes.WithLabelValues("post")))
}

func TestInvalidToken(t *testing.T) {
	app, _ := setupTestServer(t)

	req := httptest.NewRequest("GET", "/api/bookmarks", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// A token signed with the wrong key is rejected too.
	wrong := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := wrong.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/api/bookmarks", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
