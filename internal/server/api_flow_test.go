package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"techfeed/internal/cache"
	"techfeed/internal/config"
	"techfeed/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(redisClient)
	t.Cleanup(func() { cache.SetClient(nil) })

	cfg := &config.Config{
		JWTSecret: "test-secret-key-for-integration-tests",
		Port:      "0",
		DBDriver:  "sqlite",
		DBName:    ":memory:",
		Env:       "test",
	}

	srv, err := NewServerWithDeps(cfg, db, redisClient)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	return app
}

// doJSON issues a JSON request and decodes the response body into a map.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

// doJSONList is doJSON for endpoints returning a JSON array.
func doJSONList(t *testing.T, app *fiber.App, method, path, token string) (int, []map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded []map[string]any
	if len(raw) > 0 && raw[0] == '[' {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func signup(t *testing.T, app *fiber.App, username, email, password string) (token string, userID uint) {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, status, "signup %s failed: %v", username, body)

	token = body["token"].(string)
	user := body["user"].(map[string]any)
	userID = uint(user["id"].(float64))
	return token, userID
}

func TestAPIFlow_SubmitVoteComment(t *testing.T) {
	app := setupTestApp(t)

	aliceToken, _ := signup(t, app, "alice", "alice@example.com", "hunter2!")
	bobToken, bobID := signup(t, app, "bob", "bob@example.com", "swordfish")

	// Alice shares a link.
	status, body := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, fiber.Map{
		"title":    "Go 1.24 released",
		"post_url": "https://go.dev/blog/go1.24",
	})
	require.Equal(t, http.StatusCreated, status, "create post failed: %v", body)
	postID := uint(body["id"].(float64))
	assert.Equal(t, float64(0), body["vote_count"])

	// Bob upvotes: count goes to 1.
	status, body = doJSON(t, app, http.MethodPut, "/api/posts/upvote", bobToken, fiber.Map{
		"post_id": postID,
	})
	require.Equal(t, http.StatusOK, status, "upvote failed: %v", body)
	assert.Equal(t, float64(1), body["vote_count"])

	// Bob upvotes again: rejected, count unchanged.
	status, body = doJSON(t, app, http.MethodPut, "/api/posts/upvote", bobToken, fiber.Map{
		"post_id": postID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "DUPLICATE_VOTE", body["code"])

	// Alice may vote on her own post: count goes to 2.
	status, body = doJSON(t, app, http.MethodPut, "/api/posts/upvote", aliceToken, fiber.Map{
		"post_id": postID,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["vote_count"])

	// Bob comments on the post.
	status, body = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", postID), bobToken, fiber.Map{
		"comment_text": "Great release notes",
	})
	require.Equal(t, http.StatusCreated, status, "comment failed: %v", body)

	// Anyone can read the post with its live count, author and comments.
	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["vote_count"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "post should embed its author")
	assert.Equal(t, "alice", user["username"])
	_, hasPassword := user["password"]
	assert.False(t, hasPassword, "password hash must never be serialized")

	comments, ok := body["comments"].([]any)
	require.True(t, ok)
	require.Len(t, comments, 1)
	comment := comments[0].(map[string]any)
	assert.Equal(t, "Great release notes", comment["comment_text"])
	commenter := comment["user"].(map[string]any)
	assert.Equal(t, "bob", commenter["username"])

	// The feed lists the post.
	status, list := doJSONList(t, app, http.MethodGet, "/api/posts", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, float64(2), list[0]["vote_count"])

	// Bob's voted-posts listing includes it.
	status, list = doJSONList(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d/voted", bobID), bobToken)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, "Go 1.24 released", list[0]["title"])
}

func TestAPIFlow_UpvoteMissingPost(t *testing.T) {
	app := setupTestApp(t)
	token, _ := signup(t, app, "alice", "alice@example.com", "hunter2!")

	status, body := doJSON(t, app, http.MethodPut, "/api/posts/upvote", token, fiber.Map{
		"post_id": 999,
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestAPIFlow_AuthRequired(t *testing.T) {
	app := setupTestApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/api/posts", "", fiber.Map{
		"title":    "No auth",
		"post_url": "https://example.com",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPut, "/api/posts/upvote", "", fiber.Map{"post_id": 1})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPIFlow_OnlyOwnerMayEdit(t *testing.T) {
	app := setupTestApp(t)

	aliceToken, _ := signup(t, app, "alice", "alice@example.com", "hunter2!")
	bobToken, _ := signup(t, app, "bob", "bob@example.com", "swordfish")

	status, body := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, fiber.Map{
		"title":    "Original title",
		"post_url": "https://example.com/a",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := uint(body["id"].(float64))

	status, body = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/posts/%d", postID), bobToken, fiber.Map{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, body = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/posts/%d", postID), aliceToken, fiber.Map{
		"title": "Updated title",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Updated title", body["title"])
}

func TestAPIFlow_LoginAndBadCredentials(t *testing.T) {
	app := setupTestApp(t)
	signup(t, app, "alice", "alice@example.com", "hunter2!")

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "hunter2!",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "nobody@example.com",
		"password": "hunter2!",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPIFlow_DuplicateSignup(t *testing.T) {
	app := setupTestApp(t)
	signup(t, app, "alice", "alice@example.com", "hunter2!")

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "hunter2!",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestAPIFlow_DeleteAccountCascades(t *testing.T) {
	app := setupTestApp(t)

	aliceToken, _ := signup(t, app, "alice", "alice@example.com", "hunter2!")
	bobToken, _ := signup(t, app, "bob", "bob@example.com", "swordfish")

	status, body := doJSON(t, app, http.MethodPost, "/api/posts", aliceToken, fiber.Map{
		"title":    "Will survive",
		"post_url": "https://example.com/a",
	})
	require.Equal(t, http.StatusCreated, status)
	postID := uint(body["id"].(float64))

	// Bob votes, then deletes his account; the vote goes with him.
	status, _ = doJSON(t, app, http.MethodPut, "/api/posts/upvote", bobToken, fiber.Map{"post_id": postID})
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodDelete, "/api/users/me", bobToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["vote_count"], "deleted user's vote must not count")
}

func TestHealthEndpoints(t *testing.T) {
	app := setupTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])

	status, body = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}
