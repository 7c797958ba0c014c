package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "server-test-secret-0123456789abcdef0123456789"

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	blobs *testutil.MemoryBlobStore
	admin string
	alice string
	bob   string
	users []*models.User
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	cfg := testutil.SQLiteConfig()
	cfg.JWTSecret = testSecret
	cfg.JWTIssuer = "inkwell-auth"
	cfg.JWTAudience = "inkwell-api"

	db := testutil.NewDB(t)
	blobs := testutil.NewMemoryBlobStore()
	s, err := NewServerWithDeps(cfg, db, nil, blobs)
	require.NoError(t, err)

	app := s.NewApp()
	s.SetupRoutes(app)

	env := &testEnv{app: app, db: db, blobs: blobs}
	for i := 0; i < 3; i++ {
		env.users = append(env.users, testutil.CreateUser(t, db))
	}
	env.admin = signToken(t, env.users[0].ID, middleware.RoleAdmin)
	env.alice = signToken(t, env.users[1].ID, "user")
	env.bob = signToken(t, env.users[2].ID, "user")
	return env
}

func signToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"iss":  "inkwell-auth",
		"aud":  "inkwell-api",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(t, method, path, token, body, fiber.MIMEApplicationJSON)
}

func postForm(t *testing.T, fields map[string][]string, withImage bool) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if withImage {
		part, err := w.CreateFormFile("image", "cover.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestPostLifecycle(t *testing.T) {
	env := setupTestServer(t)

	body, ct := postForm(t, map[string][]string{
		"title":        {"Hello, World!"},
		"content":      {"<p>first post</p>"},
		"tags":         {"go, web"},
		"time_to_read": {"4"},
	}, true)
	resp, data := env.do(t, http.MethodPost, "/api/v1/posts", env.admin, body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	created := decode[models.Post](t, data)
	assert.Equal(t, "hello-world", created.Slug)
	assert.Equal(t, []string{"go", "web"}, created.TagList())
	require.Len(t, env.blobs.Objects, 1)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts/hello-world", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Post](t, data)
	assert.False(t, got.IsLiked)
	assert.Zero(t, got.LikesCount)

	id := strconv.FormatUint(uint64(created.ID), 10)
	resp, data = env.doJSON(t, http.MethodPost, "/api/v1/posts/"+id+"/like", env.alice, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	assert.Contains(t, string(data), `"likes_count":1`)

	resp, data = env.doJSON(t, http.MethodPost, "/api/v1/posts/"+id+"/like", env.alice, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, models.CodeConflict, decode[models.ErrorResponse](t, data).Code)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts/hello-world", env.alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[models.Post](t, data)
	assert.True(t, got.IsLiked)
	assert.Equal(t, 1, got.LikesCount)

	resp, data = env.doJSON(t, http.MethodPost, "/api/v1/posts/"+id+"/comments", env.bob, map[string]string{"content": "nice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	comment := decode[models.Comment](t, data)
	cid := strconv.FormatUint(uint64(comment.ID), 10)

	resp, _ = env.doJSON(t, http.MethodPost, "/api/v1/comments/"+cid+"/like", env.alice, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts/"+id+"/comments", env.alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[models.Page[models.Comment]](t, data)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsLiked)
	assert.Equal(t, 1, page.Items[0].LikesCount)
	require.NotNil(t, page.Items[0].User)
	assert.Equal(t, env.users[2].Username, page.Items[0].User.Username)

	resp, data = env.doJSON(t, http.MethodDelete, "/api/v1/posts/"+id, env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Contains(t, string(data), `"deleted_comments":1`)
	assert.Contains(t, string(data), `"deleted_likes":2`)

	resp, _ = env.doJSON(t, http.MethodGet, "/api/v1/posts/hello-world", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, testutil.CountRows(t, env.db, &models.Like{}))
	assert.Zero(t, testutil.CountRows(t, env.db, &models.Comment{}))
	assert.Empty(t, env.blobs.Objects)
}

func TestCreatePost_Validation(t *testing.T) {
	env := setupTestServer(t)

	body, ct := postForm(t, map[string][]string{"title": {"No image"}, "content": {"x"}}, false)
	resp, data := env.do(t, http.MethodPost, "/api/v1/posts", env.admin, body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "image", decode[models.ErrorResponse](t, data).Field)

	body, ct = postForm(t, map[string][]string{"title": {"t"}, "content": {"x"}, "time_to_read": {"soon"}}, true)
	resp, _ = env.do(t, http.MethodPost, "/api/v1/posts", env.admin, body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	testutil.CreatePost(t, env.db, "Taken")
	body, ct = postForm(t, map[string][]string{"title": {"Taken"}, "content": {"x"}}, true)
	resp, data = env.do(t, http.MethodPost, "/api/v1/posts", env.admin, body, ct)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "title", decode[models.ErrorResponse](t, data).Field)
	assert.Empty(t, env.blobs.Objects)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := setupTestServer(t)
	post := testutil.CreatePost(t, env.db, "Guarded")
	path := "/api/v1/posts/" + strconv.FormatUint(uint64(post.ID), 10)

	resp, _ := env.doJSON(t, http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.doJSON(t, http.MethodDelete, path, env.alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.doJSON(t, http.MethodGet, "/api/v1/admin/dashboard", env.bob, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.doJSON(t, http.MethodGet, "/api/v1/posts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, int64(1), testutil.CountRows(t, env.db, &models.Post{}))
}

func TestListPosts_Paging(t *testing.T) {
	env := setupTestServer(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		testutil.CreatePost(t, env.db, "Post "+strconv.Itoa(i), testutil.WithCreatedAt(base.Add(time.Duration(i)*time.Hour)))
	}

	resp, data := env.doJSON(t, http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[models.Page[models.Post]](t, data)
	assert.Len(t, page.Items, 9)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "Post 11", page.Items[0].Title)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts?page=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[models.Page[models.Post]](t, data).Items)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts?pagination=false", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[models.Page[models.Post]](t, data)
	assert.Len(t, all.Items, 12)
	assert.Equal(t, int64(12), all.TotalItems)

	for _, q := range []string{"page=0", "page=abc", "limit=-1"} {
		resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, data).Code)
	}
}

func TestSearchPosts(t *testing.T) {
	env := setupTestServer(t)
	testutil.CreatePost(t, env.db, "Learning Go", testutil.WithCreatedAt(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)))
	testutil.CreatePost(t, env.db, "Rust notes", testutil.WithTags("golang"), testutil.WithCreatedAt(time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)))
	testutil.CreatePost(t, env.db, "Cooking", testutil.WithCreatedAt(time.Date(2024, 2, 11, 8, 0, 0, 0, time.UTC)))

	resp, data := env.doJSON(t, http.MethodGet, "/api/v1/posts/search?q=GO", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[models.Page[models.Post]](t, data).Items, 2)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts/search?searchString=rust", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decode[models.Page[models.Post]](t, data).Items
	require.Len(t, found, 1)
	assert.Equal(t, "Rust notes", found[0].Title)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts/search?searchString=cooking&q=go", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found = decode[models.Page[models.Post]](t, data).Items
	require.Len(t, found, 1)
	assert.Equal(t, "Cooking", found[0].Title)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts/search?q=go&startDate=2024-02-01&endDate=2024-02-10", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[models.Page[models.Post]](t, data).Items
	require.Len(t, items, 1)
	assert.Equal(t, "Rust notes", items[0].Title)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/posts/search?startDate=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "startDate", decode[models.ErrorResponse](t, data).Field)
}

func TestCommentOwnership(t *testing.T) {
	env := setupTestServer(t)
	post := testutil.CreatePost(t, env.db, "Post")
	comment := testutil.CreateComment(t, env.db, post.ID, env.users[1].ID, "alice says")
	path := "/api/v1/comments/" + strconv.FormatUint(uint64(comment.ID), 10)

	resp, _ := env.doJSON(t, http.MethodPut, path, env.bob, map[string]string{"content": "hijack"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.doJSON(t, http.MethodDelete, path, env.bob, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data := env.doJSON(t, http.MethodPut, path, env.alice, map[string]string{"content": "edited"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "edited", decode[models.Comment](t, data).Content)

	resp, _ = env.doJSON(t, http.MethodDelete, "/api/v1/admin/comments/"+strconv.FormatUint(uint64(comment.ID), 10), env.admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, testutil.CountRows(t, env.db, &models.Comment{}))
}

func TestUnlikeWithoutLikeIsNotFound(t *testing.T) {
	env := setupTestServer(t)
	post := testutil.CreatePost(t, env.db, "Post")

	resp, _ := env.doJSON(t, http.MethodDelete, "/api/v1/posts/"+strconv.FormatUint(uint64(post.ID), 10)+"/like", env.alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.doJSON(t, http.MethodPost, "/api/v1/comments/999/like", env.alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.doJSON(t, http.MethodPost, "/api/v1/posts/abc/like", env.alice, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminDashboardAndSweep(t *testing.T) {
	env := setupTestServer(t)
	post := testutil.CreatePost(t, env.db, "Post")
	testutil.CreateComment(t, env.db, post.ID, env.users[1].ID, "c")

	resp, data := env.doJSON(t, http.MethodGet, "/api/v1/admin/dashboard", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[models.Dashboard](t, data)
	assert.Equal(t, int64(3), d.TotalUsers)
	assert.Equal(t, int64(1), d.TotalPosts)
	assert.Equal(t, int64(1), d.TotalComments)

	resp, data = env.doJSON(t, http.MethodGet, "/api/v1/admin/comments", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[models.Page[models.Comment]](t, data).Items, 1)

	resp, data = env.doJSON(t, http.MethodPost, "/api/v1/admin/maintenance/sweep-likes", env.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"likes":0,"comments":0}`, string(data))
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := env.doJSON(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := env.doJSON(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"redis":"disabled"`)
}

func TestHumanizeParam(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "comment ID", humanizeParam("commentId"))
	assert.Equal(t, "slug", humanizeParam("slug"))
}
