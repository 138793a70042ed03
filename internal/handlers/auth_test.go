package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-social/apiserver/internal/services"
	"github.com/ripple-social/apiserver/types"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	userRepo *fakeUserRepo
	postRepo *fakePostRepo
	auth     *AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	userRepo := newFakeUserRepo()
	postRepo := newFakePostRepo()
	userService := services.NewUserService(userRepo, nil, nil, logger)
	postService := services.NewPostService(postRepo, userRepo, nil, logger)
	auth := NewAuthHandler(userService, testJWTSecret, defaultTokenTTL, false)

	r := chi.NewRouter()
	r.Route("/api/user", func(r chi.Router) {
		UserRouter(r, auth, auth.RequireSession, nil, nil)
	})
	r.Route("/api/posts", func(r chi.Router) {
		PostRouter(r, postService, auth.RequireSession)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server:   server,
		client:   &http.Client{Jar: jar},
		userRepo: userRepo,
		postRepo: postRepo,
		auth:     auth,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (e *testEnv) register(t *testing.T, name, email, password string) types.User {
	t.Helper()
	resp := e.request(t, http.MethodPost, "/api/user/register", RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Bio:      "just here for the posts",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body UserResponse
	decodeBody(t, resp, &body)
	return body.User
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/user/register", RegisterRequest{
		Name:     "alice",
		Email:    "alice@example.com",
		Password: "hunter22",
		Bio:      "hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie should be set on register")
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	var body UserResponse
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.User.ID)
	assert.Equal(t, "alice@example.com", body.User.Email)
	assert.Equal(t, "registration successful", body.Message)
}

func TestRegister_PasswordNeverSerialized(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/user/register", RegisterRequest{
		Name:     "alice",
		Email:    "alice@example.com",
		Password: "hunter22",
		Bio:      "hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "hunter22")
}

func TestRegister_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	for _, req := range []RegisterRequest{
		{Email: "a@example.com", Password: "pw", Bio: "b"},
		{Name: "a", Password: "pw", Bio: "b"},
		{Name: "a", Email: "a@example.com", Bio: "b"},
		{Name: "a", Email: "a@example.com", Password: "pw"},
	} {
		resp := env.request(t, http.MethodPost, "/api/user/register", req)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestRegister_BioTooLong(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/user/register", RegisterRequest{
		Name:     "alice",
		Email:    "alice@example.com",
		Password: "hunter22",
		Bio:      strings.Repeat("x", types.MaxBioLength+1),
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "hunter22")

	resp := env.request(t, http.MethodPost, "/api/user/register", RegisterRequest{
		Name:     "impostor",
		Email:    "alice@example.com",
		Password: "other",
		Bio:      "me too",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body MessageResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "email already in use", body.Message)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	created := env.register(t, "alice", "alice@example.com", "hunter22")

	resp := env.request(t, http.MethodPost, "/api/user/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body UserResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, created.ID, body.User.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "hunter22")

	// Unknown email and wrong password are indistinguishable to the caller.
	for _, req := range []LoginRequest{
		{Email: "nobody@example.com", Password: "hunter22"},
		{Email: "alice@example.com", Password: "wrong"},
	} {
		resp := env.request(t, http.MethodPost, "/api/user/login", req)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body MessageResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "invalid email or password", body.Message)
	}
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	created := env.register(t, "alice", "alice@example.com", "hunter22")

	resp := env.request(t, http.MethodGet, "/api/user/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body UserResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, created.ID, body.User.ID)
	assert.Equal(t, "alice", body.User.Name)
}

func TestProfile_NoSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/user/profile", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfile_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	created := env.register(t, "alice", "alice@example.com", "hunter22")

	token, err := issueToken(created.ID, []byte(testJWTSecret), -time.Minute)
	require.NoError(t, err)

	serverURL, err := url.Parse(env.server.URL)
	require.NoError(t, err)
	env.client.Jar.SetCookies(serverURL, []*http.Cookie{{Name: "token", Value: token, Path: "/"}})

	resp := env.request(t, http.MethodGet, "/api/user/profile", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfile_WrongSecret(t *testing.T) {
	env := newTestEnv(t)
	created := env.register(t, "alice", "alice@example.com", "hunter22")

	token, err := issueToken(created.ID, []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	serverURL, err := url.Parse(env.server.URL)
	require.NoError(t, err)
	env.client.Jar.SetCookies(serverURL, []*http.Cookie{{Name: "token", Value: token, Path: "/"}})

	resp := env.request(t, http.MethodGet, "/api/user/profile", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "hunter22")

	resp := env.request(t, http.MethodPost, "/api/user/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Less(t, cookie.MaxAge, 0, "logout should expire the session cookie")

	var body MessageResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "logout successful", body.Message)

	resp = env.request(t, http.MethodGet, "/api/user/profile", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte(testJWTSecret)

	token, err := issueToken("u-1", secret, time.Hour)
	require.NoError(t, err)

	userID, err := parseTokenUserID(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := parseTokenUserID("not-a-token", []byte(testJWTSecret))
	assert.Error(t, err)
}

func TestRequireSession_UserDeleted(t *testing.T) {
	env := newTestEnv(t)
	created := env.register(t, "alice", "alice@example.com", "hunter22")

	env.userRepo.mu.Lock()
	delete(env.userRepo.users, created.ID)
	env.userRepo.mu.Unlock()

	resp := env.request(t, http.MethodGet, "/api/user/profile", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
