// Package client provides a typed HTTP client for the ripple API. It
// replaces ambient frontend state stores with an explicit repository over
// an injected http.Client; the session cookie rides in the client's jar.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/ripple-social/apiserver/types"
)

// Client talks to a ripple API server.
type Client struct {
	baseURL string
	http    *http.Client
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// New constructs a Client for the given base URL. When httpClient is nil a
// client with a fresh cookie jar is used, so login sessions persist across
// calls.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Jar: jar}
	}

	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// RegisterParams are the fields required to create an account.
type RegisterParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

// Register creates an account and opens a session.
func (c *Client) Register(ctx context.Context, params RegisterParams) (types.User, error) {
	var resp struct {
		User types.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/user/register", params, http.StatusCreated, &resp)
	return resp.User, err
}

// Login opens a session for existing credentials.
func (c *Client) Login(ctx context.Context, email, password string) (types.User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		User types.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/user/login", body, http.StatusOK, &resp)
	return resp.User, err
}

// Logout clears the session cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/user/logout", nil, http.StatusOK, nil)
}

// Profile fetches the authenticated user.
func (c *Client) Profile(ctx context.Context) (types.User, error) {
	var resp struct {
		User types.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/user/profile", nil, http.StatusOK, &resp)
	return resp.User, err
}

// CreatePost publishes a post as the authenticated user.
func (c *Client) CreatePost(ctx context.Context, title, content string) (types.Post, error) {
	body := map[string]string{"title": title, "content": content}
	var resp struct {
		Post types.Post `json:"post"`
	}
	err := c.do(ctx, http.MethodPost, "/api/posts", body, http.StatusCreated, &resp)
	return resp.Post, err
}

// Posts fetches the public feed.
func (c *Client) Posts(ctx context.Context) ([]types.Post, error) {
	var resp struct {
		Posts []types.Post `json:"posts"`
	}
	err := c.do(ctx, http.MethodGet, "/api/posts", nil, http.StatusOK, &resp)
	return resp.Posts, err
}

// MyPosts fetches the authenticated user's posts, newest first.
func (c *Client) MyPosts(ctx context.Context) ([]types.Post, error) {
	var resp struct {
		Posts []types.Post `json:"posts"`
	}
	err := c.do(ctx, http.MethodGet, "/api/posts/me", nil, http.StatusOK, &resp)
	return resp.Posts, err
}

// UpdatePost edits a post owned by the authenticated user.
func (c *Client) UpdatePost(ctx context.Context, id, title, content string) (types.Post, error) {
	body := map[string]string{"title": title, "content": content}
	var resp struct {
		Post types.Post `json:"post"`
	}
	err := c.do(ctx, http.MethodPut, "/api/posts/"+url.PathEscape(id), body, http.StatusOK, &resp)
	return resp.Post, err
}

// DeletePost removes a post owned by the authenticated user.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, http.StatusOK, nil)
}

// UploadAvatar replaces the authenticated user's avatar image.
func (c *Client) UploadAvatar(ctx context.Context, filename string, image io.Reader) (types.User, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("avatar", filename)
	if err != nil {
		return types.User{}, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return types.User{}, err
	}
	if err := form.Close(); err != nil {
		return types.User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/user/avatar", &buf)
	if err != nil {
		return types.User{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return types.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return types.User{}, &APIError{StatusCode: resp.StatusCode, Message: payload.Message}
	}

	var out struct {
		User types.User `json:"user"`
	}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out.User, err
}

// Avatar fetches a user's avatar image. The caller must close the reader.
func (c *Client) Avatar(ctx context.Context, userID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/user/avatar/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: payload.Message}
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
