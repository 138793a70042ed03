package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ripple-social/apiserver/internal/services"
	"github.com/ripple-social/apiserver/internal/store"
	"github.com/ripple-social/apiserver/types"
)

// PostHandler provides HTTP handlers for posts.
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler constructs a handler with the provided service.
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// PostRouter registers post routes on the given router. The public feed
// needs no session; everything else does.
func PostRouter(r chi.Router, postService *services.PostService, sessionMiddleware func(http.Handler) http.Handler) {
	handler := NewPostHandler(postService)

	r.Get("/", handler.ListPosts)
	r.With(sessionMiddleware).Post("/", handler.CreatePost)
	r.With(sessionMiddleware).Get("/me", handler.ListMyPosts)
	r.Route("/{postID}", func(r chi.Router) {
		r.With(sessionMiddleware).Put("/", handler.UpdatePost)
		r.With(sessionMiddleware).Delete("/", handler.DeletePost)
	})
}

type PostUpsertRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreatePost persists a post authored by the session user.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Create(r.Context(), types.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: user.ID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	writeJSON(w, http.StatusCreated, PostResponse{Post: post, Message: "post created"})
}

// ListPosts returns the public feed in store order.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch posts")
		return
	}
	if posts == nil {
		posts = []types.Post{}
	}
	writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// ListMyPosts returns the session user's posts, newest first.
func (h *PostHandler) ListMyPosts(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	posts, err := h.postService.ListByAuthor(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch posts")
		return
	}
	if posts == nil {
		posts = []types.Post{}
	}
	writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// UpdatePost edits a post owned by the session user.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Update(r.Context(), chi.URLParam(r, "postID"), user.ID, req.Title, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "post not found")
		case errors.Is(err, services.ErrNotOwner):
			writeError(w, http.StatusForbidden, "you are not the author of this post")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update post")
		}
		return
	}

	writeJSON(w, http.StatusOK, PostResponse{Post: post, Message: "post updated"})
}

// DeletePost removes a post owned by the session user.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.postService.Delete(r.Context(), chi.URLParam(r, "postID"), user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "post not found")
		case errors.Is(err, services.ErrNotOwner):
			writeError(w, http.StatusForbidden, "you are not the author of this post")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete post")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "post deleted"})
}

func decodePostRequest(w http.ResponseWriter, r *http.Request) (PostUpsertRequest, bool) {
	var req PostUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return PostUpsertRequest{}, false
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return PostUpsertRequest{}, false
	}
	return req, true
}
