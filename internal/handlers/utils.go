package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ripple-social/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// ErrNoSessionUser is returned when no authenticated user is attached to
// the request context.
var ErrNoSessionUser = errors.New("no session user")

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok {
		return types.User{}, ErrNoSessionUser
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// MessageResponse is the payload for message-only responses and errors.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse wraps a user record in the API envelope.
type UserResponse struct {
	User    types.User `json:"user"`
	Message string     `json:"message,omitempty"`
}

// PostResponse wraps a single post in the API envelope.
type PostResponse struct {
	Post    types.Post `json:"post"`
	Message string     `json:"message,omitempty"`
}

// PostsResponse wraps a post list in the API envelope.
type PostsResponse struct {
	Posts []types.Post `json:"posts"`
}
