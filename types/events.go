package types

import "time"

// Broker channel names.
const (
	UserEventsChannel = "user-events"
	PostEventsChannel = "post-events"
)

// Event types carried in the broker message attributes.
const (
	EventUserRegistered = "user.registered"
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
)

// UserEvent is the payload published on the user-events channel.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PostEvent is the payload published on the post-events channel.
type PostEvent struct {
	Type       string    `json:"type"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}
