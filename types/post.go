package types

import "time"

// Post represents a short text post published by a user.
type Post struct {
	// ID is the unique identifier of the post, store-assigned.
	ID string `json:"id" db:"id" bson:"-"`

	// Title is the post headline.
	Title string `json:"title" db:"title" bson:"title"`

	// Content is the post body.
	Content string `json:"content" db:"content" bson:"content"`

	// AuthorID references the user who created the post.
	AuthorID string `json:"author_id" db:"author_id" bson:"author_id"`

	// Author carries the populated author summary in API responses.
	// It is filled by the service layer, never persisted.
	Author *Author `json:"author,omitempty" db:"-" bson:"-"`

	// CreatedAt is the timestamp when the post was created.
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// Author is the projection of a user embedded in post responses.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
