package types

import "time"

// MaxBioLength bounds the bio field, matching the store schema.
const MaxBioLength = 300

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user. It is store-assigned:
	// a UUID on the Postgres backend, an ObjectID hex string on Mongo.
	ID string `json:"id" db:"id" bson:"-"`

	// Name is the user's display name.
	Name string `json:"name" db:"name" bson:"name"`

	// Email is the user's email address, unique across accounts.
	Email string `json:"email" db:"email" bson:"email"`

	// Bio is a short free-form description, at most MaxBioLength characters.
	Bio string `json:"bio" db:"bio" bson:"bio"`

	// AvatarKey is the object-storage key of the user's avatar, empty when
	// no avatar has been uploaded.
	AvatarKey string `json:"-" db:"avatar_key" bson:"avatar_key"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash" bson:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" bson:"updated_at"`
}
