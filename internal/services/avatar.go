package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/ripple-social/apiserver/types"
)

// ErrAvatarsDisabled is returned when no object storage is configured.
var ErrAvatarsDisabled = errors.New("avatar storage is not configured")

// ErrNoAvatar is returned when a user has not uploaded an avatar.
var ErrNoAvatar = errors.New("no avatar uploaded")

// ObjectStore defines the object-storage operations the user service needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// UpdateAvatar stores the image under a fresh object key, points the user
// record at it, and removes the previous object if any.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, data []byte, contentType string) (types.User, error) {
	if s.storage == nil {
		return types.User{}, ErrAvatarsDisabled
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}

	key := fmt.Sprintf("avatars/%s", uuid.NewString())
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.User{}, err
	}

	previous := user.AvatarKey
	user.AvatarKey = key
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		return types.User{}, err
	}

	if previous != "" {
		if err := s.storage.Delete(ctx, previous); err != nil {
			s.logger.Warn().Err(err).Str("key", previous).Msg("delete previous avatar")
		}
	}
	return updated, nil
}

// OpenAvatar streams the user's avatar from object storage.
func (s *UserService) OpenAvatar(ctx context.Context, userID string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrAvatarsDisabled
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AvatarKey == "" {
		return nil, ErrNoAvatar
	}
	return s.storage.Get(ctx, user.AvatarKey)
}
