package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/ripple-social/apiserver/types"
)

// ErrNotOwner is returned when a user acts on a post they did not create.
var ErrNotOwner = errors.New("not the post author")

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Get(ctx context.Context, id string) (types.Post, error)
	List(ctx context.Context) ([]types.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id string) error
}

// PostService encapsulates post use-cases.
type PostService struct {
	repo   PostRepository
	users  UserRepository
	events EventPublisher
	logger zerolog.Logger
}

// NewPostService constructs a PostService. The publisher may be nil, which
// disables event publication.
func NewPostService(repo PostRepository, users UserRepository, events EventPublisher, logger zerolog.Logger) *PostService {
	return &PostService{
		repo:   repo,
		users:  users,
		events: events,
		logger: logger,
	}
}

// Create persists a post for the given author and announces it on the
// post-events channel.
func (s *PostService) Create(ctx context.Context, post types.Post) (types.Post, error) {
	created, err := s.repo.Create(ctx, post)
	if err != nil {
		return types.Post{}, err
	}

	s.publish(ctx, types.PostEvent{
		Type:       types.EventPostCreated,
		PostID:     created.ID,
		AuthorID:   created.AuthorID,
		Title:      created.Title,
		OccurredAt: time.Now(),
	})

	if err := s.populateAuthors(ctx, []types.Post{created}); err != nil {
		return created, nil
	}
	return created, nil
}

// List returns every post in store order with author summaries attached.
func (s *PostService) List(ctx context.Context) ([]types.Post, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.populateAuthors(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByAuthor returns the author's posts, newest first, with author
// summaries attached.
func (s *PostService) ListByAuthor(ctx context.Context, authorID string) ([]types.Post, error) {
	posts, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := s.populateAuthors(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Update edits a post's title and content. Only the author may update;
// ErrNotOwner is returned otherwise.
func (s *PostService) Update(ctx context.Context, id, requesterID, title, content string) (types.Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Post{}, err
	}
	if post.AuthorID != requesterID {
		return types.Post{}, ErrNotOwner
	}

	post.Title = title
	post.Content = content
	updated, err := s.repo.Update(ctx, post)
	if err != nil {
		return types.Post{}, err
	}

	if err := s.populateAuthors(ctx, []types.Post{updated}); err != nil {
		return updated, nil
	}
	return updated, nil
}

// Delete removes a post. Only the author may delete; ErrNotOwner is
// returned otherwise and the post is left intact.
func (s *PostService) Delete(ctx context.Context, id, requesterID string) error {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, types.PostEvent{
		Type:       types.EventPostDeleted,
		PostID:     post.ID,
		AuthorID:   post.AuthorID,
		Title:      post.Title,
		OccurredAt: time.Now(),
	})
	return nil
}

// populateAuthors attaches author summaries to posts in place. Doing the
// join here keeps the Postgres and Mongo repositories symmetric.
func (s *PostService) populateAuthors(ctx context.Context, posts []types.Post) error {
	if len(posts) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for i := range posts {
		id := posts[i].AuthorID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	authors, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}

	byID := make(map[string]types.Author, len(authors))
	for _, user := range authors {
		byID[user.ID] = types.Author{ID: user.ID, Name: user.Name, Email: user.Email}
	}
	for i := range posts {
		if author, ok := byID[posts[i].AuthorID]; ok {
			posts[i].Author = &author
		}
	}
	return nil
}

func (s *PostService) publish(ctx context.Context, event types.PostEvent) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("type", event.Type).Msg("marshal post event")
		return
	}
	if _, err := s.events.Publish(ctx, types.PostEventsChannel, data, map[string]string{"type": event.Type}); err != nil {
		s.logger.Error().Err(err).Str("type", event.Type).Msg("publish post event")
	}
}
