package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-social/apiserver/internal/store"
	"github.com/ripple-social/apiserver/types"
)

type stubUserRepo struct {
	users map[string]types.User
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.users[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	r.users[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) ListByIDs(_ context.Context, ids []string) ([]types.User, error) {
	var users []types.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

type stubPostRepo struct {
	posts   map[string]types.Post
	deleted []string
}

func (r *stubPostRepo) Get(_ context.Context, id string) (types.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (r *stubPostRepo) List(_ context.Context) ([]types.Post, error) {
	var posts []types.Post
	for _, post := range r.posts {
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *stubPostRepo) ListByAuthor(_ context.Context, authorID string) ([]types.Post, error) {
	var posts []types.Post
	for _, post := range r.posts {
		if post.AuthorID == authorID {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (r *stubPostRepo) Create(_ context.Context, post types.Post) (types.Post, error) {
	if post.ID == "" {
		post.ID = "p-new"
	}
	r.posts[post.ID] = post
	return post, nil
}

func (r *stubPostRepo) Update(_ context.Context, post types.Post) (types.Post, error) {
	if _, ok := r.posts[post.ID]; !ok {
		return types.Post{}, store.ErrNotFound
	}
	r.posts[post.ID] = post
	return post, nil
}

func (r *stubPostRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.posts, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type capturedEvent struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type stubPublisher struct {
	events []capturedEvent
}

func (p *stubPublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.events = append(p.events, capturedEvent{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func newPostServiceFixture() (*PostService, *stubPostRepo, *stubUserRepo, *stubPublisher) {
	users := &stubUserRepo{users: map[string]types.User{
		"u-1": {ID: "u-1", Name: "alice", Email: "alice@example.com"},
		"u-2": {ID: "u-2", Name: "bob", Email: "bob@example.com"},
	}}
	posts := &stubPostRepo{posts: map[string]types.Post{
		"p-1": {ID: "p-1", Title: "one", Content: "a", AuthorID: "u-1"},
		"p-2": {ID: "p-2", Title: "two", Content: "b", AuthorID: "u-2"},
	}}
	events := &stubPublisher{}
	return NewPostService(posts, users, events, zerolog.Nop()), posts, users, events
}

func TestPostService_List_PopulatesAuthors(t *testing.T) {
	svc, _, _, _ := newPostServiceFixture()

	posts, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)

	byID := make(map[string]types.Post)
	for _, post := range posts {
		byID[post.ID] = post
	}
	require.NotNil(t, byID["p-1"].Author)
	assert.Equal(t, "alice", byID["p-1"].Author.Name)
	require.NotNil(t, byID["p-2"].Author)
	assert.Equal(t, "bob@example.com", byID["p-2"].Author.Email)
}

func TestPostService_List_MissingAuthorLeftNil(t *testing.T) {
	svc, posts, _, _ := newPostServiceFixture()
	posts.posts["p-3"] = types.Post{ID: "p-3", Title: "orphan", AuthorID: "u-gone"}

	listed, err := svc.List(context.Background())
	require.NoError(t, err)

	for _, post := range listed {
		if post.ID == "p-3" {
			assert.Nil(t, post.Author)
		}
	}
}

func TestPostService_Create_PublishesEvent(t *testing.T) {
	svc, _, _, events := newPostServiceFixture()

	created, err := svc.Create(context.Background(), types.Post{
		Title:    "hello",
		Content:  "body",
		AuthorID: "u-1",
	})
	require.NoError(t, err)
	require.NotNil(t, created.Author)
	assert.Equal(t, "alice", created.Author.Name)

	require.Len(t, events.events, 1)
	assert.Equal(t, types.PostEventsChannel, events.events[0].channel)
	assert.Equal(t, types.EventPostCreated, events.events[0].attrs["type"])

	var event types.PostEvent
	require.NoError(t, json.Unmarshal(events.events[0].data, &event))
	assert.Equal(t, created.ID, event.PostID)
	assert.Equal(t, "u-1", event.AuthorID)
}

func TestPostService_Update_OwnershipEnforced(t *testing.T) {
	svc, _, _, _ := newPostServiceFixture()

	_, err := svc.Update(context.Background(), "p-1", "u-2", "hijacked", "body")
	assert.ErrorIs(t, err, ErrNotOwner)

	updated, err := svc.Update(context.Background(), "p-1", "u-1", "edited", "body")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Title)
}

func TestPostService_Delete_OwnershipEnforced(t *testing.T) {
	svc, posts, _, events := newPostServiceFixture()

	err := svc.Delete(context.Background(), "p-1", "u-2")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Contains(t, posts.posts, "p-1")
	assert.Empty(t, events.events)

	err = svc.Delete(context.Background(), "p-1", "u-1")
	require.NoError(t, err)
	assert.NotContains(t, posts.posts, "p-1")

	require.Len(t, events.events, 1)
	assert.Equal(t, types.EventPostDeleted, events.events[0].attrs["type"])
}

func TestPostService_Delete_NotFound(t *testing.T) {
	svc, _, _, _ := newPostServiceFixture()

	err := svc.Delete(context.Background(), "ghost", "u-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserService_Create_PublishesEvent(t *testing.T) {
	users := &stubUserRepo{users: map[string]types.User{}}
	events := &stubPublisher{}
	svc := NewUserService(users, events, nil, zerolog.Nop())

	created, err := svc.Create(context.Background(), types.User{
		ID:    "u-9",
		Name:  "carol",
		Email: "carol@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", created.Name)

	require.Len(t, events.events, 1)
	assert.Equal(t, types.UserEventsChannel, events.events[0].channel)

	var event types.UserEvent
	require.NoError(t, json.Unmarshal(events.events[0].data, &event))
	assert.Equal(t, types.EventUserRegistered, event.Type)
	assert.Equal(t, "carol@example.com", event.Email)
}

func TestUserService_Create_NilPublisher(t *testing.T) {
	users := &stubUserRepo{users: map[string]types.User{}}
	svc := NewUserService(users, nil, nil, zerolog.Nop())

	_, err := svc.Create(context.Background(), types.User{ID: "u-1", Name: "alice"})
	require.NoError(t, err)
}
