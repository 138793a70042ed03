package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/ripple-social/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]types.User, error)
}

// EventPublisher sends an event payload to a named broker channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo    UserRepository
	events  EventPublisher
	storage ObjectStore
	logger  zerolog.Logger
}

// NewUserService constructs a UserService. The publisher and object store
// may be nil, which disables event publication and avatars respectively.
func NewUserService(repo UserRepository, events EventPublisher, storage ObjectStore, logger zerolog.Logger) *UserService {
	return &UserService{
		repo:    repo,
		events:  events,
		storage: storage,
		logger:  logger,
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Create persists a new user and announces it on the user-events channel.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return types.User{}, err
	}

	s.publish(ctx, types.UserEvent{
		Type:       types.EventUserRegistered,
		UserID:     created.ID,
		Name:       created.Name,
		Email:      created.Email,
		OccurredAt: time.Now(),
	})
	return created, nil
}

func (s *UserService) Update(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Update(ctx, user)
}

// publish is fire-and-forget: a broker outage must not fail the request.
func (s *UserService) publish(ctx context.Context, event types.UserEvent) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("type", event.Type).Msg("marshal user event")
		return
	}
	if _, err := s.events.Publish(ctx, types.UserEventsChannel, data, map[string]string{"type": event.Type}); err != nil {
		s.logger.Error().Err(err).Str("type", event.Type).Msg("publish user event")
	}
}
