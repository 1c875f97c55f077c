package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finwise/internal/amqp"
	"finwise/internal/core"
	"finwise/internal/ports"
)

// Publisher announces profile changes to background consumers.
type Publisher interface {
	PublishProfileUpdated(ctx context.Context, userID, reason string) error
}

// Invalidator drops cached views derived from a user's profile.
type Invalidator interface {
	Invalidate(userID string)
}

// loadProfile returns the stored profile, or an empty one for users that
// have not filled it in yet.
func loadProfile(ctx context.Context, store ports.ProfileStore, userID string) (core.Profile, error) {
	if userID == "" {
		return core.Profile{}, core.ErrEmptyUserID
	}
	p, err := store.GetProfile(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return core.Profile{UserID: userID}, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ProfileService orchestrates profile reads and writes across the store,
// the view caches and AMQP.
type ProfileService struct {
	profiles  ports.ProfileStore
	publisher Publisher
	caches    []Invalidator
	now       func() time.Time
}

// NewProfileService wires the service. publisher may be nil when AMQP is not
// configured.
func NewProfileService(profiles ports.ProfileStore, publisher Publisher, caches ...Invalidator) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		publisher: publisher,
		caches:    caches,
		now:       time.Now,
	}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (core.Profile, error) {
	return loadProfile(ctx, s.profiles, userID)
}

// Update replaces the user's profile. The user id always comes from the
// caller, never from the payload.
func (s *ProfileService) Update(ctx context.Context, userID string, p core.Profile) (core.Profile, error) {
	p.UserID = userID
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.profiles.SaveProfile(ctx, p); err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	for _, c := range s.caches {
		c.Invalidate(userID)
	}

	slog.InfoContext(ctx, "Profile updated",
		"user_id", userID,
		"complete", p.IsComplete())

	if err := s.publish(ctx, userID, amqp.ReasonProfileSaved); err != nil {
		slog.ErrorContext(ctx, "Failed to publish profile update",
			"user_id", userID, "error", err)
		// Profile is saved; the worker's periodic refresh catches up.
	}
	return p, nil
}

func (s *ProfileService) publish(ctx context.Context, userID, reason string) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping profile update message")
		return nil
	}
	return s.publisher.PublishProfileUpdated(ctx, userID, reason)
}
