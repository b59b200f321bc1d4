package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/dukerupert/deltamc/internal/telemetry"
)

// EventService implements domain.EventService.
type EventService struct {
	events EventStore
	logger *slog.Logger
	now    func() time.Time
}

var _ domain.EventService = (*EventService)(nil)

func NewEventService(events EventStore, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{events: events, logger: logger, now: time.Now}
}

// Upcoming returns events from the start of today onwards. Participant counts
// are filled in when they can be loaded and left at zero otherwise.
func (s *EventService) Upcoming(ctx context.Context) ([]domain.Event, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	events, err := s.events.ListEventsFrom(ctx, today)
	if err != nil {
		return nil, domain.Internal(err, "event.upcoming", "failed to list events")
	}
	if len(events) == 0 {
		return []domain.Event{}, nil
	}

	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}

	counts, err := s.events.CountParticipants(ctx, names)
	if err != nil {
		s.logger.Warn("failed to count event participants", "error", err)
		return events, nil
	}
	for i := range events {
		events[i].ParticipantCount = counts[events[i].Name]
	}
	return events, nil
}

func (s *EventService) Join(ctx context.Context, eventID int64, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.ErrUsernameRequired
	}

	err := s.events.JoinEvent(ctx, eventID, username)
	switch {
	case err == nil:
		s.record("joined")
		return nil
	case errors.Is(err, domain.ErrAlreadyRegistered):
		s.record("duplicate")
		return err
	case errors.Is(err, domain.ErrEventFull):
		s.record("full")
		return err
	case errors.Is(err, domain.ErrEventNotFound):
		return err
	default:
		return domain.WrapError(err, domain.EINTERNAL, "event.join", domain.ErrEventJoinFailed.Message)
	}
}

func (s *EventService) record(result string) {
	if telemetry.Business != nil {
		telemetry.Business.EventJoins.WithLabelValues(result).Inc()
	}
}
