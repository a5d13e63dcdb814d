package service

import (
	"context"
	"errors"
	"fmt"

	"ms-events/internal/events"
	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/notify"
)

type EventDBLayer interface {
	Insert(ctx context.Context, description string) (*models.Event, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	UpdateByID(ctx context.Context, id int64, description string) (*models.Event, error)
	DeleteByID(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type EventService struct {
	DB        EventDBLayer
	Publisher notify.Publisher
	Logger    *logger.Logger
}

func NewEventService(db EventDBLayer, publisher notify.Publisher, log *logger.Logger) *EventService {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EventService{DB: db, Publisher: publisher, Logger: log}
}

func (s *EventService) CreateEvent(ctx context.Context, description string) (*models.Event, error) {
	event, err := s.DB.Insert(ctx, description)
	if err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to create event: %v", err))
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.Logger.LogEvent("CREATE", event.ID, "event stored")
	s.publish(ctx, notify.ActionCreated, *event)
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	list, err := s.DB.ListAll(ctx)
	if err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Failed to list events: %v", err))
		return nil, fmt.Errorf("list events: %w", err)
	}
	s.Logger.Debug("EVENT", fmt.Sprintf("Listed %d events", len(list)))
	return list, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.DB.GetByID(ctx, id)
	if err != nil {
		s.logFailure("GET", id, err)
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id int64, description string) (*models.Event, error) {
	event, err := s.DB.UpdateByID(ctx, id, description)
	if err != nil {
		s.logFailure("UPDATE", id, err)
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.Logger.LogEvent("UPDATE", event.ID, "description replaced, timestamp refreshed")
	s.publish(ctx, notify.ActionUpdated, *event)
	return event, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.DB.DeleteByID(ctx, id); err != nil {
		s.logFailure("DELETE", id, err)
		return fmt.Errorf("delete event: %w", err)
	}

	s.Logger.LogEvent("DELETE", id, "event removed")
	s.publish(ctx, notify.ActionDeleted, models.Event{ID: id})
	return nil
}

func (s *EventService) Health(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

// publish never fails the request; the write is already committed.
func (s *EventService) publish(ctx context.Context, action string, event models.Event) {
	if err := s.Publisher.Publish(ctx, notify.NewChange(action, event)); err != nil {
		s.Logger.Warn("NOTIFY", fmt.Sprintf("Failed to publish %s for event %d via %s: %v", action, event.ID, s.Publisher.Name(), err))
		return
	}
	s.Logger.LogNotify(s.Publisher.Name(), action, fmt.Sprintf("event %d", event.ID))
}

func (s *EventService) logFailure(op string, id int64, err error) {
	switch {
	case errors.Is(err, events.ErrNotFound):
		s.Logger.Debug("EVENT", fmt.Sprintf("%s: event %d not found", op, id))
	case errors.Is(err, events.ErrAmbiguousResult):
		s.Logger.Error("EVENT", fmt.Sprintf("%s: invariant violation, id %d is not unique: %v", op, id, err))
	default:
		s.Logger.Error("EVENT", fmt.Sprintf("%s: event %d failed: %v", op, id, err))
	}
}
