// Package service implements registration admission and the event read
// operations around it, orchestrating the domain packages and the
// repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/repository"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/requirements"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/vacancy"
)

// ErrInvalidEvent is wrapped by validation failures of CreateEvent.
var ErrInvalidEvent = errors.New("invalid event")

// EventDetail is an event together with its current vacancies.
type EventDetail struct {
	model.Event
	Vacancies model.Vacancies `json:"vacancies"`
}

// EventService orchestrates event-related read and setup operations.
type EventService struct {
	store repository.Transactor
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(store repository.Transactor) *EventService {
	return &EventService{store: store}
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if req.AttendeesMax < 0 || req.QueueSize < 0 {
		return nil, fmt.Errorf("%w: attendees_max and queue_size must not be negative", ErrInvalidEvent)
	}
	if req.AttendeesMax > 100_000 {
		return nil, fmt.Errorf("%w: attendees_max cannot exceed 100,000", ErrInvalidEvent)
	}
	if req.BeginDate != nil && req.EndDate != nil && req.EndDate.Before(*req.BeginDate) {
		return nil, fmt.Errorf("%w: end_date is before begin_date", ErrInvalidEvent)
	}
	switch req.Status {
	case "":
		req.Status = model.StatusPlanned
	case model.StatusPlanned, model.StatusConfirmed, model.StatusCanceled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, req.Status)
	}

	codes := make(map[string]struct{}, len(req.PriceTiers))
	for _, p := range req.PriceTiers {
		if p.Code == "" || p.Amount < 0 {
			return nil, fmt.Errorf("%w: price tiers need a code and a non-negative amount", ErrInvalidEvent)
		}
		if _, dup := codes[p.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate price code %q", ErrInvalidEvent, p.Code)
		}
		codes[p.Code] = struct{}{}
	}

	repos := s.store.Repositories()
	if req.TopicID != "" {
		if _, err := repos.Events.Find(ctx, req.TopicID); err != nil {
			return nil, fmt.Errorf("%w: topic %s: %w", ErrInvalidEvent, req.TopicID, err)
		}
	}
	var reqs []model.TopicRef
	for _, id := range req.RequirementIDs {
		topic, err := repos.Events.Find(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: requirement %s: %w", ErrInvalidEvent, id, err)
		}
		reqs = append(reqs, model.TopicRef{ID: topic.ID, Title: topic.Title})
	}

	event := &model.Event{
		Title:                                 req.Title,
		TopicID:                               req.TopicID,
		BeginDate:                             req.BeginDate,
		EndDate:                               req.EndDate,
		RegistrationBegin:                     req.RegistrationBegin,
		RegistrationDeadline:                  req.RegistrationDeadline,
		UnregistrationDeadline:                req.UnregistrationDeadline,
		AttendeesMax:                          req.AttendeesMax,
		QueueSize:                             req.QueueSize,
		Status:                                req.Status,
		RegistrationRequired:                  req.RegistrationRequired,
		AllowsMultipleRegistrations:           req.AllowsMultipleRegistrations,
		AllowRegistrationForEventsWithoutDate: req.AllowRegistrationForEventsWithoutDate,
		AllowRegistrationForStartedEvents:     req.AllowRegistrationForStartedEvents,
		Requirements:                          reqs,
		PriceTiers:                            req.PriceTiers,
		Organizers:                            req.Organizers,
	}
	if err := repos.Events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// GetEvent returns a single event by ID with its vacancies.
func (s *EventService) GetEvent(ctx context.Context, id string) (*EventDetail, error) {
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	event, err := s.store.Repositories().Events.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &EventDetail{Event: *event, Vacancies: vacancy.Vacancies(event)}, nil
}

// MissingRequirements lists the required topics of an event the registrant
// has not attended.
func (s *EventService) MissingRequirements(ctx context.Context, eventID, registrantID string) ([]model.TopicRef, error) {
	repos := s.store.Repositories()
	event, err := repos.Events.Find(ctx, eventID)
	if err != nil {
		return nil, err
	}
	history, err := repos.History.RegistrationsOf(ctx, registrantID)
	if err != nil {
		return nil, fmt.Errorf("load registrant history: %w", err)
	}
	return requirements.MissingRequirements(event, model.Registrant{ID: registrantID, History: history}), nil
}

// ListRegistrations returns all registrations for an event.
func (s *EventService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	repos := s.store.Repositories()
	if _, err := repos.Events.Find(ctx, eventID); err != nil {
		return nil, err
	}
	return repos.Registrations.ListByEvent(ctx, eventID)
}

// GetRegistration returns a single registration.
func (s *EventService) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	return s.store.Repositories().Registrations.Find(ctx, id)
}
