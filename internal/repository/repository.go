// Package repository defines the persistence contracts of the registration
// core and implements them on PostgreSQL with pgx (no ORM).
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConcurrencyConflict is returned when a counter write lost a race with a
// concurrent transaction. The whole decide+register sequence may be retried.
var ErrConcurrencyConflict = errors.New("concurrent update of event counters")

// EventRepository stores events. Find returns events with the requirements
// of their topic already resolved.
type EventRepository interface {
	Find(ctx context.Context, id string) (*model.Event, error)
	Create(ctx context.Context, e *model.Event) error
	// Save writes counters and status. It fails with ErrConcurrencyConflict
	// when e.Version is stale and bumps e.Version on success.
	Save(ctx context.Context, e *model.Event) error
}

// RegistrationRepository stores registrations.
type RegistrationRepository interface {
	Create(ctx context.Context, r *model.Registration) (string, error)
	Find(ctx context.Context, id string) (*model.Registration, error)
	Update(ctx context.Context, r *model.Registration) error
	// FindWaitingListFIFO returns the active waiting-list registrations of
	// an event, oldest first.
	FindWaitingListFIFO(ctx context.Context, eventID string) ([]model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
}

// RegistrantHistory lists every registration a registrant ever made,
// removed ones included.
type RegistrantHistory interface {
	RegistrationsOf(ctx context.Context, registrantID string) ([]model.Registration, error)
}

// Repositories bundles the stores visible inside one unit of work.
type Repositories struct {
	Events        EventRepository
	Registrations RegistrationRepository
	History       RegistrantHistory
}

// Transactor runs read-modify-write sequences against one event.
//
// WithinEventLock serialises fn against every other WithinEventLock call for
// the same event and commits the writes of fn only if it returns nil.
type Transactor interface {
	WithinEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, repos Repositories) error) error
	Repositories() Repositories
}
