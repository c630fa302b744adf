package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

// dbtx is the query surface shared by *pgxpool.Pool and pgx.Tx, so the same
// repositories serve both plain reads and locked transactions.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the pgx-backed Transactor.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Repositories returns repositories bound to the pool, outside any lock.
func (s *PostgresStore) Repositories() Repositories {
	return bind(s.pool)
}

// WithinEventLock runs fn in one transaction holding the event row lock.
//
// SELECT … FOR UPDATE takes a row-level exclusive lock on the event the
// moment it executes. Every other transaction asking for the same lock
// blocks until we COMMIT or ROLLBACK, so the capacity counters are read and
// written by one registration at a time and cannot be oversold.
func (s *PostgresStore) WithinEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", classify(err))
	}

	if err = fn(ctx, bind(tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

func bind(db dbtx) Repositories {
	return Repositories{
		Events:        &EventStore{db: db},
		Registrations: &RegistrationStore{db: db},
		History:       &RegistrationStore{db: db},
	}
}

// classify maps serialization failures and deadlocks onto ErrConcurrencyConflict.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", ErrConcurrencyConflict, pgErr.Message)
		}
	}
	return err
}

// EventStore handles persistence for events.
type EventStore struct {
	db dbtx
}

const eventColumns = `id, title, COALESCE(topic_id, ''), begin_date, end_date,
	registration_begin, registration_deadline, unregistration_deadline,
	attendees_max, queue_size, number_of_attendances, number_of_attendances_on_queue,
	status, registration_required, allows_multiple_registrations,
	allow_registration_without_date, allow_registration_started, version, created_at`

// Find returns a single event or ErrNotFound. Requirements, price tiers and
// organizers are loaded eagerly; dates inherit their topic's requirements.
func (s *EventStore) Find(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id,
	).Scan(
		&e.ID, &e.Title, &e.TopicID, &e.BeginDate, &e.EndDate,
		&e.RegistrationBegin, &e.RegistrationDeadline, &e.UnregistrationDeadline,
		&e.AttendeesMax, &e.QueueSize, &e.NumberOfAttendances, &e.NumberOfAttendancesOnQueue,
		&e.Status, &e.RegistrationRequired, &e.AllowsMultipleRegistrations,
		&e.AllowRegistrationForEventsWithoutDate, &e.AllowRegistrationForStartedEvents,
		&e.Version, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if e.Requirements, err = s.requirements(ctx, e.TopicOrSelf()); err != nil {
		return nil, err
	}
	if e.PriceTiers, err = s.priceTiers(ctx, e.ID); err != nil {
		return nil, err
	}
	if e.Organizers, err = s.organizers(ctx, e.ID); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EventStore) requirements(ctx context.Context, topicID string) ([]model.TopicRef, error) {
	rows, err := s.db.Query(ctx,
		`SELECT t.id, t.title
		 FROM event_requirements r
		 JOIN events t ON t.id = r.required_topic_id
		 WHERE r.event_id = $1
		 ORDER BY r.position ASC`,
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TopicRef, error) {
		var t model.TopicRef
		err := row.Scan(&t.ID, &t.Title)
		return t, err
	})
}

func (s *EventStore) priceTiers(ctx context.Context, eventID string) ([]model.PriceTier, error) {
	rows, err := s.db.Query(ctx,
		`SELECT code, label, amount FROM event_prices WHERE event_id = $1 ORDER BY position ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list price tiers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PriceTier, error) {
		var p model.PriceTier
		err := row.Scan(&p.Code, &p.Label, &p.Amount)
		return p, err
	})
}

func (s *EventStore) organizers(ctx context.Context, eventID string) ([]model.Organizer, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name, email FROM event_organizers WHERE event_id = $1 ORDER BY position ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list organizers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Organizer, error) {
		var o model.Organizer
		err := row.Scan(&o.Name, &o.Email)
		return o, err
	})
}

// Create inserts a new event with a generated UUID together with its
// requirements, price tiers and organizers.
func (s *EventStore) Create(ctx context.Context, e *model.Event) error {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()
	e.Version = 1

	var topicID *string
	if e.TopicID != "" {
		topicID = &e.TopicID
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, title, topic_id, begin_date, end_date,
			registration_begin, registration_deadline, unregistration_deadline,
			attendees_max, queue_size, number_of_attendances, number_of_attendances_on_queue,
			status, registration_required, allows_multiple_registrations,
			allow_registration_without_date, allow_registration_started, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		e.ID, e.Title, topicID, e.BeginDate, e.EndDate,
		e.RegistrationBegin, e.RegistrationDeadline, e.UnregistrationDeadline,
		e.AttendeesMax, e.QueueSize, e.NumberOfAttendances, e.NumberOfAttendancesOnQueue,
		e.Status, e.RegistrationRequired, e.AllowsMultipleRegistrations,
		e.AllowRegistrationForEventsWithoutDate, e.AllowRegistrationForStartedEvents, e.Version, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	for i, req := range e.Requirements {
		if _, err := s.db.Exec(ctx,
			`INSERT INTO event_requirements (event_id, required_topic_id, position) VALUES ($1, $2, $3)`,
			e.ID, req.ID, i,
		); err != nil {
			return fmt.Errorf("insert requirement: %w", err)
		}
	}
	for i, p := range e.PriceTiers {
		if _, err := s.db.Exec(ctx,
			`INSERT INTO event_prices (event_id, code, label, amount, position) VALUES ($1, $2, $3, $4, $5)`,
			e.ID, p.Code, p.Label, p.Amount, i,
		); err != nil {
			return fmt.Errorf("insert price tier: %w", err)
		}
	}
	for i, o := range e.Organizers {
		if _, err := s.db.Exec(ctx,
			`INSERT INTO event_organizers (event_id, name, email, position) VALUES ($1, $2, $3, $4)`,
			e.ID, o.Name, o.Email, i,
		); err != nil {
			return fmt.Errorf("insert organizer: %w", err)
		}
	}
	return nil
}

// Save writes the counters and status of e guarded by its version.
func (s *EventStore) Save(ctx context.Context, e *model.Event) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE events
		 SET number_of_attendances = $2,
		     number_of_attendances_on_queue = $3,
		     status = $4,
		     version = version + 1
		 WHERE id = $1 AND version = $5`,
		e.ID, e.NumberOfAttendances, e.NumberOfAttendancesOnQueue, e.Status, e.Version,
	)
	if err != nil {
		return fmt.Errorf("update event counters: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrencyConflict
	}
	e.Version++
	return nil
}

// RegistrationStore handles persistence for registrations.
type RegistrationStore struct {
	db dbtx
}

const registrationColumns = `id, event_id, topic_id, registrant_id, registrant_name, registrant_email,
	seats, status, state, price_code, total_price, registered_themselves,
	attendees_names, foods, lodgings, checkboxes, notes, created_at, updated_at, removed_at`

func scanRegistration(row pgx.Row) (model.Registration, error) {
	var r model.Registration
	err := row.Scan(
		&r.ID, &r.EventID, &r.TopicID, &r.RegistrantID, &r.RegistrantName, &r.RegistrantEmail,
		&r.Seats, &r.Status, &r.State, &r.PriceCode, &r.TotalPrice, &r.RegisteredThemselves,
		&r.AttendeesNames, &r.Foods, &r.Lodgings, &r.Checkboxes, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt, &r.RemovedAt,
	)
	return r, err
}

// Create inserts r with a generated UUID and returns the id.
func (s *RegistrationStore) Create(ctx context.Context, r *model.Registration) (string, error) {
	r.ID = uuid.New().String()
	_, err := s.db.Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		r.ID, r.EventID, r.TopicID, r.RegistrantID, r.RegistrantName, r.RegistrantEmail,
		r.Seats, r.Status, r.State, r.PriceCode, r.TotalPrice, r.RegisteredThemselves,
		nonNil(r.AttendeesNames), nonNil(r.Foods), nonNil(r.Lodgings), nonNil(r.Checkboxes), r.Notes,
		r.CreatedAt, r.UpdatedAt, r.RemovedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert registration: %w", err)
	}
	return r.ID, nil
}

// Find returns a single registration or ErrNotFound.
func (s *RegistrationStore) Find(ctx context.Context, id string) (*model.Registration, error) {
	r, err := scanRegistration(s.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return &r, nil
}

// Update writes the mutable state of r.
func (s *RegistrationStore) Update(ctx context.Context, r *model.Registration) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE registrations
		 SET status = $2, state = $3, updated_at = $4, removed_at = $5
		 WHERE id = $1`,
		r.ID, r.Status, r.State, r.UpdatedAt, r.RemovedAt,
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindWaitingListFIFO returns active waiting-list registrations, oldest first.
func (s *RegistrationStore) FindWaitingListFIFO(ctx context.Context, eventID string) ([]model.Registration, error) {
	return s.list(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 WHERE event_id = $1 AND status = $2 AND state = $3
		 ORDER BY created_at ASC, seq ASC`,
		eventID, model.StatusWaitingList, model.StateActive,
	)
}

// ListByEvent returns all registrations for a given event.
func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return s.list(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY created_at ASC, seq ASC`,
		eventID,
	)
}

// RegistrationsOf returns every registration of a registrant.
func (s *RegistrationStore) RegistrationsOf(ctx context.Context, registrantID string) ([]model.Registration, error) {
	return s.list(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 WHERE registrant_id = $1
		 ORDER BY created_at ASC, seq ASC`,
		registrantID,
	)
}

func (s *RegistrationStore) list(ctx context.Context, sql string, args ...any) ([]model.Registration, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
