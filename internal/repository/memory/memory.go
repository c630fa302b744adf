// Package memory is an in-process implementation of the repository contracts.
// It backs the test suites and the `serve --store=memory` mode.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/repository"
)

// Store keeps events and registrations in maps. Writes made inside
// WithinEventLock are staged and only become visible when fn succeeds.
type Store struct {
	mu            sync.RWMutex
	events        map[string]model.Event
	registrations map[string]model.Registration
	seq           map[string]int64
	next          int64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		events:        make(map[string]model.Event),
		registrations: make(map[string]model.Registration),
		seq:           make(map[string]int64),
		locks:         make(map[string]*sync.Mutex),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// PutEvent stores e as is, keeping its id and counters. Used to seed data.
func (s *Store) PutEvent(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	s.events[e.ID] = e
}

// Repositories returns repositories that write straight through.
func (s *Store) Repositories() repository.Repositories {
	return (&view{s: s}).repos()
}

// WithinEventLock serialises fn per event and commits its writes on success.
func (s *Store) WithinEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.RLock()
	_, ok := s.events[eventID]
	s.mu.RUnlock()
	if !ok {
		return repository.ErrNotFound
	}

	lock := s.lockFor(eventID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	v := &view{
		s:             s,
		staged:        true,
		events:        make(map[string]model.Event),
		base:          make(map[string]int),
		registrations: make(map[string]model.Registration),
	}
	if err := fn(ctx, v.repos()); err != nil {
		return err
	}
	return v.commit()
}

func (s *Store) lockFor(eventID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[eventID] = l
	}
	return l
}

// view reads through staged writes to the committed maps.
type view struct {
	s      *Store
	staged bool

	events        map[string]model.Event
	base          map[string]int
	registrations map[string]model.Registration
	created       []string
}

func (v *view) repos() repository.Repositories {
	return repository.Repositories{
		Events:        eventRepo{v},
		Registrations: registrationRepo{v},
		History:       registrationRepo{v},
	}
}

func (v *view) commit() error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for id := range v.events {
		base, tracked := v.base[id]
		if cur, ok := v.s.events[id]; ok && tracked && cur.Version != base {
			return repository.ErrConcurrencyConflict
		}
	}
	for id, e := range v.events {
		v.s.events[id] = e
	}
	for _, id := range v.created {
		v.s.next++
		v.s.seq[id] = v.s.next
	}
	for id, r := range v.registrations {
		v.s.registrations[id] = r
	}
	return nil
}

func (v *view) event(id string) (model.Event, bool) {
	if e, ok := v.events[id]; ok {
		return e, true
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	e, ok := v.s.events[id]
	return e, ok
}

func (v *view) registration(id string) (model.Registration, bool) {
	if r, ok := v.registrations[id]; ok {
		return r, true
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	r, ok := v.s.registrations[id]
	return r, ok
}

// filter returns matching registrations in creation order, staged ones last.
func (v *view) filter(match func(model.Registration) bool) []model.Registration {
	v.s.mu.RLock()
	type entry struct {
		reg model.Registration
		seq int64
	}
	var entries []entry
	for id, r := range v.s.registrations {
		if staged, ok := v.registrations[id]; ok {
			r = staged
		}
		if match(r) {
			entries = append(entries, entry{r, v.s.seq[id]})
		}
	}
	v.s.mu.RUnlock()

	for i, id := range v.created {
		if r := v.registrations[id]; match(r) {
			entries = append(entries, entry{r, int64(1<<62) + int64(i)})
		}
	}

	slices.SortFunc(entries, func(a, b entry) int {
		if c := a.reg.CreatedAt.Compare(b.reg.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	out := make([]model.Registration, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.reg)
	}
	return out
}

type eventRepo struct{ v *view }

func (r eventRepo) Find(_ context.Context, id string) (*model.Event, error) {
	e, ok := r.v.event(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.TopicID != "" {
		if topic, ok := r.v.event(e.TopicID); ok {
			e.Requirements = topic.Requirements
		}
	}
	return &e, nil
}

func (r eventRepo) Create(_ context.Context, e *model.Event) error {
	e.ID = uuid.New().String()
	e.CreatedAt = r.v.s.now()
	e.Version = 1
	if r.v.staged {
		r.v.events[e.ID] = *e
		return nil
	}
	r.v.s.mu.Lock()
	defer r.v.s.mu.Unlock()
	r.v.s.events[e.ID] = *e
	return nil
}

func (r eventRepo) Save(_ context.Context, e *model.Event) error {
	cur, ok := r.v.event(e.ID)
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Version != e.Version {
		return repository.ErrConcurrencyConflict
	}
	// Requirements of dates are resolved from the topic on read; keep the
	// stored list untouched.
	next := *e
	next.Requirements = cur.Requirements
	next.Version++

	if r.v.staged {
		if _, tracked := r.v.base[e.ID]; !tracked {
			r.v.base[e.ID] = cur.Version
		}
		r.v.events[e.ID] = next
		e.Version = next.Version
		return nil
	}
	r.v.s.mu.Lock()
	defer r.v.s.mu.Unlock()
	if r.v.s.events[e.ID].Version != cur.Version {
		return repository.ErrConcurrencyConflict
	}
	r.v.s.events[e.ID] = next
	e.Version = next.Version
	return nil
}

type registrationRepo struct{ v *view }

func (r registrationRepo) Create(_ context.Context, reg *model.Registration) (string, error) {
	reg.ID = uuid.New().String()
	if r.v.staged {
		r.v.registrations[reg.ID] = *reg
		r.v.created = append(r.v.created, reg.ID)
		return reg.ID, nil
	}
	r.v.s.mu.Lock()
	defer r.v.s.mu.Unlock()
	r.v.s.registrations[reg.ID] = *reg
	r.v.s.next++
	r.v.s.seq[reg.ID] = r.v.s.next
	return reg.ID, nil
}

func (r registrationRepo) Find(_ context.Context, id string) (*model.Registration, error) {
	reg, ok := r.v.registration(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reg, nil
}

func (r registrationRepo) Update(_ context.Context, reg *model.Registration) error {
	if _, ok := r.v.registration(reg.ID); !ok {
		return repository.ErrNotFound
	}
	if r.v.staged {
		r.v.registrations[reg.ID] = *reg
		return nil
	}
	r.v.s.mu.Lock()
	defer r.v.s.mu.Unlock()
	r.v.s.registrations[reg.ID] = *reg
	return nil
}

func (r registrationRepo) FindWaitingListFIFO(_ context.Context, eventID string) ([]model.Registration, error) {
	return r.v.filter(func(reg model.Registration) bool {
		return reg.EventID == eventID && reg.IsActive() && reg.OnQueue()
	}), nil
}

func (r registrationRepo) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	return r.v.filter(func(reg model.Registration) bool {
		return reg.EventID == eventID
	}), nil
}

func (r registrationRepo) RegistrationsOf(_ context.Context, registrantID string) ([]model.Registration, error) {
	return r.v.filter(func(reg model.Registration) bool {
		return reg.RegistrantID == registrantID
	}), nil
}
