package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/admission"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/log"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/metrics"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/repository"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/vacancy"
)

// ErrAdmissionRejected is wrapped by every *AdmissionRejectedError.
var ErrAdmissionRejected = errors.New("registration rejected")

// AdmissionRejectedError carries the decision that refused a registration.
type AdmissionRejectedError struct {
	Result model.AdmissionResult
}

func (e *AdmissionRejectedError) Error() string {
	return fmt.Sprintf("registration rejected: %s", e.Result.Reason)
}

// Unwrap lets errors.Is match ErrAdmissionRejected.
func (e *AdmissionRejectedError) Unwrap() error { return ErrAdmissionRejected }

// TransitionKind names a ledger state change.
type TransitionKind string

const (
	TransitionRegistered   TransitionKind = "registered"
	TransitionUnregistered TransitionKind = "unregistered"
	TransitionPromoted     TransitionKind = "promoted"
)

// Transition is emitted after a ledger change has been committed. Event is
// the event state after the change.
type Transition struct {
	Kind         TransitionKind
	Event        model.Event
	Registration model.Registration
}

// TransitionHook observes committed ledger changes. Errors are logged and
// never undo the change.
type TransitionHook interface {
	OnTransition(ctx context.Context, t Transition) error
}

// Ledger creates and removes registrations and keeps the event counters
// and the waiting list consistent.
type Ledger struct {
	store   repository.Transactor
	decider *admission.Decider
	hooks   []TransitionHook
	logger  zerolog.Logger
}

// NewLedger constructs a Ledger. Hooks receive transitions in the order given.
func NewLedger(store repository.Transactor, decider *admission.Decider, hooks ...TransitionHook) *Ledger {
	return &Ledger{
		store:   store,
		decider: decider,
		hooks:   hooks,
		logger:  log.WithComponent("ledger"),
	}
}

// Decide evaluates a registration request without committing anything.
func (l *Ledger) Decide(ctx context.Context, eventID string, registrant model.Registrant, seats int) (model.AdmissionResult, error) {
	repos := l.store.Repositories()
	event, err := repos.Events.Find(ctx, eventID)
	if err != nil {
		return model.AdmissionResult{}, err
	}
	if registrant.History, err = repos.History.RegistrationsOf(ctx, registrant.ID); err != nil {
		return model.AdmissionResult{}, fmt.Errorf("load registrant history: %w", err)
	}
	return l.decider.Decide(ctx, event, registrant, normalizeSeats(seats)), nil
}

// Register admits registrant to the event and persists the registration.
// A refusal is returned as *AdmissionRejectedError and commits nothing.
func (l *Ledger) Register(ctx context.Context, eventID string, registrant model.Registrant, req model.RegisterRequest) (*model.Registration, error) {
	seats := normalizeSeats(req.Seats)
	logger := log.WithContext(ctx, l.logger).With().
		Str(log.FieldEventID, eventID).
		Str(log.FieldRegistrantID, registrant.ID).
		Int(log.FieldSeats, seats).
		Logger()

	var (
		created model.Registration
		after   model.Event
	)
	err := l.store.WithinEventLock(ctx, eventID, func(ctx context.Context, repos repository.Repositories) error {
		event, err := repos.Events.Find(ctx, eventID)
		if err != nil {
			return err
		}
		if registrant.History, err = repos.History.RegistrationsOf(ctx, registrant.ID); err != nil {
			return fmt.Errorf("load registrant history: %w", err)
		}

		res := l.decider.Decide(ctx, event, registrant, seats)
		metrics.RecordDecision(string(res.Outcome), string(res.Reason))
		if !res.Approved() {
			return &AdmissionRejectedError{Result: res}
		}

		now := l.decider.Now()
		tier, _ := selectPriceTier(event.PriceTiers, req.PriceCode)
		reg := model.Registration{
			EventID:              event.ID,
			TopicID:              event.TopicOrSelf(),
			RegistrantID:         registrant.ID,
			RegistrantName:       registrant.Name,
			RegistrantEmail:      registrant.Email,
			Seats:                seats,
			Status:               res.Status(),
			State:                model.StateActive,
			PriceCode:            tier.Code,
			TotalPrice:           tier.Amount * int64(seats),
			RegisteredThemselves: req.RegisteredThemselves == nil || *req.RegisteredThemselves,
			AttendeesNames:       req.AttendeesNames,
			Foods:                req.Foods,
			Lodgings:             req.Lodgings,
			Checkboxes:           req.Checkboxes,
			Notes:                req.Notes,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if _, err := repos.Registrations.Create(ctx, &reg); err != nil {
			return err
		}

		if reg.OnQueue() {
			event.NumberOfAttendancesOnQueue += seats
		} else {
			event.NumberOfAttendances += seats
		}
		if err := repos.Events.Save(ctx, event); err != nil {
			return err
		}

		created, after = reg, *event
		return nil
	})
	if err != nil {
		var rejected *AdmissionRejectedError
		switch {
		case errors.As(err, &rejected):
			logger.Info().Str(log.FieldReason, string(rejected.Result.Reason)).Msg("registration rejected")
		case errors.Is(err, repository.ErrConcurrencyConflict):
			metrics.RecordConcurrencyConflict()
			logger.Warn().Err(err).Msg("registration lost a counter race")
		}
		return nil, err
	}

	metrics.RecordSeats(string(created.Status), created.Seats)
	logger.Info().
		Str(log.FieldRegistrationID, created.ID).
		Str(log.FieldNewStatus, string(created.Status)).
		Msg("registration created")

	l.emit(ctx, Transition{Kind: TransitionRegistered, Event: after, Registration: created})
	return &created, nil
}

// Unregister soft-deletes a registration and, if that frees regular seats,
// promotes the first waiting-list registration that fits. Removing an
// already removed registration is a no-op.
func (l *Ledger) Unregister(ctx context.Context, registrationID string) error {
	found, err := l.store.Repositories().Registrations.Find(ctx, registrationID)
	if err != nil {
		return err
	}
	if !found.IsActive() {
		return nil
	}

	logger := log.WithContext(ctx, l.logger).With().
		Str(log.FieldEventID, found.EventID).
		Str(log.FieldRegistrationID, registrationID).
		Logger()

	var transitions []Transition
	err = l.store.WithinEventLock(ctx, found.EventID, func(ctx context.Context, repos repository.Repositories) error {
		transitions = transitions[:0]

		reg, err := repos.Registrations.Find(ctx, registrationID)
		if err != nil {
			return err
		}
		if !reg.IsActive() {
			return nil
		}
		event, err := repos.Events.Find(ctx, reg.EventID)
		if err != nil {
			return err
		}

		now := l.decider.Now()
		reg.State = model.StateRemoved
		reg.RemovedAt = &now
		reg.UpdatedAt = now
		if err := repos.Registrations.Update(ctx, reg); err != nil {
			return err
		}
		if reg.OnQueue() {
			event.NumberOfAttendancesOnQueue = max(0, event.NumberOfAttendancesOnQueue-reg.Seats)
		} else {
			event.NumberOfAttendances = max(0, event.NumberOfAttendances-reg.Seats)
		}
		transitions = append(transitions, Transition{Kind: TransitionUnregistered, Registration: *reg})

		if !reg.OnQueue() {
			promoted, err := promote(ctx, repos, event, reg.Seats, now)
			if err != nil {
				return err
			}
			if promoted != nil {
				transitions = append(transitions, Transition{Kind: TransitionPromoted, Registration: *promoted})
			}
		}

		if err := repos.Events.Save(ctx, event); err != nil {
			return err
		}
		for i := range transitions {
			transitions[i].Event = *event
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConcurrencyConflict) {
			metrics.RecordConcurrencyConflict()
			logger.Warn().Err(err).Msg("unregistration lost a counter race")
		}
		return err
	}

	for _, t := range transitions {
		switch t.Kind {
		case TransitionUnregistered:
			metrics.RecordUnregistration(string(t.Registration.Status))
			logger.Info().Str(log.FieldOldStatus, string(t.Registration.Status)).Msg("registration removed")
		case TransitionPromoted:
			metrics.RecordPromotion()
			logger.Info().
				Str("promoted_registration_id", t.Registration.ID).
				Str(log.FieldOldStatus, string(model.StatusWaitingList)).
				Str(log.FieldNewStatus, string(model.StatusRegular)).
				Msg("waiting-list registration promoted")
		}
		l.emit(ctx, t)
	}
	return nil
}

// promote moves the oldest waiting-list registration whose seats fit the
// freed seats onto a regular seat. On a limited event the free regular seats
// cap the freed count. At most one registration is promoted.
func promote(ctx context.Context, repos repository.Repositories, event *model.Event, freed int, now time.Time) (*model.Registration, error) {
	limit := freed
	if free := vacancy.Vacancies(event); !free.Unlimited {
		limit = min(limit, free.Regular)
	}
	if limit <= 0 {
		return nil, nil
	}
	queue, err := repos.Registrations.FindWaitingListFIFO(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("load waiting list: %w", err)
	}
	for i := range queue {
		candidate := &queue[i]
		if !candidate.IsActive() || !candidate.OnQueue() || candidate.Seats > limit {
			continue
		}
		candidate.Status = model.StatusRegular
		candidate.UpdatedAt = now
		if err := repos.Registrations.Update(ctx, candidate); err != nil {
			return nil, err
		}
		event.NumberOfAttendancesOnQueue = max(0, event.NumberOfAttendancesOnQueue-candidate.Seats)
		event.NumberOfAttendances += candidate.Seats
		return candidate, nil
	}
	return nil, nil
}

func (l *Ledger) emit(ctx context.Context, t Transition) {
	for _, h := range l.hooks {
		if err := h.OnTransition(ctx, t); err != nil {
			l.logger.Error().Err(err).
				Str(log.FieldTransition, string(t.Kind)).
				Str(log.FieldRegistrationID, t.Registration.ID).
				Msg("transition hook failed")
		}
	}
}

// normalizeSeats defaults missing or non-positive seat counts to one.
func normalizeSeats(seats int) int {
	if seats <= 0 {
		return 1
	}
	return seats
}

// selectPriceTier picks the tier with code, falling back to the first tier.
// The zero tier is returned when the event has no prices.
func selectPriceTier(tiers []model.PriceTier, code string) (model.PriceTier, bool) {
	for _, t := range tiers {
		if t.Code == code {
			return t, true
		}
	}
	if len(tiers) > 0 {
		return tiers[0], false
	}
	return model.PriceTier{}, false
}
