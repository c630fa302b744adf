// Package admission decides whether a registrant may book seats for an event
// and whether the booking lands on a regular seat or the waiting list.
package admission

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/requirements"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/vacancy"
)

// Message keys returned with decisions. Callers translate them.
const (
	MsgCanceled             = "message_eventCanceled"
	MsgNoRegistrationNeeded = "message_noRegistrationNecessary"
	MsgNotYetOpen           = "message_registrationNotYetOpen"
	MsgClosed               = "message_registrationClosed"
	MsgNoDate               = "message_noDateYet"
	MsgAlreadyRegistered    = "message_alreadyRegistered"
	MsgMissingRequirements  = "message_requirementsNotFulfilled"
	MsgFullyBooked          = "message_fullyBooked"
	MsgVetoed               = "message_registrationVetoed"
	MsgRegular              = "message_registrationRegular"
	MsgWaitingList          = "message_registrationOnQueue"

	MsgUnregistrationClosed = "message_unregistrationClosed"
)

// Hook is a late-stage admission check. It only runs for requests that
// would otherwise be approved. Returning ok=false vetoes the request; a
// non-empty message key replaces the decision's message.
type Hook interface {
	Vote(ctx context.Context, e *model.Event, registrant model.Registrant, seats int) (ok bool, messageKey string)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, e *model.Event, registrant model.Registrant, seats int) (bool, string)

// Vote calls f.
func (f HookFunc) Vote(ctx context.Context, e *model.Event, registrant model.Registrant, seats int) (bool, string) {
	return f(ctx, e, registrant, seats)
}

// Decider evaluates admission requests.
type Decider struct {
	now   func() time.Time
	hooks []Hook
}

// NewDecider constructs a Decider. A nil clock means time.Now. Hooks are
// consulted in the order given.
func NewDecider(now func() time.Time, hooks ...Hook) *Decider {
	if now == nil {
		now = time.Now
	}
	return &Decider{now: now, hooks: hooks}
}

// Now returns the decider's current time.
func (d *Decider) Now() time.Time { return d.now() }

// Decide runs the admission checks in order and returns the first failure,
// or the approval with the seat status it grants.
func (d *Decider) Decide(ctx context.Context, e *model.Event, registrant model.Registrant, seats int) model.AdmissionResult {
	if e.IsCanceled() {
		return reject(model.ReasonCanceled, MsgCanceled)
	}
	if !e.NeedsRegistration() {
		return reject(model.ReasonNoRegistrationNeeded, MsgNoRegistrationNeeded)
	}
	switch RegistrationWindow(e, d.now()) {
	case model.ReasonNotYetOpen:
		return reject(model.ReasonNotYetOpen, MsgNotYetOpen)
	case model.ReasonClosed:
		return reject(model.ReasonClosed, MsgClosed)
	}
	if !e.HasDate() && !e.AllowRegistrationForEventsWithoutDate {
		return reject(model.ReasonClosed, MsgNoDate)
	}
	if !e.AllowsMultipleRegistrations && isRegistered(e, registrant) {
		return reject(model.ReasonAlreadyRegistered, MsgAlreadyRegistered)
	}
	if missing := requirements.MissingRequirements(e, registrant); len(missing) > 0 {
		res := reject(model.ReasonMissingPrerequisites, MsgMissingRequirements)
		res.Missing = missing
		return res
	}
	if !vacancy.CanRegisterSeats(e, seats) {
		return reject(model.ReasonFullyBooked, MsgFullyBooked)
	}

	var res model.AdmissionResult
	v := vacancy.Vacancies(e)
	switch {
	case v.Fits(seats):
		res = model.AdmissionResult{Outcome: model.OutcomeRegular, MessageKey: MsgRegular}
	case e.HasQueue() && seats <= v.Queue:
		res = model.AdmissionResult{Outcome: model.OutcomeWaitingList, MessageKey: MsgWaitingList}
	default:
		return reject(model.ReasonFullyBooked, MsgFullyBooked)
	}

	for _, h := range d.hooks {
		ok, key := h.Vote(ctx, e, registrant, seats)
		if !ok {
			if key == "" {
				key = MsgVetoed
			}
			return reject(model.ReasonVetoed, key)
		}
		if key != "" {
			res.MessageKey = key
			break
		}
	}
	return res
}

func reject(reason model.Reason, key string) model.AdmissionResult {
	return model.AdmissionResult{Outcome: model.OutcomeRejected, Reason: reason, MessageKey: key}
}

func isRegistered(e *model.Event, registrant model.Registrant) bool {
	for _, reg := range registrant.History {
		if reg.EventID == e.ID && reg.IsActive() {
			return true
		}
	}
	return false
}
