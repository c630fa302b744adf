package admission

import (
	"time"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

// RegistrationWindow returns ReasonNone while e accepts registrations at now,
// or the reason the window is not open.
//
// An explicit deadline wins over the event dates. Without one, dated events
// close when they begin, or when they end if started events stay open.
func RegistrationWindow(e *model.Event, now time.Time) model.Reason {
	if e.RegistrationBegin != nil && now.Before(*e.RegistrationBegin) {
		return model.ReasonNotYetOpen
	}
	if e.RegistrationDeadline != nil {
		if now.After(*e.RegistrationDeadline) {
			return model.ReasonClosed
		}
		return model.ReasonNone
	}
	if !e.HasDate() {
		return model.ReasonNone
	}
	closesAt := *e.BeginDate
	if e.AllowRegistrationForStartedEvents && e.EndDate != nil {
		closesAt = *e.EndDate
	}
	if !now.Before(closesAt) {
		return model.ReasonClosed
	}
	return model.ReasonNone
}

// CanUnregister reports whether attendees of e may still cancel at now.
func CanUnregister(e *model.Event, now time.Time) bool {
	if e.IsCanceled() || !e.NeedsRegistration() {
		return false
	}
	if e.UnregistrationDeadline != nil {
		return !now.After(*e.UnregistrationDeadline)
	}
	if e.HasDate() {
		return now.Before(*e.BeginDate)
	}
	return true
}
