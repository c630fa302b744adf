// Package vacancy computes the free regular and waiting-list seats of an event.
package vacancy

import (
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

// Vacancies returns the remaining regular and queue seats of e.
// Unlimited events report Unlimited and never a regular count.
func Vacancies(e *model.Event) model.Vacancies {
	v := model.Vacancies{Queue: max(0, e.QueueSize-e.NumberOfAttendancesOnQueue)}
	if e.IsUnlimited() {
		v.Unlimited = true
		return v
	}
	v.Regular = max(0, e.AttendeesMax-e.NumberOfAttendances)
	return v
}

// CanRegisterSeats reports whether a registration for seats can be accepted
// on seat count alone. Events with a waiting list always accept.
func CanRegisterSeats(e *model.Event, seats int) bool {
	if e.HasQueue() {
		return true
	}
	if seats < 0 {
		return false
	}
	if e.IsUnlimited() {
		return true
	}
	return seats <= Vacancies(e).Regular
}

// CanRegisterSeatsInput is CanRegisterSeats for raw form input. An empty
// value counts as one seat; a non-numeric value counts as one seat on
// unlimited events and is refused otherwise.
func CanRegisterSeatsInput(e *model.Event, raw string) bool {
	if e.HasQueue() {
		return true
	}
	seats, err := ParseSeats(raw)
	if err != nil {
		return e.IsUnlimited()
	}
	return CanRegisterSeats(e, seats)
}

// ParseSeats converts a seat count from form input. Empty input is one seat.
func ParseSeats(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	return strconv.Atoi(raw)
}
