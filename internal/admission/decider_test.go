package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func fixedClock() time.Time { return now }

// openEvent is a dated, limited event that accepts registrations at now.
func openEvent() *model.Event {
	return &model.Event{
		ID:           "e1",
		Title:        "Go in Practice",
		BeginDate:    at(48 * time.Hour),
		EndDate:      at(56 * time.Hour),
		AttendeesMax: 10,
		Status:       model.StatusConfirmed,
	}
}

func decide(t *testing.T, e *model.Event, r model.Registrant, seats int, hooks ...Hook) model.AdmissionResult {
	t.Helper()
	return NewDecider(fixedClock, hooks...).Decide(context.Background(), e, r, seats)
}

func TestDecide_ApprovedRegular(t *testing.T) {
	res := decide(t, openEvent(), model.Registrant{ID: "u1"}, 1)

	assert.Equal(t, model.OutcomeRegular, res.Outcome)
	assert.Equal(t, MsgRegular, res.MessageKey)
	assert.True(t, res.Approved())
	assert.Equal(t, model.StatusRegular, res.Status())
}

func TestDecide_Canceled(t *testing.T) {
	e := openEvent()
	e.Status = model.StatusCanceled
	e.AttendeesMax = 0 // canceled wins over every later check

	res := decide(t, e, model.Registrant{}, 1)
	assert.Equal(t, model.ReasonCanceled, res.Reason)
	assert.Equal(t, MsgCanceled, res.MessageKey)
}

func TestDecide_NoRegistrationNeeded(t *testing.T) {
	e := openEvent()
	e.AttendeesMax = 0

	res := decide(t, e, model.Registrant{}, 1)
	assert.Equal(t, model.ReasonNoRegistrationNeeded, res.Reason)

	e.RegistrationRequired = true
	res = decide(t, e, model.Registrant{}, 1)
	assert.Equal(t, model.OutcomeRegular, res.Outcome)
}

func TestDecide_Window(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *model.Event)
		want   model.Reason
	}{
		{"not yet open", func(e *model.Event) { e.RegistrationBegin = at(time.Hour) }, model.ReasonNotYetOpen},
		{"open since yesterday", func(e *model.Event) { e.RegistrationBegin = at(-24 * time.Hour) }, model.ReasonNone},
		{"deadline passed", func(e *model.Event) { e.RegistrationDeadline = at(-time.Minute) }, model.ReasonClosed},
		{"deadline ahead", func(e *model.Event) { e.RegistrationDeadline = at(time.Minute) }, model.ReasonNone},
		{"started", func(e *model.Event) { e.BeginDate = at(-time.Hour) }, model.ReasonClosed},
		{"started but allowed", func(e *model.Event) {
			e.BeginDate = at(-time.Hour)
			e.AllowRegistrationForStartedEvents = true
		}, model.ReasonNone},
		{"ended though started allowed", func(e *model.Event) {
			e.BeginDate = at(-3 * time.Hour)
			e.EndDate = at(-time.Hour)
			e.AllowRegistrationForStartedEvents = true
		}, model.ReasonClosed},
		{"deadline overrides begin date", func(e *model.Event) {
			e.BeginDate = at(-time.Hour)
			e.RegistrationDeadline = at(time.Hour)
		}, model.ReasonNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := openEvent()
			tt.mutate(e)
			res := decide(t, e, model.Registrant{}, 1)
			assert.Equal(t, tt.want, res.Reason)
		})
	}
}

func TestDecide_EventsWithoutDate(t *testing.T) {
	e := openEvent()
	e.BeginDate, e.EndDate = nil, nil

	res := decide(t, e, model.Registrant{}, 1)
	assert.Equal(t, model.ReasonClosed, res.Reason)
	assert.Equal(t, MsgNoDate, res.MessageKey)

	e.AllowRegistrationForEventsWithoutDate = true
	res = decide(t, e, model.Registrant{}, 1)
	assert.Equal(t, model.OutcomeRegular, res.Outcome)
}

func TestDecide_AlreadyRegistered(t *testing.T) {
	e := openEvent()
	r := model.Registrant{ID: "u1", History: []model.Registration{
		{EventID: e.ID, State: model.StateActive},
	}}

	res := decide(t, e, r, 1)
	assert.Equal(t, model.ReasonAlreadyRegistered, res.Reason)

	e.AllowsMultipleRegistrations = true
	res = decide(t, e, r, 1)
	assert.Equal(t, model.OutcomeRegular, res.Outcome)
}

func TestDecide_RemovedRegistrationAllowsRegisteringAgain(t *testing.T) {
	e := openEvent()
	r := model.Registrant{ID: "u1", History: []model.Registration{
		{EventID: e.ID, State: model.StateRemoved},
	}}

	assert.Equal(t, model.OutcomeRegular, decide(t, e, r, 1).Outcome)
}

func TestDecide_MissingPrerequisites(t *testing.T) {
	e := openEvent()
	e.Requirements = []model.TopicRef{{ID: "topic-x", Title: "TopicX"}}

	res := decide(t, e, model.Registrant{ID: "u1"}, 1)
	assert.Equal(t, model.OutcomeRejected, res.Outcome)
	assert.Equal(t, model.ReasonMissingPrerequisites, res.Reason)
	require.Len(t, res.Missing, 1)
	assert.Equal(t, "topic-x", res.Missing[0].ID)
}

func TestDecide_FullyBookedWithoutQueue(t *testing.T) {
	e := openEvent()
	e.AttendeesMax = 2
	e.NumberOfAttendances = 1

	assert.Equal(t, model.ReasonFullyBooked, decide(t, e, model.Registrant{}, 2).Reason)
	assert.Equal(t, model.OutcomeRegular, decide(t, e, model.Registrant{}, 1).Outcome)
}

func TestDecide_WaitingList(t *testing.T) {
	e := openEvent()
	e.AttendeesMax = 1
	e.QueueSize = 1
	e.NumberOfAttendances = 1

	res := decide(t, e, model.Registrant{ID: "u2"}, 1)
	assert.Equal(t, model.OutcomeWaitingList, res.Outcome)
	assert.Equal(t, model.StatusWaitingList, res.Status())
	assert.Equal(t, MsgWaitingList, res.MessageKey)
}

func TestDecide_QueueExhausted(t *testing.T) {
	e := openEvent()
	e.AttendeesMax = 1
	e.QueueSize = 1
	e.NumberOfAttendances = 1
	e.NumberOfAttendancesOnQueue = 1

	assert.Equal(t, model.ReasonFullyBooked, decide(t, e, model.Registrant{}, 1).Reason)
}

func TestDecide_UnlimitedIgnoresCount(t *testing.T) {
	e := openEvent()
	e.AttendeesMax = 0
	e.RegistrationRequired = true
	e.NumberOfAttendances = 5000

	assert.Equal(t, model.OutcomeRegular, decide(t, e, model.Registrant{}, 42).Outcome)
}

func TestDecide_Hooks(t *testing.T) {
	var calls []string
	record := func(name string, ok bool, key string) Hook {
		return HookFunc(func(context.Context, *model.Event, model.Registrant, int) (bool, string) {
			calls = append(calls, name)
			return ok, key
		})
	}

	t.Run("all pass", func(t *testing.T) {
		calls = nil
		res := decide(t, openEvent(), model.Registrant{}, 1, record("a", true, ""), record("b", true, ""))
		assert.Equal(t, model.OutcomeRegular, res.Outcome)
		assert.Equal(t, []string{"a", "b"}, calls)
	})

	t.Run("veto short-circuits", func(t *testing.T) {
		calls = nil
		res := decide(t, openEvent(), model.Registrant{}, 1, record("a", false, ""), record("b", true, ""))
		assert.Equal(t, model.ReasonVetoed, res.Reason)
		assert.Equal(t, MsgVetoed, res.MessageKey)
		assert.Equal(t, []string{"a"}, calls)
	})

	t.Run("message overrides and stops", func(t *testing.T) {
		calls = nil
		res := decide(t, openEvent(), model.Registrant{}, 1, record("a", true, "message_custom"), record("b", false, ""))
		assert.Equal(t, model.OutcomeRegular, res.Outcome)
		assert.Equal(t, "message_custom", res.MessageKey)
		assert.Equal(t, []string{"a"}, calls)
	})

	t.Run("never consulted for rejections", func(t *testing.T) {
		calls = nil
		e := openEvent()
		e.Status = model.StatusCanceled
		res := decide(t, e, model.Registrant{}, 1, record("a", true, "message_custom"))
		assert.Equal(t, model.ReasonCanceled, res.Reason)
		assert.Empty(t, calls)
	})
}

func TestMaxSeatsHook(t *testing.T) {
	capped := MaxSeatsHook(2)

	res := decide(t, openEvent(), model.Registrant{}, 2, capped)
	assert.Equal(t, model.OutcomeRegular, res.Outcome)
	assert.Equal(t, MsgRegular, res.MessageKey)

	res = decide(t, openEvent(), model.Registrant{}, 3, capped)
	assert.Equal(t, model.ReasonVetoed, res.Reason)
	assert.Equal(t, MsgTooManySeats, res.MessageKey)

	res = decide(t, openEvent(), model.Registrant{}, 9, MaxSeatsHook(0))
	assert.Equal(t, model.OutcomeRegular, res.Outcome)
}

func TestCanUnregister(t *testing.T) {
	e := openEvent()
	assert.True(t, CanUnregister(e, now))

	e.UnregistrationDeadline = at(-time.Hour)
	assert.False(t, CanUnregister(e, now))

	e.UnregistrationDeadline = nil
	e.BeginDate = at(-time.Hour)
	assert.False(t, CanUnregister(e, now))

	e.BeginDate = nil
	assert.True(t, CanUnregister(e, now))

	e.Status = model.StatusCanceled
	assert.False(t, CanUnregister(e, now))
}
