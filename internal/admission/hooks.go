package admission

import (
	"context"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

// MsgTooManySeats is returned when a request books more seats than allowed
// for a single registration.
const MsgTooManySeats = "message_tooManySeats"

// MaxSeatsHook vetoes requests for more than limit seats. A limit of zero
// or less allows any number.
func MaxSeatsHook(limit int) Hook {
	return HookFunc(func(_ context.Context, _ *model.Event, _ model.Registrant, seats int) (bool, string) {
		if limit > 0 && seats > limit {
			return false, MsgTooManySeats
		}
		return true, ""
	})
}
