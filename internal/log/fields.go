package log

// Canonical field names for structured logging.
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldEventID        = "event_id"
	FieldRegistrationID = "registration_id"
	FieldRegistrantID   = "registrant_id"
	FieldSeats          = "seats"
	FieldOutcome        = "outcome"
	FieldReason         = "reason"
	FieldTransition     = "transition"
	FieldOldStatus      = "old_status"
	FieldNewStatus      = "new_status"
)
