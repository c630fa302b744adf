// Package model defines the core domain types for seminar registration.
package model

import "time"

// EventStatus is the planning state of an event.
type EventStatus string

const (
	StatusPlanned   EventStatus = "planned"
	StatusConfirmed EventStatus = "confirmed"
	StatusCanceled  EventStatus = "canceled"
)

// TopicRef points at a topic, the reusable template that concrete dates are
// scheduled from. Requirements are always expressed as topics.
type TopicRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PriceTier is one selectable price of an event. Amounts are in minor
// currency units (cents).
type PriceTier struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// Organizer receives notifications about registrations of an event.
type Organizer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event is a single event, a topic, or a concrete date of a topic.
//
// The repository layer hands events to the core fully resolved: a date
// carries the requirements of its topic, so nothing here is lazily loaded.
type Event struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	TopicID string `json:"topic_id,omitempty"`

	BeginDate              *time.Time `json:"begin_date,omitempty"`
	EndDate                *time.Time `json:"end_date,omitempty"`
	RegistrationBegin      *time.Time `json:"registration_begin,omitempty"`
	RegistrationDeadline   *time.Time `json:"registration_deadline,omitempty"`
	UnregistrationDeadline *time.Time `json:"unregistration_deadline,omitempty"`

	AttendeesMax               int `json:"attendees_max"`
	QueueSize                  int `json:"queue_size"`
	NumberOfAttendances        int `json:"number_of_attendances"`
	NumberOfAttendancesOnQueue int `json:"number_of_attendances_on_queue"`

	Status                                EventStatus `json:"status"`
	RegistrationRequired                  bool        `json:"registration_required"`
	AllowsMultipleRegistrations           bool        `json:"allows_multiple_registrations"`
	AllowRegistrationForEventsWithoutDate bool        `json:"allow_registration_for_events_without_date"`
	AllowRegistrationForStartedEvents     bool        `json:"allow_registration_for_started_events"`

	Requirements []TopicRef  `json:"requirements,omitempty"`
	PriceTiers   []PriceTier `json:"price_tiers,omitempty"`
	Organizers   []Organizer `json:"organizers,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// IsUnlimited reports whether the event has no seat limit.
func (e *Event) IsUnlimited() bool { return e.AttendeesMax == 0 }

// HasQueue reports whether the event keeps a waiting list.
func (e *Event) HasQueue() bool { return e.QueueSize > 0 }

// HasDate reports whether the begin date is fixed.
func (e *Event) HasDate() bool { return e.BeginDate != nil }

// IsCanceled reports whether the event has been canceled.
func (e *Event) IsCanceled() bool { return e.Status == StatusCanceled }

// NeedsRegistration is true when the event limits seats or explicitly asks
// attendees to register.
func (e *Event) NeedsRegistration() bool {
	return e.RegistrationRequired || e.AttendeesMax > 0
}

// TopicOrSelf returns the topic this event belongs to. Single events and
// topics are their own topic.
func (e *Event) TopicOrSelf() string {
	if e.TopicID != "" {
		return e.TopicID
	}
	return e.ID
}

// Registrant is the person asking for a seat, together with their prior
// registrations.
type Registrant struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	History []Registration `json:"-"`
}

// RegistrationStatus tells whether a registration holds a regular seat.
type RegistrationStatus string

const (
	StatusRegular     RegistrationStatus = "regular"
	StatusWaitingList RegistrationStatus = "waiting_list"
)

// RegistrationState is the soft-delete state of a registration.
type RegistrationState string

const (
	StateActive  RegistrationState = "active"
	StateRemoved RegistrationState = "removed"
)

// Registration represents a registrant's booking for an event.
type Registration struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	TopicID string `json:"topic_id"`

	RegistrantID    string `json:"registrant_id"`
	RegistrantName  string `json:"registrant_name"`
	RegistrantEmail string `json:"registrant_email"`

	Seats      int                `json:"seats"`
	Status     RegistrationStatus `json:"status"`
	State      RegistrationState  `json:"state"`
	PriceCode  string             `json:"price_code,omitempty"`
	TotalPrice int64              `json:"total_price"`

	RegisteredThemselves bool     `json:"registered_themselves"`
	AttendeesNames       []string `json:"attendees_names,omitempty"`
	Foods                []string `json:"foods,omitempty"`
	Lodgings             []string `json:"lodgings,omitempty"`
	Checkboxes           []string `json:"checkboxes,omitempty"`
	Notes                string   `json:"notes,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	RemovedAt *time.Time `json:"removed_at,omitempty"`
}

// IsActive reports whether the registration has not been removed.
func (r *Registration) IsActive() bool { return r.State != StateRemoved }

// OnQueue reports whether the registration is waiting for a regular seat.
func (r *Registration) OnQueue() bool { return r.Status == StatusWaitingList }

// Outcome is the verdict of an admission decision.
type Outcome string

const (
	OutcomeRegular     Outcome = "approved_regular"
	OutcomeWaitingList Outcome = "approved_waiting_list"
	OutcomeRejected    Outcome = "rejected"
)

// Reason explains a rejected admission.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonNotYetOpen           Reason = "not_yet_open"
	ReasonClosed               Reason = "closed"
	ReasonFullyBooked          Reason = "fully_booked"
	ReasonAlreadyRegistered    Reason = "already_registered"
	ReasonCanceled             Reason = "canceled"
	ReasonMissingPrerequisites Reason = "missing_prerequisites"
	ReasonNoRegistrationNeeded Reason = "no_registration_needed"
	ReasonVetoed               Reason = "vetoed"
)

// AdmissionResult is the decision for a single registration request.
// MessageKey is an untranslated key for the caller to localize.
type AdmissionResult struct {
	Outcome    Outcome    `json:"outcome"`
	Reason     Reason     `json:"reason,omitempty"`
	MessageKey string     `json:"message_key,omitempty"`
	Missing    []TopicRef `json:"missing,omitempty"`
}

// Approved reports whether the registrant may register.
func (r AdmissionResult) Approved() bool { return r.Outcome != OutcomeRejected }

// Status maps an approval onto the registration status it grants.
func (r AdmissionResult) Status() RegistrationStatus {
	if r.Outcome == OutcomeWaitingList {
		return StatusWaitingList
	}
	return StatusRegular
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title                                 string      `json:"title"`
	TopicID                               string      `json:"topic_id"`
	BeginDate                             *time.Time  `json:"begin_date"`
	EndDate                               *time.Time  `json:"end_date"`
	RegistrationBegin                     *time.Time  `json:"registration_begin"`
	RegistrationDeadline                  *time.Time  `json:"registration_deadline"`
	UnregistrationDeadline                *time.Time  `json:"unregistration_deadline"`
	AttendeesMax                          int         `json:"attendees_max"`
	QueueSize                             int         `json:"queue_size"`
	Status                                EventStatus `json:"status"`
	RegistrationRequired                  bool        `json:"registration_required"`
	AllowsMultipleRegistrations           bool        `json:"allows_multiple_registrations"`
	AllowRegistrationForEventsWithoutDate bool        `json:"allow_registration_for_events_without_date"`
	AllowRegistrationForStartedEvents     bool        `json:"allow_registration_for_started_events"`
	RequirementIDs                        []string    `json:"requirement_ids"`
	PriceTiers                            []PriceTier `json:"price_tiers"`
	Organizers                            []Organizer `json:"organizers"`
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	Seats                int      `json:"seats"`
	PriceCode            string   `json:"price_code"`
	RegisteredThemselves *bool    `json:"registered_themselves"`
	AttendeesNames       []string `json:"attendees_names"`
	Foods                []string `json:"foods"`
	Lodgings             []string `json:"lodgings"`
	Checkboxes           []string `json:"checkboxes"`
	Notes                string   `json:"notes"`
}

// Vacancies is the free capacity of an event.
type Vacancies struct {
	Regular   int  `json:"regular"`
	Unlimited bool `json:"unlimited"`
	Queue     int  `json:"queue"`
}

// Fits reports whether seats regular seats are free.
func (v Vacancies) Fits(seats int) bool {
	return v.Unlimited || seats <= v.Regular
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error      string `json:"error"`
	Reason     Reason `json:"reason,omitempty"`
	MessageKey string `json:"message_key,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}
