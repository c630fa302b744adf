// Package notify turns committed ledger transitions into attendee and
// organizer messages and hands them to a Notifier.
package notify

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
	"github.com/Shivanand-hulikatti/seminar-registration/internal/service"
)

// ErrNotificationFailure wraps delivery errors reported by the Notifier.
var ErrNotificationFailure = errors.New("notification failure")

// Kind selects the message template.
type Kind string

const (
	KindConfirmation            Kind = "confirmation"
	KindConfirmationOnQueue     Kind = "confirmationOnQueue"
	KindUnregistration          Kind = "unregistration"
	KindQueuePromotion          Kind = "queuePromotion"
	KindOrganizerRegistration   Kind = "organizerRegistration"
	KindOrganizerUnregistration Kind = "organizerUnregistration"
	KindOrganizerPromotion      Kind = "organizerPromotion"
)

// FooterKey is the translation key of the unregistration notice.
const FooterKey = "email_unregistrationNotice"

// Data is what templates can refer to.
type Data struct {
	EventTitle      string
	EventBegin      string
	RegistrantName  string
	RegistrantEmail string
	Seats           int
	Status          model.RegistrationStatus
	PriceCode       string
	TotalPrice      string
	OrganizerName   string
}

// Message is one composed notification.
type Message struct {
	Kind           Kind   `json:"kind"`
	Recipient      string `json:"recipient"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	EventID        string `json:"event_id"`
	RegistrationID string `json:"registration_id"`
}

// Notifier delivers composed messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Translator looks up a localized text by key.
type Translator interface {
	Text(key string) string
}

// Composer renders the subject and body of a message kind.
type Composer interface {
	Translator
	Compose(kind Kind, data Data) (subject, body string, err error)
}

// Dispatcher is a service.TransitionHook that sends notifications.
type Dispatcher struct {
	composer         Composer
	notifier         Notifier
	now              func() time.Time
	notifyOrganizers bool
	logger           zerolog.Logger
}

// NewDispatcher constructs a Dispatcher. A nil clock means time.Now.
func NewDispatcher(composer Composer, notifier Notifier, now func() time.Time, notifyOrganizers bool) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		composer:         composer,
		notifier:         notifier,
		now:              now,
		notifyOrganizers: notifyOrganizers,
		logger:           log.WithComponent("notify"),
	}
}

var _ service.TransitionHook = (*Dispatcher)(nil)

// OnTransition sends the attendee message for t and, if enabled, one
// message per organizer. All recipients are attempted; failures are joined.
// The unregistration footer is only added while the attendee still holds a
// registration.
func (d *Dispatcher) OnTransition(ctx context.Context, t service.Transition) error {
	attendeeKind, organizerKind, ok := kindsFor(t)
	if !ok {
		return nil
	}
	data := dataFor(t)

	var errs []error
	if t.Registration.RegistrantEmail != "" {
		footer := attendeeKind != KindUnregistration && admission.CanUnregister(&t.Event, d.now())
		errs = append(errs, d.send(ctx, t, attendeeKind, t.Registration.RegistrantEmail, data, footer))
	}
	if d.notifyOrganizers {
		for _, o := range t.Event.Organizers {
			if o.Email == "" {
				continue
			}
			od := data
			od.OrganizerName = o.Name
			errs = append(errs, d.send(ctx, t, organizerKind, o.Email, od, false))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) send(ctx context.Context, t service.Transition, kind Kind, recipient string, data Data, footer bool) error {
	logger := log.WithContext(ctx, d.logger).With().
		Str("kind", string(kind)).
		Str(log.FieldEventID, t.Event.ID).
		Str(log.FieldRegistrationID, t.Registration.ID).
		Logger()

	subject, body, err := d.composer.Compose(kind, data)
	if err != nil {
		metrics.RecordNotification(string(kind), false)
		logger.Error().Err(err).Msg("compose notification")
		return fmt.Errorf("%w: compose %s: %w", ErrNotificationFailure, kind, err)
	}
	if footer {
		body += "\n\n" + d.composer.Text(FooterKey)
	}

	msg := Message{
		Kind:           kind,
		Recipient:      recipient,
		Subject:        subject,
		Body:           body,
		EventID:        t.Event.ID,
		RegistrationID: t.Registration.ID,
	}
	if err := d.notifier.Send(ctx, msg); err != nil {
		metrics.RecordNotification(string(kind), false)
		logger.Error().Err(err).Msg("send notification")
		return fmt.Errorf("%w: send %s: %w", ErrNotificationFailure, kind, err)
	}
	metrics.RecordNotification(string(kind), true)
	logger.Debug().Msg("notification sent")
	return nil
}

func kindsFor(t service.Transition) (attendee, organizer Kind, ok bool) {
	switch t.Kind {
	case service.TransitionRegistered:
		if t.Registration.OnQueue() {
			return KindConfirmationOnQueue, KindOrganizerRegistration, true
		}
		return KindConfirmation, KindOrganizerRegistration, true
	case service.TransitionUnregistered:
		return KindUnregistration, KindOrganizerUnregistration, true
	case service.TransitionPromoted:
		return KindQueuePromotion, KindOrganizerPromotion, true
	}
	return "", "", false
}

func dataFor(t service.Transition) Data {
	data := Data{
		EventTitle:      t.Event.Title,
		RegistrantName:  t.Registration.RegistrantName,
		RegistrantEmail: t.Registration.RegistrantEmail,
		Seats:           t.Registration.Seats,
		Status:          t.Registration.Status,
		PriceCode:       t.Registration.PriceCode,
		TotalPrice:      fmt.Sprintf("%d.%02d", t.Registration.TotalPrice/100, t.Registration.TotalPrice%100),
	}
	if t.Event.BeginDate != nil {
		data.EventBegin = t.Event.BeginDate.Format("2006-01-02 15:04")
	}
	return data
}
