package translation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/admission"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/notify"
)

func TestDefault_CoversDecisionMessages(t *testing.T) {
	c := Default()
	for _, key := range []string{
		admission.MsgCanceled,
		admission.MsgNoRegistrationNeeded,
		admission.MsgNotYetOpen,
		admission.MsgClosed,
		admission.MsgNoDate,
		admission.MsgAlreadyRegistered,
		admission.MsgMissingRequirements,
		admission.MsgFullyBooked,
		admission.MsgVetoed,
		admission.MsgTooManySeats,
		admission.MsgRegular,
		admission.MsgWaitingList,
		admission.MsgUnregistrationClosed,
		notify.FooterKey,
	} {
		assert.NotEqual(t, key, c.Text(key), "missing text for %s", key)
	}
}

func TestText_UnknownKeyFallsBack(t *testing.T) {
	assert.Equal(t, "message_doesNotExist", Default().Text("message_doesNotExist"))
}

func TestCompose_EveryKind(t *testing.T) {
	c := Default()
	data := notify.Data{
		EventTitle:      "Go in Practice",
		EventBegin:      "2026-03-12 09:00",
		RegistrantName:  "Ada",
		RegistrantEmail: "ada@example.com",
		Seats:           2,
		Status:          "regular",
		PriceCode:       "std",
		TotalPrice:      "20.00",
		OrganizerName:   "Grace",
	}
	for _, kind := range []notify.Kind{
		notify.KindConfirmation,
		notify.KindConfirmationOnQueue,
		notify.KindUnregistration,
		notify.KindQueuePromotion,
		notify.KindOrganizerRegistration,
		notify.KindOrganizerUnregistration,
		notify.KindOrganizerPromotion,
	} {
		t.Run(string(kind), func(t *testing.T) {
			subject, body, err := c.Compose(kind, data)
			require.NoError(t, err)
			assert.Contains(t, subject, "Go in Practice")
			assert.Contains(t, body, "Go in Practice")
		})
	}
}

func TestCompose_Confirmation(t *testing.T) {
	_, body, err := Default().Compose(notify.KindConfirmation, notify.Data{
		EventTitle:     "Go in Practice",
		RegistrantName: "Ada",
		Seats:          3,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Hello Ada")
	assert.Contains(t, body, "3 seat(s)")
	assert.NotContains(t, body, "Price:")
}

func TestCompose_UnknownKind(t *testing.T) {
	_, _, err := Default().Compose("nope", notify.Data{})
	assert.Error(t, err)
}

func TestParse_InvalidTemplate(t *testing.T) {
	_, err := Parse([]byte(`email_confirmation_subject: "{{.EventTitle"`))
	assert.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("- not\n- a map"))
	assert.Error(t, err)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "de.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
message_fullyBooked: Die Veranstaltung ist ausgebucht.
email_confirmation_subject: "Anmeldung bestätigt: {{.EventTitle}}"
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Die Veranstaltung ist ausgebucht.", c.Text(admission.MsgFullyBooked))
	assert.Equal(t, Default().Text(admission.MsgClosed), c.Text(admission.MsgClosed))

	subject, _, err := c.Compose(notify.KindConfirmation, notify.Data{EventTitle: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "Anmeldung bestätigt: Go", subject)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Text(admission.MsgRegular), c.Text(admission.MsgRegular))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
