package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDecision_EmptyReasonIsNone(t *testing.T) {
	before := testutil.ToFloat64(AdmissionDecisionTotal.WithLabelValues("approved_regular", "none"))
	RecordDecision("approved_regular", "")
	after := testutil.ToFloat64(AdmissionDecisionTotal.WithLabelValues("approved_regular", "none"))
	assert.Equal(t, before+1, after)
}

func TestRecordSeats(t *testing.T) {
	before := testutil.ToFloat64(SeatsRegisteredTotal.WithLabelValues("waiting_list"))
	RecordSeats("waiting_list", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(SeatsRegisteredTotal.WithLabelValues("waiting_list")))
}

func TestRecordNotification(t *testing.T) {
	before := testutil.ToFloat64(NotificationTotal.WithLabelValues("promoted", "failed"))
	RecordNotification("promoted", false)
	assert.Equal(t, before+1, testutil.ToFloat64(NotificationTotal.WithLabelValues("promoted", "failed")))
}
