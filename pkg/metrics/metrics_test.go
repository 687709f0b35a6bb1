package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceMarkedCounts(t *testing.T) {
	before := testutil.ToFloat64(AttendanceMarked.WithLabelValues("member", "present"))
	AttendanceMarked.WithLabelValues("member", "present").Inc()
	after := testutil.ToFloat64(AttendanceMarked.WithLabelValues("member", "present"))

	assert.Equal(t, before+1, after)
}

func TestHandlerExposesCollectors(t *testing.T) {
	SessionShortfalls.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "coach_session_shortfalls_total"))
}
