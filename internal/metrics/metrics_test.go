package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(DonationOutcomes.WithLabelValues("success"))
	DonationOutcomes.WithLabelValues("success").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DonationOutcomes.WithLabelValues("success")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	ReceiptsIssued.Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "receipts_issued_total"))
}
