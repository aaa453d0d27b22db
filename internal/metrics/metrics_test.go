package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCheckout(t *testing.T) {
	before := testutil.ToFloat64(checkouts.WithLabelValues(CheckoutSuccess))
	RecordCheckout(CheckoutSuccess)
	assert.Equal(t, before+1, testutil.ToFloat64(checkouts.WithLabelValues(CheckoutSuccess)))
}

func TestRequestLifecycle(t *testing.T) {
	RequestStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(httpInFlight))

	RequestFinished(http.MethodGet, "/api/gemstones", http.StatusOK, 20*time.Millisecond)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/gemstones", "200")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	SocketOpened()
	defer SocketClosed()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jewelconnect_ws_connections 1")
}
