package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordRun("BTC", 2*time.Second)
	r.RecordRun("BTC", time.Second)
	r.RecordSection("news", "timed_out", "TimedOut", 30)
	r.RecordAllocation("BTC", "Hold", 25)
	r.RecordAllocation("BTC", "Accumulate", 100)
	r.RecordDelivery("file", nil)
	r.RecordDelivery("notion", errors.New("401"))
	r.RecordError("Unavailable")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("BTC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sectionsTotal.WithLabelValues("news", "timed_out", "TimedOut")))
	assert.Equal(t, 100.0, testutil.ToFloat64(r.allocation.WithLabelValues("BTC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.biasTotal.WithLabelValues("Hold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deliveriesTotal.WithLabelValues("file", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deliveriesTotal.WithLabelValues("notion", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("Unavailable")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))
}
