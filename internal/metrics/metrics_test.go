package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.AlertsGenerated.WithLabelValues("weather", "warning").Inc()
	a.NotificationsSuppressed.WithLabelValues("preference").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.AlertsGenerated.WithLabelValues("weather", "warning")))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.NotificationsSuppressed.WithLabelValues("preference")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AlertsGenerated.WithLabelValues("weather", "warning")))
}
