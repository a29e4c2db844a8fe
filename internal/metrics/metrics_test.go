package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordLaunch("brand")
	m.RecordLaunch("brand")
	m.RecordLaunch("code")
	m.RecordStorageError("decode")
	m.RecordActivity("CREATED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LaunchesTotal.WithLabelValues("brand")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LaunchesTotal.WithLabelValues("code")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageErrorsTotal.WithLabelValues("decode")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivityEventsTotal.WithLabelValues("CREATED")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLaunch("brand")
		m.RecordStorageError("save")
		m.RecordActivity("DELETED")
		m.RecordGeneration("flux", "ok")
		m.RecordResolution("missing")
		m.RecordHTTPRequest("GET", "200")
		m.ObserveLaunchSequence(0)
	})
}
