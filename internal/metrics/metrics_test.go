package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("/api/v1/cafes", "2xx")
		IncTransition("confirmed", "owner")
		IncSyncTask("completed")
		StreamConnected(1)
		StreamConnected(-1)
	})
}

func TestObserveSweep(t *testing.T) {
	read := func() float64 {
		var m dto.Metric
		require.NoError(t, sweepCompleted.Write(&m))
		return m.GetCounter().GetValue()
	}

	before := read()
	ObserveSweep(3)
	assert.Equal(t, before+3, read())
}
