package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChat(reg)

	done := m.StreamStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeStreams))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeStreams))

	m.ObserveTurn(StatusOK, 2*time.Second)
	m.ObserveTurn(StatusError, time.Second)
	m.ObserveEnvelope("text_delta")
	m.ObserveEnvelope("text_delta")
	m.ClientDisconnected()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues(StatusOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.envelopes.WithLabelValues("text_delta")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.disconnects))
}

func TestSessionGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChat(reg)
	m.RegisterSessionGauge(func() int { return 3 })

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, fam := range families {
		if fam.GetName() == "chat_sessions" {
			found = true
			require.Len(t, fam.GetMetric(), 1)
			assert.Equal(t, 3.0, fam.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found, "chat_sessions not registered")
}

func TestNilChatIsNoop(t *testing.T) {
	var m *Chat
	m.ObserveTurn(StatusOK, time.Second)
	m.ObserveEnvelope("error")
	m.ClientDisconnected()
	m.RegisterSessionGauge(func() int { return 1 })
	m.StreamStarted()()
}
