package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.GameCreated()
	m.GameCreated()
	m.SetActiveGames(2)
	m.GameRemoved("cancelled")
	m.CommandHandled("join", nil)
	m.CommandHandled("join", errors.New("boom"))
	m.CommandHandled("join", nil)

	assert.InDelta(t, 2, testutil.ToFloat64(m.GamesCreated), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ActiveGames), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GamesEnded.WithLabelValues("cancelled")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Commands.WithLabelValues("join", OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Commands.WithLabelValues("join", OutcomeError)), 0)
}
