package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mafia"

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Metrics struct {
	ActiveGames  prometheus.Gauge
	GamesCreated prometheus.Counter
	GamesEnded   *prometheus.CounterVec
	Commands     *prometheus.CounterVec
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "games_active",
			Help:      "Number of registered games",
		}),
		GamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_created_total",
			Help:      "Total number of games created",
		}),
		GamesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_ended_total",
			Help:      "Total number of games removed, by reason",
		}, []string{"reason"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands handled, by command and outcome",
		}, []string{"command", "outcome"}),
	}

	reg.MustRegister(
		m.ActiveGames,
		m.GamesCreated,
		m.GamesEnded,
		m.Commands,
	)

	return m
}

func (m *Metrics) SetActiveGames(count int) {
	m.ActiveGames.Set(float64(count))
}

func (m *Metrics) GameCreated() {
	m.GamesCreated.Inc()
}

func (m *Metrics) GameRemoved(reason string) {
	m.GamesEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) CommandHandled(command string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}

	m.Commands.WithLabelValues(command, outcome).Inc()
}
