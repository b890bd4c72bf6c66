package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
)

const namespace = "vaudio"

// Metrics holds the collectors fed from the event bus.
type Metrics struct {
	Registry *prometheus.Registry

	events   *prometheus.CounterVec
	commands *prometheus.CounterVec
	latency  prometheus.Histogram
	scenes   *prometheus.CounterVec
	failures *prometheus.CounterVec
	mode     *prometheus.GaugeVec

	now func() time.Time
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events published on the bus, by kind.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Resolved commands, by key and input source.",
		}, []string{"key", "source"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_seconds",
			Help:      "Time from command resolution to the end of its dispatch.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1},
		}),
		scenes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_visits_total",
			Help:      "Scene entries, by game and scene.",
		}, []string{"game", "scene"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Recoverable failures and handler errors, by reason.",
		}, []string{"reason"}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "1 for the active navigation mode.",
		}, []string{"mode"}),
		now: time.Now,
	}
	m.Registry.MustRegister(m.events, m.commands, m.latency, m.scenes, m.failures, m.mode)
	m.mode.WithLabelValues(string(domain.ModeProgram)).Set(1)
	m.mode.WithLabelValues(string(domain.ModeGame)).Set(0)
	return m
}

// Attach subscribes the collectors to every event of bus. The returned function detaches them.
func (m *Metrics) Attach(bus *eventbus.Bus) (detach func()) {
	sub := bus.SubscribeAll(func(ev domain.Event) error {
		m.Observe(ev)
		return nil
	})
	return func() { bus.Unsubscribe(sub) }
}

// Observe records one event.
func (m *Metrics) Observe(ev domain.Event) {
	m.events.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case domain.EventCommandResolved:
		if ev.Command != nil {
			m.commands.WithLabelValues(string(ev.Command.Key), ev.Command.Source).Inc()
		}
	case domain.EventCommandExecuted:
		if ev.Command != nil && !ev.Command.Timestamp.IsZero() {
			m.latency.Observe(m.now().Sub(ev.Command.Timestamp).Seconds())
		}
	case domain.EventSceneChanged:
		game, _ := ev.Data["game"].(string)
		scene, _ := ev.Data["scene"].(string)
		m.scenes.WithLabelValues(game, scene).Inc()
	case domain.EventModeChanged:
		if to, ok := ev.Data["to"].(string); ok {
			for _, mode := range []domain.Mode{domain.ModeProgram, domain.ModeGame} {
				v := 0.0
				if string(mode) == to {
					v = 1
				}
				m.mode.WithLabelValues(string(mode)).Set(v)
			}
		}
	case domain.EventError:
		m.failures.WithLabelValues(Reason(ev.Err)).Inc()
	case domain.EventHandlerError:
		m.failures.WithLabelValues("handler").Inc()
	}
}

// Reason maps an error to a low-cardinality label.
func Reason(err error) string {
	var le *domain.LoadError
	switch {
	case err == nil:
		return "unknown"
	case errors.As(err, &le):
		return "load_" + string(le.Kind)
	case errors.Is(err, domain.ErrIllegalCommand):
		return "illegal_command"
	case errors.Is(err, domain.ErrInvalidSignal):
		return "invalid_signal"
	case errors.Is(err, domain.ErrContentNotFound):
		return "not_found"
	}
	return "other"
}

// Handler serves the private registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
