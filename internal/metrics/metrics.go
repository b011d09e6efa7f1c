// Package metrics exports entity manager and message pump activity as
// Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/plus3/simcore/ecs"
)

// Exporter implements ecs.ManagerObserver and ecs.PumpObserver. Type labels
// are resolved through the string table given to New.
type Exporter struct {
	registry *prometheus.Registry
	strings  *ecs.StringTable

	entitiesCreated   prometheus.Counter
	entitiesKilled    prometheus.Counter
	entitiesAlive     prometheus.Gauge
	componentsCreated *prometheus.CounterVec
	componentsDeleted *prometheus.CounterVec
	messagesEmitted   *prometheus.CounterVec
	listenerCalls     *prometheus.CounterVec
	listenerErrors    *prometheus.CounterVec
	queueDepth        prometheus.Gauge
	frameSeconds      prometheus.Histogram
}

var (
	_ ecs.ManagerObserver = (*Exporter)(nil)
	_ ecs.PumpObserver    = (*Exporter)(nil)
)

// New creates an exporter with its own registry.
func New(namespace string, strings *ecs.StringTable) *Exporter {
	if strings == nil {
		strings = ecs.Strings
	}
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		strings:  strings,
		entitiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Entities created.",
		}),
		entitiesKilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_killed_total",
			Help:      "Entities killed.",
		}),
		entitiesAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities_alive",
			Help:      "Entities currently alive.",
		}),
		componentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_created_total",
			Help:      "Components created, by component type.",
		}, []string{"type"}),
		componentsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "components_deleted_total",
			Help:      "Components deleted, by component type.",
		}, []string{"type"}),
		messagesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_emitted_total",
			Help:      "Messages emitted, by message type.",
		}, []string{"type"}),
		listenerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_listener_calls_total",
			Help:      "Listener invocations, by message type.",
		}, []string{"type"}),
		listenerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_errors_total",
			Help:      "Emissions that returned a listener error, by message type.",
		}, []string{"type"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "message_queue_depth",
			Help:      "Messages waiting in the delayed queue.",
		}),
		frameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Wall time of one scheduler frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}
	e.registry.MustRegister(
		e.entitiesCreated, e.entitiesKilled, e.entitiesAlive,
		e.componentsCreated, e.componentsDeleted,
		e.messagesEmitted, e.listenerCalls, e.listenerErrors, e.queueDepth,
		e.frameSeconds,
	)
	return e
}

// Attach installs e as the pump observer of em. The manager observer is set
// at construction with ecs.WithObserver.
func (e *Exporter) Attach(em *ecs.EntityManager) {
	em.MessagePump().SetObserver(e)
}

func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

func (e *Exporter) label(id ecs.StringId) string {
	if s, ok := e.strings.Resolve(id); ok {
		return s
	}
	return "unknown"
}

func (e *Exporter) OnEntityCreated(ecs.EntityId) {
	e.entitiesCreated.Inc()
	e.entitiesAlive.Inc()
}

func (e *Exporter) OnEntityKilled(ecs.EntityId) {
	e.entitiesKilled.Inc()
	e.entitiesAlive.Dec()
}

func (e *Exporter) OnComponentCreated(t ecs.ComponentType) {
	e.componentsCreated.WithLabelValues(e.label(t)).Inc()
}

func (e *Exporter) OnComponentDeleted(t ecs.ComponentType) {
	e.componentsDeleted.WithLabelValues(e.label(t)).Inc()
}

func (e *Exporter) OnEmit(t ecs.MessageType, listeners int, err error) {
	name := e.label(t)
	e.messagesEmitted.WithLabelValues(name).Inc()
	e.listenerCalls.WithLabelValues(name).Add(float64(listeners))
	if err != nil {
		e.listenerErrors.WithLabelValues(name).Inc()
	}
}

func (e *Exporter) OnQueue(depth int) { e.queueDepth.Set(float64(depth)) }

// ObserveFrame records the wall time of one frame.
func (e *Exporter) ObserveFrame(d time.Duration) { e.frameSeconds.Observe(d.Seconds()) }

// Serve exposes /metrics on addr until ctx is done.
func (e *Exporter) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.Info("metrics listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
