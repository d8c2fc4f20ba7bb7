package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/layer-3/w3o/ports"
)

// Collector holds the Prometheus metrics of the runtime
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Runtime events
	SessionChanges prometheus.Counter
	NetworkChanges *prometheus.CounterVec
	Logouts        prometheus.Counter
	PublishErrors  *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		SessionChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_changes_total",
			Help:      "Total number of current session changes",
		}),
		NetworkChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "network_changes_total",
			Help:      "Total number of current network changes",
		}, []string{"network"}),
		Logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Total number of session logouts",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total number of events that failed to publish",
		}, []string{"topic"}),
	}
	c.registry.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.SessionChanges, c.NetworkChanges, c.Logouts, c.PublishErrors,
	)
	return c
}

// Registry returns the registry holding the metrics
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request
func (c *Collector) ObserveRequest(method, route string, status int, latency time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Publisher counts the events passed to next. A nil next only counts.
func (c *Collector) Publisher(next ports.EventPublisher) ports.EventPublisher {
	return &countingPublisher{c: c, next: next}
}

type countingPublisher struct {
	c    *Collector
	next ports.EventPublisher
}

func (p *countingPublisher) PublishSessionChange(ctx context.Context, sessionID string) error {
	p.c.SessionChanges.Inc()
	if p.next == nil {
		return nil
	}
	return p.observe("session", p.next.PublishSessionChange(ctx, sessionID))
}

func (p *countingPublisher) PublishNetworkChange(ctx context.Context, networkName string) error {
	p.c.NetworkChanges.WithLabelValues(networkName).Inc()
	if p.next == nil {
		return nil
	}
	return p.observe("network", p.next.PublishNetworkChange(ctx, networkName))
}

func (p *countingPublisher) PublishLogout(ctx context.Context, address string, sessionID string) error {
	p.c.Logouts.Inc()
	if p.next == nil {
		return nil
	}
	return p.observe("logout", p.next.PublishLogout(ctx, address, sessionID))
}

func (p *countingPublisher) observe(topic string, err error) error {
	if err != nil {
		p.c.PublishErrors.WithLabelValues(topic).Inc()
	}
	return err
}
