package telemetry

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "pickupscan"

var (
	eventCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_counter",
		Help:      "count of scan workflow events, split by outcome",
	}, []string{"name", "tag", "isError"})

	durationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "duration_seconds",
		Help:      "duration of scan workflow steps",
		Buckets:   prometheus.DefBuckets,
	}, []string{"name"})

	registerOnce sync.Once
)

func RecordEvent(name string, tag string, err error) {
	eventCounter.With(prometheus.Labels{
		"name":    name,
		"tag":     tag,
		"isError": fmt.Sprintf("%t", err != nil),
	}).Inc()
}

func RecordDuration(name string, seconds float64) {
	durationHistogram.With(prometheus.Labels{"name": name}).Observe(seconds)
}

// InitializeMetrics registers the collectors with the default registry; safe to call more than once.
func InitializeMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(eventCounter)
		prometheus.MustRegister(durationHistogram)
	})
}

func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	)
}

// ServeMetrics exposes /metrics on its own listener in the background.
func ServeMetrics(addr string) {
	InitializeMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	go func() {
		logrus.Infof("serving metrics on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logrus.Errorf("metrics listener on %s stopped: %+v", addr, err)
		}
	}()
}
