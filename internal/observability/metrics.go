package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TutorTurns         *prometheus.CounterVec
	QuizEvents         *prometheus.CounterVec
	ClassifierFailures *prometheus.CounterVec
	CompletionLatency  prometheus.Histogram
	WSMessages         *prometheus.CounterVec
	ActiveQuizzes      prometheus.Gauge
	QuestionPoolSize   prometheus.Gauge

	Latency *LatencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TutorTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tutor_turns_total",
			Help:      "Tutoring turns by resolved intent.",
		}, []string{"intent"}),
		QuizEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_events_total",
			Help:      "Quiz lifecycle events by type.",
		}, []string{"event"}),
		ClassifierFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Classifier parse or provider failures by classifier.",
		}, []string{"classifier"}),
		CompletionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_ms",
			Help:      "Latency of completion provider calls in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 20000},
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket chat messages by direction.",
		}, []string{"direction"}),
		ActiveQuizzes: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_quizzes",
			Help:      "Number of quiz sessions currently in progress.",
		}),
		QuestionPoolSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "question_pool_size",
			Help:      "Number of raw quiz questions loaded at startup.",
		}),
		Latency: NewLatencyWindow(256),
	}
}

func (m *Metrics) ObserveCompletionLatency(d time.Duration) {
	m.CompletionLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
