package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus records quiz turn outcomes on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	answers        *prometheus.CounterVec
	retries        *prometheus.CounterVec
	skipped        prometheus.Counter
	interpretation *prometheus.HistogramVec
	games          prometheus.Counter
	lastScore      prometheus.Gauge
}

func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answers_total",
				Help: "Answers resolved, by input source and correctness",
			},
			[]string{"source", "correct"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answer_retries_total",
				Help: "Captures repeated because the answer was not usable",
			},
			[]string{"reason"},
		),
		skipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quiz_questions_skipped_total",
				Help: "Questions skipped after reaching the attempt limit",
			},
		),
		interpretation: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quiz_interpretation_duration_seconds",
				Help:    "Time spent waiting for the interpretation service",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		games: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quiz_games_completed_total",
				Help: "Games played to completion",
			},
		),
		lastScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quiz_last_score_ratio",
				Help: "Fraction of questions answered correctly in the last completed game",
			},
		),
	}
}

func (p *Prometheus) AnswerResolved(source string, correct bool) {
	p.answers.WithLabelValues(source, strconv.FormatBool(correct)).Inc()
}

func (p *Prometheus) AnswerRetried(reason string) {
	p.retries.WithLabelValues(reason).Inc()
}

func (p *Prometheus) QuestionSkipped() {
	p.skipped.Inc()
}

func (p *Prometheus) InterpretationFinished(elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	p.interpretation.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (p *Prometheus) GameCompleted(score, total int) {
	p.games.Inc()
	if total > 0 {
		p.lastScore.Set(float64(score) / float64(total))
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
