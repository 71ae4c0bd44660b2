// Package metrics exports walker engine events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gridwalk/internal/walker"
)

const namespace = "gridwalk"

// Recorder implements walker.Observer.
type Recorder struct {
	explorations *prometheus.CounterVec
	exploreSteps prometheus.Counter
	selfLoops    prometheus.Counter
	exploitRuns  *prometheus.CounterVec
	exploitSteps prometheus.Counter
	walkLengths  *prometheus.HistogramVec
}

// NewRecorder registers the engine metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		explorations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explorations_total",
			Help:      "Exploration walks completed, by whether the target was reached.",
		}, []string{"reached"}),
		exploreSteps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explore_steps_total",
			Help:      "Steps taken across all exploration walks.",
		}),
		selfLoops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "self_loops_total",
			Help:      "Exploration steps that stayed in place for lack of a passable neighbour.",
		}),
		exploitRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exploitations_total",
			Help:      "Exploitation walks, by outcome.",
		}, []string{"outcome"}),
		exploitSteps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exploit_steps_total",
			Help:      "Steps taken across all exploitation walks.",
		}),
		walkLengths: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "walk_length_steps",
			Help:      "Length of individual walks.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}, []string{"phase"}),
	}
}

func (r *Recorder) WalkExplored(steps int, reached bool) {
	label := "false"
	if reached {
		label = "true"
	}
	r.explorations.WithLabelValues(label).Inc()
	r.exploreSteps.Add(float64(steps))
	r.walkLengths.WithLabelValues("explore").Observe(float64(steps))
}

func (r *Recorder) SelfLoop() {
	r.selfLoops.Inc()
}

func (r *Recorder) Exploited(outcome walker.Outcome, steps int) {
	r.exploitRuns.WithLabelValues(string(outcome)).Inc()
	r.exploitSteps.Add(float64(steps))
	r.walkLengths.WithLabelValues("exploit").Observe(float64(steps))
}

var _ walker.Observer = (*Recorder)(nil)
