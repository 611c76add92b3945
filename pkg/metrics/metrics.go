// file: pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abab/abab/pkg/consensus"
)

// Collector instruments a consensus.Engine with Prometheus counters and
// gauges, satisfying consensus.Metrics.
type Collector struct {
	votesReceived *prometheus.CounterVec
	viewChanges   prometheus.Counter
	commits       prometheus.Counter
	height        prometheus.Gauge
	view          prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		votesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abab",
			Name:      "votes_received_total",
			Help:      "Count of accepted consensus messages received, by tag.",
		}, []string{"tag"}),
		viewChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "abab",
			Name:      "view_changes_total",
			Help:      "Count of completed view changes.",
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "abab",
			Name:      "commits_total",
			Help:      "Count of committed heights.",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "abab",
			Name:      "height",
			Help:      "Current consensus height.",
		}),
		view: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "abab",
			Name:      "view",
			Help:      "Current consensus view within the height.",
		}),
	}
	reg.MustRegister(c.votesReceived, c.viewChanges, c.commits, c.height, c.view)
	return c
}

func (c *Collector) VoteReceived(tag consensus.VoteTag) {
	c.votesReceived.WithLabelValues(tag.String()).Inc()
}

func (c *Collector) ViewChanged(height consensus.Height, view consensus.View) {
	c.viewChanges.Inc()
}

func (c *Collector) Committed(height consensus.Height) {
	c.commits.Inc()
}

func (c *Collector) SetHeightView(height consensus.Height, view consensus.View) {
	c.height.Set(float64(height))
	c.view.Set(float64(view))
}

var _ consensus.Metrics = (*Collector)(nil)
