// Package metrics exports dispatch outcomes as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/dispatch"
)

// Observer counts dispatches by action and result. The result label is
// "completed" or the error kind of a failed dispatch, e.g.
// "missing_authorization". Actions that are not registered share the
// action label "unknown" so callers cannot grow the label set.
type Observer struct {
	dispatches *prometheus.CounterVec
}

var _ dispatch.Observer = (*Observer)(nil)

// UnknownActionLabel is the action label of unregistered actions.
const UnknownActionLabel = "unknown"

// NewObserver creates an observer and registers its collectors with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "actions",
			Name:      "dispatch_total",
			Help:      "Number of dispatched actions by action name and result.",
		}, []string{"action", "result"}),
	}
	if err := reg.Register(o.dispatches); err != nil {
		return nil, err
	}
	return o, nil
}

// Observe implements dispatch.Observer.
func (o *Observer) Observe(action core.Name, final dispatch.State, err error) {
	label, result := action.String(), "completed"
	if final != dispatch.StateCompleted {
		result = core.Kind(err)
	}
	if result == "unknown_action" {
		label = UnknownActionLabel
	}
	o.dispatches.WithLabelValues(label, result).Inc()
}
