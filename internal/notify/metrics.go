package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"agentdesk/internal/apperr"
)

// errorsHandledTotal counts classified errors passed through a hub,
// labelled by kind and originating component.
var errorsHandledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "errors_handled_total",
		Help: "Total number of classified errors handled by the notification hub",
	},
	[]string{"kind", "component"},
)

func recordHandled(err *apperr.Error, evtCtx *EventContext) {
	component := ""
	if evtCtx != nil {
		component = evtCtx.Component
	}
	errorsHandledTotal.WithLabelValues(string(err.Kind()), component).Inc()
}
