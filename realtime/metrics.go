package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var subscriptionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "scamspotter",
	Subsystem: "realtime",
	Name:      "subscriptions_open",
	Help:      "Number of open realtime subscriptions",
})
