package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "examportal"

var HistogramBuckets = []float64{
	// fast (0 - 500ms)
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	// medium (500ms - 2s)
	750, 1000, 1250, 1500, 1750, 2000,
	// slow, up to the gateway timeout and beyond
	2500, 3000, 4000, 5000, 7500, 10000, 15000, 20000, 30000,
}

// Metric describes one collector; NewMetric builds it according to Type.
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description,
		}, m.Args)
	case "counter":
		metric = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description,
		})
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description,
		}, m.Args)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description,
			Buckets: HistogramBuckets,
		}, m.Args)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace, Subsystem: subsystem, Name: m.Name, Help: m.Description,
		}, m.Args)
	}
	return metric
}

var (
	transitionsDef = &Metric{
		ID:          "txnTransitions",
		Name:        "transaction_transitions_total",
		Description: "Applied payment transaction status transitions.",
		Type:        "counter_vec",
		Args:        []string{"from", "to", "source"},
	}
	callbackRejectedDef = &Metric{
		ID:          "callbackRejected",
		Name:        "callback_rejected_total",
		Description: "Gateway callbacks refused before touching the ledger.",
		Type:        "counter_vec",
		Args:        []string{"reason"},
	}
	gatewayDurDef = &Metric{
		ID:          "gatewayDur",
		Name:        "gateway_request_dur_ms",
		Description: "Payment gateway call latency in milliseconds.",
		Type:        "histogram_vec",
		Args:        []string{"op", "outcome"},
	}
	anomaliesDef = &Metric{
		ID:          "paymentAnomalies",
		Name:        "anomalies_total",
		Description: "Payment events that need manual review.",
		Type:        "counter_vec",
		Args:        []string{"kind"},
	}
	grantsDef = &Metric{
		ID:          "accessGrants",
		Name:        "access_grants_total",
		Description: "Purchase reconciliation outcomes.",
		Type:        "counter_vec",
		Args:        []string{"result"},
	}
)

var (
	TransactionTransitions = NewMetric(transitionsDef, "payment").(*prometheus.CounterVec)
	CallbackRejected       = NewMetric(callbackRejectedDef, "payment").(*prometheus.CounterVec)
	GatewayRequestDuration = NewMetric(gatewayDurDef, "payment").(*prometheus.HistogramVec)
	PaymentAnomalies       = NewMetric(anomaliesDef, "payment").(*prometheus.CounterVec)
	AccessGrants           = NewMetric(grantsDef, "payment").(*prometheus.CounterVec)
)

func init() {
	prometheus.MustRegister(
		TransactionTransitions,
		CallbackRejected,
		GatewayRequestDuration,
		PaymentAnomalies,
		AccessGrants,
	)
}

func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

const (
	RefererKey = "X-Referer"
)
