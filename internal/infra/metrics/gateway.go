package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		gatewayRequestsTotal,
		gatewayRequestDuration,
		statusPollsTotal,
		webhookDeliveriesTotal,
	)
}

var (
	gatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_gateway_requests_total",
			Help: "Requests to the billing gateway by operation and result.",
		},
		[]string{"op", "result"},
	)

	gatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_gateway_request_seconds",
			Help:    "Latency of billing gateway calls by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	statusPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bill_status_polls_total",
			Help: "Settlement status polls by reported state.",
		},
		[]string{"state"},
	)

	webhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Downstream webhook deliveries by result (sent/failed/dropped).",
		},
		[]string{"result"},
	)
)

func ObserveGatewayRequest(op, result string, elapsed time.Duration) {
	gatewayRequestsTotal.WithLabelValues(norm(op), norm(result)).Inc()
	gatewayRequestDuration.WithLabelValues(norm(op)).Observe(elapsed.Seconds())
}

func IncStatusPoll(state string) {
	statusPollsTotal.WithLabelValues(norm(state)).Inc()
}

func IncWebhookDelivery(result string) {
	webhookDeliveriesTotal.WithLabelValues(norm(result)).Inc()
}
