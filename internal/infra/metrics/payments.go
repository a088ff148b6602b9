package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		billsCreatedTotal,
		billRevenueTotal,
		confirmationsTotal,
	)
}

var (
	billsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bills_created_total",
			Help: "Bill creation attempts by result (created/rejected/validation_failed).",
		},
		[]string{"result"},
	)

	billRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bill_revenue_total",
			Help: "Total monetary value of created bills, labeled by currency.",
		},
		[]string{"currency"},
	)

	confirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_confirmations_total",
			Help: "Confirmation outcomes (confirmed/failed/cancelled).",
		},
		[]string{"outcome"},
	)
)

func IncBillCreated(result string) {
	billsCreatedTotal.WithLabelValues(norm(result)).Inc()
}

func AddBillRevenue(currency string, amount int64) {
	billRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncConfirmation(outcome string) {
	confirmationsTotal.WithLabelValues(norm(outcome)).Inc()
}
