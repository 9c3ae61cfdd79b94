package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DonationsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donations_recorded_total",
		Help: "Pending donations recorded",
	})

	DonationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donation_outcomes_total",
		Help: "Terminal donation transitions by outcome",
	}, []string{"outcome"})

	ReceiptsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_issued_total",
		Help: "Receipts created",
	})

	ModerationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_decisions_total",
		Help: "Campaign review decisions",
	}, []string{"decision"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notification attempts by channel and result",
	}, []string{"channel", "result"})

	HandlerPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_handler_panics_total",
		Help: "Recovered handler panics by route",
	}, []string{"route"})

	HTTPErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Error responses by status code",
	}, []string{"status"})
)

// Handler 暴露给 /metrics 的 HTTP 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
