package steam

import (
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess     = "success"
	outcomeError       = "error"
	outcomeRateLimited = "rate_limited"

	endpointIcon = "icon"
)

var requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "achievement_tracker",
	Subsystem: "steam",
	Name:      "requests_total",
	Help:      "Requests sent to the Steam API and icon hosts, by endpoint and outcome",
}, []string{"endpoint", "outcome"})

func init() {
	prometheus.MustRegister(requestCounter)
}

func recordRequest(endpoint, outcome string) {
	requestCounter.WithLabelValues(endpoint, outcome).Inc()
}

// endpointLabel keeps label cardinality bounded: API calls are labelled by
// interface/method, everything else (icon CDNs) collapses into one label.
func endpointLabel(rawURL, origin string) string {
	if !strings.HasPrefix(rawURL, origin) {
		return endpointIcon
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return endpointIcon
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return endpointIcon
	}
	return parts[0] + "/" + parts[1]
}
