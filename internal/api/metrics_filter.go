package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// AppMetricsPrefix is the prefix of every metric the tracker itself registers
const AppMetricsPrefix = "achievement_tracker_"

// PrefixGatherer wraps a gatherer and keeps metric families whose name does
// (include) or does not (exclude) start with prefix
type PrefixGatherer struct {
	gatherer prometheus.Gatherer
	prefix   string
	include  bool
}

func NewIncludedPrefixGatherer(gatherer prometheus.Gatherer, prefix string) *PrefixGatherer {
	return &PrefixGatherer{gatherer: gatherer, prefix: prefix, include: true}
}

func NewExcludedPrefixGatherer(gatherer prometheus.Gatherer, prefix string) *PrefixGatherer {
	return &PrefixGatherer{gatherer: gatherer, prefix: prefix, include: false}
}

func (pg *PrefixGatherer) Gather() ([]*dto.MetricFamily, error) {
	all, err := pg.gatherer.Gather()
	if err != nil {
		return nil, err
	}

	filtered := make([]*dto.MetricFamily, 0, len(all))
	for _, mf := range all {
		if mf.Name == nil {
			continue
		}
		if strings.HasPrefix(mf.GetName(), pg.prefix) == pg.include {
			filtered = append(filtered, mf)
		}
	}

	return filtered, nil
}

// SystemMetricsHandler serves Go runtime and process metrics only
func SystemMetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(NewExcludedPrefixGatherer(gatherer, AppMetricsPrefix), promhttp.HandlerOpts{})
}

// AppMetricsHandler serves the tracker's own metrics only
func AppMetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(NewIncludedPrefixGatherer(gatherer, AppMetricsPrefix), promhttp.HandlerOpts{})
}
