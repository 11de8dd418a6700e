package library

import "github.com/prometheus/client_golang/prometheus"

const (
	lookupHit  = "hit"
	lookupMiss = "miss"
)

var schemaLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "achievement_tracker",
	Subsystem: "library",
	Name:      "schema_lookups_total",
	Help:      "Achievement schema lookups, by whether the schema was already cached",
}, []string{"cache"})

func init() {
	prometheus.MustRegister(schemaLookups)
}

func recordSchemaLookup(result string) {
	schemaLookups.WithLabelValues(result).Inc()
}
