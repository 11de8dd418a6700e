package achievements

import "github.com/prometheus/client_golang/prometheus"

var iconsCached = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "achievement_tracker",
	Subsystem: "icons",
	Name:      "cached",
	Help:      "Number of achievement icons held in memory",
})

func init() {
	prometheus.MustRegister(iconsCached)
}

// IconCache maps icon URLs to image bytes for the life of the process.
// Nothing is evicted. Like the view, it belongs to the event loop.
type IconCache struct {
	icons map[string][]byte
}

func NewIconCache() *IconCache {
	return &IconCache{icons: make(map[string][]byte)}
}

func (c *IconCache) Get(url string) ([]byte, bool) {
	data, ok := c.icons[url]
	return data, ok
}

func (c *IconCache) Put(url string, data []byte) {
	if _, exists := c.icons[url]; !exists {
		iconsCached.Inc()
	}
	c.icons[url] = data
}
