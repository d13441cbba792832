package pagecache

import "time"

// CrawlReport is the metadata record persisted after a crawl run for
// downstream review tooling. Sources is the discovery-stage side table
// mapping each URL to the documents it was extracted from; it is carried
// through verbatim and plays no part in caching logic.
type CrawlReport struct {
	RunID       string              `json:"runId"`
	TotalURLs   int                 `json:"totalUrls"`
	UniqueURLs  []string            `json:"uniqueUrls"`
	Sources     map[string][]string `json:"sources,omitempty"`
	Kinds       map[string]Kind     `json:"kinds"`
	Titles      map[string]string   `json:"titles,omitempty"`
	CachedCount int                 `json:"cachedCount"`
	GeneratedAt time.Time           `json:"generatedAt"`
}
