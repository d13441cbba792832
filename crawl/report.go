package crawl

import (
	"time"

	"github.com/fwojciec/pagecache"
	"github.com/google/uuid"
)

// BuildReport summarizes a finished crawl: which input spellings resolved
// to which stored resource, what kind of content each holds, and the
// titles collected along the way. A non-nil sources table from the
// discovery stage is carried into the report verbatim; otherwise the
// table is synthesized from the input spellings.
func (c *Crawler) BuildReport(inputs []string, sources map[string][]string, result *Result) *pagecache.CrawlReport {
	stripped := make([]string, 0, len(inputs))
	for _, url := range inputs {
		stripped = append(stripped, pagecache.StripTrackingParams(url))
	}
	unique := pagecache.DedupeVariants(stripped)

	representative := make(map[string]string, len(unique))
	for _, url := range unique {
		representative[pagecache.ComparableURL(url)] = url
	}

	report := &pagecache.CrawlReport{
		RunID:       uuid.NewString(),
		TotalURLs:   len(inputs),
		UniqueURLs:  unique,
		Sources:     sources,
		Kinds:       make(map[string]pagecache.Kind, len(unique)),
		Titles:      result.Titles,
		CachedCount: result.Cached,
		GeneratedAt: time.Now().UTC(),
	}

	if report.Sources == nil {
		report.Sources = make(map[string][]string, len(unique))
		for i, url := range inputs {
			rep, ok := representative[pagecache.ComparableURL(stripped[i])]
			if !ok {
				rep = stripped[i]
			}
			report.Sources[rep] = append(report.Sources[rep], url)
		}
	}
	for _, url := range unique {
		report.Kinds[url] = c.Store.Has(url)
	}

	return report
}
