// Package pagecache captures the rendered content of web pages (readable
// text plus a full-page screenshot, or raw bytes for document files) and
// persists each capture in a per-task, content-addressable file store so
// that downstream evaluation passes can read what a page looked like when
// it was fetched without re-fetching it.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., fs/, rod/, http/, crawl/).
package pagecache
