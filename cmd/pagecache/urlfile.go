package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// URLFile is the parsed input to the crawl command. Sources, when
// present, maps each URL to the documents it was extracted from; it is
// carried into the crawl report verbatim.
type URLFile struct {
	URLs    []string            `json:"urls"`
	Sources map[string][]string `json:"sources,omitempty"`
}

// ReadURLFile loads the URLs to capture from path. Three formats are
// accepted: a JSON discovery record ({"urls": [...], "sources": {...}}),
// a JSON array of URL strings, or a plain newline-separated list where
// blank lines and #-comments are ignored.
func ReadURLFile(path string) (*URLFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading URL file: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, "{"):
		var file URLFile
		if err := json.Unmarshal([]byte(trimmed), &file); err != nil {
			return nil, fmt.Errorf("parsing URL file %q: %w", path, err)
		}
		return &file, nil

	case strings.HasPrefix(trimmed, "["):
		var urls []string
		if err := json.Unmarshal([]byte(trimmed), &urls); err != nil {
			return nil, fmt.Errorf("parsing URL file %q: %w", path, err)
		}
		return &URLFile{URLs: urls}, nil
	}

	var urls []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return &URLFile{URLs: urls}, nil
}
