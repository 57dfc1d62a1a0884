// Package parsers defines the extraction boundary between listing sites
// and the scan pipeline. Each source is bound to one Parser implementation
// through a string-keyed registry; parsers return uniform
// ExtractedCompetition records and never partial results.
package parsers

import (
	"context"
	"sync"

	"github.com/hoofbeat/hoofbeat-go/internal/errors"
)

// ExtractedCompetition is the uniform record every parser produces. Dates
// are carried as strings because scraped values may be invalid; the scan
// pipeline validates them.
type ExtractedCompetition struct {
	Name          string   `json:"name"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date,omitempty"`
	VenueName     string   `json:"venue_name"`
	VenuePostcode string   `json:"venue_postcode,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	PonyClasses   bool     `json:"pony_classes,omitempty"`
	Discipline    string   `json:"discipline,omitempty"`
	Description   string   `json:"description,omitempty"`
	EventType     string   `json:"event_type,omitempty"`
	URL           string   `json:"url,omitempty"`
	Classes       []string `json:"classes,omitempty"`
}

// Valid reports whether the record carries every required field.
func (e *ExtractedCompetition) Valid() bool {
	return e.Name != "" && e.StartDate != "" && e.VenueName != ""
}

// Parser fetches a source URL and extracts competition records. A failed
// fetch returns an error; a page with nothing on it returns an empty list.
type Parser interface {
	Fetch(ctx context.Context, url string) ([]ExtractedCompetition, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Parser)
)

// Register binds a parser key to an implementation. Re-registering a key
// replaces the previous binding.
func Register(key string, parser Parser) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key] = parser
}

// Get resolves a parser key to its implementation.
func Get(key string) (Parser, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	parser, ok := registry[key]
	if !ok {
		return nil, errors.Newf("no parser registered for key %q", key).
			Component("parsers").
			Category(errors.CategoryNotFound).
			Context("parser_key", key).
			Build()
	}
	return parser, nil
}

// Keys returns the registered parser keys.
func Keys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for key := range registry {
		keys = append(keys, key)
	}
	return keys
}
