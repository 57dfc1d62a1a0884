// Package venues implements the venue resolution engine: name
// normalization, the per-scan in-memory match index and the
// multi-strategy matcher that resolves raw venue names against it.
package venues

import (
	"strings"

	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
)

// placeholderNames are venue names that mean "unknown / to be confirmed"
// rather than a real location.
var placeholderNames = map[string]bool{
	"tbc":     true,
	"tba":     true,
	"tbd":     true,
	"various": true,
	"unknown": true,
}

// VirtualVenueName is the canonical venue for online-only events.
const VirtualVenueName = "Online"

// virtualVenueAliases maps conferencing-tool names to the canonical
// virtual venue before any other matching runs.
var virtualVenueAliases = map[string]bool{
	"zoom":            true,
	"zoom meeting":    true,
	"zoom webinar":    true,
	"microsoft teams": true,
	"teams":           true,
	"google meet":     true,
	"webinar":         true,
	"online":          true,
	"virtual":         true,
}

// genericNames are base venue names known to denote multiple distinct
// physical sites across the country. They are disambiguated with a
// postcode-area suffix before resolution.
var genericNames = map[string]bool{
	"rectory farm":      true,
	"home farm":         true,
	"manor farm":        true,
	"grange farm":       true,
	"hall farm":         true,
	"church farm":       true,
	"mill farm":         true,
	"college farm":      true,
	"the showground":    true,
	"village hall":      true,
	"the riding school": true,
}

// IsPlaceholder reports whether a venue name is a placeholder token.
func IsPlaceholder(name string) bool {
	return placeholderNames[strings.ToLower(strings.TrimSpace(name))]
}

// IsVirtual reports whether a venue name denotes an online meeting tool.
func IsVirtual(name string) bool {
	return virtualVenueAliases[strings.ToLower(strings.TrimSpace(name))]
}

// CleanName normalizes a raw scraped venue name: collapses whitespace,
// strips wrapping quotes and trailing separator punctuation.
func CleanName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	name = strings.Trim(name, `"'`)
	name = strings.TrimRight(name, " ,;-")
	return strings.TrimSpace(name)
}

// Disambiguate appends a short postcode-area suffix to venue names known
// to be ambiguous across multiple real locations, e.g. "Rectory Farm" +
// "GL7 7JW" -> "Rectory Farm (GL7)". The returned flag marks the venue as
// disambiguated: such venues must only ever receive coordinates derived
// from postcode geocoding, never parser-supplied coordinates.
func Disambiguate(name, postcode string) (string, bool) {
	if postcode == "" || !genericNames[strings.ToLower(name)] {
		return name, false
	}
	outward := geocoding.OutwardCode(postcode)
	if outward == "" {
		return name, false
	}
	return name + " (" + outward + ")", true
}
