package venues

import (
	"log"
	"log/slog"

	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/errors"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
	"github.com/hoofbeat/hoofbeat-go/internal/logging"
)

// Package-level logger specific to the venue matcher
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	logger, _, err = logging.NewFileLogger("logs/venues.log", "venues", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize venues file logger: %v, logging disabled for service", err)
		logger = logging.NewDiscardLogger("venues", serviceLevelVar)
	}
}

// Match types, the strategy that produced a venue resolution.
const (
	MatchTypeExact    = "exact"
	MatchTypeAlias    = "alias"
	MatchTypePostcode = "postcode"
	MatchTypeNew      = "new"
)

// Confidence assigned to a placeholder resolved through its postcode.
const postcodeMatchConfidence = 0.95

// Match is the result of resolving a raw venue name.
type Match struct {
	VenueID       uint
	CanonicalName string
	Confidence    float64
	MatchType     string
	Postcode      string
	Latitude      *float64
	Longitude     *float64
}

// Matcher resolves venue names against the scan-local index, creating new
// venues for names nothing matches.
type Matcher struct {
	store datastore.Interface
	index *Index
}

// NewMatcher creates a matcher over an index built for the current scan.
// The store is used to persist venues created for unmatched names; during
// a scan it is the scan's transaction-scoped store.
func NewMatcher(store datastore.Interface, index *Index) *Matcher {
	return &Matcher{store: store, index: index}
}

// Index returns the matcher's in-memory index.
func (m *Matcher) Index() *Index {
	return m.index
}

// Resolve matches a venue name using the strategy priority order: virtual
// aliasing, placeholder-plus-postcode, exact name, alias, then creation of
// a new venue. First match wins.
func (m *Matcher) Resolve(rawName, cleanedName, postcode string, parserLat, parserLng *float64) (*Match, error) {
	name := cleanedName

	// 1. Virtual-venue aliasing rewrites conferencing-tool names before
	// any other matching.
	if IsVirtual(name) {
		name = VirtualVenueName
	}

	// 2. Placeholder + postcode resolution runs before exact matching so
	// a placeholder never satisfies a real venue's name.
	if IsPlaceholder(name) && postcode != "" {
		if id, ok := m.index.LookupPostcode(postcode); ok {
			return m.matchFromIndex(id, MatchTypePostcode, postcodeMatchConfidence), nil
		}
		if m.index.PostcodeAmbiguous(postcode) && parserLat != nil && parserLng != nil {
			// Parser knew where this is but the postcode alone cannot
			// decide between venues; park it for manual review.
			review := &datastore.VenueMatchReview{
				RawName:         rawName,
				NormalizedName:  name,
				Confidence:      0,
				ParserLatitude:  parserLat,
				ParserLongitude: parserLng,
				Status:          datastore.ReviewStatusPending,
			}
			if err := m.store.CreateVenueMatchReview(review); err != nil {
				logger.Warn("failed to record venue match review", "raw_name", rawName, "error", err)
			}
		}
	}

	// 3. Exact name match.
	if id, ok := m.index.LookupName(name); ok {
		return m.matchFromIndex(id, MatchTypeExact, 1.0), nil
	}

	// 4. Alias match resolved to its canonical venue.
	if id, ok := m.index.LookupAlias(name); ok {
		return m.matchFromIndex(id, MatchTypeAlias, 1.0), nil
	}

	// 5. No match: create the venue and register it immediately so later
	// records in this scan exact-match it.
	venue := &datastore.Venue{
		Name:       name,
		Postcode:   geocoding.NormalizePostcode(postcode),
		Provenance: datastore.ProvenanceDynamic,
	}
	if err := m.store.CreateVenue(venue); err != nil {
		return nil, errors.New(err).
			Component("venues").
			Category(errors.CategoryDatabase).
			Context("venue", name).
			Build()
	}
	m.index.Add(Info{ID: venue.ID, Name: venue.Name, Postcode: venue.Postcode})

	logger.Info("created new venue", "venue", name, "postcode", venue.Postcode)
	return &Match{
		VenueID:       venue.ID,
		CanonicalName: venue.Name,
		Confidence:    0.0,
		MatchType:     MatchTypeNew,
		Postcode:      venue.Postcode,
	}, nil
}

// matchFromIndex builds a match record from the indexed venue projection.
func (m *Matcher) matchFromIndex(id uint, matchType string, confidence float64) *Match {
	info, _ := m.index.Venue(id)
	return &Match{
		VenueID:       id,
		CanonicalName: info.Name,
		Confidence:    confidence,
		MatchType:     matchType,
		Postcode:      info.Postcode,
		Latitude:      info.Latitude,
		Longitude:     info.Longitude,
	}
}
