package venues

import (
	"strings"

	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
)

// Info is the in-memory projection of a venue used during matching.
type Info struct {
	ID        uint
	Name      string
	Postcode  string
	Latitude  *float64
	Longitude *float64
}

// Index is the scan-local in-memory venue index. It is built once per
// scan execution from the full venue and alias registries and is not
// shared across concurrent scans.
type Index struct {
	byName             map[string]uint // lower(name) -> venue id
	byAlias            map[string]uint // lower(alias) -> canonical venue id
	byPostcode         map[string]uint // normalized postcode -> sole non-placeholder venue id
	ambiguousPostcodes map[string]bool // postcodes shared by 2+ non-placeholder venues
	venues             map[uint]Info
}

// BuildIndex loads the venue and alias registries into a fresh index.
func BuildIndex(store datastore.Interface) (*Index, error) {
	idx := &Index{
		byName:             make(map[string]uint),
		byAlias:            make(map[string]uint),
		byPostcode:         make(map[string]uint),
		ambiguousPostcodes: make(map[string]bool),
		venues:             make(map[uint]Info),
	}

	allVenues, err := store.GetAllVenues()
	if err != nil {
		return nil, err
	}
	for i := range allVenues {
		v := &allVenues[i]
		idx.Add(Info{
			ID:        v.ID,
			Name:      v.Name,
			Postcode:  v.Postcode,
			Latitude:  v.Latitude,
			Longitude: v.Longitude,
		})
	}

	aliases, err := store.GetAllVenueAliases()
	if err != nil {
		return nil, err
	}
	for i := range aliases {
		idx.byAlias[strings.ToLower(aliases[i].Alias)] = aliases[i].VenueID
	}

	return idx, nil
}

// Add registers a venue in the index. Newly created venues are added
// during a scan so later records in the same scan resolve to them instead
// of creating duplicates.
func (idx *Index) Add(info Info) {
	idx.byName[strings.ToLower(info.Name)] = info.ID
	idx.venues[info.ID] = info

	// Placeholder venues never participate in postcode resolution
	if info.Postcode == "" || IsPlaceholder(info.Name) {
		return
	}
	postcode := geocoding.NormalizePostcode(info.Postcode)
	if idx.ambiguousPostcodes[postcode] {
		return
	}
	if existing, ok := idx.byPostcode[postcode]; ok && existing != info.ID {
		// Two or more venues share this postcode, a postcode match would
		// be a guess; exclude it entirely.
		delete(idx.byPostcode, postcode)
		idx.ambiguousPostcodes[postcode] = true
		return
	}
	idx.byPostcode[postcode] = info.ID
}

// LookupName returns the venue id for an exact, case-insensitive name.
func (idx *Index) LookupName(name string) (uint, bool) {
	id, ok := idx.byName[strings.ToLower(name)]
	return id, ok
}

// LookupAlias returns the canonical venue id for an alias.
func (idx *Index) LookupAlias(name string) (uint, bool) {
	id, ok := idx.byAlias[strings.ToLower(name)]
	return id, ok
}

// LookupPostcode returns the sole non-placeholder venue for a postcode.
// Ambiguous postcodes never match.
func (idx *Index) LookupPostcode(postcode string) (uint, bool) {
	id, ok := idx.byPostcode[geocoding.NormalizePostcode(postcode)]
	return id, ok
}

// PostcodeAmbiguous reports whether 2+ venues share the postcode.
func (idx *Index) PostcodeAmbiguous(postcode string) bool {
	return idx.ambiguousPostcodes[geocoding.NormalizePostcode(postcode)]
}

// Venue returns the indexed projection of a venue.
func (idx *Index) Venue(id uint) (Info, bool) {
	info, ok := idx.venues[id]
	return info, ok
}

// Size returns the number of indexed venues.
func (idx *Index) Size() int {
	return len(idx.venues)
}
