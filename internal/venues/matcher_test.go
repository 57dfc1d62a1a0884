package venues

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
)

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Database.Path = filepath.Join(t.TempDir(), "venues_test.db")
	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestMatcher(t *testing.T, store datastore.Interface) *Matcher {
	t.Helper()
	index, err := BuildIndex(store)
	require.NoError(t, err)
	return NewMatcher(store, index)
}

func seedVenue(t *testing.T, store datastore.Interface, name, postcode string) *datastore.Venue {
	t.Helper()
	venue := &datastore.Venue{Name: name, Postcode: postcode, Provenance: datastore.ProvenanceSeed}
	require.NoError(t, store.CreateVenue(venue))
	return venue
}

func TestResolveExactMatchIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	venue := seedVenue(t, store, "Somerford Park", "CW12 4SW")
	matcher := newTestMatcher(t, store)

	match, err := matcher.Resolve("somerford park", "somerford park", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, venue.ID, match.VenueID)
	assert.Equal(t, MatchTypeExact, match.MatchType)
	assert.InDelta(t, 1.0, match.Confidence, 0.0001)
	assert.Equal(t, "Somerford Park", match.CanonicalName)
}

func TestResolveAliasMatch(t *testing.T) {
	store := newTestStore(t)
	venue := seedVenue(t, store, "Hickstead", "RH17 5NU")
	require.NoError(t, store.UpsertVenueAlias(&datastore.VenueAlias{
		Alias: "All England Jumping Course", VenueID: venue.ID, Origin: datastore.AliasOriginSeed,
	}))
	matcher := newTestMatcher(t, store)

	match, err := matcher.Resolve("ALL ENGLAND JUMPING COURSE", "ALL ENGLAND JUMPING COURSE", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, venue.ID, match.VenueID)
	assert.Equal(t, MatchTypeAlias, match.MatchType)
	assert.InDelta(t, 1.0, match.Confidence, 0.0001)
}

func TestResolvePlaceholderWithUniquePostcode(t *testing.T) {
	store := newTestStore(t)
	venue := seedVenue(t, store, "Onley Grounds", "CV23 8AJ")
	matcher := newTestMatcher(t, store)

	match, err := matcher.Resolve("TBC", "TBC", "CV23 8AJ", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, venue.ID, match.VenueID)
	assert.Equal(t, MatchTypePostcode, match.MatchType)
	assert.InDelta(t, 0.95, match.Confidence, 0.0001)
}

func TestResolvePlaceholderWithAmbiguousPostcode(t *testing.T) {
	store := newTestStore(t)
	seedVenue(t, store, "Onley Grounds", "CV23 8AJ")
	seedVenue(t, store, "Onley Livery Yard", "CV23 8AJ")
	matcher := newTestMatcher(t, store)

	match, err := matcher.Resolve("TBC", "TBC", "CV23 8AJ", nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, MatchTypePostcode, match.MatchType,
		"an ambiguous postcode must never produce a postcode match")
}

func TestResolvePlaceholderNeverMatchesPlaceholderVenueByPostcode(t *testing.T) {
	store := newTestStore(t)
	// A previously created placeholder venue with a postcode must not
	// become a postcode match target
	seedVenue(t, store, "TBC", "CV23 8AJ")
	matcher := newTestMatcher(t, store)

	match, err := matcher.Resolve("TBA", "TBA", "CV23 8AJ", nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, MatchTypePostcode, match.MatchType)
}

func TestResolveUnmatchedCreatesVenueThenExactMatches(t *testing.T) {
	store := newTestStore(t)
	matcher := newTestMatcher(t, store)

	first, err := matcher.Resolve("Test Arena", "Test Arena", "SW1A 1AA", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, MatchTypeNew, first.MatchType)
	assert.InDelta(t, 0.0, first.Confidence, 0.0001)
	assert.Equal(t, "Test Arena", first.CanonicalName)
	assert.Equal(t, "SW1A 1AA", first.Postcode)

	// Within the same scan the venue is in the index already
	second, err := matcher.Resolve("test arena", "test arena", "SW1A 1AA", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, MatchTypeExact, second.MatchType)
	assert.Equal(t, first.VenueID, second.VenueID)

	// And it was persisted with dynamic provenance
	venue, err := store.GetVenue(first.VenueID)
	require.NoError(t, err)
	assert.Equal(t, datastore.ProvenanceDynamic, venue.Provenance)
}

func TestResolveVirtualAliasRewrite(t *testing.T) {
	store := newTestStore(t)
	online := seedVenue(t, store, VirtualVenueName, "")
	matcher := newTestMatcher(t, store)

	match, err := matcher.Resolve("Zoom", "Zoom", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, online.ID, match.VenueID)
	assert.Equal(t, MatchTypeExact, match.MatchType)
	assert.Equal(t, VirtualVenueName, match.CanonicalName)
}

func TestResolveAmbiguousPostcodeWithParserCoordsRecordsReview(t *testing.T) {
	store := newTestStore(t)
	seedVenue(t, store, "Onley Grounds", "CV23 8AJ")
	seedVenue(t, store, "Onley Livery Yard", "CV23 8AJ")
	matcher := newTestMatcher(t, store)

	lat, lng := 52.33, -1.28
	_, err := matcher.Resolve("TBC", "TBC", "CV23 8AJ", &lat, &lng)
	require.NoError(t, err)
	// The ambiguous match was parked for manual curation; resolution
	// itself proceeds without a postcode match.
}

func TestIndexPostcodeAmbiguityTracksLateAdds(t *testing.T) {
	store := newTestStore(t)
	seedVenue(t, store, "First Yard", "GL7 7JW")
	index, err := BuildIndex(store)
	require.NoError(t, err)

	if _, ok := index.LookupPostcode("GL7 7JW"); !ok {
		t.Fatal("expected unique postcode lookup to succeed")
	}

	index.Add(Info{ID: 999, Name: "Second Yard", Postcode: "GL7 7JW"})
	_, ok := index.LookupPostcode("GL7 7JW")
	assert.False(t, ok, "postcode shared by two venues must stop matching")
	assert.True(t, index.PostcodeAmbiguous("GL7 7JW"))
}
