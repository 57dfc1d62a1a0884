package seed

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/parsers"
)

func newTestReconciler(t *testing.T) (*Reconciler, datastore.Interface) {
	t.Helper()
	settings := &conf.Settings{}
	settings.Database.Path = filepath.Join(t.TempDir(), "seed_test.db")
	settings.Home.Latitude = 52.04
	settings.Home.Longitude = -1.34

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	return NewReconciler(settings, store), store
}

func createCompetition(t *testing.T, store datastore.Interface, sourceID, venueID uint, name string, rawData string) *datastore.Competition {
	t.Helper()
	now := time.Now()
	vid := venueID
	competition := &datastore.Competition{
		SourceID:  sourceID,
		Name:      name,
		StartDate: now,
		VenueID:   &vid,
		EventType: datastore.EventTypeCompetition,
		RawData:   rawData,
		FirstSeen: now,
		LastSeen:  now,
	}
	require.NoError(t, store.CreateCompetition(competition))
	return competition
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	assert.NotEmpty(t, catalog.Sources)
	assert.NotEmpty(t, catalog.Venues)
	assert.NotEmpty(t, catalog.VenueAliases)
	assert.NotEmpty(t, catalog.DisciplineAliases)

	for _, source := range catalog.Sources {
		assert.NotEmpty(t, source.ParserKey, "source %q needs a parser key", source.Name)
		assert.NotEmpty(t, source.URL, "source %q needs a URL", source.Name)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	reconciler, store := newTestReconciler(t)

	require.NoError(t, reconciler.Reconcile())

	venuesAfterFirst, err := store.GetAllVenues()
	require.NoError(t, err)
	sourcesAfterFirst, err := store.GetEnabledSources()
	require.NoError(t, err)

	require.NoError(t, reconciler.Reconcile())

	venuesAfterSecond, err := store.GetAllVenues()
	require.NoError(t, err)
	sourcesAfterSecond, err := store.GetEnabledSources()
	require.NoError(t, err)

	assert.Len(t, venuesAfterSecond, len(venuesAfterFirst))
	assert.Len(t, sourcesAfterSecond, len(sourcesAfterFirst))
}

func TestReconcileSeedsVenueWithDistance(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	require.NoError(t, reconciler.Reconcile())

	venue, err := store.GetVenueByName("Somerford Park")
	require.NoError(t, err)
	assert.Equal(t, datastore.ProvenanceSeed, venue.Provenance)
	assert.Equal(t, "CW12 4SW", venue.Postcode)
	require.True(t, venue.HasCoordinates())
	require.NotNil(t, venue.DistanceMiles)
	assert.Greater(t, *venue.DistanceMiles, 0.0)
}

func TestReconcileFillsGapsOnExistingVenue(t *testing.T) {
	reconciler, store := newTestReconciler(t)

	// A dynamically-created venue with no postcode or coordinates
	existing := &datastore.Venue{Name: "Hartpury", Provenance: datastore.ProvenanceDynamic}
	require.NoError(t, store.CreateVenue(existing))

	require.NoError(t, reconciler.Reconcile())

	venue, err := store.GetVenueByName("Hartpury")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, venue.ID, "reconcile must not create a duplicate")
	assert.Equal(t, "GL19 3BE", venue.Postcode)
	assert.True(t, venue.HasCoordinates())
	// Provenance records how the venue came to exist, not who filled it in
	assert.Equal(t, datastore.ProvenanceDynamic, venue.Provenance)
}

func TestReconcileDoesNotOverwriteCoordinates(t *testing.T) {
	reconciler, store := newTestReconciler(t)

	lat, lng := 51.0, -1.0
	existing := &datastore.Venue{Name: "Hickstead", Latitude: &lat, Longitude: &lng}
	require.NoError(t, store.CreateVenue(existing))

	require.NoError(t, reconciler.Reconcile())

	venue, err := store.GetVenueByName("Hickstead")
	require.NoError(t, err)
	assert.InDelta(t, 51.0, *venue.Latitude, 0.0001)
}

func TestReconcileMigratesDuplicateVenue(t *testing.T) {
	reconciler, store := newTestReconciler(t)

	source := datastore.Source{Name: "S", URL: "https://s.test", ParserKey: "seed_test_migrate", Enabled: true}
	require.NoError(t, store.UpsertSource(&source))

	// "Somerford Pk" is a catalog alias of "Somerford Park", but a prior
	// scan created it as its own venue with a competition attached
	duplicate := &datastore.Venue{Name: "Somerford Pk", Provenance: datastore.ProvenanceDynamic}
	require.NoError(t, store.CreateVenue(duplicate))
	competition := createCompetition(t, store, source.ID, duplicate.ID, "Spring Camp", "")

	require.NoError(t, reconciler.Reconcile())

	canonical, err := store.GetVenueByName("Somerford Park")
	require.NoError(t, err)

	migrated, err := store.GetCompetitionsByVenue(canonical.ID)
	require.NoError(t, err)
	require.Len(t, migrated, 1)
	assert.Equal(t, competition.ID, migrated[0].ID)

	_, err = store.GetVenue(duplicate.ID)
	assert.Error(t, err, "the duplicate venue is removed after migration")

	aliases, err := store.GetAllVenueAliases()
	require.NoError(t, err)
	var origin string
	for _, alias := range aliases {
		if alias.Alias == "Somerford Pk" {
			origin = alias.Origin
		}
	}
	assert.Equal(t, datastore.AliasOriginMigrated, origin)
}

func TestBackfillPlaceholders(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	require.NoError(t, reconciler.Reconcile())

	source := datastore.Source{Name: "S", URL: "https://s.test", ParserKey: "seed_test_backfill", Enabled: true}
	require.NoError(t, store.UpsertSource(&source))

	placeholder := &datastore.Venue{Name: "TBC", Provenance: datastore.ProvenanceDynamic}
	require.NoError(t, store.CreateVenue(placeholder))

	raw, err := json.Marshal(parsers.ExtractedCompetition{
		Name:          "Winter League",
		StartDate:     "2026-01-10",
		VenueName:     "TBC",
		VenuePostcode: "CW12 4SW",
	})
	require.NoError(t, err)
	competition := createCompetition(t, store, source.ID, placeholder.ID, "Winter League", string(raw))

	require.NoError(t, reconciler.BackfillPlaceholders())

	somerford, err := store.GetVenueByName("Somerford Park")
	require.NoError(t, err)
	moved, err := store.GetCompetitionsByVenue(somerford.ID)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, competition.ID, moved[0].ID)
	assert.Equal(t, "postcode", moved[0].VenueMatchType)

	_, err = store.GetVenue(placeholder.ID)
	assert.Error(t, err, "the emptied placeholder venue is removed")
}

func TestBackfillKeepsUnresolvedPlaceholder(t *testing.T) {
	reconciler, store := newTestReconciler(t)
	require.NoError(t, reconciler.Reconcile())

	source := datastore.Source{Name: "S", URL: "https://s.test", ParserKey: "seed_test_keep", Enabled: true}
	require.NoError(t, store.UpsertSource(&source))

	placeholder := &datastore.Venue{Name: "TBA", Provenance: datastore.ProvenanceDynamic}
	require.NoError(t, store.CreateVenue(placeholder))

	raw, err := json.Marshal(parsers.ExtractedCompetition{
		Name: "Mystery Event", StartDate: "2026-01-10", VenueName: "TBA",
	})
	require.NoError(t, err)
	createCompetition(t, store, source.ID, placeholder.ID, "Mystery Event", string(raw))

	require.NoError(t, reconciler.BackfillPlaceholders())

	venue, err := store.GetVenue(placeholder.ID)
	require.NoError(t, err, "a placeholder with unresolved competitions stays")
	count, err := store.CountCompetitionsByVenue(venue.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
