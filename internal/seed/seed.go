// Package seed reconciles the source, venue and discipline registries with
// the embedded catalog, and backfills competitions stuck on placeholder
// venues. Reconciliation is idempotent: running it twice changes nothing.
package seed

import (
	_ "embed"
	"log"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/errors"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
	"github.com/hoofbeat/hoofbeat-go/internal/logging"
)

// Package-level logger specific to seeding
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	logger, _, err = logging.NewFileLogger("logs/seed.log", "seed", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize seed file logger: %v, logging disabled for service", err)
		logger = logging.NewDiscardLogger("seed", serviceLevelVar)
	}
}

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the static registry shipped with the binary.
type Catalog struct {
	Sources []struct {
		Name        string `yaml:"name"`
		URL         string `yaml:"url"`
		ParserKey   string `yaml:"parserkey"`
		Affiliation string `yaml:"affiliation"`
	} `yaml:"sources"`
	Venues []struct {
		Name      string   `yaml:"name"`
		Postcode  string   `yaml:"postcode"`
		Latitude  *float64 `yaml:"latitude"`
		Longitude *float64 `yaml:"longitude"`
	} `yaml:"venues"`
	VenueAliases []struct {
		Alias string `yaml:"alias"`
		Venue string `yaml:"venue"`
	} `yaml:"venue_aliases"`
	DisciplineAliases []struct {
		Alias     string `yaml:"alias"`
		Canonical string `yaml:"canonical"`
		EventType string `yaml:"eventtype"`
	} `yaml:"discipline_aliases"`
}

// LoadCatalog parses the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
		return nil, errors.New(err).
			Component("seed").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &catalog, nil
}

// Reconciler synchronizes the registries with the catalog.
type Reconciler struct {
	settings *conf.Settings
	store    datastore.Interface
}

// NewReconciler creates a reconciler over the shared store.
func NewReconciler(settings *conf.Settings, store datastore.Interface) *Reconciler {
	return &Reconciler{settings: settings, store: store}
}

// Reconcile applies the embedded catalog: sources are upserted by parser
// key, venues by name, aliases by alias text. Existing venues keep their
// data; the catalog only fills gaps.
func (r *Reconciler) Reconcile() error {
	catalog, err := LoadCatalog()
	if err != nil {
		return err
	}
	return r.store.Transaction(func(tx datastore.Interface) error {
		if err := r.reconcileSources(tx, catalog); err != nil {
			return err
		}
		if err := r.reconcileVenues(tx, catalog); err != nil {
			return err
		}
		if err := r.reconcileVenueAliases(tx, catalog); err != nil {
			return err
		}
		return r.reconcileDisciplineAliases(tx, catalog)
	})
}

func (r *Reconciler) reconcileSources(tx datastore.Interface, catalog *Catalog) error {
	for _, entry := range catalog.Sources {
		source := &datastore.Source{
			Name:        entry.Name,
			URL:         entry.URL,
			ParserKey:   entry.ParserKey,
			Affiliation: entry.Affiliation,
			Enabled:     true,
		}
		if err := tx.UpsertSource(source); err != nil {
			return err
		}
	}
	logger.Info("sources reconciled", "count", len(catalog.Sources))
	return nil
}

// reconcileVenues creates missing seed venues and backfills postcode and
// coordinates on existing ones that lack them. Coordinates already present
// are never overwritten.
func (r *Reconciler) reconcileVenues(tx datastore.Interface, catalog *Catalog) error {
	for _, entry := range catalog.Venues {
		existing, err := tx.GetVenueByName(entry.Name)
		switch {
		case err == nil:
			changed := false
			if existing.Postcode == "" && entry.Postcode != "" {
				existing.Postcode = geocoding.NormalizePostcode(entry.Postcode)
				changed = true
			}
			if !existing.HasCoordinates() && entry.Latitude != nil && entry.Longitude != nil {
				existing.Latitude = entry.Latitude
				existing.Longitude = entry.Longitude
				existing.ValidationSource = "seed"
				r.setDistance(&existing)
				changed = true
			}
			if changed {
				if err := tx.SaveVenue(&existing); err != nil {
					return err
				}
			}
		case datastore.IsNotFound(err):
			venue := datastore.Venue{
				Name:       entry.Name,
				Postcode:   geocoding.NormalizePostcode(entry.Postcode),
				Latitude:   entry.Latitude,
				Longitude:  entry.Longitude,
				Provenance: datastore.ProvenanceSeed,
			}
			if venue.HasCoordinates() {
				venue.ValidationSource = "seed"
				r.setDistance(&venue)
			}
			if err := tx.CreateVenue(&venue); err != nil {
				return err
			}
		default:
			return err
		}
	}
	logger.Info("venues reconciled", "count", len(catalog.Venues))
	return nil
}

// reconcileVenueAliases records each catalog alias. An alias whose text is
// currently the name of a dynamically-created venue triggers a migration:
// that venue's competitions move to the canonical venue and the duplicate
// venue is removed.
func (r *Reconciler) reconcileVenueAliases(tx datastore.Interface, catalog *Catalog) error {
	for _, entry := range catalog.VenueAliases {
		target, err := tx.GetVenueByName(entry.Venue)
		if err != nil {
			return errors.New(err).
				Component("seed").
				Category(errors.CategoryConfiguration).
				Context("alias", entry.Alias).
				Context("venue", entry.Venue).
				Build()
		}

		origin := datastore.AliasOriginSeed
		if duplicate, err := tx.GetVenueByName(entry.Alias); err == nil && duplicate.ID != target.ID {
			if err := r.migrateVenue(tx, duplicate, target); err != nil {
				return err
			}
			origin = datastore.AliasOriginMigrated
		}

		alias := &datastore.VenueAlias{Alias: entry.Alias, VenueID: target.ID, Origin: origin}
		if err := tx.UpsertVenueAlias(alias); err != nil {
			return err
		}
	}
	logger.Info("venue aliases reconciled", "count", len(catalog.VenueAliases))
	return nil
}

// migrateVenue moves every competition off a duplicate venue onto its
// canonical venue, then deletes the duplicate.
func (r *Reconciler) migrateVenue(tx datastore.Interface, duplicate, target datastore.Venue) error {
	competitions, err := tx.GetCompetitionsByVenue(duplicate.ID)
	if err != nil {
		return err
	}
	for i := range competitions {
		targetID := target.ID
		competitions[i].VenueID = &targetID
		competitions[i].VenueMatchType = "alias"
		if err := tx.SaveCompetition(&competitions[i]); err != nil {
			return err
		}
	}
	logger.Info("migrated duplicate venue",
		"duplicate", duplicate.Name, "canonical", target.Name, "competitions", len(competitions))
	return tx.DeleteVenue(duplicate.ID)
}

func (r *Reconciler) reconcileDisciplineAliases(tx datastore.Interface, catalog *Catalog) error {
	for _, entry := range catalog.DisciplineAliases {
		alias := &datastore.DisciplineAlias{
			Alias:     entry.Alias,
			Canonical: entry.Canonical,
			EventType: entry.EventType,
		}
		if err := tx.UpsertDisciplineAlias(alias); err != nil {
			return err
		}
	}
	logger.Info("discipline aliases reconciled", "count", len(catalog.DisciplineAliases))
	return nil
}

func (r *Reconciler) setDistance(venue *datastore.Venue) {
	if !venue.HasCoordinates() {
		return
	}
	distance := geocoding.Haversine(
		r.settings.Home.Latitude, r.settings.Home.Longitude,
		*venue.Latitude, *venue.Longitude)
	venue.DistanceMiles = &distance
}
