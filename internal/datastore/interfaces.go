// interfaces.go defines the interface for the database operations
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
)

// Interface abstracts the underlying database implementation and defines
// the operations the pipeline needs.
type Interface interface {
	Open() error
	Close() error

	// Transaction runs fn against a transaction-scoped store. A non-nil
	// error from fn rolls the transaction back.
	Transaction(fn func(tx Interface) error) error

	// Sources
	UpsertSource(source *Source) error
	GetSource(id uint) (Source, error)
	GetSourceByParserKey(key string) (Source, error)
	GetEnabledSources() ([]Source, error)
	UpdateSourceLastScanned(id uint, scannedAt time.Time) error

	// Venues and aliases
	GetAllVenues() ([]Venue, error)
	GetVenue(id uint) (Venue, error)
	GetVenueByName(name string) (Venue, error)
	CreateVenue(venue *Venue) error
	SaveVenue(venue *Venue) error
	DeleteVenue(id uint) error
	GetAllVenueAliases() ([]VenueAlias, error)
	UpsertVenueAlias(alias *VenueAlias) error
	GetAllDisciplineAliases() ([]DisciplineAlias, error)
	UpsertDisciplineAlias(alias *DisciplineAlias) error

	// Competitions
	FindCompetition(sourceID uint, name string, startDate time.Time, venueID *uint) (*Competition, error)
	FindCompetitionAcrossSources(excludeSourceID uint, name string, startDate time.Time, venueID *uint) (*Competition, error)
	CreateCompetition(competition *Competition) error
	SaveCompetition(competition *Competition) error
	GetCompetitionsByVenue(venueID uint) ([]Competition, error)
	CountCompetitionsByVenue(venueID uint) (int64, error)

	// Venue match reviews
	CreateVenueMatchReview(review *VenueMatchReview) error

	// Scans
	CreateScan(scan *Scan) error
	SaveScan(scan *Scan) error
	GetScan(id uint) (Scan, error)
	GetRecentScans(limit int) ([]Scan, error)
	GetActiveScanSourceIDs() (map[uint]bool, error)
	FailInterruptedScans(message string) (int64, error)
	GetPreviousCompletedScan(sourceID, beforeScanID uint) (*Scan, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a new datastore based on the provided settings. SQLite is
// the only supported backend.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{Settings: settings}
}

// Transaction runs fn inside a database transaction. The store passed to
// fn shares the transaction handle, so every operation inside fn commits
// or rolls back atomically.
func (ds *DataStore) Transaction(fn func(tx Interface) error) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&DataStore{DB: tx})
	})
}

// Open is a no-op on a transaction-scoped or already-open store.
func (ds *DataStore) Open() error { return nil }

// Close is a no-op on a transaction-scoped store.
func (ds *DataStore) Close() error { return nil }
