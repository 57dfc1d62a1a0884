package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/hoofbeat/hoofbeat-go/internal/errors"
)

// dedupScope narrows a query to the (name, start date, venue) triple. The
// venue side matches NULL when the record resolved to no venue.
func dedupScope(name string, startDate time.Time, venueID *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("name = ? AND start_date = ?", name, startDate)
		if venueID == nil {
			return db.Where("venue_id IS NULL")
		}
		return db.Where("venue_id = ?", *venueID)
	}
}

// FindCompetition looks up the dedup triple within one source. A nil
// result with nil error means no match.
func (ds *DataStore) FindCompetition(sourceID uint, name string, startDate time.Time, venueID *uint) (*Competition, error) {
	var competition Competition
	err := ds.DB.Scopes(dedupScope(name, startDate, venueID)).
		Where("source_id = ?", sourceID).
		First(&competition).Error
	if errors.Is(err, errRecordNotFound()) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return &competition, nil
}

// FindCompetitionAcrossSources looks up the dedup triple on any other
// source, merging duplicate listings of the same real-world event.
func (ds *DataStore) FindCompetitionAcrossSources(excludeSourceID uint, name string, startDate time.Time, venueID *uint) (*Competition, error) {
	var competition Competition
	err := ds.DB.Scopes(dedupScope(name, startDate, venueID)).
		Where("source_id <> ?", excludeSourceID).
		First(&competition).Error
	if errors.Is(err, errRecordNotFound()) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return &competition, nil
}

// CreateCompetition inserts a newly discovered competition.
func (ds *DataStore) CreateCompetition(competition *Competition) error {
	if err := ds.DB.Create(competition).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Context("name", competition.Name).Build()
	}
	return nil
}

// SaveCompetition persists in-place updates made on a rescan.
func (ds *DataStore) SaveCompetition(competition *Competition) error {
	if err := ds.DB.Save(competition).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Context("name", competition.Name).Build()
	}
	return nil
}

// GetCompetitionsByVenue returns all competitions attached to a venue,
// used by the placeholder backfill.
func (ds *DataStore) GetCompetitionsByVenue(venueID uint) ([]Competition, error) {
	var competitions []Competition
	if err := ds.DB.Where("venue_id = ?", venueID).Find(&competitions).Error; err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return competitions, nil
}

// CountCompetitionsByVenue counts competitions attached to a venue.
func (ds *DataStore) CountCompetitionsByVenue(venueID uint) (int64, error) {
	var count int64
	if err := ds.DB.Model(&Competition{}).Where("venue_id = ?", venueID).Count(&count).Error; err != nil {
		return 0, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return count, nil
}
