package datastore

import (
	"github.com/hoofbeat/hoofbeat-go/internal/errors"
)

// GetAllVenues returns the full venue registry, used to build the per-scan
// match index.
func (ds *DataStore) GetAllVenues() ([]Venue, error) {
	var venues []Venue
	if err := ds.DB.Order("id").Find(&venues).Error; err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return venues, nil
}

// GetVenue retrieves a venue by id.
func (ds *DataStore) GetVenue(id uint) (Venue, error) {
	var venue Venue
	if err := ds.DB.First(&venue, id).Error; err != nil {
		return Venue{}, wrapNotFound(err, "venue", id)
	}
	return venue, nil
}

// GetVenueByName retrieves a venue by exact name, case-insensitively.
func (ds *DataStore) GetVenueByName(name string) (Venue, error) {
	var venue Venue
	if err := ds.DB.Where("name = ? COLLATE NOCASE", name).First(&venue).Error; err != nil {
		return Venue{}, wrapNotFound(err, "venue", name)
	}
	return venue, nil
}

// CreateVenue inserts a new venue.
func (ds *DataStore) CreateVenue(venue *Venue) error {
	if err := ds.DB.Create(venue).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Context("venue", venue.Name).Build()
	}
	return nil
}

// SaveVenue persists in-place mutations such as postcode or coordinate
// backfill.
func (ds *DataStore) SaveVenue(venue *Venue) error {
	if err := ds.DB.Save(venue).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Context("venue", venue.Name).Build()
	}
	return nil
}

// DeleteVenue removes a venue row. Used only by placeholder cleanup.
func (ds *DataStore) DeleteVenue(id uint) error {
	if err := ds.DB.Delete(&Venue{}, id).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Context("venue_id", id).Build()
	}
	return nil
}

// GetAllVenueAliases returns the full alias registry.
func (ds *DataStore) GetAllVenueAliases() ([]VenueAlias, error) {
	var aliases []VenueAlias
	if err := ds.DB.Order("id").Find(&aliases).Error; err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return aliases, nil
}

// UpsertVenueAlias creates the alias if missing, or repoints an existing
// alias at a different canonical venue.
func (ds *DataStore) UpsertVenueAlias(alias *VenueAlias) error {
	var existing VenueAlias
	err := ds.DB.Where("alias = ?", alias.Alias).First(&existing).Error
	switch {
	case err == nil:
		if existing.VenueID == alias.VenueID {
			*alias = existing
			return nil
		}
		existing.VenueID = alias.VenueID
		existing.Origin = alias.Origin
		if err := ds.DB.Save(&existing).Error; err != nil {
			return errors.New(err).Category(errors.CategoryDatabase).Context("alias", alias.Alias).Build()
		}
		*alias = existing
		return nil
	case errors.Is(err, errRecordNotFound()):
		if err := ds.DB.Create(alias).Error; err != nil {
			return errors.New(err).Category(errors.CategoryDatabase).Context("alias", alias.Alias).Build()
		}
		return nil
	default:
		return errors.New(err).Category(errors.CategoryDatabase).Build()
	}
}

// GetAllDisciplineAliases returns the discipline alias registry.
func (ds *DataStore) GetAllDisciplineAliases() ([]DisciplineAlias, error) {
	var aliases []DisciplineAlias
	if err := ds.DB.Order("id").Find(&aliases).Error; err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return aliases, nil
}

// UpsertDisciplineAlias creates or refreshes a discipline alias mapping.
func (ds *DataStore) UpsertDisciplineAlias(alias *DisciplineAlias) error {
	var existing DisciplineAlias
	err := ds.DB.Where("alias = ?", alias.Alias).First(&existing).Error
	switch {
	case err == nil:
		if existing.Canonical == alias.Canonical && existing.EventType == alias.EventType {
			*alias = existing
			return nil
		}
		existing.Canonical = alias.Canonical
		existing.EventType = alias.EventType
		if err := ds.DB.Save(&existing).Error; err != nil {
			return errors.New(err).Category(errors.CategoryDatabase).Context("alias", alias.Alias).Build()
		}
		*alias = existing
		return nil
	case errors.Is(err, errRecordNotFound()):
		if err := ds.DB.Create(alias).Error; err != nil {
			return errors.New(err).Category(errors.CategoryDatabase).Context("alias", alias.Alias).Build()
		}
		return nil
	default:
		return errors.New(err).Category(errors.CategoryDatabase).Build()
	}
}

// CreateVenueMatchReview records an ambiguous match for manual curation.
func (ds *DataStore) CreateVenueMatchReview(review *VenueMatchReview) error {
	if err := ds.DB.Create(review).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Context("raw_name", review.RawName).Build()
	}
	return nil
}
