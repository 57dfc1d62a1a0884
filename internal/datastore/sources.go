package datastore

import (
	"time"

	"github.com/hoofbeat/hoofbeat-go/internal/errors"
)

// UpsertSource creates the source if its parser key is unknown, otherwise
// refreshes name, URL and affiliation in place. Enabled and last-scanned
// state of an existing source is preserved.
func (ds *DataStore) UpsertSource(source *Source) error {
	var existing Source
	err := ds.DB.Where("parser_key = ?", source.ParserKey).First(&existing).Error
	switch {
	case err == nil:
		existing.Name = source.Name
		existing.URL = source.URL
		existing.Affiliation = source.Affiliation
		if err := ds.DB.Save(&existing).Error; err != nil {
			return errors.New(err).Category(errors.CategoryDatabase).Context("parser_key", source.ParserKey).Build()
		}
		*source = existing
		return nil
	case errors.Is(err, errRecordNotFound()):
		if err := ds.DB.Create(source).Error; err != nil {
			return errors.New(err).Category(errors.CategoryDatabase).Context("parser_key", source.ParserKey).Build()
		}
		return nil
	default:
		return errors.New(err).Category(errors.CategoryDatabase).Build()
	}
}

// GetSource retrieves a source by id.
func (ds *DataStore) GetSource(id uint) (Source, error) {
	var source Source
	if err := ds.DB.First(&source, id).Error; err != nil {
		return Source{}, wrapNotFound(err, "source", id)
	}
	return source, nil
}

// GetSourceByParserKey retrieves a source by its parser key.
func (ds *DataStore) GetSourceByParserKey(key string) (Source, error) {
	var source Source
	if err := ds.DB.Where("parser_key = ?", key).First(&source).Error; err != nil {
		return Source{}, wrapNotFound(err, "source", key)
	}
	return source, nil
}

// GetEnabledSources returns all sources eligible for scanning.
func (ds *DataStore) GetEnabledSources() ([]Source, error) {
	var sources []Source
	if err := ds.DB.Where("enabled = ?", true).Order("id").Find(&sources).Error; err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return sources, nil
}

// UpdateSourceLastScanned records the completion time of the latest scan.
func (ds *DataStore) UpdateSourceLastScanned(id uint, scannedAt time.Time) error {
	if err := ds.DB.Model(&Source{}).Where("id = ?", id).
		Update("last_scanned_at", scannedAt).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Context("source_id", id).Build()
	}
	return nil
}
