package datastore

import (
	"github.com/hoofbeat/hoofbeat-go/internal/errors"
)

// CreateScan records a new scan request in pending state.
func (ds *DataStore) CreateScan(scan *Scan) error {
	if scan.Status == "" {
		scan.Status = ScanStatusPending
	}
	if err := ds.DB.Create(scan).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return nil
}

// SaveScan persists scan state transitions and result counts.
func (ds *DataStore) SaveScan(scan *Scan) error {
	if err := ds.DB.Save(scan).Error; err != nil {
		return errors.New(err).Category(errors.CategoryDatabase).Context("scan_id", scan.ID).Build()
	}
	return nil
}

// GetScan retrieves a scan by id.
func (ds *DataStore) GetScan(id uint) (Scan, error) {
	var scan Scan
	if err := ds.DB.First(&scan, id).Error; err != nil {
		return Scan{}, wrapNotFound(err, "scan", id)
	}
	return scan, nil
}

// GetRecentScans returns scans most recent first.
func (ds *DataStore) GetRecentScans(limit int) ([]Scan, error) {
	var scans []Scan
	if err := ds.DB.Order("created_at DESC, id DESC").Limit(limit).Find(&scans).Error; err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return scans, nil
}

// GetActiveScanSourceIDs returns the set of source ids that currently have
// a pending or running scan, so new scans against them can be skipped.
func (ds *DataStore) GetActiveScanSourceIDs() (map[uint]bool, error) {
	var sourceIDs []uint
	err := ds.DB.Model(&Scan{}).
		Where("status IN ? AND source_id IS NOT NULL", []string{ScanStatusPending, ScanStatusRunning}).
		Pluck("source_id", &sourceIDs).Error
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	active := make(map[uint]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		active[id] = true
	}
	return active, nil
}

// FailInterruptedScans transitions every scan left in pending or running
// state to failed with the given message. Called once at startup so a
// crash never leaves a scan open.
func (ds *DataStore) FailInterruptedScans(message string) (int64, error) {
	result := ds.DB.Model(&Scan{}).
		Where("status IN ?", []string{ScanStatusPending, ScanStatusRunning}).
		Updates(map[string]any{
			"status": ScanStatusFailed,
			"error":  message,
		})
	if result.Error != nil {
		return 0, errors.New(result.Error).Category(errors.CategoryDatabase).Build()
	}
	return result.RowsAffected, nil
}

// GetPreviousCompletedScan returns the most recent completed scan for the
// source before the given scan id, or nil when none exists.
func (ds *DataStore) GetPreviousCompletedScan(sourceID, beforeScanID uint) (*Scan, error) {
	var scan Scan
	err := ds.DB.Where("source_id = ? AND status = ? AND id < ?", sourceID, ScanStatusCompleted, beforeScanID).
		Order("id DESC").
		First(&scan).Error
	if errors.Is(err, errRecordNotFound()) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryDatabase).Build()
	}
	return &scan, nil
}
