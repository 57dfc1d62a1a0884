package seed

import (
	"encoding/json"

	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
	"github.com/hoofbeat/hoofbeat-go/internal/parsers"
	"github.com/hoofbeat/hoofbeat-go/internal/venues"
)

// BackfillPlaceholders re-resolves competitions attached to placeholder
// venues ("TBC" and friends) against the current venue registry. A
// placeholder is created when a postcode matched nothing at scan time;
// once seeding has grown the registry the stored raw payload may now
// resolve. Placeholder venues left with no competitions and no
// coordinates are removed.
func (r *Reconciler) BackfillPlaceholders() error {
	return r.store.Transaction(func(tx datastore.Interface) error {
		all, err := tx.GetAllVenues()
		if err != nil {
			return err
		}

		var placeholders []datastore.Venue
		for _, venue := range all {
			if venues.IsPlaceholder(venue.Name) {
				placeholders = append(placeholders, venue)
			}
		}
		if len(placeholders) == 0 {
			return nil
		}

		index, err := venues.BuildIndex(tx)
		if err != nil {
			return err
		}

		moved := 0
		for _, placeholder := range placeholders {
			competitions, err := tx.GetCompetitionsByVenue(placeholder.ID)
			if err != nil {
				return err
			}
			for i := range competitions {
				targetID, ok := resolveFromRaw(index, competitions[i].RawData)
				if !ok || targetID == placeholder.ID {
					continue
				}
				competitions[i].VenueID = &targetID
				competitions[i].VenueMatchType = venues.MatchTypePostcode
				if err := tx.SaveCompetition(&competitions[i]); err != nil {
					return err
				}
				moved++
			}

			remaining, err := tx.CountCompetitionsByVenue(placeholder.ID)
			if err != nil {
				return err
			}
			if remaining == 0 && !placeholder.HasCoordinates() {
				if err := tx.DeleteVenue(placeholder.ID); err != nil {
					return err
				}
				logger.Info("removed empty placeholder venue", "venue", placeholder.Name)
			}
		}
		if moved > 0 {
			logger.Info("backfilled placeholder competitions", "moved", moved)
		}
		return nil
	})
}

// resolveFromRaw resolves a stored raw payload's postcode against the
// venue index. Only an unambiguous postcode hit counts.
func resolveFromRaw(index *venues.Index, rawData string) (uint, bool) {
	if rawData == "" {
		return 0, false
	}
	var record parsers.ExtractedCompetition
	if err := json.Unmarshal([]byte(rawData), &record); err != nil {
		return 0, false
	}
	postcode := geocoding.NormalizePostcode(record.VenuePostcode)
	if postcode == "" {
		return 0, false
	}
	return index.LookupPostcode(postcode)
}
