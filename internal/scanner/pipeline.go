package scanner

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/hoofbeat/hoofbeat-go/internal/classify"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/errors"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
	"github.com/hoofbeat/hoofbeat-go/internal/parsers"
	"github.com/hoofbeat/hoofbeat-go/internal/venues"
)

// Accepted start/end date layouts. Sources promise ISO-8601 but some feeds
// carry a time component.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// scanStats accumulates per-scan counters written onto the Scan row after
// the source commits.
type scanStats struct {
	processed    int
	newRecords   int
	competitions int
	training     int
	matchCounts  map[string]int
}

// runSource fetches one source and processes its records inside a single
// transaction. Record order is preserved so duplicate venue names within
// one page converge on one venue.
func (o *Orchestrator) runSource(ctx context.Context, scan *datastore.Scan, source datastore.Source) error {
	parser, err := parsers.Get(source.ParserKey)
	if err != nil {
		return err
	}
	records, err := parser.Fetch(ctx, source.URL)
	if err != nil {
		return err
	}
	logger.Info("fetched source", "source", source.Name, "records", len(records))

	stats := &scanStats{matchCounts: make(map[string]int)}
	err = o.store.Transaction(func(tx datastore.Interface) error {
		// One index per scan, not per record
		index, err := venues.BuildIndex(tx)
		if err != nil {
			return err
		}
		matcher := venues.NewMatcher(tx, index)

		aliases, err := tx.GetAllDisciplineAliases()
		if err != nil {
			return err
		}
		classifier := classify.NewClassifier(aliases)

		for i := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := o.processRecord(ctx, tx, matcher, classifier, source, &records[i], stats); err != nil {
				return err
			}
		}
		return tx.UpdateSourceLastScanned(source.ID, time.Now())
	})
	if err != nil {
		return err
	}

	scan.CompetitionsFound = stats.processed
	scan.CompetitionCount = stats.competitions
	scan.TrainingCount = stats.training
	if encoded, err := json.Marshal(stats.matchCounts); err == nil {
		scan.MatchCounts = string(encoded)
	}
	return nil
}

// processRecord runs one extracted record through the pipeline: validate,
// resolve its venue, geocode, classify, tag, then dedup/upsert. Malformed
// records are skipped; only storage errors abort the scan.
func (o *Orchestrator) processRecord(ctx context.Context, tx datastore.Interface, matcher *venues.Matcher, classifier *classify.Classifier, source datastore.Source, record *parsers.ExtractedCompetition, stats *scanStats) error {
	startDate, err := parseDate(record.StartDate)
	if err != nil {
		logger.Debug("skipping record with unparsable start date",
			"source", source.Name, "name", record.Name, "start_date", record.StartDate)
		return nil
	}
	var endDate *time.Time
	if record.EndDate != "" {
		if parsed, err := parseDate(record.EndDate); err == nil {
			endDate = &parsed
		}
	}
	recordURL := validURL(record.URL)

	rawName := record.VenueName
	cleanedName := venues.CleanName(rawName)
	postcode := geocoding.NormalizePostcode(record.VenuePostcode)

	// A placeholder venue with no postcode is unlocatable
	if venues.IsPlaceholder(cleanedName) && postcode == "" {
		logger.Debug("skipping unlocatable record",
			"source", source.Name, "name", record.Name, "venue", rawName)
		return nil
	}

	resolveName, disambiguated := venues.Disambiguate(cleanedName, postcode)

	match, err := matcher.Resolve(rawName, resolveName, postcode, record.Latitude, record.Longitude)
	if err != nil {
		return err
	}
	if err := o.ensureCoordinates(ctx, tx, match, record, postcode, disambiguated); err != nil {
		return err
	}

	discipline, eventType := classifier.Classify(record.Name, record.Discipline, record.Description)
	if isKnownEventType(record.EventType) {
		eventType = record.EventType
	}

	tags := classify.ExtractTags(record.Name, record.Description, discipline, eventType, source.Affiliation)
	encodedTags, err := classify.EncodeTags(tags)
	if err != nil {
		logger.Warn("skipping record with invalid tags",
			"source", source.Name, "name", record.Name, "error", err)
		return nil
	}

	if err := o.upsert(tx, source, record, match, startDate, endDate, discipline, eventType, encodedTags, recordURL, stats); err != nil {
		return err
	}

	stats.processed++
	stats.matchCounts[match.MatchType]++
	switch eventType {
	case datastore.EventTypeTraining:
		stats.training++
	case datastore.EventTypeCompetition:
		stats.competitions++
	}
	return nil
}

// upsert looks the record up by its dedup triple within the source, then
// across sources, and updates in place or inserts.
func (o *Orchestrator) upsert(tx datastore.Interface, source datastore.Source, record *parsers.ExtractedCompetition, match *venues.Match, startDate time.Time, endDate *time.Time, discipline *string, eventType, encodedTags, recordURL string, stats *scanStats) error {
	venueID := match.VenueID
	existing, err := tx.FindCompetition(source.ID, record.Name, startDate, &venueID)
	if err != nil {
		return err
	}
	if existing == nil {
		existing, err = tx.FindCompetitionAcrossSources(source.ID, record.Name, startDate, &venueID)
		if err != nil {
			return err
		}
	}

	now := time.Now()
	if existing != nil {
		existing.LastSeen = now
		existing.Discipline = discipline
		existing.EventType = eventType
		existing.Tags = encodedTags
		if existing.VenueID == nil || *existing.VenueID != venueID {
			existing.VenueID = &venueID
			existing.VenueMatchType = match.MatchType
		}
		if recordURL != "" {
			existing.URL = recordURL
		}
		if existing.EndDate == nil && endDate != nil {
			existing.EndDate = endDate
		}
		return tx.SaveCompetition(existing)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return errors.New(err).
			Component("scanner").
			Category(errors.CategoryParsing).
			Context("name", record.Name).
			Build()
	}
	competition := &datastore.Competition{
		SourceID:       source.ID,
		Name:           record.Name,
		StartDate:      startDate,
		EndDate:        endDate,
		VenueID:        &venueID,
		Discipline:     discipline,
		EventType:      eventType,
		PonyClasses:    record.PonyClasses,
		Tags:           encodedTags,
		URL:            recordURL,
		VenueMatchType: match.MatchType,
		RawData:        string(raw),
		FirstSeen:      now,
		LastSeen:       now,
	}
	if err := tx.CreateCompetition(competition); err != nil {
		return err
	}
	stats.newRecords++
	return nil
}

// ensureCoordinates backfills venue coordinates, preferring the venue's own
// postcode, then parser-supplied coordinates, then the record's postcode.
// Disambiguated venues only ever take postcode-derived coordinates: their
// base name may denote several distinct physical sites.
func (o *Orchestrator) ensureCoordinates(ctx context.Context, tx datastore.Interface, match *venues.Match, record *parsers.ExtractedCompetition, postcode string, disambiguated bool) error {
	venue, err := tx.GetVenue(match.VenueID)
	if err != nil {
		return err
	}
	if venue.HasCoordinates() {
		return nil
	}

	if venue.Postcode != "" {
		if lat, lng, found := o.geocoder.Resolve(ctx, venue.Postcode); found {
			setCoordinates(&venue, lat, lng, "postcode_geocode")
		}
	}
	if !venue.HasCoordinates() && !disambiguated &&
		record.Latitude != nil && record.Longitude != nil &&
		geocoding.InBounds(*record.Latitude, *record.Longitude) {
		setCoordinates(&venue, *record.Latitude, *record.Longitude, "parser")
	}
	if !venue.HasCoordinates() && postcode != "" && postcode != venue.Postcode {
		if lat, lng, found := o.geocoder.Resolve(ctx, postcode); found {
			setCoordinates(&venue, lat, lng, "postcode_geocode")
			if venue.Postcode == "" {
				venue.Postcode = postcode
			}
		}
	}

	if !venue.HasCoordinates() {
		return nil
	}
	distance := geocoding.Haversine(
		o.settings.Home.Latitude, o.settings.Home.Longitude,
		*venue.Latitude, *venue.Longitude)
	venue.DistanceMiles = &distance
	return tx.SaveVenue(&venue)
}

func setCoordinates(venue *datastore.Venue, lat, lng float64, source string) {
	venue.Latitude = &lat
	venue.Longitude = &lng
	venue.ValidationSource = source
}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// validURL returns the URL when it parses with an http or https scheme,
// otherwise empty: a bad URL drops the field, never the record.
func validURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ""
	}
	return raw
}

func isKnownEventType(eventType string) bool {
	switch eventType {
	case datastore.EventTypeCompetition, datastore.EventTypeTraining, datastore.EventTypeVenueHire:
		return true
	}
	return false
}
