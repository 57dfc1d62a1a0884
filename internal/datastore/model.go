// model.go defines the persisted data model for the ingestion pipeline.
package datastore

import "time"

// Venue provenance values.
const (
	ProvenanceSeed    = "seed"
	ProvenanceDynamic = "dynamic"
)

// VenueAlias origin values.
const (
	AliasOriginSeed     = "seed"
	AliasOriginMigrated = "migrated"
)

// Event type values for a Competition.
const (
	EventTypeCompetition = "competition"
	EventTypeTraining    = "training"
	EventTypeVenueHire   = "venue_hire"
)

// Scan status values. Pending and running are transitional; the rest are
// terminal and set exactly once.
const (
	ScanStatusPending   = "pending"
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
	ScanStatusCancelled = "cancelled"
)

// VenueMatchReview status values.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusResolved = "resolved"
)

// Source is an external listing origin, created once at startup from the
// seed catalog and updated with its last scan time by the orchestrator.
type Source struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	URL           string `gorm:"not null"`
	ParserKey     string `gorm:"uniqueIndex;not null"`
	Enabled       bool
	Affiliation   string // affiliation tag contributed to every competition from this source
	LastScannedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Venue is a physical or virtual location. Name is unique; coordinates and
// postcode are backfilled in place as they become known.
type Venue struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"uniqueIndex;not null"`
	Postcode         string `gorm:"index"`
	Latitude         *float64
	Longitude        *float64
	DistanceMiles    *float64 // great-circle distance from the configured home location
	Provenance       string   `gorm:"type:varchar(10);default:dynamic"`
	Confidence       *float64
	ValidationSource string // how the coordinates were obtained, e.g. postcode_geocode
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasCoordinates reports whether the venue has usable coordinates. (0,0)
// is treated as unset, it is a common garbage value from providers.
func (v *Venue) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil && (*v.Latitude != 0 || *v.Longitude != 0)
}

// VenueAlias maps an alternate raw name to its canonical venue. Alias text
// is unique across the registry.
type VenueAlias struct {
	ID        uint   `gorm:"primaryKey"`
	Alias     string `gorm:"uniqueIndex;not null"`
	VenueID   uint   `gorm:"index;not null"`
	Venue     *Venue `gorm:"foreignKey:VenueID"`
	Origin    string `gorm:"type:varchar(10);default:seed"`
	CreatedAt time.Time
}

// DisciplineAlias maps a raw discipline string to its canonical discipline
// name and, optionally, a non-competition event type implied by the alias.
type DisciplineAlias struct {
	ID        uint   `gorm:"primaryKey"`
	Alias     string `gorm:"uniqueIndex;not null"`
	Canonical string `gorm:"not null"`
	EventType string // empty means competition
	CreatedAt time.Time
}

// Competition is one listed event. The dedup key within a source is
// (source, name, start date, venue); cross-source dedup matches the same
// triple ignoring source.
type Competition struct {
	ID             uint      `gorm:"primaryKey"`
	SourceID       uint      `gorm:"index;index:idx_competitions_dedup;not null"`
	Source         *Source   `gorm:"foreignKey:SourceID"`
	Name           string    `gorm:"index:idx_competitions_dedup;not null"`
	StartDate      time.Time `gorm:"index:idx_competitions_dedup;not null"`
	EndDate        *time.Time
	VenueID        *uint  `gorm:"index:idx_competitions_dedup"`
	Venue          *Venue `gorm:"foreignKey:VenueID"`
	Discipline     *string
	EventType      string `gorm:"type:varchar(20);default:competition"`
	PonyClasses    bool
	Tags           string // JSON array of validated category:value tags
	URL            string
	VenueMatchType string // match type used when the venue was last resolved
	RawData        string // raw extracted payload for audit and backfill
	FirstSeen      time.Time
	LastSeen       time.Time `gorm:"index"`
}

// EffectiveVenueName returns the canonical venue name when the competition
// is linked to a venue, otherwise an empty string.
func (c *Competition) EffectiveVenueName(v *Venue) string {
	if v == nil {
		return ""
	}
	return v.Name
}

// EffectiveCoordinates returns the linked venue's coordinates when present.
func (c *Competition) EffectiveCoordinates(v *Venue) (lat, lng float64, ok bool) {
	if v == nil || !v.HasCoordinates() {
		return 0, 0, false
	}
	return *v.Latitude, *v.Longitude, true
}

// Scan is one execution attempt against a source.
type Scan struct {
	ID                uint    `gorm:"primaryKey"`
	SourceID          *uint   `gorm:"index"`
	Source            *Source `gorm:"foreignKey:SourceID"`
	Status            string  `gorm:"type:varchar(10);index;not null"`
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CompetitionsFound int
	CompetitionCount  int
	TrainingCount     int
	MatchCounts       string // JSON histogram of venue match types
	Error             string
	CreatedAt         time.Time `gorm:"index"`
}

// IsTerminal reports whether the scan has reached a terminal status.
func (s *Scan) IsTerminal() bool {
	switch s.Status {
	case ScanStatusCompleted, ScanStatusFailed, ScanStatusCancelled:
		return true
	}
	return false
}

// VenueMatchReview records a deferred or ambiguous venue match awaiting
// manual resolution.
type VenueMatchReview struct {
	ID               uint `gorm:"primaryKey"`
	RawName          string
	NormalizedName   string `gorm:"index"`
	CandidateVenueID *uint
	Confidence       float64
	ParserLatitude   *float64
	ParserLongitude  *float64
	Status           string `gorm:"type:varchar(10);default:pending"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
