// Package geocoding resolves UK postcodes to coordinates through a chain
// of external providers, with a process-lifetime result cache. Lookups are
// best-effort: transient provider failures surface as not-found, never as
// errors the pipeline has to handle.
package geocoding

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/logging"
)

// Package-level logger specific to the geocoding service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logger, closeLogger, err = logging.NewFileLogger("logs/geocoding.log", "geocoding", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize geocoding file logger: %v, logging disabled for service", err)
		logger = logging.NewDiscardLogger("geocoding", serviceLevelVar)
		closeLogger = func() error { return nil }
	}
}

// British Isles bounding box. Coordinates outside it are treated as
// provider garbage, including the common (0,0) failure value.
const (
	minLatitude  = 49.8
	maxLatitude  = 61.0
	minLongitude = -8.7
	maxLongitude = 1.8
)

// Crown Dependency outward prefixes not covered by the primary provider.
var crownDependencyPrefixes = []string{"GY", "JE", "IM"}

// Result is a cached geocoding outcome. Not-found is cached as well so a
// failing postcode is never retried against external providers.
type Result struct {
	Latitude  float64
	Longitude float64
	Found     bool
}

// Service resolves postcodes via chained providers with a shared cache.
// The cache is purely additive and safe for concurrent lookups.
type Service struct {
	settings   *conf.Settings
	httpClient *http.Client
	cache      *cache.Cache
}

// New creates a geocoding service. The cache lives for the process
// lifetime; entries never expire.
func New(settings *conf.Settings) *Service {
	return &Service{
		settings: settings,
		httpClient: &http.Client{
			Timeout: settings.Geocoding.Timeout,
		},
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Close releases service resources.
func (s *Service) Close() {
	if closeLogger != nil {
		_ = closeLogger()
	}
}

// NormalizePostcode upper-cases a postcode and collapses it to the
// canonical single-space form, e.g. "sw1a1aa" -> "SW1A 1AA".
func NormalizePostcode(postcode string) string {
	compact := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(postcode), " ", ""))
	if len(compact) < 5 || len(compact) > 7 {
		return compact
	}
	// The inward code is always the final three characters
	return compact[:len(compact)-3] + " " + compact[len(compact)-3:]
}

// OutwardCode returns the leading postcode area+district, e.g. "GL7" for
// "GL7 7JW". Used for generic venue name disambiguation.
func OutwardCode(postcode string) string {
	normalized := NormalizePostcode(postcode)
	if idx := strings.IndexByte(normalized, ' '); idx > 0 {
		return normalized[:idx]
	}
	return normalized
}

// inBounds reports whether coordinates fall inside the British Isles box.
func inBounds(lat, lng float64) bool {
	return lat >= minLatitude && lat <= maxLatitude && lng >= minLongitude && lng <= maxLongitude
}

// InBounds reports whether coordinates are usable for venues in this
// system's coverage area.
func InBounds(lat, lng float64) bool {
	return inBounds(lat, lng)
}

func isCrownDependency(postcode string) bool {
	for _, prefix := range crownDependencyPrefixes {
		if strings.HasPrefix(postcode, prefix) {
			return true
		}
	}
	return false
}

// Resolve returns the coordinates for a postcode, or found=false when no
// provider can locate it. Both outcomes are cached for the process
// lifetime keyed by the normalized postcode.
func (s *Service) Resolve(ctx context.Context, postcode string) (lat, lng float64, found bool) {
	normalized := NormalizePostcode(postcode)
	if normalized == "" {
		return 0, 0, false
	}

	if cached, ok := s.cache.Get(normalized); ok {
		result := cached.(Result)
		return result.Latitude, result.Longitude, result.Found
	}

	result := s.lookup(ctx, normalized)
	s.cache.Set(normalized, result, cache.NoExpiration)

	if result.Found {
		logger.Debug("postcode resolved",
			"postcode", normalized, "lat", result.Latitude, "lng", result.Longitude)
	} else {
		logger.Debug("postcode not found", "postcode", normalized)
	}
	return result.Latitude, result.Longitude, result.Found
}

// lookup walks the provider chain in priority order.
func (s *Service) lookup(ctx context.Context, postcode string) Result {
	// Crown Dependencies are not in the primary provider's datasets
	if !isCrownDependency(postcode) {
		if lat, lng, ok := s.lookupPostcode(ctx, postcode, false); ok {
			return Result{Latitude: lat, Longitude: lng, Found: true}
		}
		if lat, lng, ok := s.lookupPostcode(ctx, postcode, true); ok {
			return Result{Latitude: lat, Longitude: lng, Found: true}
		}
	}

	if lat, lng, ok := s.lookupPlace(ctx, postcode); ok {
		return Result{Latitude: lat, Longitude: lng, Found: true}
	}

	return Result{}
}
