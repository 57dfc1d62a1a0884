package geocoding

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// placeResult is one hit from the general-purpose place search provider,
// which returns coordinates as strings.
type placeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// lookupPlace queries the secondary place-search provider, constrained to
// the British Isles bounding box.
func (s *Service) lookupPlace(ctx context.Context, query string) (lat, lng float64, ok bool) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "gb,gg,je,im")
	// viewbox is left,top,right,bottom
	params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", minLongitude, maxLatitude, maxLongitude, minLatitude))
	params.Set("bounded", "1")

	endpoint := fmt.Sprintf("%s/search?%s", s.settings.Geocoding.PlacesBaseURL, params.Encode())

	var results []placeResult
	if err := s.getJSON(ctx, endpoint, &results); err != nil {
		logger.Debug("place search failed", "query", query, "error", err)
		return 0, 0, false
	}
	if len(results) == 0 {
		return 0, 0, false
	}

	parsedLat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, false
	}
	parsedLng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, false
	}
	if !inBounds(parsedLat, parsedLng) {
		return 0, 0, false
	}
	return parsedLat, parsedLng, true
}
