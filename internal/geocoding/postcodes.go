package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// postcodesResponse is the shape shared by the active and terminated
// postcode dataset endpoints.
type postcodesResponse struct {
	Status int `json:"status"`
	Result struct {
		Postcode  string   `json:"postcode"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"result"`
}

// postcodesReverseResponse is returned by the coordinate reverse lookup.
type postcodesReverseResponse struct {
	Status int `json:"status"`
	Result []struct {
		Postcode string `json:"postcode"`
	} `json:"result"`
}

// lookupPostcode queries the primary postcode provider. When terminated is
// true the terminated postcode dataset is used as a fallback for postcodes
// no longer in service.
func (s *Service) lookupPostcode(ctx context.Context, postcode string, terminated bool) (lat, lng float64, ok bool) {
	dataset := "postcodes"
	if terminated {
		dataset = "terminated_postcodes"
	}
	endpoint := fmt.Sprintf("%s/%s/%s",
		s.settings.Geocoding.PostcodesBaseURL, dataset, url.PathEscape(postcode))

	var parsed postcodesResponse
	if err := s.getJSON(ctx, endpoint, &parsed); err != nil {
		logger.Debug("postcode provider lookup failed",
			"postcode", postcode, "dataset", dataset, "error", err)
		return 0, 0, false
	}

	if parsed.Result.Latitude == nil || parsed.Result.Longitude == nil {
		return 0, 0, false
	}
	if !inBounds(*parsed.Result.Latitude, *parsed.Result.Longitude) {
		logger.Warn("postcode provider returned out-of-bounds coordinates",
			"postcode", postcode, "lat", *parsed.Result.Latitude, "lng", *parsed.Result.Longitude)
		return 0, 0, false
	}
	return *parsed.Result.Latitude, *parsed.Result.Longitude, true
}

// ReverseGeocode returns the nearest postcode for coordinates. Best
// effort: any failure reports not-found.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lng float64) (postcode string, found bool) {
	endpoint := fmt.Sprintf("%s/postcodes?lon=%f&lat=%f",
		s.settings.Geocoding.PostcodesBaseURL, lng, lat)

	var parsed postcodesReverseResponse
	if err := s.getJSON(ctx, endpoint, &parsed); err != nil {
		logger.Debug("reverse geocode failed", "lat", lat, "lng", lng, "error", err)
		return "", false
	}
	if len(parsed.Result) == 0 || parsed.Result[0].Postcode == "" {
		return "", false
	}
	return parsed.Result[0].Postcode, true
}

// getJSON performs a GET request and decodes a JSON body. Non-2xx status
// codes are errors; callers treat every error as not-found.
func (s *Service) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.settings.Main.Name)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
