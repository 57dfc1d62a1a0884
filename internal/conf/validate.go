package conf

import (
	"fmt"
	"strings"
)

// ValidateSettings checks the loaded settings for values the application
// cannot run with. It collects all problems rather than stopping at the
// first one.
func ValidateSettings(settings *Settings) error {
	var problems []string

	if settings.Database.Path == "" {
		problems = append(problems, "database.path must not be empty")
	}

	if settings.Server.Port < 1 || settings.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", settings.Server.Port))
	}

	if settings.Geocoding.PostcodesBaseURL == "" {
		problems = append(problems, "geocoding.postcodesbaseurl must not be empty")
	}
	if settings.Geocoding.PlacesBaseURL == "" {
		problems = append(problems, "geocoding.placesbaseurl must not be empty")
	}
	if settings.Geocoding.Timeout <= 0 {
		problems = append(problems, "geocoding.timeout must be positive")
	}

	if settings.Scanner.FetchTimeout <= 0 {
		problems = append(problems, "scanner.fetchtimeout must be positive")
	}

	if settings.Home.Latitude < -90 || settings.Home.Latitude > 90 {
		problems = append(problems, "home.latitude must be between -90 and 90")
	}
	if settings.Home.Longitude < -180 || settings.Home.Longitude > 180 {
		problems = append(problems, "home.longitude must be between -180 and 180")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
