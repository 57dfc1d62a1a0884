package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig defines the default value for every configuration
// parameter. Values in a config file or environment override these.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "HoofBeat-Go")

	viper.SetDefault("database.path", "hoofbeat.db")

	viper.SetDefault("server.port", 8090)

	viper.SetDefault("scanner.fetchtimeout", 60*time.Second)

	viper.SetDefault("geocoding.postcodesbaseurl", "https://api.postcodes.io")
	viper.SetDefault("geocoding.placesbaseurl", "https://nominatim.openstreetmap.org")
	viper.SetDefault("geocoding.timeout", 10*time.Second)

	// Default home location, central England
	viper.SetDefault("home.latitude", 52.04)
	viper.SetDefault("home.longitude", -1.34)
}
