package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// VenueMode selects the execution venue implementation: "rest" for a
	// live venue, "paper" for the in-process dry-run venue.
	VenueMode string `envconfig:"VENUE_MODE" default:"paper"`

	VenueHost     string        `envconfig:"VENUE_HOST" default:"127.0.0.1"`
	VenuePort     int           `envconfig:"VENUE_PORT" default:"7497"`
	VenueClientID int           `envconfig:"VENUE_CLIENT_ID" default:"22"`
	VenueTimeout  time.Duration `envconfig:"VENUE_TIMEOUT" default:"10s"`

	VenueExchange string `envconfig:"VENUE_EXCHANGE" default:"SMART"`
	VenueCurrency string `envconfig:"VENUE_CURRENCY" default:"USD"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
