// Package config holds the runtime configuration for a screamjump session.
//
// Configuration is a plain struct with one section per component. Values
// start from Default, which carries the reference tuning of the game, and
// can be overridden from a .env file and SCREAMJUMP_* environment variables:
//
//	cfg, err := config.Load(".env")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Load never fails because the .env file is absent; it fails only when a
// variable is present but malformed, or when the resulting configuration
// does not pass Validate.
//
// # Environment Variables
//
// Each field that can be overridden lists its variable next to it in
// envBindings. Durations use time.ParseDuration syntax ("2s", "150ms").
package config
