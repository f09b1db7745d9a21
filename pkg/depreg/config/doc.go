/*
Package config loads bootstrap settings for a depreg Registry.

# Basic Usage

	cfg, err := config.FromFile("app.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	reg, err := depreg.NewFromConfig(cfg.Sub("registry"), logger)

with app.yaml:

	registry:
	  id: checkout-api
	  default_lifecycle: singleton
	  metrics: true

Accessors never fail: a missing key or a value of the wrong type yields
the supplied default. Config is safe for concurrent reads.
*/
package config
