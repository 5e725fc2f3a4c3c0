// Package config loads environment-based configuration for the checkout
// engine.
//
// Configuration structs declare `env` tags (caarlos0/env format); Load parses
// the process environment into them, after loading an optional .env file once
// per process. The embedding application typically loads api.Config and the
// per-gateway configs at startup and hands them to svc/checkout.
//
// # Usage
//
//	type APIConfig struct {
//	    BaseURL string        `env:"CHECKOUT_API_URL,required"`
//	    Timeout time.Duration `env:"CHECKOUT_API_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg APIConfig
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
package config
