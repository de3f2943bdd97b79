// Package config loads and validates the Gray Logic Voice configuration.
//
// Values are resolved in order: built-in defaults, the YAML file, an optional
// .env file (GRAYLOGIC_ENV_FILE, default ".env"), then GRAYLOGIC_* environment
// variables. Validate runs last and reports every problem at once.
//
// Secrets stay out of the YAML file:
//   - GRAYLOGIC_JWT_SECRET signs and verifies skill adapter tokens (32+ chars)
//   - GRAYLOGIC_BACKEND_TOKEN is the fallback backend bearer token
//   - GRAYLOGIC_MQTT_PASSWORD and GRAYLOGIC_INFLUXDB_TOKEN
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	client, err := backend.NewClient(backend.Options{
//	    URL:     cfg.Backend.URL,
//	    Timeout: cfg.GetBackendTimeout(),
//	})
package config
