package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidAddr indicates the HTTP listen address is empty.
	ErrInvalidAddr = errors.New("invalid listen address")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates an unknown sslmode value.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrMissingAIEndpoint indicates AI is enabled without endpoint URLs.
	ErrMissingAIEndpoint = errors.New("missing AI endpoint URL")

	// ErrInvalidWireShape indicates an unknown AI wire shape.
	ErrInvalidWireShape = errors.New("invalid AI wire shape")

	// ErrInvalidTimeout indicates a non-positive AI timeout.
	ErrInvalidTimeout = errors.New("invalid AI timeout")
)

var validSSLModes = map[string]bool{
	"disable": true, "allow": true, "prefer": true,
	"require": true, "verify-ca": true, "verify-full": true,
}

// Validate checks the configuration for the serve path.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.Addr == "" {
		return ErrInvalidAddr
	}

	if c.PostgresHost == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return ErrInvalidPostgresDBName
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return c.AI.validate()
}

func (a AI) validate() error {
	if a.APIShape != ShapePrompt && a.APIShape != ShapeChat {
		return fmt.Errorf("%w: %q", ErrInvalidWireShape, a.APIShape)
	}
	if a.AltAPIShape != ShapePrompt && a.AltAPIShape != ShapeChat {
		return fmt.Errorf("%w: %q", ErrInvalidWireShape, a.AltAPIShape)
	}
	if a.ConnectTimeout <= 0 || a.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// Endpoint URLs are only required when the integration is on;
	// disabled mode serves the embedded example diagram.
	if a.Enabled && a.APIURL == "" {
		return fmt.Errorf("%w: ai.api_url", ErrMissingAIEndpoint)
	}

	return nil
}
