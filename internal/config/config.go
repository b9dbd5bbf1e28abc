package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Host string
	Port int

	// RetentionSchedule is the cron expression for the conversation
	// retention sweep.
	RetentionSchedule string
}

// NewConfig creates a new Config instance with values from environment variables
func NewConfig() *Config {
	port := 8000 // Default API port
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	schedule := os.Getenv("RETENTION_SCHEDULE")
	if schedule == "" {
		schedule = "0 3 * * *" // daily at 03:00
	}

	return &Config{
		Host:              host,
		Port:              port,
		RetentionSchedule: schedule,
	}
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
