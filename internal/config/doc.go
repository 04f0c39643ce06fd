// Package config defines the format-agnostic configuration model for the
// application: process settings plus the entities seeded at startup. It also
// holds the Loader interface that format-specific packages (hcl, yaml)
// implement.
package config
