package config

import (
	"time"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified representation of the application configuration.
type Model struct {
	Settings Settings
	Entities []*Entity
}

// Settings holds process-level options. Zero values mean "not set" so that
// models from several files, and CLI flags, can be layered.
type Settings struct {
	LogLevel    string
	LogFormat   string
	Port        int
	HTTPTimeout time.Duration
	Events      EventsSettings
}

// EventsSettings configures the socket.io lifecycle feed.
type EventsSettings struct {
	URL       string
	Namespace string
}

// Entity is an entity seeded at startup.
type Entity struct {
	Type string
	// ID is uuid.Nil when the file does not pin one.
	ID         uuid.UUID
	Properties map[string]cty.Value
	// Source is the file the entity was declared in, for error messages.
	Source string
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}
