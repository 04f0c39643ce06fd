// Package app contains the core application logic. It wires configuration,
// the behaviour provider, the entity store, the admin server and the events
// feed together and owns their lifecycle, decoupled from any specific
// entrypoint like a CLI.
package app
