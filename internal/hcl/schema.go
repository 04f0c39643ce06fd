package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all top-level blocks from any file.
type fileRoot struct {
	Settings []*settingsBlock `hcl:"settings,block"`
	Entities []*entityBlock   `hcl:"entity,block"`
	Remain   hcl.Body         `hcl:",remain"`
}

type settingsBlock struct {
	LogLevel    *string      `hcl:"log_level,optional"`
	LogFormat   *string      `hcl:"log_format,optional"`
	Port        *int         `hcl:"port,optional"`
	HTTPTimeout *string      `hcl:"http_timeout,optional"`
	Events      *eventsBlock `hcl:"events,block"`
}

type eventsBlock struct {
	URL       string  `hcl:"url"`
	Namespace *string `hcl:"namespace,optional"`
}

// entityBlock is an `entity "<type>" { ... }` block.
type entityBlock struct {
	Type       string         `hcl:"type,label"`
	ID         *string        `hcl:"id,optional"`
	Properties hcl.Expression `hcl:"properties,optional"`
}
