// Package yaml provides a YAML implementation of config.Loader for
// `.yaml` and `.yml` files:
//
//	settings:
//	  log_level: debug
//	  http_timeout: 10s
//	entities:
//	  - type: jsonrpc
//	    properties:
//	      url: http://localhost:8545
//	      method: eth_blockNumber
//
// Property values are bridged into cty through their JSON form.
package yaml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/behaviourgrid/internal/config"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	yamlv3 "gopkg.in/yaml.v3"
)

type fileRoot struct {
	Settings *settingsDoc `yaml:"settings"`
	Entities []entityDoc  `yaml:"entities"`
}

type settingsDoc struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Port        int    `yaml:"port"`
	HTTPTimeout string `yaml:"http_timeout"`
	Events      struct {
		URL       string `yaml:"url"`
		Namespace string `yaml:"namespace"`
	} `yaml:"events"`
}

type entityDoc struct {
	Type       string         `yaml:"type"`
	ID         string         `yaml:"id"`
	Properties map[string]any `yaml:"properties"`
}

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers every .yaml/.yml file under paths and merges them into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}

	models := make([]*config.Model, 0, len(files))
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}
		m, err := l.Parse(ctx, src, file)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	model, err := config.Merge(models...)
	if err != nil {
		return nil, err
	}
	logger.Debug("YAML loading complete.", "files", len(files), "entities", len(model.Entities))
	return model, nil
}

// Parse decodes a single in-memory YAML document.
func (l *Loader) Parse(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	var root fileRoot
	if err := yamlv3.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
	}

	model := config.NewModel()
	if root.Settings != nil {
		s, err := translateSettings(root.Settings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		model.Settings = s
	}
	for i, doc := range root.Entities {
		e, err := translateEntity(doc, filename)
		if err != nil {
			return nil, fmt.Errorf("%s: entities[%d]: %w", filename, i, err)
		}
		model.Entities = append(model.Entities, e)
	}
	ctxlog.FromContext(ctx).Debug("Parsed YAML file.", "file", filename, "entities", len(model.Entities))
	return model, nil
}

func translateSettings(s *settingsDoc) (config.Settings, error) {
	out := config.Settings{
		LogLevel:  s.LogLevel,
		LogFormat: s.LogFormat,
		Port:      s.Port,
		Events: config.EventsSettings{
			URL:       s.Events.URL,
			Namespace: s.Events.Namespace,
		},
	}
	if s.HTTPTimeout != "" {
		d, err := time.ParseDuration(s.HTTPTimeout)
		if err != nil {
			return out, fmt.Errorf("invalid http_timeout %q: %w", s.HTTPTimeout, err)
		}
		out.HTTPTimeout = d
	}
	return out, nil
}

func translateEntity(doc entityDoc, source string) (*config.Entity, error) {
	if doc.Type == "" {
		return nil, fmt.Errorf("entity must have a type")
	}
	e := &config.Entity{Type: doc.Type, Source: source, Properties: map[string]cty.Value{}}
	if doc.ID != "" {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("entity %q has invalid id %q: %w", doc.Type, doc.ID, err)
		}
		e.ID = id
	}
	if len(doc.Properties) == 0 {
		return e, nil
	}

	raw, err := json.Marshal(doc.Properties)
	if err != nil {
		return nil, fmt.Errorf("entity %q properties: %w", doc.Type, err)
	}
	props, err := entity.PropertiesFromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("entity %q properties: %w", doc.Type, err)
	}
	e.Properties = props
	return e, nil
}
