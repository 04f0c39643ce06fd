package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/behaviourgrid/internal/config"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	evalCtx *hcl.EvalContext
}

// NewLoader creates a new HCL configuration loader. Property expressions see
// the process environment as `env`.
func NewLoader() *Loader {
	return &Loader{evalCtx: processEvalContext()}
}

// Load discovers every .hcl file under paths and merges them into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	models := make([]*config.Model, 0, len(files))
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		m, err := l.decode(ctx, hclFile.Body, file)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	model, err := config.Merge(models...)
	if err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "entities", len(model.Entities))
	return model, nil
}

// Parse decodes a single in-memory HCL document.
func (l *Loader) Parse(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return l.decode(ctx, hclFile.Body, filename)
}

func (l *Loader) decode(ctx context.Context, body hcl.Body, file string) (*config.Model, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}

	model := config.NewModel()
	for _, s := range root.Settings {
		settings, err := translateSettings(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		model.Settings = model.Settings.Override(settings)
	}
	for _, b := range root.Entities {
		e, err := translateEntity(ctx, b, file, l.evalCtx)
		if err != nil {
			return nil, err
		}
		model.Entities = append(model.Entities, e)
	}
	return model, nil
}
