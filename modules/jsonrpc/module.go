// Package jsonrpc implements the "jsonrpc" behaviour kind: setting the
// entity's trigger property to true sends a JSON-RPC 2.0 call built from its
// url, method and params properties, and the reply lands in result or error.
package jsonrpc

import (
	"context"
	"time"

	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/provider"
	"github.com/specialistvlad/behaviourgrid/modules/http_client"
	"resty.dev/v3"
)

// Property names read and written by the behaviour.
const (
	PropURL     = "url"
	PropMethod  = "method"
	PropParams  = "params"
	PropTrigger = "trigger"
	PropResult  = "result"
	PropError   = "error"
)

// Module implements the provider.Module interface for this package.
type Module struct {
	Timeout time.Duration
	Client  *resty.Client
}

// Register registers the jsonrpc kind with the provider.
func (m *Module) Register(p *provider.Provider) {
	if m.Client == nil {
		m.Client = http_client.New(m.Timeout)
	}
	client := m.Client
	p.Register(provider.KindJSONRPC, func(ctx context.Context, e *entity.Instance) (provider.Behaviour, error) {
		b, err := New(ctx, client, e)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}

// Close releases the module's idle connections.
func (m *Module) Close() error {
	if m.Client == nil {
		return nil
	}
	return m.Client.Close()
}
