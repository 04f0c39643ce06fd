// Package http_behaviour implements the "http" behaviour kind: an entity that
// describes a request (url, method, headers, payload) and receives the
// response (status, headers, result) back as properties. The request runs
// when the entity's trigger property is set to true and, if poll_interval is
// set, periodically on a ticker.
package http_behaviour

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
	PropURL             = "url"
	PropMethod          = "method"
	PropRequestHeaders  = "request_headers"
	PropPayload         = "payload"
	PropPollInterval    = "poll_interval"
	PropTrigger         = "trigger"
	PropStatus          = "status"
	PropResponseHeaders = "response_headers"
	PropResult          = "result"
	PropError           = "error"
)

// Module implements the provider.Module interface for this package.
type Module struct {
	// Timeout applies to the client created when Client is nil.
	Timeout time.Duration
	// Client is shared by every behaviour of the module.
	Client *resty.Client
}

// Register registers the http kind with the provider.
func (m *Module) Register(p *provider.Provider) {
	if m.Client == nil {
		m.Client = http_client.New(m.Timeout)
	}
	client := m.Client
	p.Register(provider.KindHTTP, func(ctx context.Context, e *entity.Instance) (provider.Behaviour, error) {
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
