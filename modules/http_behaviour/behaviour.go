package http_behaviour

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/provider"
	"github.com/zclconf/go-cty/cty"
	"resty.dev/v3"
)

// ErrClosed is returned by Execute when the behaviour was closed before the
// outcome could be written back.
var ErrClosed = errors.New("http_behaviour: behaviour closed")

// Behaviour performs the HTTP request described by its entity.
type Behaviour struct {
	entity *entity.Instance
	client *resty.Client
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	handle entity.ObserverHandle

	mu     sync.Mutex
	closed bool
}

// New validates the entity and binds a behaviour to it. Nothing is registered
// on the entity unless validation succeeds.
func New(ctx context.Context, client *resty.Client, e *entity.Instance) (*Behaviour, error) {
	if _, err := e.RequireString(PropURL); err != nil {
		return nil, err
	}
	if _, err := e.RequireString(PropMethod); err != nil {
		return nil, err
	}
	if _, err := e.StringMap(PropRequestHeaders); err != nil {
		return nil, err
	}
	interval, polling, err := e.OptionalDuration(PropPollInterval)
	if err != nil {
		return nil, err
	}
	if polling && interval <= 0 {
		return nil, fmt.Errorf("%w: %q must be positive", entity.ErrPropertyType, PropPollInterval)
	}

	// The behaviour outlives the attach call, so it keeps the caller's logger
	// but not its cancellation.
	bctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b := &Behaviour{
		entity: e,
		client: client,
		logger: ctxlog.FromContext(ctx).With("kind", provider.KindHTTP, "entity_id", e.ID),
		ctx:    bctx,
		cancel: cancel,
	}
	b.handle = e.Observe(PropTrigger, b.onTrigger)
	if polling {
		go b.poll(interval)
	}
	return b, nil
}

// Kind implements provider.Behaviour.
func (b *Behaviour) Kind() provider.Kind { return provider.KindHTTP }

// Close stops polling, cancels in-flight requests and unregisters the trigger
// observer. It is safe to call more than once.
func (b *Behaviour) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.entity.Unobserve(PropTrigger, b.handle)
	b.logger.Debug("HTTP behaviour closed.")
	return nil
}

func (b *Behaviour) onTrigger(_ string, v cty.Value) {
	if !entity.IsTrue(v) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	go func() {
		if err := b.Execute(b.ctx); err != nil {
			b.logger.Debug("Triggered HTTP request failed.", "error", err)
		}
	}()
}

func (b *Behaviour) poll(interval time.Duration) {
	b.logger.Debug("Starting HTTP poll loop.", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.logger.Debug("Stopping HTTP poll loop.")
			return
		case <-ticker.C:
			if err := b.Execute(b.ctx); err != nil {
				b.logger.Debug("Polled HTTP request failed.", "error", err)
			}
		}
	}
}

// Execute performs one request with the entity's current properties and writes
// the outcome back to the entity. Nothing is written once ctx is done or the
// behaviour is closed.
func (b *Behaviour) Execute(ctx context.Context) error {
	url, err := b.entity.RequireString(PropURL)
	if err != nil {
		return err
	}
	method, err := b.entity.RequireString(PropMethod)
	if err != nil {
		return err
	}
	headers, err := b.entity.StringMap(PropRequestHeaders)
	if err != nil {
		return err
	}

	req := b.client.R().SetContext(ctx).SetHeaders(headers)
	if payload, ok := b.entity.Get(PropPayload); ok && payload.IsKnown() && !payload.IsNull() {
		body, err := entity.ToJSON(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	method = strings.ToUpper(method)
	b.logger.Debug("Making HTTP request.", "method", method, "url", url)

	resp, err := req.Execute(method, url)
	if err != nil {
		if werr := b.writeBack(ctx, func() {
			b.entity.Set(PropError, cty.StringVal(err.Error()))
		}); werr != nil {
			return werr
		}
		return fmt.Errorf("failed to execute request: %w", err)
	}

	b.logger.Debug("Received HTTP response.", "status", resp.StatusCode())
	return b.writeBack(ctx, func() {
		b.entity.Set(PropResponseHeaders, headersValue(resp.Header()))
		b.entity.Set(PropResult, entity.FromJSONOrString([]byte(resp.String())))
		b.entity.Set(PropError, cty.NullVal(cty.String))
		b.entity.Set(PropStatus, cty.NumberIntVal(int64(resp.StatusCode())))
	})
}

// writeBack runs write while holding b.mu, so Close cannot complete in the
// middle of it, and skips it once ctx is done or the behaviour is closed.
// Observers fired by write must not call Close.
func (b *Behaviour) writeBack(ctx context.Context, write func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.closed {
		return ErrClosed
	}
	write()
	return nil
}

func headersValue(h http.Header) cty.Value {
	if len(h) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	m := make(map[string]cty.Value, len(h))
	for name, values := range h {
		m[name] = cty.StringVal(strings.Join(values, ", "))
	}
	return cty.MapVal(m)
}
