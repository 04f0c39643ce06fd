package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/provider"
	"github.com/zclconf/go-cty/cty"
	"resty.dev/v3"
)

// request is the JSON-RPC 2.0 request envelope.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      uint64          `json:"id"`
}

// response is the JSON-RPC 2.0 response envelope.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ErrClosed is returned by Call when the behaviour was closed before the reply
// could be written back.
var ErrClosed = errors.New("jsonrpc: behaviour closed")

// Behaviour sends JSON-RPC calls on behalf of its entity.
type Behaviour struct {
	entity *entity.Instance
	client *resty.Client
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	handle entity.ObserverHandle
	nextID atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// New validates the entity and binds a behaviour to it.
func New(ctx context.Context, client *resty.Client, e *entity.Instance) (*Behaviour, error) {
	if _, err := e.RequireString(PropURL); err != nil {
		return nil, err
	}
	if _, err := e.RequireString(PropMethod); err != nil {
		return nil, err
	}

	bctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b := &Behaviour{
		entity: e,
		client: client,
		logger: ctxlog.FromContext(ctx).With("kind", provider.KindJSONRPC, "entity_id", e.ID),
		ctx:    bctx,
		cancel: cancel,
	}
	b.handle = e.Observe(PropTrigger, b.onTrigger)
	return b, nil
}

// Kind implements provider.Behaviour.
func (b *Behaviour) Kind() provider.Kind { return provider.KindJSONRPC }

// Close cancels in-flight calls and unregisters the trigger observer.
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
	b.logger.Debug("JSON-RPC behaviour closed.")
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
		if err := b.Call(b.ctx); err != nil {
			b.logger.Debug("JSON-RPC call failed.", "error", err)
		}
	}()
}

// Call sends one request built from the entity's current properties. A reply
// carrying a result clears error; a reply carrying an error clears result.
// Nothing is written once ctx is done or the behaviour is closed.
func (b *Behaviour) Call(ctx context.Context) error {
	url, err := b.entity.RequireString(PropURL)
	if err != nil {
		return err
	}
	method, err := b.entity.RequireString(PropMethod)
	if err != nil {
		return err
	}

	req := request{JSONRPC: "2.0", Method: method, ID: b.nextID.Add(1)}
	if params, ok := b.entity.Get(PropParams); ok && params.IsKnown() && !params.IsNull() {
		raw, err := entity.ToJSON(params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		req.Params = raw
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	b.logger.Debug("Sending JSON-RPC request.", "method", method, "url", url, "id", req.ID)
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Execute("POST", url)
	if err != nil {
		if werr := b.setError(ctx, cty.ObjectVal(map[string]cty.Value{
			"code":    cty.NumberIntVal(-32603),
			"message": cty.StringVal(err.Error()),
		})); werr != nil {
			return werr
		}
		return fmt.Errorf("failed to execute request: %w", err)
	}

	var reply response
	if err := json.Unmarshal([]byte(resp.String()), &reply); err != nil {
		if werr := b.setError(ctx, cty.ObjectVal(map[string]cty.Value{
			"code":    cty.NumberIntVal(-32700),
			"message": cty.StringVal(fmt.Sprintf("invalid reply with HTTP status %d", resp.StatusCode())),
		})); werr != nil {
			return werr
		}
		return fmt.Errorf("failed to decode reply: %w", err)
	}

	if reply.Error != nil {
		errVal := map[string]cty.Value{
			"code":    cty.NumberIntVal(int64(reply.Error.Code)),
			"message": cty.StringVal(reply.Error.Message),
		}
		if len(reply.Error.Data) > 0 {
			errVal["data"] = entity.FromJSONOrString(reply.Error.Data)
		}
		return b.setError(ctx, cty.ObjectVal(errVal))
	}

	result, err := entity.FromJSON(reply.Result)
	if err != nil {
		return err
	}
	return b.writeBack(ctx, func() {
		b.entity.Set(PropError, cty.NullVal(cty.DynamicPseudoType))
		b.entity.Set(PropResult, result)
	})
}

func (b *Behaviour) setError(ctx context.Context, v cty.Value) error {
	return b.writeBack(ctx, func() {
		b.entity.Set(PropResult, cty.NullVal(cty.DynamicPseudoType))
		b.entity.Set(PropError, v)
	})
}

// writeBack runs write under b.mu unless ctx is done or the behaviour is
// closed. Observers fired by write must not call Close.
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
