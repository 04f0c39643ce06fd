// Package events publishes entity lifecycle changes to a socket.io server.
// Feed implements entitystore.Listener.
package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names emitted on the feed.
const (
	EventEntityCreated      = "entity_created"
	EventEntityReconfigured = "entity_reconfigured"
	EventEntityDeleted      = "entity_deleted"
)

// DefaultConnectTimeout bounds how long Dial waits for the first connection.
const DefaultConnectTimeout = 15 * time.Second

// Options configures Dial.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Feed emits lifecycle events on a connected socket.
type Feed struct {
	emit   func(event string, payload any)
	close  func()
	logger *slog.Logger
}

// Dial connects to the socket.io server and waits for the connection to be
// established.
func Dial(ctx context.Context, o Options) (*Feed, error) {
	logger := ctxlog.FromContext(ctx).With("component", "events", "url", o.URL)

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("events URL %q must be absolute", o.URL)
	}
	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	namespace := o.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Events feed connected", "namespace", namespace, "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Connecting events feed...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	return newFeed(
		func(event string, payload any) { io.Emit(event, payload) },
		func() { io.Disconnect() },
		logger,
	), nil
}

func newFeed(emit func(string, any), closeFn func(), logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{emit: emit, close: closeFn, logger: logger}
}

// EntityCreated emits entity_created with type, id and properties.
func (f *Feed) EntityCreated(e *entity.Instance) {
	f.publish(EventEntityCreated, map[string]any{
		"type":       e.TypeName,
		"id":         e.ID.String(),
		"properties": f.properties(e),
	})
}

// EntityReconfigured emits entity_reconfigured with id and properties.
func (f *Feed) EntityReconfigured(e *entity.Instance) {
	f.publish(EventEntityReconfigured, map[string]any{
		"id":         e.ID.String(),
		"properties": f.properties(e),
	})
}

// EntityDeleted emits entity_deleted with the id.
func (f *Feed) EntityDeleted(id uuid.UUID) {
	f.publish(EventEntityDeleted, map[string]any{"id": id.String()})
}

// Close disconnects the socket.
func (f *Feed) Close() error {
	if f.close != nil {
		f.close()
	}
	return nil
}

func (f *Feed) publish(event string, payload map[string]any) {
	f.logger.Debug("Emitting event.", "event", event, "entity_id", payload["id"])
	f.emit(event, payload)
}

// properties renders the entity's properties as plain JSON-compatible values.
func (f *Feed) properties(e *entity.Instance) map[string]any {
	out := map[string]any{}
	raw, err := entity.PropertiesToJSON(e.Properties())
	if err != nil {
		f.logger.Debug("Could not encode properties.", "entity_id", e.ID, "error", err)
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		f.logger.Debug("Could not decode properties.", "entity_id", e.ID, "error", err)
	}
	return out
}
