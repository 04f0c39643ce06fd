// Package http_client builds the resty client shared by the HTTP-based
// behaviour kinds. Each module owns one client and closes it on shutdown.
package http_client

import (
	"net/http"
	"time"

	"resty.dev/v3"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// UserAgent is sent with every request.
const UserAgent = "behaviourgrid"

// New creates a client with pooled connections and the given per-request
// timeout. A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent).
		SetTransport(&http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		})
}
