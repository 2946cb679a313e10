// Package mock provides an in-memory mock implementation of the
// [voice.Provider] interface for use in unit tests.
//
// The mock records every Exchange call so that tests can assert on call
// counts and request contents, and exposes exported fields to control the
// returned reply or error.
package mock

import (
	"context"
	"sync"

	"github.com/clayvoice/clayvoice/pkg/provider/voice"
)

// Provider is a mock implementation of [voice.Provider].
// Set the exported Result fields before use; inspect the recorded calls after.
type Provider struct {
	mu sync.Mutex

	// Reply is returned by Exchange when ExchangeError is nil.
	Reply voice.Reply

	// ExchangeError is returned by Exchange when non-nil.
	ExchangeError error

	// ExchangeCalls records all Exchange invocations in order.
	ExchangeCalls []voice.Request
}

// Exchange implements [voice.Provider]. Records the request and returns the
// configured reply or error.
func (p *Provider) Exchange(_ context.Context, req voice.Request) (*voice.Reply, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ExchangeCalls = append(p.ExchangeCalls, req)
	if p.ExchangeError != nil {
		return nil, p.ExchangeError
	}
	r := p.Reply
	return &r, nil
}

// Calls returns a copy of the recorded Exchange requests.
func (p *Provider) Calls() []voice.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]voice.Request, len(p.ExchangeCalls))
	copy(out, p.ExchangeCalls)
	return out
}
