package orchestrator

import (
	"context"
	"sync"

	"github.com/NivraSD/SignalDesk-sub005/internal/gateway"
	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// --- scriptedGenerator ---

// scriptedGenerator records every request and answers through a pluggable
// handler, so tests can script success, failure, or blocking.
type scriptedGenerator struct {
	mu      sync.Mutex
	reqs    []gateway.Request
	handler func(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	handler := g.handler
	g.mu.Unlock()

	if handler == nil {
		return &gateway.Response{Text: "ok"}, nil
	}
	return handler(ctx, req)
}

func (g *scriptedGenerator) Requests() []gateway.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]gateway.Request, len(g.reqs))
	copy(out, g.reqs)
	return out
}

// --- recordingSinks ---

// recordingSinks captures transcript and workspace deliveries. Safe for use
// from the turn worker goroutine.
type recordingSinks struct {
	mu    sync.Mutex
	msgs  []types.Message
	items []types.WorkItem
}

func (s *recordingSinks) AppendMessage(msg types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSinks) AddWorkItem(item types.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
}

func (s *recordingSinks) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *recordingSinks) Items() []types.WorkItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.WorkItem, len(s.items))
	copy(out, s.items)
	return out
}
