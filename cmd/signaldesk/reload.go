package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/NivraSD/SignalDesk-sub005/internal/config"
	"github.com/NivraSD/SignalDesk-sub005/internal/gateway"
)

// reloadableGenerator routes every call to the current backend and lets a
// config reload swap it without restarting the session.
type reloadableGenerator struct {
	mu  sync.RWMutex
	gen gateway.Generator
}

func newReloadableGenerator(gen gateway.Generator) *reloadableGenerator {
	return &reloadableGenerator{gen: gen}
}

func (r *reloadableGenerator) current() gateway.Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

func (r *reloadableGenerator) Swap(gen gateway.Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen = gen
}

func (r *reloadableGenerator) Name() string { return r.current().Name() }

func (r *reloadableGenerator) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	return r.current().Generate(ctx, req)
}

// newGatewayReloader builds the config-watcher callback: rebuild the backend
// from the fresh gateway settings and swap it in. A config that no longer
// constructs a valid backend keeps the previous one.
func newGatewayReloader(rgen *reloadableGenerator, logger *zap.Logger) func(*config.Config) {
	return func(fresh *config.Config) {
		next, err := gateway.New(context.Background(), fresh.Gateway, logger)
		if err != nil {
			logger.Warn("config reload kept previous gateway", zap.Error(err))
			return
		}
		rgen.Swap(next)
		logger.Info("gateway settings reloaded", zap.String("provider", next.Name()))
	}
}
