package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NivraSD/SignalDesk-sub005/internal/config"
)

// New constructs the Generator named by the config. Unknown providers are an
// error at construction time, not at first use.
func New(ctx context.Context, cfg config.GatewayConfig, logger *zap.Logger) (Generator, error) {
	timeout, err := cfg.ParseTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid gateway timeout: %w", err)
	}

	switch cfg.Provider {
	case "", "rest":
		return NewRESTClient(Config{
			BaseURL: cfg.BaseURL,
			Path:    cfg.Path,
			APIKey:  cfg.APIKey,
			Timeout: timeout,
			Logger:  logger,
		})
	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Logger: logger,
		})
	default:
		return nil, fmt.Errorf("unknown gateway provider: %q", cfg.Provider)
	}
}

// ProviderStatus is one entry in a health probe report.
type ProviderStatus struct {
	Name string
	Err  error
}

// CheckProviders probes each generator concurrently and reports per-provider
// health. Probe failures are reported, never returned as a combined error;
// the caller decides what is fatal.
func CheckProviders(ctx context.Context, gens []Generator) []ProviderStatus {
	statuses := make([]ProviderStatus, len(gens))

	g, ctx := errgroup.WithContext(ctx)
	for i, gen := range gens {
		g.Go(func() error {
			statuses[i] = ProviderStatus{Name: gen.Name(), Err: probe(ctx, gen)}
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}

// probe checks reachability without spending a generation call where
// possible. The REST backend gets a cheap HTTP request to its base URL;
// other backends are considered healthy once constructed.
func probe(ctx context.Context, gen Generator) error {
	rc, ok := gen.(*RESTClient)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Describe renders a probe report as a short human-readable block.
func Describe(statuses []ProviderStatus) string {
	var b strings.Builder
	for _, s := range statuses {
		if s.Err != nil {
			fmt.Fprintf(&b, "%-8s unreachable: %v\n", s.Name, s.Err)
			continue
		}
		fmt.Fprintf(&b, "%-8s ok\n", s.Name)
	}
	return b.String()
}
