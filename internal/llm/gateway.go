package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/service"
)

// Gateway wraps a provider Client with rate limiting, retries and a response cache.
// It is itself a Client and is what the interpreter, analyzer and advisor use.
type Gateway struct {
	client      Client
	cache       *responseCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// NewGateway creates the provider client named by cfg and wraps it.
func NewGateway(cfg Config, logger *slog.Logger) (*Gateway, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return newGateway(client, cfg, logger), nil
}

func newGateway(client Client, cfg Config, logger *slog.Logger) *Gateway {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Gateway{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		logger:      common.ComponentLogger(logger, "llm"),
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// Complete implements Client.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	var key string
	if req.Cacheable {
		key = cacheKey(req)
		if text, ok := g.cache.get(key); ok {
			g.logger.Debug("cache hit", "key", key[:12])
			return text, nil
		}
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		if err := g.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		var callErr error
		text, callErr = g.client.Complete(ctx, req)
		return callErr
	}, g.retryOpts)
	if err != nil {
		return "", err
	}

	if req.Cacheable {
		g.cache.set(key, text)
	}
	return text, nil
}

// Close stops background goroutines.
func (g *Gateway) Close() {
	g.rateLimiter.Close()
	g.cache.Close()
}
