package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/pkg/circuitbreaker"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const connectKey = "connect"

// Config is read once, on the first Acquire.
type Config struct {
	Target          string
	DatabaseName    string
	EnsureSchema    bool
	ConnectAttempts int
}

// Connector opens a ready handle for one backend.
type Connector func(ctx context.Context, target Target, cfg Config, logger *log.Logger) (Handle, error)

type resolvedConfig struct {
	cfg    Config
	target Target
}

// Provider lazily opens one storage handle per process and shares it with every caller.
// Concurrent cold callers join a single in-flight connection attempt. A failed attempt is
// not remembered, so the next Acquire tries again.
type Provider struct {
	logger     *log.Logger
	loadConfig func() (resolvedConfig, error)
	connectors map[Backend]Connector
	breaker    circuitbreaker.CircuitBreaker
	group      singleflight.Group

	mu     sync.RWMutex
	handle Handle
	state  State
	// closes counts Close calls. An attempt started before a Close must not install its handle.
	closes uint64
}

type Option func(*Provider)

// WithConnector replaces the connector used for backend.
func WithConnector(backend Backend, connector Connector) Option {
	return func(p *Provider) {
		p.connectors[backend] = connector
	}
}

func WithBreaker(breaker circuitbreaker.CircuitBreaker) Option {
	return func(p *Provider) {
		p.breaker = breaker
	}
}

func NewProvider(logger *log.Logger, load func() (Config, error), opts ...Option) *Provider {
	p := &Provider{
		logger: logger,
		connectors: map[Backend]Connector{
			BackendMongo:    ConnectMongo,
			BackendPostgres: ConnectSQL,
			BackendSQLite:   ConnectSQL,
		},
		breaker: circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 1,
		}),
		state: State{Status: StatusIdle},
	}

	p.loadConfig = sync.OnceValues(func() (resolvedConfig, error) {
		cfg, err := load()
		if err != nil {
			return resolvedConfig{}, err
		}

		target, err := ParseTarget(cfg.Target)
		if err != nil {
			return resolvedConfig{}, err
		}

		if cfg.ConnectAttempts < 1 {
			cfg.ConnectAttempts = 1
		}

		return resolvedConfig{cfg: cfg, target: target}, nil
	})

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Acquire returns the shared handle, connecting on first use.
func (p *Provider) Acquire(ctx context.Context) (Handle, error) {
	if h := p.current(); h != nil {
		return h, nil
	}

	resolved, err := p.loadConfig()
	if err != nil {
		p.setState(State{Status: StatusUnconfigured, Reason: err.Error()})
		return nil, apperrors.NewStorageUnavailableError("storage is not configured", err)
	}

	// The attempt outlives any single waiter.
	attemptCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(connectKey, func() (any, error) {
		return p.connect(attemptCtx, resolved)
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewStorageUnavailableError("storage is not ready", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Handle), nil
	}
}

// Warm starts the first connection attempt and waits for its outcome.
func (p *Provider) Warm(ctx context.Context) error {
	_, err := p.Acquire(ctx)
	return err
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Close disconnects the shared handle, if any, and returns the provider to idle.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	h := p.handle
	p.handle = nil
	p.state = State{Status: StatusIdle}
	p.closes++
	p.mu.Unlock()

	if h == nil {
		return nil
	}

	if err := h.Close(ctx); err != nil {
		p.logger.Error("Failed to close storage handle", "backend", h.Backend(), "error", err)
		return fmt.Errorf("close storage: %w", err)
	}

	p.logger.Info("Storage connection closed", "backend", h.Backend())
	return nil
}

func (p *Provider) connect(ctx context.Context, resolved resolvedConfig) (Handle, error) {
	// A caller that lost the race to an earlier flight may land here after it finished.
	if h := p.current(); h != nil {
		return h, nil
	}

	p.mu.Lock()
	generation := p.closes
	p.mu.Unlock()

	target := resolved.target
	connector, ok := p.connectors[target.Backend]
	if !ok {
		err := fmt.Errorf("no connector registered for backend %q", target.Backend)
		p.setStateIfOpen(generation, State{Status: StatusFailed, Reason: err.Error()})
		return nil, apperrors.NewStorageUnavailableError("storage is not ready", err)
	}

	p.setStateIfOpen(generation, State{Status: StatusConnecting})
	p.logger.Info("Connecting to storage", "backend", target.Backend, "target", target.Redacted())

	var handle Handle
	err := p.breaker.Call(func() error {
		h, err := connector(ctx, target, resolved.cfg, p.logger)
		if err != nil {
			return err
		}
		handle = h
		return nil
	})
	if err != nil {
		p.setStateIfOpen(generation, State{Status: StatusFailed, Reason: err.Error()})
		p.logger.Warn("Storage connection attempt failed", "backend", target.Backend, "error", err)
		return nil, apperrors.NewStorageUnavailableError("storage is not ready", err)
	}

	p.mu.Lock()
	if p.closes != generation {
		p.mu.Unlock()
		p.logger.Warn("Storage closed while connecting; discarding handle", "backend", target.Backend)
		if cerr := handle.Close(ctx); cerr != nil {
			p.logger.Error("Failed to close discarded storage handle", "backend", target.Backend, "error", cerr)
		}
		return nil, apperrors.NewStorageUnavailableError("storage is closed", nil)
	}
	p.handle = handle
	p.state = State{Status: StatusReady}
	p.mu.Unlock()

	p.logger.Info("Storage connection established", "backend", target.Backend)
	return handle, nil
}

func (p *Provider) current() Handle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle
}

func (p *Provider) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// setStateIfOpen drops the update when Close ran after the attempt began.
func (p *Provider) setStateIfOpen(generation uint64, s State) {
	p.mu.Lock()
	if p.closes == generation {
		p.state = s
	}
	p.mu.Unlock()
}
