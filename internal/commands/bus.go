package commands

import (
	"context"
	"sync"

	"tableside/pkg/logger"
)

// Bus dispatches commands by type. Execute validates, runs every registered
// proxy, then the handler.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	proxies  *ProxyChain
}

func NewBus(proxies ...Proxy) *Bus {
	return &Bus{
		handlers: make(map[string]Handler),
		proxies:  NewProxyChain(proxies...),
	}
}

func (b *Bus) Register(commandType string, handler Handler) {
	b.mu.Lock()
	b.handlers[commandType] = handler
	b.mu.Unlock()
}

// Use appends a proxy to the authorization chain.
func (b *Bus) Use(proxy Proxy) {
	b.mu.Lock()
	log := b.proxies.log
	b.proxies = NewProxyChain(append(b.proxies.proxies, proxy)...)
	b.proxies.log = log
	b.mu.Unlock()
}

// WithLogger sets the logger denied commands are reported to.
func (b *Bus) WithLogger(l *logger.Logger) *Bus {
	b.mu.Lock()
	b.proxies.log = logger.OrNop(l).Named("commands")
	b.mu.Unlock()
	return b
}

func (b *Bus) Execute(ctx context.Context, cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, err
	}

	b.mu.RLock()
	h, ok := b.handlers[cmd.CommandType()]
	proxies := b.proxies
	b.mu.RUnlock()
	if !ok {
		return Result{}, ErrHandlerNotFound
	}

	if err := proxies.Authorize(ctx, cmd); err != nil {
		return Result{}, err
	}
	return h.Handle(ctx, cmd)
}
