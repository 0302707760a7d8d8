package commands

import (
	"context"

	"tableside/pkg/logger"

	"go.uber.org/zap"
)

// Proxy decides whether a command may run. Access control is the only proxy
// the service installs.
type Proxy interface {
	Authorize(ctx context.Context, cmd Command) error
}

// ProxyChain runs proxies in order and stops at the first denial.
type ProxyChain struct {
	proxies []Proxy
	log     *logger.Logger
}

func NewProxyChain(proxies ...Proxy) *ProxyChain {
	items := make([]Proxy, 0, len(proxies))
	for _, proxy := range proxies {
		if proxy != nil {
			items = append(items, proxy)
		}
	}
	return &ProxyChain{proxies: items, log: logger.NewNop()}
}

func (p *ProxyChain) Authorize(ctx context.Context, cmd Command) error {
	for _, proxy := range p.proxies {
		if err := proxy.Authorize(ctx, cmd); err != nil {
			fields := []zap.Field{zap.String("command", cmd.CommandType()), zap.Error(err)}
			if ac, ok := cmd.(ActorCommand); ok {
				actor := ac.ActorPrincipal()
				fields = append(fields, zap.Uint("actor_id", actor.ID), zap.String("actor_role", string(actor.Role)))
			}
			p.log.WithContext(ctx).Info("command denied", fields...)
			return err
		}
	}
	return nil
}
