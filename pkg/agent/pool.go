package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// Bus is one agent bus: it carries command batches and host heartbeats.
type Bus interface {
	Transport
	HostStatusSource
	Close() error
}

var _ Bus = (*RedisTransport)(nil)

// OpenFunc connects to the bus at addr.
type OpenFunc func(ctx context.Context, addr string) (Bus, error)

// Pool routes envelopes to the bus of the router's host. Hosts sharing an
// address share a bus, opened on first use.
type Pool struct {
	addrFor func(hostID int64) string
	open    OpenFunc

	mu    sync.Mutex
	buses map[string]Bus
}

// NewPool creates a pool. addrFor maps a host id to its bus address.
func NewPool(addrFor func(hostID int64) string, open OpenFunc) *Pool {
	return &Pool{addrFor: addrFor, open: open, buses: make(map[string]Bus)}
}

func (p *Pool) bus(ctx context.Context, hostID int64) (Bus, error) {
	addr := p.addrFor(hostID)
	if addr == "" {
		return nil, fmt.Errorf("%w: no agent bus for host %d", util.ErrInvalidArgument, hostID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buses[addr]; ok {
		return b, nil
	}
	b, err := p.open(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to agent bus %s: %w", addr, err)
	}
	util.Debugf("agent: opened bus %s for host %d", addr, hostID)
	p.buses[addr] = b
	return b, nil
}

// Send delivers env over the bus of env.Host.
func (p *Pool) Send(ctx context.Context, env *Envelope) ([]command.Answer, error) {
	b, err := p.bus(ctx, env.Host)
	if err != nil {
		return nil, util.NewAgentUnavailable(env.Router, err)
	}
	return b.Send(ctx, env)
}

// HostStatus reads the heartbeat of hostID from its bus.
func (p *Pool) HostStatus(ctx context.Context, hostID int64) (model.HostStatus, error) {
	b, err := p.bus(ctx, hostID)
	if err != nil {
		return "", err
	}
	return b.HostStatus(ctx, hostID)
}

// Close closes every bus and returns the first error.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for addr, b := range p.buses {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
		delete(p.buses, addr)
	}
	return first
}
