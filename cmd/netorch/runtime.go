package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/docker/go-events"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/tenantnet/netorch/pkg/agent"
	"github.com/tenantnet/netorch/pkg/audit"
	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/intent"
	"github.com/tenantnet/netorch/pkg/metrics"
	"github.com/tenantnet/netorch/pkg/settings"
	"github.com/tenantnet/netorch/pkg/store"
	"github.com/tenantnet/netorch/pkg/topology"
	"github.com/tenantnet/netorch/pkg/util"
)

const (
	defaultAuditMaxSize    = 10 * 1024 * 1024 // 10MB
	defaultAuditMaxBackups = 10
)

// runtime is everything an apply needs, wired from settings.
type runtime struct {
	store    *store.Memory
	pool     *agent.Pool
	executor *intent.Executor
	events   events.Sink
	server   *http.Server
}

func openRuntime(ctx context.Context) (*runtime, error) {
	m, err := store.LoadFile(userSettings.GetInventory())
	if err != nil {
		return nil, err
	}
	rt := &runtime{store: m}

	rt.pool = agent.NewPool(func(hostID int64) string {
		if h, err := m.FindHost(hostID); err == nil && h.AgentAddr != "" {
			return h.AgentAddr
		}
		return userSettings.AgentAddrForHost(hostID)
	}, openBus)

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	if logger, err := openAuditLog(); err != nil {
		util.Warnf("Could not initialize audit logging: %v", err)
	} else {
		rt.events = audit.NewSink(logger)
	}

	dispatcher := agent.NewDispatcher(rt.pool, agent.NewRemediator(m, rt.events, collector))
	topologies := topology.NewDefaultContext(topology.Deps{
		Store:      m,
		Builder:    command.NewBuilder(m),
		Dispatcher: dispatcher,
		Plugger:    m,
		Events:     rt.events,
		Metrics:    collector,
	})
	rt.executor = intent.NewExecutor(topologies, m)

	if addr := userSettings.MetricsAddr; addr != "" {
		rt.server = &http.Server{
			Addr:              addr,
			Handler:           metrics.Handler(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			util.Debugf("Serving metrics on %s", addr)
			if err := rt.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				util.Warnf("Metrics server: %v", err)
			}
		}()
	}
	return rt, nil
}

// refreshHosts copies live host status from the agent bus into the
// inventory. A bus that cannot be read leaves the inventory status alone.
func (rt *runtime) refreshHosts(ctx context.Context) {
	var ids []int64
	for _, h := range rt.store.ListHosts() {
		ids = append(ids, h.ID)
	}
	if err := agent.RefreshHosts(ctx, rt.pool, rt.store, ids); err != nil {
		util.Warnf("Host status not refreshed: %v", err)
	}
}

func (rt *runtime) Close() {
	if rt.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rt.server.Shutdown(ctx)
	}
	if err := rt.pool.Close(); err != nil {
		util.Debugf("Closing agent bus: %v", err)
	}
	if rt.events != nil {
		// flushes queued audit events
		rt.events.Close()
	}
}

func openAuditLog() (*audit.FileLogger, error) {
	rotation := audit.RotationConfig{
		MaxSize:    userSettings.AuditMaxSize,
		MaxBackups: userSettings.AuditMaxBackups,
	}
	if rotation.MaxSize == 0 {
		rotation.MaxSize = defaultAuditMaxSize
	}
	if rotation.MaxBackups == 0 {
		rotation.MaxBackups = defaultAuditMaxBackups
	}
	return audit.NewFileLogger(userSettings.GetAuditLog(), rotation)
}

// ============================================================================
// Agent bus
// ============================================================================

// tunneledBus closes its SSH tunnel with the bus.
type tunneledBus struct {
	*agent.RedisTransport
	tunnel *agent.SSHTunnel
}

func (b *tunneledBus) Close() error {
	err := b.RedisTransport.Close()
	if terr := b.tunnel.Close(); err == nil {
		err = terr
	}
	return err
}

// openBus connects to the agent bus at addr, through the configured SSH
// tunnel if any.
func openBus(ctx context.Context, addr string) (agent.Bus, error) {
	cfg := userSettings.Agent
	opts := agent.RedisOptions{
		Addr:          addr,
		Password:      cfg.Password,
		DB:            cfg.DB,
		AnswerTimeout: cfg.Timeout,
	}

	if cfg.Tunnel == "" {
		t := agent.NewRedisTransport(opts)
		if err := t.Connect(ctx); err != nil {
			t.Close()
			return nil, err
		}
		return t, nil
	}

	password, err := sshPassword(cfg)
	if err != nil {
		return nil, err
	}
	// asked once per run
	userSettings.Agent.SSHPassword = password
	tunnel, err := agent.NewSSHTunnel(agent.TunnelConfig{
		Host:       cfg.Tunnel,
		User:       cfg.SSHUser,
		Password:   password,
		Remote:     addr,
		KnownHosts: cfg.KnownHosts,
	})
	if err != nil {
		return nil, err
	}
	util.Debugf("Agent bus %s tunneled through %s on %s", addr, cfg.Tunnel, tunnel.LocalAddr())

	opts.Addr = tunnel.LocalAddr()
	t := agent.NewRedisTransport(opts)
	if err := t.Connect(ctx); err != nil {
		t.Close()
		tunnel.Close()
		return nil, err
	}
	return &tunneledBus{RedisTransport: t, tunnel: tunnel}, nil
}

// sshPassword returns the configured SSH password, prompting on a terminal
// when none is set.
func sshPassword(cfg settings.AgentSettings) (string, error) {
	if cfg.SSHPassword != "" {
		return cfg.SSHPassword, nil
	}
	if cfg.SSHUser == "" {
		return "", fmt.Errorf("SSH user required for tunnel %s: use --ssh-user or set %s", cfg.Tunnel, settings.EnvSSHUser)
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("SSH password required for %s@%s: set %s", cfg.SSHUser, cfg.Tunnel, settings.EnvSSHPassword)
	}
	fmt.Fprintf(os.Stderr, "SSH password for %s@%s: ", cfg.SSHUser, cfg.Tunnel)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
