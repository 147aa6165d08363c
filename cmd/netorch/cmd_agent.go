package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tenantnet/netorch/pkg/agent"
	"github.com/tenantnet/netorch/pkg/cli"
	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

var (
	agentAddr    string
	agentReject  []string
	beatStatus   string
	beatInterval time.Duration
	beatOnce     bool
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Agent bus tools",
	Long: `Tools for the agent bus that carries command batches to routers.

serve stands in for router agents in a lab: it answers every batch queued
for the given routers. heartbeat publishes host status the way a host
agent does. status reads it back.

Examples:
  netorch agent serve r-20-VM r-21-VM --reject SetFirewallRulesCommand
  netorch agent heartbeat 2 --interval 30s
  netorch agent status 2 3`,
}

var agentServeCmd = &cobra.Command{
	Use:   "serve <router>...",
	Short: "Answer command batches for routers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := openAgentBus(ctx)
		if err != nil {
			return err
		}
		defer bus.Close()

		handler := rejectingHandler(agentReject)
		var wg sync.WaitGroup
		errs := make(chan error, len(args))
		for _, router := range args {
			wg.Add(1)
			go func(router string) {
				defer wg.Done()
				util.WithRouter(router).Info("Serving command queue")
				if err := bus.Serve(ctx, router, handler); err != nil {
					errs <- err
					stop()
				}
			}(router)
		}
		wg.Wait()
		close(errs)
		return <-errs
	},
}

var agentHeartbeatCmd = &cobra.Command{
	Use:   "heartbeat <host-id>",
	Short: "Publish host status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hostID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid host id %q", args[0])
		}
		status := model.HostStatus(beatStatus)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := openAgentBus(ctx)
		if err != nil {
			return err
		}
		defer bus.Close()

		ticker := time.NewTicker(beatInterval)
		defer ticker.Stop()
		for {
			if err := bus.Heartbeat(ctx, hostID, status); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			util.Debugf("Host %d heartbeat: %s", hostID, status)
			if beatOnce {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

var agentStatusCmd = &cobra.Command{
	Use:   "status <host-id>...",
	Short: "Show host status from heartbeats",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		bus, err := openAgentBus(ctx)
		if err != nil {
			return err
		}
		defer bus.Close()

		statuses := make(map[int64]model.HostStatus)
		t := cli.NewTable("HOST", "STATUS")
		for _, arg := range args {
			hostID, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid host id %q", arg)
			}
			status, err := bus.HostStatus(ctx, hostID)
			if err != nil {
				return err
			}
			statuses[hostID] = status
			t.Row(arg, cli.Severity(hostSeverity(status), string(status)))
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(statuses)
		}
		t.Flush()
		return nil
	},
}

func init() {
	agentCmd.PersistentFlags().StringVar(&agentAddr, "addr", "", "Agent bus address (default from settings)")
	agentServeCmd.Flags().StringSliceVar(&agentReject, "reject", nil, "Fail commands of these kinds")
	agentHeartbeatCmd.Flags().StringVar(&beatStatus, "status", string(model.HostUp), "Status to publish")
	agentHeartbeatCmd.Flags().DurationVar(&beatInterval, "interval", 30*time.Second, "Heartbeat interval")
	agentHeartbeatCmd.Flags().BoolVar(&beatOnce, "once", false, "Publish one heartbeat and exit")

	agentCmd.AddCommand(agentServeCmd)
	agentCmd.AddCommand(agentHeartbeatCmd)
	agentCmd.AddCommand(agentStatusCmd)
}

// agentBus is a bus that can also stand in for agents.
type agentBus interface {
	agent.Bus
	Serve(ctx context.Context, router string, handler agent.Handler) error
	Heartbeat(ctx context.Context, hostID int64, status model.HostStatus) error
}

// openAgentBus connects to the bus given by --addr or settings.
func openAgentBus(ctx context.Context) (agentBus, error) {
	addr := agentAddr
	if addr == "" {
		addr = userSettings.GetAgentAddr()
	}
	bus, err := openBus(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to agent bus %s: %w", addr, err)
	}
	b, ok := bus.(agentBus)
	if !ok {
		bus.Close()
		return nil, fmt.Errorf("agent bus %s does not support serving", addr)
	}
	return b, nil
}

// rejectingHandler acknowledges every command except those whose kind is
// listed in kinds.
func rejectingHandler(kinds []string) agent.Handler {
	if len(kinds) == 0 {
		return agent.AcceptAll
	}
	reject := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		reject[strings.TrimSpace(k)] = true
	}
	return func(ctx context.Context, env *agent.Envelope) []command.Answer {
		answers := agent.AcceptAll(ctx, env)
		for i, c := range env.Commands {
			if reject[c.Kind] {
				answers[i] = command.Answer{ID: c.ID, Result: false, Details: "rejected by lab agent"}
			}
		}
		return answers
	}
}
