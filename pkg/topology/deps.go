// Package topology dispatches network intents to the virtual routers of a
// zone. A NetworkTopology exposes one operation per intent; it wraps the
// intent in a rules.Applier and runs it through ApplyRules, which owns the
// router state gating, failure classification and redundancy remediation
// shared by every intent. The bound Visitor decides which commands each
// Applier turns into for the zone flavor.
package topology

import (
	"context"
	"time"

	"github.com/docker/go-events"

	"github.com/tenantnet/netorch/pkg/audit"
	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/metrics"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// Store is the read side of the inventory used while building commands,
// plus the one write needed to release an alias after a failed DHCP subnet
// configuration.
type Store interface {
	command.Store
	FindHost(id int64) (*model.Host, error)
	// FindPrivateIP resolves a private gateway address by the network it
	// was allocated from.
	FindPrivateIP(sourceNetworkID int64, ip string) (*model.PrivateIP, error)
	// FindRouterNicByBroadcastURI returns the router NIC carrying uri in
	// networkID, or an error wrapping util.ErrNotFound.
	FindRouterNicByBroadcastURI(networkID, routerID int64, uri string) (*model.Nic, error)
	ReleaseIPAlias(id int64) error
}

// Dispatcher sends command batches to routers and remediates redundant
// pairs where only one router could be reached.
type Dispatcher interface {
	// SendCommandsToRouter sends cmds to the agent of router. It returns
	// false when answers came back and at least one failed. An unreachable
	// agent is reported as an error wrapping util.ErrAgentUnavailable.
	SendCommandsToRouter(ctx context.Context, router *model.Router, cmds *command.Commands) (bool, error)
	HandleSingleWorkingRedundantRouter(ctx context.Context, connected, disconnected []*model.Router, reason string) error
}

// NicPlugger hot-plugs public NICs into a running VPC router.
type NicPlugger interface {
	PlugNic(ctx context.Context, router *model.Router, ip *model.PublicIPAddress) (*model.Nic, error)
	UnplugNic(ctx context.Context, router *model.Router, nic *model.Nic) error
}

// Deps are the collaborators a topology is built with. Events and Metrics
// are optional.
type Deps struct {
	Store      Store
	Builder    *command.Builder
	Dispatcher Dispatcher
	Plugger    NicPlugger
	Events     events.Sink
	Metrics    *metrics.Collector
}

// recorder emits one audit event and one metric per router outcome.
type recorder struct {
	topology string
	events   events.Sink
	metrics  *metrics.Collector
}

func (r recorder) record(intent string, network *model.Network, router *model.Router, applier string, outcome audit.Outcome, err error, took time.Duration) {
	r.metrics.ObserveDispatch(r.topology, intent, string(outcome))
	if took > 0 {
		r.metrics.ObserveDuration(r.topology, took)
	}
	if r.events == nil {
		return
	}
	e := audit.NewEvent(r.topology, intent).
		WithApplier(applier).
		WithOutcome(outcome).
		WithDuration(took)
	switch {
	case network == nil:
	case network.ID == 0 && network.VpcID != 0:
		e.WithVpc(network.VpcID)
	default:
		e.WithNetwork(network.ID)
	}
	if router != nil {
		e.WithRouter(router.ID, router.InstanceName)
	}
	if err != nil {
		e.WithError(err)
	}
	if werr := r.events.Write(e); werr != nil {
		util.Debugf("topology: dropping audit event: %v", werr)
	}
}
