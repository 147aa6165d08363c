package topology

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tenantnet/netorch/pkg/audit"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/rules"
	"github.com/tenantnet/netorch/pkg/util"
)

// core holds what both topology flavors share: the collaborators, the bound
// visitor and the ApplyRules algorithm.
type core struct {
	deps    Deps
	visitor rules.Visitor
	kind    model.NetworkType
	rec     recorder
}

func newCore(deps Deps, kind model.NetworkType, visitor rules.Visitor) core {
	return core{
		deps:    deps,
		visitor: visitor,
		kind:    kind,
		rec:     recorder{topology: string(kind), events: deps.Events, metrics: deps.Metrics},
	}
}

// Kind returns the zone flavor the topology serves.
func (c *core) Kind() model.NetworkType { return c.kind }

// Visitor returns the visitor appliers are dispatched to.
func (c *core) Visitor() rules.Visitor { return c.visitor }

// ApplyRules runs applier against every router of network, in order.
//
// Running routers get the applier dispatched once each. Stopped and Stopping
// routers are skipped. A router in any other state fails the call, as does a
// router whose answers reject the rules. Routers whose agent cannot be
// reached are collected as disconnected: when a redundant peer did receive
// the rules in an Advanced zone the dispatcher is asked to remediate,
// otherwise the call fails once every router turned out disconnected.
//
// isPodLevelException and podID may only be set for Basic zones; they scope
// failures to the pod instead of the data center. Passing them for an
// Advanced zone, or without a pod, panics.
//
// A stop-pending router on a host that is not up is declined: the other
// routers are still processed and the result is false.
//
// The result is true, or with failWhenDisconnect, whether at least one
// router received the rules.
func (c *core) ApplyRules(ctx context.Context, network *model.Network, routers []*model.Router, typeString string,
	isPodLevelException bool, podID int64, failWhenDisconnect bool, applier rules.Applier) (bool, error) {
	ok, _, err := c.applyRules(ctx, network, routers, typeString, isPodLevelException, podID, failWhenDisconnect, applier)
	return ok, err
}

// networkLog returns a logger for network, naming the VPC for the
// networkless appliers of a VPC.
func networkLog(network *model.Network) *logrus.Entry {
	if network.ID == 0 && network.VpcID != 0 {
		return util.WithField("vpc", network.VpcID)
	}
	return util.WithNetwork(network.ID)
}

// applyRules is ApplyRules, also returning the routers that received the
// rules.
func (c *core) applyRules(ctx context.Context, network *model.Network, routers []*model.Router, typeString string,
	isPodLevelException bool, podID int64, failWhenDisconnect bool, applier rules.Applier) (bool, []*model.Router, error) {
	log := networkLog(network)

	if !applier.HasRules() {
		log.Debugf("No %s to apply", typeString)
		return true, nil, nil
	}

	dc, err := c.deps.Store.FindDataCenter(network.DataCenterID)
	if err != nil {
		return false, nil, fmt.Errorf("applying %s in network %d: %w", typeString, network.ID, err)
	}
	isZoneBasic := dc.IsBasic()

	if (!isZoneBasic && isPodLevelException) || (isZoneBasic && isPodLevelException && podID == 0) {
		panic(fmt.Sprintf("topology: pod level exception for %s requires a Basic zone and a pod (zone %d is %s, pod %d)",
			typeString, dc.ID, dc.NetworkType, podID))
	}
	podScoped := isZoneBasic && isPodLevelException

	scoped := func(reason util.Reason, dcID int64, format string, args ...interface{}) error {
		if podScoped {
			return util.NewResourceUnavailable(reason, util.ScopePod, podID, format, args...)
		}
		return util.NewResourceUnavailable(reason, util.ScopeDataCenter, dcID, format, args...)
	}

	if len(routers) == 0 {
		log.Warnf("Unable to apply %s, virtual router doesn't exist in the network %d", typeString, network.ID)
		return false, nil, scoped(util.ReasonNoRouter, network.DataCenterID,
			"Unable to apply %s: no virtual router in network %d", typeString, network.ID)
	}

	var connected, disconnected []*model.Router
	declined := false
	for _, router := range routers {
		rlog := util.WithRouter(router.InstanceName)
		switch {
		case router.IsRunning() && router.StopPending:
			host, err := c.deps.Store.FindHost(router.HostID)
			if err != nil {
				return false, nil, fmt.Errorf("looking up host of stop pending router %s: %w", router.InstanceName, err)
			}
			if host.Status == model.HostUp {
				c.rec.record(typeString, network, router, applier.Name(), audit.OutcomeStopPending, nil, 0)
				return false, nil, util.NewResourceUnavailable(util.ReasonStopPending, util.ScopeDataCenter, router.DataCenterID,
					"Unable to process due to the stop pending router %s haven't been stopped after it's host coming back!", router.InstanceName)
			}
			rlog.Debugf("Router is marked as stop pending and not in running host, so not sending %s to the backend", typeString)
			c.rec.record(typeString, network, router, applier.Name(), audit.OutcomeStopPending, nil, 0)
			declined = true

		case router.IsRunning():
			start := time.Now()
			ok, err := applier.Accept(ctx, c.visitor, router)
			took := time.Since(start)
			if err != nil {
				if errors.Is(err, util.ErrAgentUnavailable) {
					rlog.Warnf("Failed to apply %s on router %s: %v", typeString, router.InstanceName, err)
					c.rec.record(typeString, network, router, applier.Name(), audit.OutcomeDisconnected, err, took)
					disconnected = append(disconnected, router)
					continue
				}
				c.rec.record(typeString, network, router, applier.Name(), audit.OutcomeRejected, err, took)
				return false, nil, err
			}
			connected = append(connected, router)
			if !ok {
				c.rec.record(typeString, network, router, applier.Name(), audit.OutcomeRejected, nil, took)
				return false, nil, scoped(util.ReasonRuleRejected, router.DataCenterID,
					"Unable to apply %s on router %s", typeString, router.InstanceName)
			}
			c.rec.record(typeString, network, router, applier.Name(), audit.OutcomeApplied, nil, took)

		case router.IsStoppedOrStopping():
			rlog.Debugf("Router %s is in %s, so not sending apply %s commands to the backend", router.InstanceName, router.State, typeString)
			c.rec.record(typeString, network, router, applier.Name(), audit.OutcomeSkipped, nil, 0)

		default:
			rlog.Warnf("Unable to apply %s, virtual router is not in the right state %s", typeString, router.State)
			c.rec.record(typeString, network, router, applier.Name(), audit.OutcomeWrongState, nil, 0)
			return false, nil, scoped(util.ReasonRouterState, router.DataCenterID,
				"Unable to apply %s on the backend, virtual router %s is not in the right state %s", typeString, router.InstanceName, router.State)
		}
	}

	if len(connected) > 0 {
		if !isZoneBasic && len(disconnected) > 0 {
			for _, router := range disconnected {
				if !router.IsRedundant {
					continue
				}
				reason := fmt.Sprintf("Timeout applying %s on router %s", typeString, router.InstanceName)
				if err := c.deps.Dispatcher.HandleSingleWorkingRedundantRouter(ctx, connected, disconnected, reason); err != nil {
					return false, connected, err
				}
				break
			}
		}
	} else if len(disconnected) > 0 {
		first := disconnected[0]
		log.Warnf("Unable to apply %s, all virtual routers are disconnected", typeString)
		return false, nil, scoped(util.ReasonDisconnected, first.DataCenterID,
			"Unable to apply %s on router %s: agent unavailable", typeString, first.InstanceName)
	}

	if declined {
		return false, connected, nil
	}
	if failWhenDisconnect {
		return len(connected) > 0, connected, nil
	}
	return true, connected, nil
}
