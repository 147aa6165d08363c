package agent

import (
	"context"

	"github.com/docker/go-events"

	"github.com/tenantnet/netorch/pkg/audit"
	"github.com/tenantnet/netorch/pkg/metrics"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// RouterStore is the write the remediator needs from the inventory.
type RouterStore interface {
	SetRouterStopPending(id int64, pending bool) error
}

// Remediator flags the unreachable member of a redundant router pair so the
// lifecycle manager stops it once it reconnects, instead of letting it come
// back with stale rules and claim the primary role.
type Remediator struct {
	store   RouterStore
	events  events.Sink
	metrics *metrics.Collector
}

// NewRemediator creates a remediator. sink and m may be nil.
func NewRemediator(store RouterStore, sink events.Sink, m *metrics.Collector) *Remediator {
	return &Remediator{store: store, events: sink, metrics: m}
}

// HandleSingleWorkingRedundantRouter marks the first disconnected router
// stop-pending and raises an alert carrying reason. Every router passed in
// must be redundant.
func (r *Remediator) HandleSingleWorkingRedundantRouter(ctx context.Context, connected, disconnected []*model.Router, reason string) error {
	if len(connected) == 0 || len(disconnected) == 0 {
		return nil
	}
	for _, list := range [][]*model.Router{connected, disconnected} {
		for _, router := range list {
			if !router.IsRedundant {
				r.metrics.ObserveRemediation("rejected")
				return util.NewResourceUnavailable(util.ReasonUnknown, util.ScopeDataCenter, router.DataCenterID,
					"Who is calling this with non-redundant router %s", router.InstanceName)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := disconnected[0]
	if err := r.store.SetRouterStopPending(target.ID, true); err != nil {
		return err
	}
	r.metrics.ObserveRemediation("stop-pending")

	msg := "Router " + target.InstanceName + " would be stopped after connecting back, due to " + reason
	util.WithRouter(target.InstanceName).Warn(msg)
	if r.events != nil {
		e := audit.NewEvent("Advanced", "remediation").
			WithRouter(target.ID, target.InstanceName).
			WithOutcome(audit.OutcomeRemediated).
			WithMessage("%s", msg)
		if err := r.events.Write(e); err != nil {
			util.Debugf("agent: dropping remediation event: %v", err)
		}
	}
	return nil
}
