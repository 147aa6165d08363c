package agent

import (
	"context"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// HostStatusSource reports the connection status of a host agent.
type HostStatusSource interface {
	HostStatus(ctx context.Context, hostID int64) (model.HostStatus, error)
}

// HostStore records host status in the inventory.
type HostStore interface {
	SetHostStatus(id int64, status model.HostStatus) error
}

// RefreshHosts copies the live status of each host into the inventory, so
// stop-pending checks see whether the host is up. It stops at the first
// error.
func RefreshHosts(ctx context.Context, src HostStatusSource, store HostStore, hostIDs []int64) error {
	for _, id := range hostIDs {
		status, err := src.HostStatus(ctx, id)
		if err != nil {
			return err
		}
		util.Debugf("agent: host %d is %s", id, status)
		if err := store.SetHostStatus(id, status); err != nil {
			return err
		}
	}
	return nil
}
