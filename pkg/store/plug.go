package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// PlugNic records a public NIC for ip on router, on the next free device
// slot. The agent brings the interface up when it receives the ip_assoc
// command for the address.
func (m *Memory) PlugNic(ctx context.Context, router *model.Router, ip *model.PublicIPAddress) (*model.Nic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := m.FindRouter(router.ID); err != nil {
		return nil, err
	}
	uri := ip.VlanTag
	if util.URIScheme(uri) == "" {
		uri = "vlan://" + uri
	}
	nic := &model.Nic{
		InstanceID:   router.ID,
		NetworkID:    ip.NetworkID,
		IPv4Address:  ip.Address,
		IPv4Netmask:  ip.VlanNetmask,
		IPv4Gateway:  ip.VlanGateway,
		MACAddress:   ip.MACAddress,
		BroadcastURI: uri,
		DeviceID:     m.nextDeviceID(router.ID),
	}
	nic.ID = m.PutNic(nic)
	util.WithRouter(router.InstanceName).Debugf("store: plugged nic %d (%s) on device %d", nic.ID, uri, nic.DeviceID)
	return nic, nil
}

// UnplugNic removes a NIC previously plugged into router.
func (m *Memory) UnplugNic(ctx context.Context, router *model.Router, nic *model.Nic) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if nic.InstanceID != router.ID {
		return fmt.Errorf("%w: nic %d does not belong to router %s", util.ErrInvalidArgument, nic.ID, router.InstanceName)
	}
	return m.RemoveNic(nic.ID)
}

func (m *Memory) nextDeviceID(routerID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	next := 0
	for _, n := range m.nics {
		if n.InstanceID == routerID && n.DeviceID >= next {
			next = n.DeviceID + 1
		}
	}
	return next
}

// ListNetworks returns every network ordered by ID.
func (m *Memory) ListNetworks() []*model.Network {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Network, 0, len(m.networks))
	for _, n := range m.networks {
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListHosts returns every host ordered by ID.
func (m *Memory) ListHosts() []*model.Host {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Host, 0, len(m.hosts))
	for _, h := range m.hosts {
		c := *h
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
