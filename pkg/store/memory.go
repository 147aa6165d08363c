package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// Memory is an in-memory inventory safe for concurrent use. Lookups return
// copies; changes go through the Put and Set methods.
type Memory struct {
	mu              sync.RWMutex
	dataCenters     map[int64]*model.DataCenter
	pods            map[int64]*model.Pod
	hosts           map[int64]*model.Host
	vpcs            map[int64]*model.Vpc
	networks        map[int64]*model.Network
	routers         map[int64]*model.Router
	vms             map[int64]*model.VirtualMachine
	nics            map[int64]*model.Nic
	aliases         map[int64]*model.IPAlias
	publicIPs       map[int64]*model.PublicIPAddress
	privateIPs      map[int64]*model.PrivateIP
	privateGateways map[int64]*model.PrivateGateway
	nextNicID       int64
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		dataCenters:     make(map[int64]*model.DataCenter),
		pods:            make(map[int64]*model.Pod),
		hosts:           make(map[int64]*model.Host),
		vpcs:            make(map[int64]*model.Vpc),
		networks:        make(map[int64]*model.Network),
		routers:         make(map[int64]*model.Router),
		vms:             make(map[int64]*model.VirtualMachine),
		nics:            make(map[int64]*model.Nic),
		aliases:         make(map[int64]*model.IPAlias),
		publicIPs:       make(map[int64]*model.PublicIPAddress),
		privateIPs:      make(map[int64]*model.PrivateIP),
		privateGateways: make(map[int64]*model.PrivateGateway),
	}
}

func notFound(kind string, key interface{}) error {
	return fmt.Errorf("%s %v: %w", kind, key, util.ErrNotFound)
}

// ============================================================================
// Writers
// ============================================================================

func (m *Memory) PutDataCenter(dc *model.DataCenter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *dc
	m.dataCenters[dc.ID] = &c
}

func (m *Memory) PutPod(p *model.Pod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.pods[p.ID] = &c
}

func (m *Memory) PutHost(h *model.Host) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *h
	m.hosts[h.ID] = &c
}

func (m *Memory) PutVpc(v *model.Vpc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *v
	m.vpcs[v.ID] = &c
}

func (m *Memory) PutNetwork(n *model.Network) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *n
	m.networks[n.ID] = &c
}

func (m *Memory) PutRouter(r *model.Router) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *r
	m.routers[r.ID] = &c
}

func (m *Memory) PutVM(vm *model.VirtualMachine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *vm
	m.vms[vm.ID] = &c
}

// PutNic stores n. A zero ID is replaced by the next free one, which is
// returned.
func (m *Memory) PutNic(n *model.Nic) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *n
	if c.ID == 0 {
		m.nextNicID++
		for m.nics[m.nextNicID] != nil {
			m.nextNicID++
		}
		c.ID = m.nextNicID
	}
	if c.ID > m.nextNicID {
		m.nextNicID = c.ID
	}
	m.nics[c.ID] = &c
	return c.ID
}

func (m *Memory) PutIPAlias(a *model.IPAlias) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *a
	m.aliases[a.ID] = &c
}

func (m *Memory) PutPublicIP(ip *model.PublicIPAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *ip
	m.publicIPs[ip.ID] = &c
}

func (m *Memory) PutPrivateIP(ip *model.PrivateIP) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *ip
	m.privateIPs[ip.ID] = &c
}

func (m *Memory) PutPrivateGateway(g *model.PrivateGateway) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *g
	m.privateGateways[g.ID] = &c
}

// RemoveNic deletes a NIC.
func (m *Memory) RemoveNic(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nics[id]; !ok {
		return notFound("nic", id)
	}
	delete(m.nics, id)
	return nil
}

// ReleaseIPAlias deletes an alias address.
func (m *Memory) ReleaseIPAlias(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.aliases[id]; !ok {
		return notFound("ip alias", id)
	}
	delete(m.aliases, id)
	return nil
}

// SetRouterStopPending flags a router so no further commands are sent to it
// until it has been stopped.
func (m *Memory) SetRouterStopPending(id int64, pending bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routers[id]
	if !ok {
		return notFound("router", id)
	}
	r.StopPending = pending
	return nil
}

// SetRouterState records a router lifecycle transition.
func (m *Memory) SetRouterState(id int64, state model.RouterState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routers[id]
	if !ok {
		return notFound("router", id)
	}
	r.State = state
	return nil
}

// SetHostStatus records a host agent status change.
func (m *Memory) SetHostStatus(id int64, status model.HostStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hosts[id]
	if !ok {
		return notFound("host", id)
	}
	h.Status = status
	return nil
}

// ============================================================================
// Readers
// ============================================================================

func (m *Memory) FindDataCenter(id int64) (*model.DataCenter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dc, ok := m.dataCenters[id]
	if !ok {
		return nil, notFound("zone", id)
	}
	c := *dc
	return &c, nil
}

func (m *Memory) FindPod(id int64) (*model.Pod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pods[id]
	if !ok {
		return nil, notFound("pod", id)
	}
	c := *p
	return &c, nil
}

func (m *Memory) FindHost(id int64) (*model.Host, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hosts[id]
	if !ok {
		return nil, notFound("host", id)
	}
	c := *h
	return &c, nil
}

func (m *Memory) FindVpc(id int64) (*model.Vpc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vpcs[id]
	if !ok {
		return nil, notFound("vpc", id)
	}
	c := *v
	return &c, nil
}

func (m *Memory) FindNetwork(id int64) (*model.Network, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.networks[id]
	if !ok {
		return nil, notFound("network", id)
	}
	c := *n
	return &c, nil
}

func (m *Memory) FindRouter(id int64) (*model.Router, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routers[id]
	if !ok {
		return nil, notFound("router", id)
	}
	c := *r
	return &c, nil
}

// FindRouterByName looks a router up by instance name.
func (m *Memory) FindRouterByName(name string) (*model.Router, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.routers {
		if r.InstanceName == name {
			c := *r
			return &c, nil
		}
	}
	return nil, notFound("router", name)
}

// ListRouters returns the routers with a NIC in networkID, ordered by ID.
func (m *Memory) ListRouters(networkID int64) []*model.Router {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[int64]bool)
	var out []*model.Router
	for _, n := range m.nics {
		if n.NetworkID != networkID || seen[n.InstanceID] {
			continue
		}
		if r, ok := m.routers[n.InstanceID]; ok {
			seen[r.ID] = true
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListAllRouters returns every router ordered by ID.
func (m *Memory) ListAllRouters() []*model.Router {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Router, 0, len(m.routers))
	for _, r := range m.routers {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) FindVM(id int64) (*model.VirtualMachine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vm, ok := m.vms[id]
	if !ok {
		return nil, notFound("vm", id)
	}
	c := *vm
	return &c, nil
}

// FindVMByName looks a VM up by instance name.
func (m *Memory) FindVMByName(name string) (*model.VirtualMachine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, vm := range m.vms {
		if vm.InstanceName == name {
			c := *vm
			return &c, nil
		}
	}
	return nil, notFound("vm", name)
}

func (m *Memory) FindNic(id int64) (*model.Nic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nics[id]
	if !ok {
		return nil, notFound("nic", id)
	}
	c := *n
	return &c, nil
}

func (m *Memory) findInstanceNic(instanceID, networkID int64) (*model.Nic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.nics {
		if n.InstanceID == instanceID && n.NetworkID == networkID {
			c := *n
			return &c, nil
		}
	}
	return nil, notFound("nic", fmt.Sprintf("instance=%d network=%d", instanceID, networkID))
}

// FindRouterNic returns the router's NIC in the given network.
func (m *Memory) FindRouterNic(routerID, networkID int64) (*model.Nic, error) {
	return m.findInstanceNic(routerID, networkID)
}

// FindVMNic returns the VM's NIC in the given network.
func (m *Memory) FindVMNic(vmID, networkID int64) (*model.Nic, error) {
	return m.findInstanceNic(vmID, networkID)
}

// FindRouterNicByBroadcastURI returns the router NIC carrying uri in networkID.
func (m *Memory) FindRouterNicByBroadcastURI(networkID, routerID int64, uri string) (*model.Nic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.nics {
		if n.InstanceID == routerID && n.NetworkID == networkID && strings.EqualFold(n.BroadcastURI, uri) {
			c := *n
			return &c, nil
		}
	}
	return nil, notFound("nic", fmt.Sprintf("router=%d network=%d uri=%s", routerID, networkID, uri))
}

// ListIPAliases returns the aliases of routerID in networkID, ordered by ID.
func (m *Memory) ListIPAliases(networkID, routerID int64) ([]*model.IPAlias, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.IPAlias
	for _, a := range m.aliases {
		if a.NetworkID == networkID && a.RouterID == routerID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) FindIPAlias(id int64) (*model.IPAlias, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.aliases[id]
	if !ok {
		return nil, notFound("ip alias", id)
	}
	c := *a
	return &c, nil
}

func (m *Memory) FindPublicIP(id int64) (*model.PublicIPAddress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ip, ok := m.publicIPs[id]
	if !ok {
		return nil, notFound("public ip", id)
	}
	c := *ip
	return &c, nil
}

// FindPrivateIP resolves a private gateway address by the network it was
// allocated from.
func (m *Memory) FindPrivateIP(sourceNetworkID int64, ip string) (*model.PrivateIP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.privateIPs {
		if p.SourceNetworkID == sourceNetworkID && p.IPAddress == ip {
			c := *p
			return &c, nil
		}
	}
	return nil, notFound("private ip", ip)
}

func (m *Memory) FindPrivateGateway(id int64) (*model.PrivateGateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.privateGateways[id]
	if !ok {
		return nil, notFound("private gateway", id)
	}
	c := *g
	return &c, nil
}
