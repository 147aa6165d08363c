package topology

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/store"
	"github.com/tenantnet/netorch/pkg/util"
)

const (
	basicZone    = int64(1)
	advancedZone = int64(2)
)

type batch struct {
	router  string
	kinds   []string
	onError command.OnError
	cmds    *command.Commands
}

type answer struct {
	ok  bool
	err error
}

type remediation struct {
	connected    []string
	disconnected []string
	reason       string
}

// fakeDispatcher records batches and answers per router name. Routers
// without a scripted answer succeed.
type fakeDispatcher struct {
	mu           sync.Mutex
	answers      map[string][]answer
	batches      []batch
	remediations []remediation
	remediateErr error
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{answers: make(map[string][]answer)}
}

// script queues answers for router, consumed one per batch.
func (d *fakeDispatcher) script(router string, answers ...answer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answers[router] = append(d.answers[router], answers...)
}

func (d *fakeDispatcher) SendCommandsToRouter(ctx context.Context, router *model.Router, cmds *command.Commands) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batches = append(d.batches, batch{router: router.InstanceName, kinds: cmds.Kinds(), onError: cmds.OnError(), cmds: cmds})
	queue := d.answers[router.InstanceName]
	if len(queue) == 0 {
		return true, nil
	}
	a := queue[0]
	if len(queue) > 1 {
		d.answers[router.InstanceName] = queue[1:]
	}
	return a.ok, a.err
}

func (d *fakeDispatcher) HandleSingleWorkingRedundantRouter(ctx context.Context, connected, disconnected []*model.Router, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := remediation{reason: reason}
	for _, c := range connected {
		r.connected = append(r.connected, c.InstanceName)
	}
	for _, c := range disconnected {
		r.disconnected = append(r.disconnected, c.InstanceName)
	}
	d.remediations = append(d.remediations, r)
	return d.remediateErr
}

func (d *fakeDispatcher) sentTo() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.batches))
	for _, b := range d.batches {
		out = append(out, b.router)
	}
	return out
}

func agentDown(router string) answer {
	return answer{err: util.NewAgentUnavailable(router, errors.New("timed out"))}
}

var rejected = answer{ok: false}

// fakePlugger plugs NICs straight into the store.
type fakePlugger struct {
	store     *store.Memory
	plugged   []string
	unplugged []int64
}

func (p *fakePlugger) PlugNic(ctx context.Context, router *model.Router, ip *model.PublicIPAddress) (*model.Nic, error) {
	nic := &model.Nic{
		InstanceID:   router.ID,
		NetworkID:    ip.NetworkID,
		IPv4Address:  ip.Address,
		MACAddress:   "02:00:00:00:ff:" + ip.VlanTag,
		BroadcastURI: "vlan://" + ip.VlanTag,
	}
	nic.ID = p.store.PutNic(nic)
	p.plugged = append(p.plugged, ip.VlanTag)
	return nic, nil
}

func (p *fakePlugger) UnplugNic(ctx context.Context, router *model.Router, nic *model.Nic) error {
	p.unplugged = append(p.unplugged, nic.ID)
	return p.store.RemoveNic(nic.ID)
}

type fixture struct {
	store      *store.Memory
	dispatcher *fakeDispatcher
	plugger    *fakePlugger
	deps       Deps
	basic      *BasicTopology
	advanced   *AdvancedTopology

	sharedNet *model.Network
	tierNet   *model.Network
	isoNet    *model.Network
	publicNet *model.Network
	vm        *model.VirtualMachine
	vmNic     *model.Nic
}

// newFixture builds a Basic zone with one shared network and router r-10 in
// pod 5, and an Advanced zone with a VPC tier served by the redundant pair
// r-20/r-21 plus an isolated network served by r-30.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := store.NewMemory()

	m.PutDataCenter(&model.DataCenter{ID: basicZone, Name: "basic", NetworkType: model.NetworkTypeBasic, DNS1: "8.8.8.8"})
	m.PutDataCenter(&model.DataCenter{ID: advancedZone, Name: "advanced", NetworkType: model.NetworkTypeAdvanced, DNS1: "1.1.1.1"})
	m.PutPod(&model.Pod{ID: 5, DataCenterID: basicZone})
	m.PutPod(&model.Pod{ID: 7, DataCenterID: basicZone})
	m.PutHost(&model.Host{ID: 1, Name: "kvm-1", PodID: 5, DataCenterID: basicZone, Status: model.HostUp})
	m.PutHost(&model.Host{ID: 2, Name: "kvm-2", DataCenterID: advancedZone, Status: model.HostUp})
	m.PutHost(&model.Host{ID: 3, Name: "kvm-3", DataCenterID: advancedZone, Status: model.HostDown})
	m.PutVpc(&model.Vpc{ID: 1, Name: "vpc", DataCenterID: advancedZone, CIDR: "10.1.0.0/16"})

	f := &fixture{
		store: m,
		sharedNet: &model.Network{ID: 204, DataCenterID: basicZone, TrafficType: model.TrafficGuest, GuestType: model.GuestShared,
			CIDR: "192.168.10.0/24", Gateway: "192.168.10.1"},
		tierNet: &model.Network{ID: 300, DataCenterID: advancedZone, VpcID: 1, TrafficType: model.TrafficGuest, GuestType: model.GuestIsolated,
			CIDR: "10.1.1.0/24", Gateway: "10.1.1.1"},
		isoNet: &model.Network{ID: 310, DataCenterID: advancedZone, TrafficType: model.TrafficGuest, GuestType: model.GuestIsolated,
			CIDR: "10.3.1.0/24", Gateway: "10.3.1.1"},
		publicNet: &model.Network{ID: 400, DataCenterID: advancedZone, TrafficType: model.TrafficPublic,
			CIDR: "203.0.113.0/24", Gateway: "203.0.113.1"},
		vm: &model.VirtualMachine{ID: 100, InstanceName: "i-2-100-VM", HostName: "web-1", Type: model.VMUser, UserData: "I2Nsb3VkLWNvbmZpZw=="},
	}
	for _, n := range []*model.Network{f.sharedNet, f.tierNet, f.isoNet, f.publicNet} {
		m.PutNetwork(n)
	}
	m.PutVM(f.vm)

	m.PutRouter(&model.Router{ID: 10, InstanceName: "r-10-VM", State: model.RouterRunning, HostID: 1, PodID: 5, DataCenterID: basicZone})
	m.PutRouter(&model.Router{ID: 20, InstanceName: "r-20-VM", State: model.RouterRunning, HostID: 2, DataCenterID: advancedZone, VpcID: 1, IsRedundant: true})
	m.PutRouter(&model.Router{ID: 21, InstanceName: "r-21-VM", State: model.RouterRunning, HostID: 3, DataCenterID: advancedZone, VpcID: 1, IsRedundant: true})
	m.PutRouter(&model.Router{ID: 30, InstanceName: "r-30-VM", State: model.RouterRunning, HostID: 2, DataCenterID: advancedZone})

	m.PutNic(&model.Nic{ID: 1, InstanceID: 10, NetworkID: 204, IPv4Address: "192.168.10.2", MACAddress: "02:00:00:00:0a:01"})
	m.PutNic(&model.Nic{ID: 2, InstanceID: 20, NetworkID: 300, IPv4Address: "10.1.1.1", MACAddress: "02:00:00:00:14:01"})
	m.PutNic(&model.Nic{ID: 3, InstanceID: 21, NetworkID: 300, IPv4Address: "10.1.1.1", MACAddress: "02:00:00:00:15:01"})
	m.PutNic(&model.Nic{ID: 4, InstanceID: 20, NetworkID: 400, IPv4Address: "203.0.113.10", MACAddress: "02:00:00:00:14:02", BroadcastURI: "vlan://100"})
	m.PutNic(&model.Nic{ID: 5, InstanceID: 21, NetworkID: 400, IPv4Address: "203.0.113.10", MACAddress: "02:00:00:00:15:02", BroadcastURI: "vlan://100"})
	m.PutNic(&model.Nic{ID: 6, InstanceID: 30, NetworkID: 310, IPv4Address: "10.3.1.1", MACAddress: "02:00:00:00:1e:01"})
	f.vmNic = &model.Nic{ID: 50, InstanceID: 100, NetworkID: 204, IPv4Address: "192.168.10.50", MACAddress: "02:00:00:00:64:01", IsDefault: true}
	m.PutNic(f.vmNic)

	f.dispatcher = newFakeDispatcher()
	f.plugger = &fakePlugger{store: m}
	f.deps = Deps{
		Store:      m,
		Builder:    command.NewBuilder(m),
		Dispatcher: f.dispatcher,
		Plugger:    f.plugger,
	}
	f.basic = NewBasicTopology(f.deps)
	f.advanced = NewAdvancedTopology(f.deps)
	return f
}

func (f *fixture) router(t *testing.T, id int64) *model.Router {
	t.Helper()
	r, err := f.store.FindRouter(id)
	require.NoError(t, err)
	return r
}

func (f *fixture) routers(t *testing.T, ids ...int64) []*model.Router {
	t.Helper()
	out := make([]*model.Router, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.router(t, id))
	}
	return out
}

func (f *fixture) profile() *model.VMProfile {
	return &model.VMProfile{VM: f.vm, Password: "s3cret"}
}

func resourceError(t *testing.T, err error) *util.ResourceUnavailableError {
	t.Helper()
	require.Error(t, err)
	var rue *util.ResourceUnavailableError
	require.True(t, errors.As(err, &rue), "expected ResourceUnavailableError, got %T: %v", err, err)
	return rue
}

func withState(r *model.Router, state model.RouterState) *model.Router {
	c := *r
	c.State = state
	return &c
}
