package store

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

func loadTestInventory(t *testing.T) *Memory {
	t.Helper()
	m, err := LoadFile(filepath.Join("testdata", "inventory.yaml"))
	require.NoError(t, err)
	return m
}

func TestLoadFile(t *testing.T) {
	m := loadTestInventory(t)

	dc, err := m.FindDataCenter(1)
	require.NoError(t, err)
	assert.True(t, dc.IsBasic())

	dc, err = m.FindDataCenter(2)
	require.NoError(t, err)
	assert.Equal(t, model.NetworkTypeAdvanced, dc.NetworkType)

	n, err := m.FindNetwork(300)
	require.NoError(t, err)
	assert.True(t, n.InVpc())

	r, err := m.FindRouterByName("r-20-VM")
	require.NoError(t, err)
	assert.True(t, r.IsRedundant)
	assert.Equal(t, model.RouterRunning, r.State)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading inventory")
}

func TestInventory_Validate(t *testing.T) {
	inv := &Inventory{
		DataCenters: []*model.DataCenter{{ID: 1, NetworkType: "Hybrid"}},
		Networks:    []*model.Network{{ID: 10, DataCenterID: 9, CIDR: "bogus"}},
		Routers:     []*model.Router{{ID: 1, DataCenterID: 1, HostID: 42}},
		Nics:        []*model.Nic{{ID: 1, InstanceID: 1, NetworkID: 11, IPv4Address: "300.1.1.1"}},
	}

	err := inv.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrValidationFailed))

	msg := err.Error()
	for _, want := range []string{
		"unknown network type 'Hybrid'",
		"network 10 references unknown zone 9",
		"invalid cidr 'bogus'",
		"router 1 has no instance name",
		"references unknown host 42",
		"nic 1 references unknown network 11",
		"invalid address '300.1.1.1'",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}

func TestMemory_ListRouters(t *testing.T) {
	m := loadTestInventory(t)

	routers := m.ListRouters(300)
	require.Len(t, routers, 2)
	assert.Equal(t, int64(20), routers[0].ID)
	assert.Equal(t, int64(21), routers[1].ID)

	assert.Len(t, m.ListRouters(204), 1)
	assert.Empty(t, m.ListRouters(999))
	assert.Len(t, m.ListAllRouters(), 3)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := loadTestInventory(t)

	r, err := m.FindRouter(10)
	require.NoError(t, err)
	r.State = model.RouterStopped

	again, err := m.FindRouter(10)
	require.NoError(t, err)
	assert.Equal(t, model.RouterRunning, again.State)
}

func TestMemory_NicLookups(t *testing.T) {
	m := loadTestInventory(t)

	nic, err := m.FindRouterNic(10, 204)
	require.NoError(t, err)
	assert.Equal(t, "192.168.10.2", nic.IPv4Address)

	nic, err = m.FindRouterNicByBroadcastURI(400, 21, "VLAN://100")
	require.NoError(t, err)
	assert.Equal(t, "02:00:00:00:15:02", nic.MACAddress)

	_, err = m.FindRouterNicByBroadcastURI(400, 21, "vlan://200")
	assert.True(t, errors.Is(err, util.ErrNotFound))

	nic, err = m.FindVMNic(100, 204)
	require.NoError(t, err)
	assert.True(t, nic.IsDefault)
}

func TestMemory_PutNicAssignsID(t *testing.T) {
	m := loadTestInventory(t)

	id := m.PutNic(&model.Nic{InstanceID: 20, NetworkID: 400, BroadcastURI: "vlan://200"})
	assert.Equal(t, int64(7), id)

	nic, err := m.FindRouterNicByBroadcastURI(400, 20, "vlan://200")
	require.NoError(t, err)
	assert.Equal(t, id, nic.ID)

	require.NoError(t, m.RemoveNic(id))
	assert.Error(t, m.RemoveNic(id))
}

func TestMemory_Aliases(t *testing.T) {
	m := loadTestInventory(t)

	aliases, err := m.ListIPAliases(204, 10)
	require.NoError(t, err)
	require.Len(t, aliases, 1)

	require.NoError(t, m.ReleaseIPAlias(aliases[0].ID))
	aliases, err = m.ListIPAliases(204, 10)
	require.NoError(t, err)
	assert.Empty(t, aliases)

	assert.True(t, errors.Is(m.ReleaseIPAlias(1), util.ErrNotFound))
}

func TestMemory_Setters(t *testing.T) {
	m := loadTestInventory(t)

	require.NoError(t, m.SetRouterStopPending(21, true))
	require.NoError(t, m.SetRouterState(10, model.RouterStopping))
	require.NoError(t, m.SetHostStatus(2, model.HostDisconnected))

	r, _ := m.FindRouter(21)
	assert.True(t, r.StopPending)
	r, _ = m.FindRouter(10)
	assert.Equal(t, model.RouterStopping, r.State)
	h, _ := m.FindHost(2)
	assert.Equal(t, model.HostDisconnected, h.Status)

	assert.Error(t, m.SetRouterStopPending(999, true))
	assert.Error(t, m.SetRouterState(999, model.RouterRunning))
	assert.Error(t, m.SetHostStatus(999, model.HostUp))
}

func TestMemory_NotFound(t *testing.T) {
	m := NewMemory()

	_, err := m.FindDataCenter(1)
	assert.True(t, errors.Is(err, util.ErrNotFound))
	_, err = m.FindNetwork(1)
	assert.True(t, errors.Is(err, util.ErrNotFound))
	_, err = m.FindPrivateIP(1, "10.0.0.1")
	assert.True(t, errors.Is(err, util.ErrNotFound))
	_, err = m.FindRouterByName("r-1-VM")
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := loadTestInventory(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.SetRouterStopPending(20, i%4 == 0)
				return
			}
			m.ListRouters(300)
			m.FindRouter(20)
		}(i)
	}
	wg.Wait()
}
