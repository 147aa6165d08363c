// Package store holds the zone inventory the topologies read while building
// commands: data centers, hosts, networks, routers and their NICs.
package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// Inventory is the on-disk form of a Memory store.
type Inventory struct {
	DataCenters     []*model.DataCenter      `yaml:"zones"`
	Pods            []*model.Pod             `yaml:"pods,omitempty"`
	Hosts           []*model.Host            `yaml:"hosts"`
	Vpcs            []*model.Vpc             `yaml:"vpcs,omitempty"`
	Networks        []*model.Network         `yaml:"networks"`
	Routers         []*model.Router          `yaml:"routers"`
	VMs             []*model.VirtualMachine  `yaml:"vms,omitempty"`
	Nics            []*model.Nic             `yaml:"nics"`
	IPAliases       []*model.IPAlias         `yaml:"ip_aliases,omitempty"`
	PublicIPs       []*model.PublicIPAddress `yaml:"public_ips,omitempty"`
	PrivateIPs      []*model.PrivateIP       `yaml:"private_ips,omitempty"`
	PrivateGateways []*model.PrivateGateway  `yaml:"private_gateways,omitempty"`
}

// LoadFile reads a YAML inventory and returns the populated store.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parsing inventory %s: %w", path, err)
	}
	m, err := FromInventory(&inv)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}
	return m, nil
}

// FromInventory validates cross references and builds a store.
func FromInventory(inv *Inventory) (*Memory, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	m := NewMemory()
	for _, dc := range inv.DataCenters {
		m.PutDataCenter(dc)
	}
	for _, p := range inv.Pods {
		m.PutPod(p)
	}
	for _, h := range inv.Hosts {
		m.PutHost(h)
	}
	for _, v := range inv.Vpcs {
		m.PutVpc(v)
	}
	for _, n := range inv.Networks {
		m.PutNetwork(n)
	}
	for _, r := range inv.Routers {
		m.PutRouter(r)
	}
	for _, vm := range inv.VMs {
		m.PutVM(vm)
	}
	for _, n := range inv.Nics {
		m.PutNic(n)
	}
	for _, a := range inv.IPAliases {
		m.PutIPAlias(a)
	}
	for _, ip := range inv.PublicIPs {
		m.PutPublicIP(ip)
	}
	for _, ip := range inv.PrivateIPs {
		m.PutPrivateIP(ip)
	}
	for _, g := range inv.PrivateGateways {
		m.PutPrivateGateway(g)
	}
	return m, nil
}

// Validate checks that every reference in the inventory resolves.
func (inv *Inventory) Validate() error {
	v := &util.ValidationBuilder{}

	zones := make(map[int64]bool)
	for _, dc := range inv.DataCenters {
		if zones[dc.ID] {
			v.AddErrorf("duplicate zone id %d", dc.ID)
		}
		zones[dc.ID] = true
		switch dc.NetworkType {
		case model.NetworkTypeBasic, model.NetworkTypeAdvanced:
		default:
			v.AddErrorf("zone %d has unknown network type '%s'", dc.ID, dc.NetworkType)
		}
	}

	pods := make(map[int64]bool)
	for _, p := range inv.Pods {
		pods[p.ID] = true
		v.Add(zones[p.DataCenterID], fmt.Sprintf("pod %d references unknown zone %d", p.ID, p.DataCenterID))
	}

	hosts := make(map[int64]bool)
	for _, h := range inv.Hosts {
		hosts[h.ID] = true
		v.Add(zones[h.DataCenterID], fmt.Sprintf("host %s references unknown zone %d", h.Name, h.DataCenterID))
		if h.PodID != 0 {
			v.Add(pods[h.PodID], fmt.Sprintf("host %s references unknown pod %d", h.Name, h.PodID))
		}
	}

	vpcs := make(map[int64]bool)
	for _, vpc := range inv.Vpcs {
		vpcs[vpc.ID] = true
		v.Add(zones[vpc.DataCenterID], fmt.Sprintf("vpc %s references unknown zone %d", vpc.Name, vpc.DataCenterID))
	}

	networks := make(map[int64]bool)
	for _, n := range inv.Networks {
		if networks[n.ID] {
			v.AddErrorf("duplicate network id %d", n.ID)
		}
		networks[n.ID] = true
		v.Add(zones[n.DataCenterID], fmt.Sprintf("network %d references unknown zone %d", n.ID, n.DataCenterID))
		if n.VpcID != 0 {
			v.Add(vpcs[n.VpcID], fmt.Sprintf("network %d references unknown vpc %d", n.ID, n.VpcID))
		}
		if n.CIDR != "" {
			if _, err := util.CIDRNetmask(n.CIDR); err != nil {
				v.AddErrorf("network %d has invalid cidr '%s'", n.ID, n.CIDR)
			}
		}
	}

	instances := make(map[int64]bool)
	for _, r := range inv.Routers {
		if instances[r.ID] {
			v.AddErrorf("duplicate instance id %d", r.ID)
		}
		instances[r.ID] = true
		v.Add(r.InstanceName != "", fmt.Sprintf("router %d has no instance name", r.ID))
		v.Add(zones[r.DataCenterID], fmt.Sprintf("router %s references unknown zone %d", r.InstanceName, r.DataCenterID))
		if r.HostID != 0 {
			v.Add(hosts[r.HostID], fmt.Sprintf("router %s references unknown host %d", r.InstanceName, r.HostID))
		}
	}
	for _, vm := range inv.VMs {
		if instances[vm.ID] {
			v.AddErrorf("duplicate instance id %d", vm.ID)
		}
		instances[vm.ID] = true
	}

	for _, n := range inv.Nics {
		v.Add(instances[n.InstanceID], fmt.Sprintf("nic %d references unknown instance %d", n.ID, n.InstanceID))
		v.Add(networks[n.NetworkID], fmt.Sprintf("nic %d references unknown network %d", n.ID, n.NetworkID))
		if n.IPv4Address != "" && !util.IsValidIPv4(n.IPv4Address) {
			v.AddErrorf("nic %d has invalid address '%s'", n.ID, n.IPv4Address)
		}
	}
	for _, a := range inv.IPAliases {
		v.Add(networks[a.NetworkID], fmt.Sprintf("ip alias %s references unknown network %d", a.IPAddress, a.NetworkID))
		v.Add(instances[a.RouterID], fmt.Sprintf("ip alias %s references unknown router %d", a.IPAddress, a.RouterID))
	}
	for _, ip := range inv.PublicIPs {
		if !util.IsValidIPv4(ip.Address) {
			v.AddErrorf("public ip %d has invalid address '%s'", ip.ID, ip.Address)
		}
	}
	for _, g := range inv.PrivateGateways {
		v.Add(vpcs[g.VpcID], fmt.Sprintf("private gateway %s references unknown vpc %d", g.IPAddress, g.VpcID))
	}

	return v.Build()
}
