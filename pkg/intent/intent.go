// Package intent reads network intent documents and executes them against
// the topology of each network's zone.
//
// A document lists intents in order:
//
//	stop_on_error: true
//	intents:
//	  - name: open web ports
//	    kind: firewall
//	    network: 300
//	    firewall_rules:
//	      - {id: 1, purpose: Firewall, state: Add, protocol: tcp, public_ip: 203.0.113.10, port_start: 80, port_end: 80}
//
// Routers default to every router with a NIC in the network.
package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// Kind names the topology operation an intent maps to.
type Kind string

const (
	KindFirewall         Kind = "firewall"
	KindLoadBalancing    Kind = "load-balancing"
	KindStaticNat        Kind = "static-nat"
	KindIPAssociation    Kind = "ip-association"
	KindDhcpEntry        Kind = "dhcp-entry"
	KindRemoveDhcpEntry  Kind = "remove-dhcp-entry"
	KindUserData         Kind = "user-data"
	KindConfigDhcpSubnet Kind = "config-dhcp-subnet"
	KindPassword         Kind = "password"
	KindSSHKey           Kind = "ssh-key"
	KindRouterUserData   Kind = "router-user-data"
	KindVpnUsers         Kind = "vpn-users"
	KindRemoteAccessVpn  Kind = "remote-access-vpn-users"
	KindNetworkACLs      Kind = "network-acls"
	KindStaticRoutes     Kind = "static-routes"
	KindPrivateGateway   Kind = "private-gateway"
	KindDhcpPvlan        Kind = "dhcp-pvlan"
)

// Kinds lists every supported kind in documentation order.
var Kinds = []Kind{
	KindFirewall, KindLoadBalancing, KindStaticNat, KindIPAssociation,
	KindDhcpEntry, KindRemoveDhcpEntry, KindUserData, KindConfigDhcpSubnet,
	KindPassword, KindSSHKey, KindRouterUserData,
	KindVpnUsers, KindRemoteAccessVpn,
	KindNetworkACLs, KindStaticRoutes, KindPrivateGateway, KindDhcpPvlan,
}

func (k Kind) valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// needsNetwork reports whether the kind is always scoped to a network.
func (k Kind) needsNetwork() bool {
	switch k {
	case KindStaticRoutes, KindDhcpPvlan, KindRemoteAccessVpn, KindPrivateGateway:
		return false
	}
	return true
}

// needsVM reports whether the kind pushes metadata of a VM NIC.
func (k Kind) needsVM() bool {
	switch k {
	case KindDhcpEntry, KindRemoveDhcpEntry, KindUserData, KindConfigDhcpSubnet,
		KindPassword, KindSSHKey, KindRouterUserData:
		return true
	}
	return false
}

// Document is an ordered list of intents.
type Document struct {
	// StopOnError stops at the first intent that fails or is rejected.
	StopOnError bool      `yaml:"stop_on_error,omitempty"`
	Intents     []*Intent `yaml:"intents"`
}

// Intent is one network change. Which payload fields apply depends on Kind.
type Intent struct {
	Name    string  `yaml:"name,omitempty"`
	Kind    Kind    `yaml:"kind"`
	Network int64   `yaml:"network,omitempty"`
	Routers []int64 `yaml:"routers,omitempty"`

	// VM metadata intents
	VM          int64                    `yaml:"vm,omitempty"`
	Nic         int64                    `yaml:"nic,omitempty"`
	Destination *model.DeployDestination `yaml:"destination,omitempty"`
	Password    string                   `yaml:"password,omitempty"`
	SSHKey      string                   `yaml:"ssh_key,omitempty"`
	Alias       int64                    `yaml:"alias,omitempty"`

	FirewallRules []*model.FirewallRule      `yaml:"firewall_rules,omitempty"`
	LoadBalancers []*model.LoadBalancingRule `yaml:"load_balancers,omitempty"`
	StaticNats    []*model.StaticNat         `yaml:"static_nats,omitempty"`
	PublicIPs     []int64                    `yaml:"public_ips,omitempty"`

	VpnUsers []*model.VpnUser       `yaml:"vpn_users,omitempty"`
	Vpn      *model.RemoteAccessVpn `yaml:"vpn,omitempty"`

	ACLs              []*model.NetworkACLItem `yaml:"acls,omitempty"`
	PrivateGatewayACL bool                    `yaml:"private_gateway_acl,omitempty"`
	StaticRoutes      []*model.StaticRoute    `yaml:"static_routes,omitempty"`
	Gateway           int64                   `yaml:"gateway,omitempty"`

	// Remove turns private-gateway and dhcp-pvlan into their teardown.
	Remove bool `yaml:"remove,omitempty"`
}

// String names the intent in logs and reports.
func (i *Intent) String() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Network != 0 {
		return fmt.Sprintf("%s@%d", i.Kind, i.Network)
	}
	return string(i.Kind)
}

// LoadFile reads and validates a document.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading intent %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("intent %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes and validates a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing intent: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks that every intent carries what its kind needs.
func (d *Document) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(len(d.Intents) > 0, "document has no intents")
	for n, in := range d.Intents {
		if in == nil {
			v.AddErrorf("intent %d is empty", n)
			continue
		}
		if !in.Kind.valid() {
			v.AddErrorf("intent %d (%s): unknown kind %q", n, in, in.Kind)
			continue
		}
		if in.Kind.needsNetwork() && in.Network == 0 {
			v.AddErrorf("intent %d (%s): network is required", n, in)
		}
		if in.Kind.needsVM() && in.VM == 0 {
			v.AddErrorf("intent %d (%s): vm is required", n, in)
		}
		switch in.Kind {
		case KindSSHKey:
			v.Add(in.SSHKey != "", fmt.Sprintf("intent %d (%s): ssh_key is required", n, in))
		case KindConfigDhcpSubnet:
			v.Add(in.Alias != 0, fmt.Sprintf("intent %d (%s): alias is required", n, in))
		case KindRemoteAccessVpn:
			v.Add(in.Vpn != nil, fmt.Sprintf("intent %d (%s): vpn is required", n, in))
			v.Add(len(in.Routers) == 1, fmt.Sprintf("intent %d (%s): exactly one router is required", n, in))
		case KindPrivateGateway:
			v.Add(in.Gateway != 0, fmt.Sprintf("intent %d (%s): gateway is required", n, in))
		case KindDhcpPvlan:
			v.Add(in.Nic != 0, fmt.Sprintf("intent %d (%s): nic is required", n, in))
			v.Add(len(in.Routers) == 1, fmt.Sprintf("intent %d (%s): exactly one router is required", n, in))
		case KindStaticRoutes:
			v.Add(in.Network != 0 || len(in.Routers) > 0, fmt.Sprintf("intent %d (%s): network or routers is required", n, in))
		}
	}
	return v.Build()
}
