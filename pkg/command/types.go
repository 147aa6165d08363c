package command

// Transfer objects embedded in commands.

// IPAddressTO describes a public or private IP programmed on a router NIC.
type IPAddressTO struct {
	PublicIP     string `json:"public_ip"`
	Add          bool   `json:"add"`
	SourceNat    bool   `json:"source_nat"`
	OneToOneNat  bool   `json:"one_to_one_nat"`
	FirstIP      bool   `json:"first_ip"`
	BroadcastURI string `json:"broadcast_uri"`
	VlanGateway  string `json:"vlan_gateway"`
	VlanNetmask  string `json:"vlan_netmask"`
	VifMAC       string `json:"vif_mac,omitempty"`
	TrafficType  string `json:"traffic_type"`
	NicDevID     int    `json:"nic_dev_id,omitempty"`
}

// FirewallRuleTO describes one firewall rule.
type FirewallRuleTO struct {
	ID            int64    `json:"id"`
	SrcIP         string   `json:"src_ip,omitempty"`
	SrcVlanTag    string   `json:"src_vlan_tag,omitempty"`
	Protocol      string   `json:"protocol"`
	PortRange     [2]int   `json:"port_range"`
	Revoked       bool     `json:"revoked"`
	SourceCIDRs   []string `json:"source_cidrs,omitempty"`
	DestCIDRs     []string `json:"dest_cidrs,omitempty"`
	IcmpType      int      `json:"icmp_type,omitempty"`
	IcmpCode      int      `json:"icmp_code,omitempty"`
	Direction     string   `json:"traffic_type,omitempty"`
	DefaultEgress bool     `json:"default_egress_policy,omitempty"`
	Purpose       string   `json:"purpose"`
}

// PortForwardingRuleTO describes one port forwarding rule.
type PortForwardingRuleTO struct {
	FirewallRuleTO
	DstIP        string `json:"dst_ip"`
	DstPortRange [2]int `json:"dst_port_range"`
}

// StaticNatRuleTO describes one static NAT mapping or static NAT firewall rule.
type StaticNatRuleTO struct {
	ID         int64  `json:"id"`
	SrcIP      string `json:"src_ip"`
	SrcVlanTag string `json:"src_vlan_tag,omitempty"`
	DstIP      string `json:"dst_ip"`
	Protocol   string `json:"protocol,omitempty"`
	PortRange  [2]int `json:"port_range"`
	Revoked    bool   `json:"revoked"`
}

// LoadBalancerTO describes one load balancer and its backends.
type LoadBalancerTO struct {
	ID           int64           `json:"id"`
	SrcIP        string          `json:"src_ip"`
	SrcPort      int             `json:"src_port"`
	Protocol     string          `json:"protocol"`
	Algorithm    string          `json:"algorithm"`
	Revoked      bool            `json:"revoked"`
	Destinations []DestinationTO `json:"destinations"`
	Stickiness   []StickinessTO  `json:"stickiness,omitempty"`
}

// DestinationTO is a load balancer backend.
type DestinationTO struct {
	DestIP   string `json:"dest_ip"`
	DestPort int    `json:"dest_port"`
	Revoked  bool   `json:"revoked"`
}

// StickinessTO is a session persistence policy.
type StickinessTO struct {
	Method string            `json:"method"`
	Params map[string]string `json:"params,omitempty"`
}

// NetworkACLTO describes one ordered ACL entry.
type NetworkACLTO struct {
	ID          int64    `json:"id"`
	Number      int      `json:"number"`
	Protocol    string   `json:"protocol"`
	PortRange   [2]int   `json:"port_range"`
	SourceCIDRs []string `json:"source_cidrs"`
	Direction   string   `json:"traffic_type"`
	Action      string   `json:"action"`
	Revoked     bool     `json:"revoked"`
	IcmpType    int      `json:"icmp_type,omitempty"`
	IcmpCode    int      `json:"icmp_code,omitempty"`
}

// NicTO describes the router NIC an ACL is bound to.
type NicTO struct {
	MAC          string `json:"mac"`
	IP           string `json:"ip"`
	Netmask      string `json:"netmask"`
	Gateway      string `json:"gateway"`
	BroadcastURI string `json:"broadcast_uri"`
}

// StaticRouteTO describes one VPC static route.
type StaticRouteTO struct {
	ID        int64  `json:"id"`
	CIDR      string `json:"cidr"`
	GatewayIP string `json:"gateway_ip"`
	Revoked   bool   `json:"revoked"`
}

// VpnUserTO is a VPN account change.
type VpnUserTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Add      bool   `json:"add"`
}

// IPAliasTO describes a router alias address.
type IPAliasTO struct {
	RouterIP   string `json:"router_ip"`
	Netmask    string `json:"netmask"`
	AliasCount string `json:"alias_count"`
}

// DhcpTO describes a DHCP range dnsmasq serves.
type DhcpTO struct {
	RouterIP string `json:"router_ip"`
	Gateway  string `json:"gateway"`
	Netmask  string `json:"netmask"`
	StartIP  string `json:"start_ip"`
}

// VMData is one entry of VM metadata: folder, file, content.
type VMData [3]string

// Concrete commands.

type IPAssocCommand struct {
	RouterCommand
	IPs []IPAddressTO `json:"ips"`
}

func (*IPAssocCommand) Kind() string { return "IpAssocCommand" }

type IPAssocVpcCommand struct {
	RouterCommand
	IPs []IPAddressTO `json:"ips"`
}

func (*IPAssocVpcCommand) Kind() string { return "IpAssocVpcCommand" }

type SetSourceNatCommand struct {
	RouterCommand
	IP  IPAddressTO `json:"ip"`
	Add bool        `json:"add"`
}

func (*SetSourceNatCommand) Kind() string { return "SetSourceNatCommand" }

type SetFirewallRulesCommand struct {
	RouterCommand
	Rules []FirewallRuleTO `json:"rules"`
}

func (*SetFirewallRulesCommand) Kind() string { return "SetFirewallRulesCommand" }

type SetPortForwardingRulesCommand struct {
	RouterCommand
	Rules []PortForwardingRuleTO `json:"rules"`
	Vpc   bool                   `json:"vpc"`
}

func (*SetPortForwardingRulesCommand) Kind() string { return "SetPortForwardingRulesCommand" }

type SetStaticNatRulesCommand struct {
	RouterCommand
	Rules []StaticNatRuleTO `json:"rules"`
	Vpc   bool              `json:"vpc"`
}

func (*SetStaticNatRulesCommand) Kind() string { return "SetStaticNatRulesCommand" }

type LoadBalancerConfigCommand struct {
	RouterCommand
	LoadBalancers []LoadBalancerTO `json:"load_balancers"`
	Vpc           bool             `json:"vpc"`
}

func (*LoadBalancerConfigCommand) Kind() string { return "LoadBalancerConfigCommand" }

type DhcpEntryCommand struct {
	RouterCommand
	VMMac         string `json:"vm_mac"`
	VMIPAddress   string `json:"vm_ip"`
	VMIPv6Address string `json:"vm_ip6,omitempty"`
	VMName        string `json:"vm_name"`
	DefaultRouter string `json:"default_router,omitempty"`
	DefaultDNS    string `json:"default_dns,omitempty"`
	DefaultNic    bool   `json:"default_nic"`
	Remove        bool   `json:"remove"`
}

func (*DhcpEntryCommand) Kind() string { return "DhcpEntryCommand" }

type SavePasswordCommand struct {
	RouterCommand
	Password    string `json:"password"`
	VMIPAddress string `json:"vm_ip"`
	VMName      string `json:"vm_name"`
}

func (*SavePasswordCommand) Kind() string { return "SavePasswordCommand" }

type VMDataCommand struct {
	RouterCommand
	VMIPAddress string   `json:"vm_ip"`
	VMName      string   `json:"vm_name"`
	Data        []VMData `json:"data"`
}

func (*VMDataCommand) Kind() string { return "VmDataCommand" }

type VpnUsersCfgCommand struct {
	RouterCommand
	Users []VpnUserTO `json:"users"`
}

func (*VpnUsersCfgCommand) Kind() string { return "VpnUsersCfgCommand" }

type SetNetworkACLCommand struct {
	RouterCommand
	Rules          []NetworkACLTO `json:"rules"`
	Nic            NicTO          `json:"nic"`
	PrivateGateway bool           `json:"private_gateway"`
}

func (*SetNetworkACLCommand) Kind() string { return "SetNetworkACLCommand" }

type SetStaticRouteCommand struct {
	RouterCommand
	Routes []StaticRouteTO `json:"routes"`
}

func (*SetStaticRouteCommand) Kind() string { return "SetStaticRouteCommand" }

type PvlanSetupCommand struct {
	RouterCommand
	Op           string `json:"op"`
	PrimaryVlan  string `json:"primary_vlan"`
	IsolatedVlan string `json:"isolated_vlan"`
	DhcpName     string `json:"dhcp_name"`
	DhcpMAC      string `json:"dhcp_mac"`
	DhcpIP       string `json:"dhcp_ip"`
	NetworkTag   string `json:"network_tag"`
}

func (*PvlanSetupCommand) Kind() string { return "PvlanSetupCommand" }

type CreateIPAliasCommand struct {
	RouterCommand
	RouterIP string      `json:"router_ip"`
	Aliases  []IPAliasTO `json:"aliases"`
}

func (*CreateIPAliasCommand) Kind() string { return "CreateIpAliasCommand" }

type DnsMasqConfigCommand struct {
	RouterCommand
	Ranges []DhcpTO `json:"ranges"`
}

func (*DnsMasqConfigCommand) Kind() string { return "DnsMasqConfigCommand" }

type NetworkUsageCommand struct {
	RouterCommand
	PrivateIP string `json:"private_ip"`
	Domain    string `json:"domain"`
	Option    string `json:"option"`
	GuestIP   string `json:"guest_ip,omitempty"`
	VpcCIDR   string `json:"vpc_cidr,omitempty"`
	ForVpc    bool   `json:"for_vpc"`
}

func (*NetworkUsageCommand) Kind() string { return "NetworkUsageCommand" }
