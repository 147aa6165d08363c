package model

// Purpose identifies which service a firewall-family rule belongs to.
type Purpose string

const (
	PurposeFirewall       Purpose = "Firewall"
	PurposePortForwarding Purpose = "PortForwarding"
	PurposeStaticNat      Purpose = "StaticNat"
	PurposeLoadBalancing  Purpose = "LoadBalancing"
	PurposeVpn            Purpose = "Vpn"
	PurposeNetworkACL     Purpose = "NetworkACL"
)

// RuleState is the lifecycle of a rule as seen by the router.
type RuleState string

const (
	RuleAdd    RuleState = "Add"
	RuleActive RuleState = "Active"
	RuleRevoke RuleState = "Revoke"
)

// TrafficDirection is the direction a firewall or ACL rule filters.
type TrafficDirection string

const (
	Ingress TrafficDirection = "Ingress"
	Egress  TrafficDirection = "Egress"
)

// FirewallRule is a firewall-family rule. PortForwarding rules use the
// Destination fields; LoadBalancing rules carry their balancer in LoadBalancer.
type FirewallRule struct {
	ID               int64            `yaml:"id" json:"id"`
	Purpose          Purpose          `yaml:"purpose" json:"purpose"`
	State            RuleState        `yaml:"state" json:"state"`
	Protocol         string           `yaml:"protocol" json:"protocol"`
	PublicIP         string           `yaml:"public_ip,omitempty" json:"public_ip,omitempty"`
	VlanTag          string           `yaml:"vlan,omitempty" json:"vlan,omitempty"`
	SourcePortStart  int              `yaml:"port_start,omitempty" json:"port_start,omitempty"`
	SourcePortEnd    int              `yaml:"port_end,omitempty" json:"port_end,omitempty"`
	SourceCIDRs      []string         `yaml:"source_cidrs,omitempty" json:"source_cidrs,omitempty"`
	DestinationCIDRs []string         `yaml:"dest_cidrs,omitempty" json:"dest_cidrs,omitempty"`
	IcmpType         int              `yaml:"icmp_type,omitempty" json:"icmp_type,omitempty"`
	IcmpCode         int              `yaml:"icmp_code,omitempty" json:"icmp_code,omitempty"`
	Direction        TrafficDirection `yaml:"direction,omitempty" json:"direction,omitempty"`
	DefaultEgress    bool             `yaml:"default_egress_allow,omitempty" json:"default_egress_allow,omitempty"`

	DestinationIP        string `yaml:"dest_ip,omitempty" json:"dest_ip,omitempty"`
	DestinationPortStart int    `yaml:"dest_port_start,omitempty" json:"dest_port_start,omitempty"`
	DestinationPortEnd   int    `yaml:"dest_port_end,omitempty" json:"dest_port_end,omitempty"`

	LoadBalancer *LoadBalancingRule `yaml:"load_balancer,omitempty" json:"load_balancer,omitempty"`
}

// IsRevoked reports whether the rule is being removed.
func (r *FirewallRule) IsRevoked() bool {
	return r.State == RuleRevoke
}

// StaticNat maps a public IP one-to-one onto a guest VM address.
type StaticNat struct {
	SourceIPAddressID int64  `yaml:"ip_id" json:"ip_id"`
	SourceIP          string `yaml:"public_ip" json:"public_ip"`
	DestinationIP     string `yaml:"dest_ip" json:"dest_ip"`
	VlanTag           string `yaml:"vlan,omitempty" json:"vlan,omitempty"`
	NetworkID         int64  `yaml:"network" json:"network"`
	Revoke            bool   `yaml:"revoke,omitempty" json:"revoke,omitempty"`
}

// LBDestination is a backend of a load balancer.
type LBDestination struct {
	IPAddress string `yaml:"ip" json:"ip"`
	Port      int    `yaml:"port" json:"port"`
	Revoked   bool   `yaml:"revoked,omitempty" json:"revoked,omitempty"`
}

// StickinessPolicy configures session persistence for a load balancer.
type StickinessPolicy struct {
	Method string            `yaml:"method" json:"method"`
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// LoadBalancingRule is a public load balancer rule.
type LoadBalancingRule struct {
	ID           int64              `yaml:"id" json:"id"`
	Name         string             `yaml:"name" json:"name"`
	Algorithm    string             `yaml:"algorithm" json:"algorithm"`
	Protocol     string             `yaml:"protocol" json:"protocol"`
	SourceIP     string             `yaml:"public_ip" json:"public_ip"`
	SourcePort   int                `yaml:"public_port" json:"public_port"`
	DefaultPort  int                `yaml:"private_port" json:"private_port"`
	State        RuleState          `yaml:"state" json:"state"`
	Destinations []LBDestination    `yaml:"destinations,omitempty" json:"destinations,omitempty"`
	Stickiness   []StickinessPolicy `yaml:"stickiness,omitempty" json:"stickiness,omitempty"`
}

// IsRevoked reports whether the balancer is being removed.
func (r *LoadBalancingRule) IsRevoked() bool {
	return r.State == RuleRevoke
}

// ACLAction is the action of a network ACL item.
type ACLAction string

const (
	ACLAllow ACLAction = "Allow"
	ACLDeny  ACLAction = "Deny"
)

// NetworkACLItem is one ordered entry of a VPC network ACL.
type NetworkACLItem struct {
	ID              int64            `yaml:"id" json:"id"`
	ACLID           int64            `yaml:"acl" json:"acl"`
	Number          int              `yaml:"number" json:"number"`
	Protocol        string           `yaml:"protocol" json:"protocol"`
	SourcePortStart int              `yaml:"port_start,omitempty" json:"port_start,omitempty"`
	SourcePortEnd   int              `yaml:"port_end,omitempty" json:"port_end,omitempty"`
	SourceCIDRs     []string         `yaml:"cidrs,omitempty" json:"cidrs,omitempty"`
	Direction       TrafficDirection `yaml:"direction" json:"direction"`
	Action          ACLAction        `yaml:"action" json:"action"`
	State           RuleState        `yaml:"state" json:"state"`
	IcmpType        int              `yaml:"icmp_type,omitempty" json:"icmp_type,omitempty"`
	IcmpCode        int              `yaml:"icmp_code,omitempty" json:"icmp_code,omitempty"`
}

// StaticRoute is a VPC route towards a private gateway.
type StaticRoute struct {
	ID        int64     `yaml:"id" json:"id"`
	VpcID     int64     `yaml:"vpc" json:"vpc"`
	CIDR      string    `yaml:"cidr" json:"cidr"`
	GatewayIP string    `yaml:"gateway_ip" json:"gateway_ip"`
	State     RuleState `yaml:"state" json:"state"`
}

// VpnUser is a remote access VPN account.
type VpnUser struct {
	ID       int64     `yaml:"id" json:"id"`
	Username string    `yaml:"username" json:"username"`
	Password string    `yaml:"password" json:"-"`
	State    RuleState `yaml:"state" json:"state"`
}

// RemoteAccessVpn is an L2TP/IPsec remote access VPN served by a router.
type RemoteAccessVpn struct {
	ID              int64  `yaml:"id" json:"id"`
	NetworkID       int64  `yaml:"network,omitempty" json:"network,omitempty"`
	VpcID           int64  `yaml:"vpc,omitempty" json:"vpc,omitempty"`
	ServerAddressID int64  `yaml:"server_ip_id" json:"server_ip_id"`
	ServerAddress   string `yaml:"server_ip" json:"server_ip"`
	IPRange         string `yaml:"ip_range" json:"ip_range"`
	LocalIP         string `yaml:"local_ip" json:"local_ip"`
	PresharedKey    string `yaml:"psk" json:"-"`
}
