package model

// IPState is the allocation state of a public IP.
type IPState string

const (
	IPAllocating IPState = "Allocating"
	IPAllocated  IPState = "Allocated"
	IPReleasing  IPState = "Releasing"
	IPFree       IPState = "Free"
)

// PublicIPAddress is a public IP associated to a guest network or VPC.
type PublicIPAddress struct {
	ID                  int64   `yaml:"id" json:"id"`
	Address             string  `yaml:"address" json:"address"`
	NetworkID           int64   `yaml:"public_network" json:"public_network"`
	AssociatedNetworkID int64   `yaml:"network,omitempty" json:"network,omitempty"`
	VpcID               int64   `yaml:"vpc,omitempty" json:"vpc,omitempty"`
	VlanTag             string  `yaml:"vlan" json:"vlan"`
	VlanGateway         string  `yaml:"vlan_gateway" json:"vlan_gateway"`
	VlanNetmask         string  `yaml:"vlan_netmask" json:"vlan_netmask"`
	MACAddress          string  `yaml:"mac,omitempty" json:"mac,omitempty"`
	State               IPState `yaml:"state" json:"state"`
	SourceNat           bool    `yaml:"source_nat,omitempty" json:"source_nat,omitempty"`
	OneToOneNat         bool    `yaml:"one_to_one_nat,omitempty" json:"one_to_one_nat,omitempty"`
}

// IsReleasing reports whether the address is being released.
func (ip *PublicIPAddress) IsReleasing() bool {
	return ip.State == IPReleasing
}

// PrivateIP is an address on a VPC private gateway network.
type PrivateIP struct {
	ID              int64  `yaml:"id" json:"id"`
	IPAddress       string `yaml:"ip" json:"ip"`
	NetworkID       int64  `yaml:"network" json:"network"`
	SourceNetworkID int64  `yaml:"source_network" json:"source_network"`
	VpcID           int64  `yaml:"vpc" json:"vpc"`
	SourceNat       bool   `yaml:"source_nat,omitempty" json:"source_nat,omitempty"`
	MACAddress      string `yaml:"mac,omitempty" json:"mac,omitempty"`
}

// PrivateGateway is a VPC gateway onto a private network.
type PrivateGateway struct {
	ID           int64  `yaml:"id" json:"id"`
	VpcID        int64  `yaml:"vpc" json:"vpc"`
	NetworkID    int64  `yaml:"network" json:"network"`
	IPAddress    string `yaml:"ip" json:"ip"`
	Gateway      string `yaml:"gateway" json:"gateway"`
	Netmask      string `yaml:"netmask" json:"netmask"`
	BroadcastURI string `yaml:"broadcast_uri" json:"broadcast_uri"`
	SourceNat    bool   `yaml:"source_nat,omitempty" json:"source_nat,omitempty"`
	ACLID        int64  `yaml:"acl,omitempty" json:"acl,omitempty"`
}
