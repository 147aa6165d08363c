package rules

import (
	"context"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
)

// VpcIPAssociationRules associates or releases public IPs on a VPC router.
type VpcIPAssociationRules struct {
	base
	IPs []*model.PublicIPAddress
}

func NewVpcIPAssociationRules(network *model.Network, ips []*model.PublicIPAddress) *VpcIPAssociationRules {
	return &VpcIPAssociationRules{base: base{network}, IPs: ips}
}

func (r *VpcIPAssociationRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*VpcIPAssociationRules) Name() string     { return "VpcIpAssociationRules" }
func (r *VpcIPAssociationRules) HasRules() bool { return len(r.IPs) > 0 }

// NicPlugInOutRules carries the usage-accounting commands for public NICs
// plugged into a VPC router while associating IPs.
type NicPlugInOutRules struct {
	base
	IPs           []*model.PublicIPAddress
	UsageCommands *command.Commands
}

func NewNicPlugInOutRules(network *model.Network, ips []*model.PublicIPAddress, usage *command.Commands) *NicPlugInOutRules {
	if usage == nil {
		usage = command.NewCommands(command.Stop)
	}
	return &NicPlugInOutRules{base: base{network}, IPs: ips, UsageCommands: usage}
}

func (r *NicPlugInOutRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*NicPlugInOutRules) Name() string { return "NicPlugInOutRules" }

// NetworkAclsRules applies a VPC tier or private gateway ACL.
type NetworkAclsRules struct {
	base
	Rules          []*model.NetworkACLItem
	PrivateGateway bool
}

func NewNetworkAclsRules(network *model.Network, rules []*model.NetworkACLItem, privateGateway bool) *NetworkAclsRules {
	return &NetworkAclsRules{base: base{network}, Rules: rules, PrivateGateway: privateGateway}
}

func (r *NetworkAclsRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*NetworkAclsRules) Name() string     { return "NetworkAclsRules" }
func (r *NetworkAclsRules) HasRules() bool { return len(r.Rules) > 0 }

// PrivateGatewayRules plugs or unplugs a VPC private gateway address.
type PrivateGatewayRules struct {
	base
	Gateway *model.PrivateGateway
	Nic     *model.Nic
	add     bool
}

func NewPrivateGatewayRules(network *model.Network, gateway *model.PrivateGateway, nic *model.Nic) *PrivateGatewayRules {
	return &PrivateGatewayRules{base: base{network}, Gateway: gateway, Nic: nic, add: true}
}

// AsRemoval returns a copy of r that removes the gateway address.
func (r *PrivateGatewayRules) AsRemoval() *PrivateGatewayRules {
	c := *r
	c.add = false
	return &c
}

// IsAddOperation reports whether the gateway is being set up.
func (r *PrivateGatewayRules) IsAddOperation() bool { return r.add }

func (r *PrivateGatewayRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*PrivateGatewayRules) Name() string { return "PrivateGatewayRules" }

// StaticRoutesRules applies VPC static routes.
type StaticRoutesRules struct {
	base
	Routes []*model.StaticRoute
}

func NewStaticRoutesRules(routes []*model.StaticRoute) *StaticRoutesRules {
	return &StaticRoutesRules{Routes: routes}
}

func (r *StaticRoutesRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*StaticRoutesRules) Name() string     { return "StaticRoutesRules" }
func (r *StaticRoutesRules) HasRules() bool { return len(r.Routes) > 0 }

// DhcpPvlanRules programs the host of a router for PVLAN DHCP.
type DhcpPvlanRules struct {
	base
	Add   bool
	Nic   *model.Nic
	Setup *command.PvlanSetupCommand
}

func NewDhcpPvlanRules(add bool, nic *model.Nic, setup *command.PvlanSetupCommand) *DhcpPvlanRules {
	return &DhcpPvlanRules{Add: add, Nic: nic, Setup: setup}
}

func (r *DhcpPvlanRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*DhcpPvlanRules) Name() string { return "DhcpPvlanRules" }
