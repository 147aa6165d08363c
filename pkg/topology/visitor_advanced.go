package topology

import (
	"context"
	"errors"
	"fmt"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/rules"
	"github.com/tenantnet/netorch/pkg/util"
)

// AdvancedVisitor handles every applier, including the VPC ones. Appliers
// shared with Basic zones are built the same way, without the pod affinity
// check.
type AdvancedVisitor struct {
	basic *BasicVisitor
}

// NewAdvancedVisitor creates a visitor bound to deps.
func NewAdvancedVisitor(deps Deps) *AdvancedVisitor {
	return &AdvancedVisitor{basic: NewBasicVisitor(deps)}
}

var _ rules.Visitor = (*AdvancedVisitor)(nil)

func (v *AdvancedVisitor) deps() Deps { return v.basic.deps }

// Visit builds and sends the commands for a on router.
func (v *AdvancedVisitor) Visit(ctx context.Context, router *model.Router, a rules.Applier) (bool, error) {
	switch r := a.(type) {
	case *rules.UserdataPwdRules:
		return v.basic.visitUserdataPwd(ctx, router, r)
	case *rules.DhcpEntryRules:
		return v.basic.visitDhcpEntry(ctx, router, r)
	case *rules.DhcpSubNetRules:
		// alias subnets exist only in Basic zones
		return false, nil
	case *rules.VpcIPAssociationRules:
		return v.visitVpcIPAssociation(ctx, router, r)
	case *rules.NicPlugInOutRules:
		return v.visitNicPlugInOut(ctx, router, r)
	case *rules.NetworkAclsRules:
		return v.visitNetworkAcls(ctx, router, r)
	case *rules.PrivateGatewayRules:
		return v.visitPrivateGateway(ctx, router, r)
	case *rules.DhcpPvlanRules:
		return v.visitDhcpPvlan(ctx, router, r)
	case *rules.StaticRoutesRules:
		return v.visitStaticRoutes(ctx, router, r)
	case *rules.AdvancedVpnRules:
		return v.visitAdvancedVpn(ctx, router, r)
	}
	return v.basic.Visit(ctx, router, a)
}

func (v *AdvancedVisitor) visitVpcIPAssociation(ctx context.Context, router *model.Router, r *rules.VpcIPAssociationRules) (bool, error) {
	store := v.deps().Store
	vlanMACs := make(map[string]string)
	var toSend []*model.PublicIPAddress
	for _, ip := range r.IPs {
		nic, err := store.FindRouterNicByBroadcastURI(ip.NetworkID, router.ID, vlanURI(ip.VlanTag))
		if err != nil {
			if ip.IsReleasing() {
				// nic already unplugged, nothing left to disassociate
				continue
			}
			return false, fmt.Errorf("router %s has no nic for public ip %s on vlan %s: %w",
				router.InstanceName, ip.Address, ip.VlanTag, err)
		}
		vlanMACs[util.URIValue(vlanURI(ip.VlanTag))] = nic.MACAddress
		toSend = append(toSend, ip)
	}
	if len(toSend) == 0 {
		return true, nil
	}

	cmds := command.NewCommands(command.Continue)
	v.deps().Builder.CreateVpcAssociatePublicIPCommands(router, r.Network(), toSend, vlanMACs, cmds)
	return v.basic.send(ctx, router, cmds)
}

func (v *AdvancedVisitor) visitNicPlugInOut(ctx context.Context, router *model.Router, r *rules.NicPlugInOutRules) (bool, error) {
	if r.UsageCommands.IsEmpty() {
		return true, nil
	}
	return v.basic.send(ctx, router, r.UsageCommands)
}

func (v *AdvancedVisitor) visitNetworkAcls(ctx context.Context, router *model.Router, r *rules.NetworkAclsRules) (bool, error) {
	cmds := command.NewCommands(command.Continue)
	if err := v.deps().Builder.CreateNetworkACLsCommands(router, r.Network(), r.Rules, r.PrivateGateway, cmds); err != nil {
		return false, err
	}
	return v.basic.send(ctx, router, cmds)
}

// visitPrivateGateway checks router state itself: resolving the private IP
// must not happen against a router that is not running.
func (v *AdvancedVisitor) visitPrivateGateway(ctx context.Context, router *model.Router, r *rules.PrivateGatewayRules) (bool, error) {
	log := util.WithRouter(router.InstanceName)
	switch {
	case router.IsRunning():
	case router.IsStoppedOrStopping():
		log.Debugf("Router is in %s, so not sending setup private network command to the backend", router.State)
		return true, nil
	default:
		log.Warnf("Unable to setup private gateway, virtual router is not in the right state %s", router.State)
		return false, util.NewResourceUnavailable(util.ReasonRouterState, util.ScopeDataCenter, router.DataCenterID,
			"Unable to setup Private gateway on the backend, virtual router %s is not in the right state", router.InstanceName)
	}

	ip, err := v.privateIPAddress(r.Nic)
	if err != nil {
		log.Warnf("Failed to resolve private gateway address %s: %v", r.Nic.IPv4Address, err)
		return false, nil
	}
	cmds := command.NewCommands(command.Stop)
	v.deps().Builder.CreateVpcAssociatePrivateIPCommands(router, []command.PrivateIPAddress{*ip}, r.IsAddOperation(), cmds)

	ok, err := v.basic.send(ctx, router, cmds)
	if err != nil {
		log.Warnf("Failed to send private gateway commands: %v", err)
		return false, nil
	}
	return ok, nil
}

func (v *AdvancedVisitor) privateIPAddress(nic *model.Nic) (*command.PrivateIPAddress, error) {
	store := v.deps().Store
	priv, err := store.FindPrivateIP(nic.NetworkID, nic.IPv4Address)
	if err != nil {
		return nil, err
	}
	network, err := store.FindNetwork(priv.NetworkID)
	if err != nil {
		return nil, err
	}
	netmask, err := util.CIDRNetmask(network.CIDR)
	if err != nil {
		return nil, err
	}
	return &command.PrivateIPAddress{
		IP:           priv,
		BroadcastURI: network.BroadcastURI,
		Gateway:      network.Gateway,
		Netmask:      netmask,
		MACAddress:   nic.MACAddress,
	}, nil
}

func (v *AdvancedVisitor) visitDhcpPvlan(ctx context.Context, router *model.Router, r *rules.DhcpPvlanRules) (bool, error) {
	cmds := command.NewCommands(command.Stop)
	cmds.AddCommandWithID("pvlan", r.Setup)
	ok, err := v.basic.send(ctx, router, cmds)
	if errors.Is(err, util.ErrAgentUnavailable) {
		util.WithRouter(router.InstanceName).Warnf("Timed Out: %v", err)
		return false, nil
	}
	return ok, err
}

func (v *AdvancedVisitor) visitStaticRoutes(ctx context.Context, router *model.Router, r *rules.StaticRoutesRules) (bool, error) {
	cmds := command.NewCommands(command.Continue)
	v.deps().Builder.CreateStaticRouteCommands(router, r.Routes, cmds)
	return v.basic.send(ctx, router, cmds)
}

func (v *AdvancedVisitor) visitAdvancedVpn(ctx context.Context, router *model.Router, r *rules.AdvancedVpnRules) (bool, error) {
	cmds := command.NewCommands(command.Continue)
	v.deps().Builder.CreateApplyVpnUsersCommand(router, r.Users, cmds)
	return v.basic.send(ctx, router, cmds)
}

func vlanURI(tag string) string {
	if util.URIScheme(tag) != "" {
		return tag
	}
	return "vlan://" + tag
}
