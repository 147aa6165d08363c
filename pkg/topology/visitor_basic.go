package topology

import (
	"context"
	"fmt"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/rules"
	"github.com/tenantnet/netorch/pkg/util"
)

// BasicVisitor turns appliers into commands for Basic zone routers. VPC
// appliers are rejected with a NotImplementedError.
type BasicVisitor struct {
	deps Deps
}

// NewBasicVisitor creates a visitor bound to deps.
func NewBasicVisitor(deps Deps) *BasicVisitor {
	return &BasicVisitor{deps: deps}
}

var _ rules.Visitor = (*BasicVisitor)(nil)

// Visit builds and sends the commands for a on router.
func (v *BasicVisitor) Visit(ctx context.Context, router *model.Router, a rules.Applier) (bool, error) {
	switch r := a.(type) {
	case *rules.StaticNatRules:
		return v.visitStaticNat(ctx, router, r)
	case *rules.LoadBalancingRules:
		return v.visitLoadBalancing(ctx, router, r)
	case *rules.FirewallRules:
		return v.visitFirewall(ctx, router, r)
	case *rules.IPAssociationRules:
		return v.visitIPAssociation(ctx, router, r)
	case *rules.UserdataPwdRules:
		if !podMatches(router, r.Dest) {
			return true, nil
		}
		return v.visitUserdataPwd(ctx, router, r)
	case *rules.DhcpEntryRules:
		if !podMatches(router, r.Dest) {
			return true, nil
		}
		return v.visitDhcpEntry(ctx, router, r)
	case *rules.SshKeyToRouterRules:
		return v.visitSshKey(ctx, router, r)
	case *rules.PasswordToRouterRules:
		return v.visitPassword(ctx, router, r)
	case *rules.UserdataToRouterRules:
		return v.visitUserdataToRouter(ctx, router, r)
	case *rules.BasicVpnRules:
		return v.visitBasicVpn(ctx, router, r)
	case *rules.DhcpSubNetRules:
		return v.visitDhcpSubNet(ctx, router, r)
	case *rules.NicPlugInOutRules, *rules.NetworkAclsRules, *rules.VpcIPAssociationRules,
		*rules.PrivateGatewayRules, *rules.DhcpPvlanRules, *rules.StaticRoutesRules, *rules.AdvancedVpnRules:
		return false, util.NewNotImplemented(a.Name(), string(model.NetworkTypeBasic))
	}
	return false, fmt.Errorf("%w: unknown applier %T", util.ErrInvalidArgument, a)
}

// podMatches reports whether router may serve a VM deployed to dest. A
// router in another pod declines without sending anything.
func podMatches(router *model.Router, dest *model.DeployDestination) bool {
	if !dest.HasPod() {
		return true
	}
	return router.PodID == dest.PodID
}

func (v *BasicVisitor) send(ctx context.Context, router *model.Router, cmds *command.Commands) (bool, error) {
	return v.deps.Dispatcher.SendCommandsToRouter(ctx, router, cmds)
}

func (v *BasicVisitor) visitStaticNat(ctx context.Context, router *model.Router, r *rules.StaticNatRules) (bool, error) {
	cmds := command.NewCommands(command.Continue)
	v.deps.Builder.CreateApplyStaticNatCommands(router, r.Network(), r.Rules, cmds)
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitLoadBalancing(ctx context.Context, router *model.Router, r *rules.LoadBalancingRules) (bool, error) {
	cmds := command.NewCommands(command.Continue)
	v.deps.Builder.CreateApplyLoadBalancingRulesCommands(router, r.Network(), r.Rules, cmds)
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitFirewall(ctx context.Context, router *model.Router, r *rules.FirewallRules) (bool, error) {
	network := r.Network()
	cmds := command.NewCommands(command.Continue)
	switch purpose := r.Purpose(); purpose {
	case model.PurposeLoadBalancing:
		v.deps.Builder.CreateApplyLoadBalancingRulesCommands(router, network, r.LoadBalancers(), cmds)
	case model.PurposePortForwarding:
		v.deps.Builder.CreateApplyPortForwardingRulesCommands(router, network, r.Rules, cmds)
	case model.PurposeStaticNat:
		v.deps.Builder.CreateApplyStaticNatRulesCommands(router, network, r.Rules, cmds)
	case model.PurposeFirewall:
		v.deps.Builder.CreateApplyFirewallRulesCommands(router, network, r.Rules, cmds)
	default:
		util.WithRouter(router.InstanceName).Warnf("Unable to apply rules of purpose: %s", purpose)
		return false, nil
	}
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitIPAssociation(ctx context.Context, router *model.Router, r *rules.IPAssociationRules) (bool, error) {
	cmds := command.NewCommands(command.Continue)
	v.deps.Builder.CreateAssociateIPCommands(router, r.Network(), r.IPs, cmds)
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitUserdataPwd(ctx context.Context, router *model.Router, r *rules.UserdataPwdRules) (bool, error) {
	cmds := command.NewCommands(command.Stop)
	v.deps.Builder.CreatePasswordCommand(router, r.Profile, r.Nic, cmds)
	v.deps.Builder.CreateVMDataCommand(router, r.Profile.VM, r.Nic, "", cmds)
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitDhcpEntry(ctx context.Context, router *model.Router, r *rules.DhcpEntryRules) (bool, error) {
	cmds := command.NewCommands(command.Stop)
	if err := v.deps.Builder.CreateDhcpEntryCommand(router, r.Profile.VM, r.Nic, r.IsRemove(), cmds); err != nil {
		return false, err
	}
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitSshKey(ctx context.Context, router *model.Router, r *rules.SshKeyToRouterRules) (bool, error) {
	cmds := command.NewCommands(command.Stop)
	if r.Profile.VM.PasswordEnabled {
		v.deps.Builder.CreatePasswordCommand(router, r.Profile, r.Nic, cmds)
	}
	v.deps.Builder.CreateVMDataCommand(router, r.Profile.VM, r.Nic, r.SSHPublicKey, cmds)
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitPassword(ctx context.Context, router *model.Router, r *rules.PasswordToRouterRules) (bool, error) {
	cmds := command.NewCommands(command.Stop)
	v.deps.Builder.CreatePasswordCommand(router, r.Profile, r.Nic, cmds)
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitUserdataToRouter(ctx context.Context, router *model.Router, r *rules.UserdataToRouterRules) (bool, error) {
	cmds := command.NewCommands(command.Stop)
	v.deps.Builder.CreateVMDataCommand(router, r.Profile.VM, r.Nic, "", cmds)
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitBasicVpn(ctx context.Context, router *model.Router, r *rules.BasicVpnRules) (bool, error) {
	cmds := command.NewCommands(command.Continue)
	v.deps.Builder.CreateApplyVpnUsersCommand(router, r.Users, cmds)
	return v.send(ctx, router, cmds)
}

func (v *BasicVisitor) visitDhcpSubNet(ctx context.Context, router *model.Router, r *rules.DhcpSubNetRules) (bool, error) {
	network := r.Network()
	alias := r.Alias
	cmds := command.NewCommands(command.Stop)
	aliases := []command.IPAliasTO{{
		RouterIP:   alias.IPAddress,
		Netmask:    alias.Netmask,
		AliasCount: fmt.Sprintf("%d", alias.AliasCount),
	}}
	if err := v.deps.Builder.CreateIPAliasCommand(router, aliases, network.ID, cmds); err != nil {
		return false, err
	}
	if err := v.deps.Builder.ConfigDnsMasq(router, network, cmds); err != nil {
		return false, err
	}

	ok, err := v.send(ctx, router, cmds)
	if err != nil {
		return false, err
	}
	if !ok {
		if rerr := v.deps.Store.ReleaseIPAlias(alias.ID); rerr != nil {
			util.WithRouter(router.InstanceName).Warnf("releasing ip alias %s: %v", alias.IPAddress, rerr)
		}
		return false, util.NewResourceUnavailable(util.ReasonRuleRejected, util.ScopeDataCenter, router.DataCenterID,
			"failed to configure ip alias on the router as a part of dhcp config")
	}
	return true, nil
}
