package rules

import (
	"context"

	"github.com/tenantnet/netorch/pkg/model"
)

// BasicVpnRules applies remote access VPN users on a guest network router.
type BasicVpnRules struct {
	base
	Users []*model.VpnUser
}

func NewBasicVpnRules(network *model.Network, users []*model.VpnUser) *BasicVpnRules {
	return &BasicVpnRules{base: base{network}, Users: users}
}

func (r *BasicVpnRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*BasicVpnRules) Name() string     { return "BasicVpnRules" }
func (r *BasicVpnRules) HasRules() bool { return len(r.Users) > 0 }

// AdvancedVpnRules applies remote access VPN users on a VPC router.
type AdvancedVpnRules struct {
	base
	Vpn   *model.RemoteAccessVpn
	Users []*model.VpnUser
}

func NewAdvancedVpnRules(network *model.Network, vpn *model.RemoteAccessVpn, users []*model.VpnUser) *AdvancedVpnRules {
	return &AdvancedVpnRules{base: base{network}, Vpn: vpn, Users: users}
}

func (r *AdvancedVpnRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*AdvancedVpnRules) Name() string     { return "AdvancedVpnRules" }
func (r *AdvancedVpnRules) HasRules() bool { return len(r.Users) > 0 }
