package rules

import (
	"context"

	"github.com/tenantnet/netorch/pkg/model"
)

// StaticNatRules applies one-to-one NAT mappings.
type StaticNatRules struct {
	base
	Rules []*model.StaticNat
}

func NewStaticNatRules(network *model.Network, rules []*model.StaticNat) *StaticNatRules {
	return &StaticNatRules{base: base{network}, Rules: rules}
}

func (r *StaticNatRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*StaticNatRules) Name() string     { return "StaticNatRules" }
func (r *StaticNatRules) HasRules() bool { return len(r.Rules) > 0 }

// LoadBalancingRules applies load balancer configuration.
type LoadBalancingRules struct {
	base
	Rules []*model.LoadBalancingRule
}

func NewLoadBalancingRules(network *model.Network, rules []*model.LoadBalancingRule) *LoadBalancingRules {
	return &LoadBalancingRules{base: base{network}, Rules: rules}
}

func (r *LoadBalancingRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*LoadBalancingRules) Name() string     { return "LoadBalancingRules" }
func (r *LoadBalancingRules) HasRules() bool { return len(r.Rules) > 0 }

// FirewallRules applies firewall-family rules sharing one purpose.
type FirewallRules struct {
	base
	Rules []*model.FirewallRule
}

func NewFirewallRules(network *model.Network, rules []*model.FirewallRule) *FirewallRules {
	return &FirewallRules{base: base{network}, Rules: rules}
}

func (r *FirewallRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*FirewallRules) Name() string     { return "FirewallRules" }
func (r *FirewallRules) HasRules() bool { return len(r.Rules) > 0 }

// Purpose is the purpose of the first rule; a set never mixes purposes.
func (r *FirewallRules) Purpose() model.Purpose {
	if len(r.Rules) == 0 {
		return ""
	}
	return r.Rules[0].Purpose
}

// LoadBalancers returns the balancers attached to LoadBalancing-purpose rules.
func (r *FirewallRules) LoadBalancers() []*model.LoadBalancingRule {
	var lbs []*model.LoadBalancingRule
	for _, rule := range r.Rules {
		if rule.LoadBalancer != nil {
			lbs = append(lbs, rule.LoadBalancer)
		}
	}
	return lbs
}

// IPAssociationRules associates or releases public IPs on a non-VPC router.
type IPAssociationRules struct {
	base
	IPs []*model.PublicIPAddress
}

func NewIPAssociationRules(network *model.Network, ips []*model.PublicIPAddress) *IPAssociationRules {
	return &IPAssociationRules{base: base{network}, IPs: ips}
}

func (r *IPAssociationRules) Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error) {
	return v.Visit(ctx, router, r)
}

func (*IPAssociationRules) Name() string     { return "IpAssociationRules" }
func (r *IPAssociationRules) HasRules() bool { return len(r.IPs) > 0 }
