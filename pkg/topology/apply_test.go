package topology

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/go-events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantnet/netorch/pkg/audit"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/rules"
	"github.com/tenantnet/netorch/pkg/util"
)

func fwRules(network *model.Network) *rules.FirewallRules {
	return rules.NewFirewallRules(network, []*model.FirewallRule{{
		ID: 1, Purpose: model.PurposeFirewall, Protocol: "tcp", SourcePortStart: 22, SourcePortEnd: 22,
		SourceCIDRs: []string{"0.0.0.0/0"}, State: model.RuleAdd, Direction: model.Ingress,
	}})
}

func TestApplyRules_EmptyRuleSetsNeverDispatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tier := f.routers(t, 20, 21)
	shared := f.routers(t, 10)

	tests := []struct {
		name string
		run  func() (bool, error)
	}{
		{"basic load balancing", func() (bool, error) { return f.basic.ApplyLoadBalancingRules(ctx, f.sharedNet, nil, shared) }},
		{"basic firewall", func() (bool, error) { return f.basic.ApplyFirewallRules(ctx, f.sharedNet, nil, shared) }},
		{"basic static nat", func() (bool, error) { return f.basic.ApplyStaticNats(ctx, f.sharedNet, nil, shared) }},
		{"basic ip association", func() (bool, error) { return f.basic.AssociatePublicIP(ctx, f.sharedNet, nil, shared) }},
		{"advanced firewall", func() (bool, error) {
			return f.advanced.ApplyFirewallRules(ctx, f.tierNet, []*model.FirewallRule{}, tier)
		}},
		{"advanced ip association", func() (bool, error) { return f.advanced.AssociatePublicIP(ctx, f.tierNet, nil, tier) }},
		{"advanced network acls", func() (bool, error) { return f.advanced.ApplyNetworkACLs(ctx, f.tierNet, nil, tier, false) }},
		{"advanced static routes", func() (bool, error) { return f.advanced.ApplyStaticRoutes(ctx, nil, tier) }},
		{"generic apply", func() (bool, error) {
			return f.advanced.ApplyRules(ctx, f.tierNet, nil, "firewall rules", false, 0, true, rules.NewFirewallRules(f.tierNet, nil))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.run()
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}

	res, err := f.basic.ApplyVpnUsers(ctx, f.sharedNet, nil, shared)
	require.NoError(t, err)
	assert.Empty(t, res)
	res, err = f.advanced.ApplyRemoteAccessVpnUsers(ctx, &model.RemoteAccessVpn{ID: 1, VpcID: 1}, nil, f.router(t, 20))
	require.NoError(t, err)
	assert.Empty(t, res)

	assert.Empty(t, f.dispatcher.sentTo())
	assert.Empty(t, f.dispatcher.remediations)
}

func TestApplyRules_StateGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r20 := f.router(t, 20)
	r21 := f.router(t, 21)

	tests := []struct {
		name    string
		routers []*model.Router
		want    []string
	}{
		{"all running", []*model.Router{r20, r21}, []string{"r-20-VM", "r-21-VM"}},
		{"stopped skipped", []*model.Router{withState(r20, model.RouterStopped), r21}, []string{"r-21-VM"}},
		{"stopping skipped", []*model.Router{r20, withState(r21, model.RouterStopping)}, []string{"r-20-VM"}},
		{"none running", []*model.Router{withState(r20, model.RouterStopped), withState(r21, model.RouterStopping)}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.dispatcher.batches = nil
			ok, err := f.advanced.ApplyRules(ctx, f.tierNet, tt.routers, "firewall rules", false, 0, false, fwRules(f.tierNet))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, f.dispatcher.sentTo())
		})
	}
}

func TestApplyRules_FailWhenDisconnectWithOnlyStoppedRouters(t *testing.T) {
	f := newFixture(t)
	stopped := withState(f.router(t, 20), model.RouterStopped)

	ok, err := f.advanced.ApplyRules(context.Background(), f.tierNet, []*model.Router{stopped}, "dhcp entry", false, 0, true, fwRules(f.tierNet))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.dispatcher.sentTo())
}

func TestApplyRules_RemediatesRedundantPeer(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.script("r-21-VM", agentDown("r-21-VM"))

	ok, err := f.advanced.ApplyRules(context.Background(), f.tierNet, f.routers(t, 20, 21), "firewall rules", false, 0, false, fwRules(f.tierNet))
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, f.dispatcher.remediations, 1)
	rem := f.dispatcher.remediations[0]
	assert.Equal(t, []string{"r-20-VM"}, rem.connected)
	assert.Equal(t, []string{"r-21-VM"}, rem.disconnected)
	assert.Contains(t, rem.reason, "firewall rules")
}

func TestApplyRules_RemediationErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.script("r-21-VM", agentDown("r-21-VM"))
	f.dispatcher.remediateErr = util.NewResourceUnavailable(util.ReasonUnknown, util.ScopeDataCenter, advancedZone, "not redundant")

	_, err := f.advanced.ApplyRules(context.Background(), f.tierNet, f.routers(t, 20, 21), "firewall rules", false, 0, false, fwRules(f.tierNet))
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrResourceUnavailable))
}

func TestApplyRules_NonRedundantPeersAreNotRemediated(t *testing.T) {
	f := newFixture(t)
	a := f.router(t, 20)
	b := f.router(t, 21)
	a.IsRedundant = false
	b.IsRedundant = false
	f.dispatcher.script("r-21-VM", agentDown("r-21-VM"))

	ok, err := f.advanced.ApplyRules(context.Background(), f.tierNet, []*model.Router{a, b}, "firewall rules", false, 0, true, fwRules(f.tierNet))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.dispatcher.remediations)
}

func TestApplyRules_BasicZoneNeverRemediates(t *testing.T) {
	f := newFixture(t)
	a := f.router(t, 10)
	b := *a
	b.ID = 11
	b.InstanceName = "r-11-VM"
	b.IsRedundant = true
	a.IsRedundant = true
	f.dispatcher.script("r-11-VM", agentDown("r-11-VM"))

	ok, err := f.basic.ApplyRules(context.Background(), f.sharedNet, []*model.Router{a, &b}, "firewall rules", false, 0, false, fwRules(f.sharedNet))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.dispatcher.remediations)
}

func TestApplyRules_AllDisconnected(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.script("r-20-VM", agentDown("r-20-VM"))
	f.dispatcher.script("r-21-VM", agentDown("r-21-VM"))

	_, err := f.advanced.ApplyRules(context.Background(), f.tierNet, f.routers(t, 20, 21), "firewall rules", false, 0, false, fwRules(f.tierNet))
	rue := resourceError(t, err)
	assert.Equal(t, util.ScopeDataCenter, rue.Scope)
	assert.Equal(t, advancedZone, rue.ID)
	assert.True(t, errors.Is(err, util.ErrDisconnected))
	assert.Empty(t, f.dispatcher.remediations)
}

func TestApplyRules_SingleDisconnectedRouter(t *testing.T) {
	f := newFixture(t)
	r30 := f.router(t, 30)
	f.dispatcher.script("r-30-VM", agentDown("r-30-VM"))

	_, err := f.advanced.ApplyRules(context.Background(), f.isoNet, []*model.Router{r30}, "firewall rules", false, 0, false, fwRules(f.isoNet))
	rue := resourceError(t, err)
	assert.Equal(t, util.ScopeDataCenter, rue.Scope)
	assert.Equal(t, r30.DataCenterID, rue.ID)
	assert.Equal(t, util.ReasonDisconnected, rue.Reason)
	assert.Empty(t, f.dispatcher.remediations)
}

func TestApplyRules_RejectionWinsOverRemediation(t *testing.T) {
	f := newFixture(t)
	// r-21 disconnects first, then r-20 answers with a failure.
	f.dispatcher.script("r-21-VM", agentDown("r-21-VM"))
	f.dispatcher.script("r-20-VM", rejected)

	_, err := f.advanced.ApplyRules(context.Background(), f.tierNet, f.routers(t, 21, 20), "firewall rules", false, 0, false, fwRules(f.tierNet))
	rue := resourceError(t, err)
	assert.True(t, errors.Is(err, util.ErrRuleRejected))
	assert.Equal(t, util.ScopeDataCenter, rue.Scope)
	assert.Empty(t, f.dispatcher.remediations)
}

func TestApplyRules_RejectionStopsAtFirstRouter(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.script("r-20-VM", rejected)

	_, err := f.advanced.ApplyRules(context.Background(), f.tierNet, f.routers(t, 20, 21), "firewall rules", false, 0, false, fwRules(f.tierNet))
	require.Error(t, err)
	assert.Equal(t, []string{"r-20-VM"}, f.dispatcher.sentTo())
}

func TestApplyRules_NoRouters(t *testing.T) {
	f := newFixture(t)

	t.Run("data center scope", func(t *testing.T) {
		_, err := f.advanced.ApplyRules(context.Background(), f.tierNet, nil, "firewall rules", false, 0, false, fwRules(f.tierNet))
		rue := resourceError(t, err)
		assert.Equal(t, util.ScopeDataCenter, rue.Scope)
		assert.Equal(t, advancedZone, rue.ID)
		assert.True(t, errors.Is(err, util.ErrNoRouter))
	})

	t.Run("pod scope in basic zone", func(t *testing.T) {
		_, err := f.basic.ApplyRules(context.Background(), f.sharedNet, nil, "dhcp entry", true, 7, true, fwRules(f.sharedNet))
		rue := resourceError(t, err)
		assert.Equal(t, util.ScopePod, rue.Scope)
		assert.Equal(t, int64(7), rue.ID)
	})
}

func TestApplyRules_WrongState(t *testing.T) {
	f := newFixture(t)
	starting := withState(f.router(t, 10), model.RouterStarting)

	_, err := f.basic.ApplyRules(context.Background(), f.sharedNet, []*model.Router{starting}, "dhcp entry", true, 5, true, fwRules(f.sharedNet))
	rue := resourceError(t, err)
	assert.Equal(t, util.ScopePod, rue.Scope)
	assert.Equal(t, int64(5), rue.ID)
	assert.True(t, errors.Is(err, util.ErrRouterState))

	_, err = f.basic.ApplyRules(context.Background(), f.sharedNet, []*model.Router{starting}, "dhcp entry", false, 0, true, fwRules(f.sharedNet))
	rue = resourceError(t, err)
	assert.Equal(t, util.ScopeDataCenter, rue.Scope)
	assert.Equal(t, basicZone, rue.ID)
	assert.Empty(t, f.dispatcher.sentTo())
}

func TestApplyRules_StopPending(t *testing.T) {
	f := newFixture(t)

	t.Run("host up fails", func(t *testing.T) {
		r := f.router(t, 20)
		r.StopPending = true
		_, err := f.advanced.ApplyRules(context.Background(), f.tierNet, []*model.Router{r}, "firewall rules", false, 0, false, fwRules(f.tierNet))
		rue := resourceError(t, err)
		assert.Equal(t, util.ReasonStopPending, rue.Reason)
		assert.Equal(t, util.ScopeDataCenter, rue.Scope)
	})

	t.Run("host down declines", func(t *testing.T) {
		r := f.router(t, 21)
		r.StopPending = true
		ok, err := f.advanced.ApplyRules(context.Background(), f.tierNet, []*model.Router{r}, "firewall rules", false, 0, false, fwRules(f.tierNet))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.Empty(t, f.dispatcher.sentTo())
}

func TestApplyRules_StopPendingDeclineKeepsDispatching(t *testing.T) {
	f := newFixture(t)
	pending := f.router(t, 21)
	pending.StopPending = true

	ok, err := f.advanced.ApplyRules(context.Background(), f.tierNet, []*model.Router{pending, f.router(t, 20)},
		"firewall rules", false, 0, false, fwRules(f.tierNet))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"r-20-VM"}, f.dispatcher.sentTo())
}

func TestApplyRules_StopPendingDeclineStillRemediates(t *testing.T) {
	f := newFixture(t)
	f.store.PutRouter(&model.Router{ID: 22, InstanceName: "r-22-VM", State: model.RouterRunning, HostID: 3,
		DataCenterID: advancedZone, VpcID: 1, IsRedundant: true, StopPending: true})
	f.dispatcher.script("r-21-VM", agentDown("r-21-VM"))

	ok, err := f.advanced.ApplyRules(context.Background(), f.tierNet, f.routers(t, 21, 22, 20),
		"firewall rules", false, 0, false, fwRules(f.tierNet))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"r-21-VM", "r-20-VM"}, f.dispatcher.sentTo())
	require.Len(t, f.dispatcher.remediations, 1)
	assert.Equal(t, []string{"r-20-VM"}, f.dispatcher.remediations[0].connected)
	assert.Equal(t, []string{"r-21-VM"}, f.dispatcher.remediations[0].disconnected)
}

func TestApplyRules_PodExceptionOutsideBasicZonePanics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		f.advanced.ApplyRules(ctx, f.tierNet, f.routers(t, 20), "dhcp entry", true, 5, true, fwRules(f.tierNet))
	})
	assert.Panics(t, func() {
		f.basic.ApplyRules(ctx, f.sharedNet, f.routers(t, 10), "dhcp entry", true, 0, true, fwRules(f.sharedNet))
	})
}

func TestApplyRules_UnknownZone(t *testing.T) {
	f := newFixture(t)
	orphan := &model.Network{ID: 999, DataCenterID: 42}

	_, err := f.basic.ApplyRules(context.Background(), orphan, f.routers(t, 10), "firewall rules", false, 0, false, fwRules(orphan))
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestApplyRules_TransportErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("encoding failed")
	f.dispatcher.script("r-20-VM", answer{err: boom})

	_, err := f.advanced.ApplyRules(context.Background(), f.tierNet, f.routers(t, 20, 21), "firewall rules", false, 0, false, fwRules(f.tierNet))
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, f.dispatcher.remediations)
}

func TestApplyRules_RecordsEvents(t *testing.T) {
	f := newFixture(t)
	ch := events.NewChannel(16)
	defer ch.Close()
	f.deps.Events = ch
	adv := NewAdvancedTopology(f.deps)
	f.dispatcher.script("r-21-VM", agentDown("r-21-VM"))

	stopped := withState(f.router(t, 30), model.RouterStopped)
	routers := append(f.routers(t, 20, 21), stopped)
	_, err := adv.ApplyRules(context.Background(), f.tierNet, routers, "firewall rules", false, 0, false, fwRules(f.tierNet))
	require.NoError(t, err)

	var outcomes []audit.Outcome
	for i := 0; i < 3; i++ {
		e := (<-ch.C).(*audit.Event)
		assert.Equal(t, "Advanced", e.Topology)
		assert.Equal(t, "firewall rules", e.Intent)
		assert.Equal(t, "FirewallRules", e.Applier)
		outcomes = append(outcomes, e.Outcome)
	}
	assert.Equal(t, []audit.Outcome{audit.OutcomeApplied, audit.OutcomeDisconnected, audit.OutcomeSkipped}, outcomes)
}
