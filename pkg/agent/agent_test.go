package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/docker/go-events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantnet/netorch/pkg/audit"
	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/metrics"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/store"
	"github.com/tenantnet/netorch/pkg/util"
)

type fakeTransport struct {
	sent    []*Envelope
	answers func(env *Envelope) []command.Answer
	err     error
}

func (f *fakeTransport) Send(ctx context.Context, env *Envelope) ([]command.Answer, error) {
	f.sent = append(f.sent, env)
	if f.err != nil {
		return nil, f.err
	}
	if f.answers == nil {
		return AcceptAll(ctx, env), nil
	}
	return f.answers(env), nil
}

func testBatch() *command.Commands {
	cmds := command.NewCommands(command.Stop)
	cmds.AddCommand(&command.SetFirewallRulesCommand{})
	cmds.AddCommandWithID("dhcp", &command.DhcpEntryCommand{})
	return cmds
}

var testRouter = &model.Router{ID: 20, InstanceName: "r-20-VM", HostID: 2, ControlIP: "169.254.1.20", DataCenterID: 2, IsRedundant: true}

func TestEncode(t *testing.T) {
	env, err := Encode("b1", testRouter, testBatch())
	require.NoError(t, err)

	assert.Equal(t, "b1", env.Batch)
	assert.Equal(t, "r-20-VM", env.Router)
	assert.Equal(t, "169.254.1.20", env.RouterIP)
	assert.Equal(t, int64(2), env.Host)
	assert.Equal(t, command.Stop, env.OnError)
	require.Len(t, env.Commands, 2)
	assert.Equal(t, "SetFirewallRulesCommand-0", env.Commands[0].ID)
	assert.Equal(t, "SetFirewallRulesCommand", env.Commands[0].Kind)
	assert.Equal(t, "dhcp", env.Commands[1].ID)
	assert.True(t, json.Valid(env.Commands[1].Body))
}

func TestEvaluate(t *testing.T) {
	env, err := Encode("b1", testRouter, testBatch())
	require.NoError(t, err)

	tests := []struct {
		name    string
		answers []command.Answer
		want    bool
	}{
		{"all acknowledged", AcceptAll(context.Background(), env), true},
		{"one failed", []command.Answer{{ID: "SetFirewallRulesCommand-0", Result: true}, {ID: "dhcp", Result: false}}, false},
		{"missing answer", []command.Answer{{ID: "SetFirewallRulesCommand-0", Result: true}}, false},
		{"no answers", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(env, tt.answers))
		})
	}
}

func TestTruncateAfterFailure(t *testing.T) {
	answers := []command.Answer{{ID: "a", Result: true}, {ID: "b"}, {ID: "c", Result: true}}
	assert.Len(t, truncateAfterFailure(command.Stop, answers), 2)
	assert.Len(t, truncateAfterFailure(command.Continue, answers), 3)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "NETORCH_CMD|r-1-VM", commandQueueKey("r-1-VM"))
	assert.Equal(t, "NETORCH_ANS|r-1-VM|b7", answerKey("r-1-VM", "b7"))
	assert.Equal(t, "NETORCH_HOST|3", hostKey(3))
}

// ============================================================================
// Dispatcher
// ============================================================================

func TestDispatcher_EmptyBatchNotSent(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, nil)

	ok, err := d.SendCommandsToRouter(context.Background(), testRouter, command.NewCommands(command.Continue))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, tr.sent)
}

func TestDispatcher_Answers(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, nil)

	ok, err := d.SendCommandsToRouter(context.Background(), testRouter, testBatch())
	require.NoError(t, err)
	assert.True(t, ok)

	tr.answers = func(env *Envelope) []command.Answer {
		return []command.Answer{{ID: env.Commands[0].ID, Result: false, Details: "iptables-restore failed"}}
	}
	ok, err = d.SendCommandsToRouter(context.Background(), testRouter, testBatch())
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, tr.sent, 2)
	assert.NotEqual(t, tr.sent[0].Batch, tr.sent[1].Batch)
	assert.Contains(t, tr.sent[0].Batch, "r-20-VM-")
}

func TestDispatcher_TransportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("generic error becomes agent unavailable", func(t *testing.T) {
		d := NewDispatcher(&fakeTransport{err: errors.New("connection refused")}, nil)
		ok, err := d.SendCommandsToRouter(ctx, testRouter, testBatch())
		assert.False(t, ok)
		require.ErrorIs(t, err, util.ErrAgentUnavailable)
		var aerr *util.AgentUnavailableError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, "r-20-VM", aerr.Router)
	})

	t.Run("agent unavailable passes through", func(t *testing.T) {
		orig := util.NewAgentUnavailable("r-20-VM", nil)
		d := NewDispatcher(&fakeTransport{err: orig}, nil)
		_, err := d.SendCommandsToRouter(ctx, testRouter, testBatch())
		assert.Same(t, orig, err)
	})

	t.Run("context cancellation is not a disconnect", func(t *testing.T) {
		d := NewDispatcher(&fakeTransport{err: context.Canceled}, nil)
		_, err := d.SendCommandsToRouter(ctx, testRouter, testBatch())
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, util.ErrAgentUnavailable)
	})
}

// ============================================================================
// Remediation
// ============================================================================

func remediationStore() *store.Memory {
	s := store.NewMemory()
	s.PutRouter(&model.Router{ID: 20, InstanceName: "r-20-VM", State: model.RouterRunning, DataCenterID: 2, IsRedundant: true})
	s.PutRouter(&model.Router{ID: 21, InstanceName: "r-21-VM", State: model.RouterRunning, DataCenterID: 2, IsRedundant: true})
	s.PutRouter(&model.Router{ID: 30, InstanceName: "r-30-VM", State: model.RouterRunning, DataCenterID: 2})
	return s
}

func router(t *testing.T, s *store.Memory, id int64) *model.Router {
	t.Helper()
	r, err := s.FindRouter(id)
	require.NoError(t, err)
	return r
}

func TestRemediator_MarksFirstDisconnected(t *testing.T) {
	s := remediationStore()
	ch := events.NewChannel(4)
	defer ch.Close()
	reg := prometheus.NewRegistry()
	rem := NewRemediator(s, ch, metrics.New(reg))

	err := rem.HandleSingleWorkingRedundantRouter(context.Background(),
		[]*model.Router{router(t, s, 20)}, []*model.Router{router(t, s, 21)},
		"Timeout applying firewall rules on router r-21-VM")
	require.NoError(t, err)

	assert.True(t, router(t, s, 21).StopPending)
	assert.False(t, router(t, s, 20).StopPending)

	ev := (<-ch.C).(*audit.Event)
	assert.Equal(t, audit.OutcomeRemediated, ev.Outcome)
	assert.Equal(t, int64(21), ev.RouterID)
	assert.Equal(t, "Router r-21-VM would be stopped after connecting back, due to Timeout applying firewall rules on router r-21-VM", ev.Message)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRemediator_NothingToDo(t *testing.T) {
	s := remediationStore()
	rem := NewRemediator(s, nil, nil)

	require.NoError(t, rem.HandleSingleWorkingRedundantRouter(context.Background(), nil, []*model.Router{router(t, s, 21)}, "x"))
	require.NoError(t, rem.HandleSingleWorkingRedundantRouter(context.Background(), []*model.Router{router(t, s, 20)}, nil, "x"))
	assert.False(t, router(t, s, 21).StopPending)
}

func TestRemediator_RejectsNonRedundant(t *testing.T) {
	s := remediationStore()
	rem := NewRemediator(s, nil, nil)

	err := rem.HandleSingleWorkingRedundantRouter(context.Background(),
		[]*model.Router{router(t, s, 20)}, []*model.Router{router(t, s, 30)}, "x")
	require.ErrorIs(t, err, util.ErrResourceUnavailable)
	var rerr *util.ResourceUnavailableError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, util.ScopeDataCenter, rerr.Scope)
	assert.Equal(t, int64(2), rerr.ID)
	assert.False(t, router(t, s, 30).StopPending)
}

func TestRemediator_StoreError(t *testing.T) {
	rem := NewRemediator(store.NewMemory(), nil, nil)
	err := rem.HandleSingleWorkingRedundantRouter(context.Background(),
		[]*model.Router{testRouter}, []*model.Router{{ID: 99, InstanceName: "r-99-VM", IsRedundant: true}}, "x")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestDispatcher_ExposesRemediation(t *testing.T) {
	s := remediationStore()
	d := NewDispatcher(&fakeTransport{}, NewRemediator(s, nil, nil))
	require.NoError(t, d.HandleSingleWorkingRedundantRouter(context.Background(),
		[]*model.Router{router(t, s, 21)}, []*model.Router{router(t, s, 20)}, "x"))
	assert.True(t, router(t, s, 20).StopPending)
}

// ============================================================================
// Hosts
// ============================================================================

type fakeHosts map[int64]model.HostStatus

func (f fakeHosts) HostStatus(ctx context.Context, id int64) (model.HostStatus, error) {
	st, ok := f[id]
	if !ok {
		return "", errors.New("unreachable")
	}
	return st, nil
}

func TestRefreshHosts(t *testing.T) {
	s := store.NewMemory()
	s.PutHost(&model.Host{ID: 1, Status: model.HostUp})
	s.PutHost(&model.Host{ID: 2, Status: model.HostUp})

	src := fakeHosts{1: model.HostUp, 2: model.HostDisconnected}
	require.NoError(t, RefreshHosts(context.Background(), src, s, []int64{1, 2}))

	h, err := s.FindHost(2)
	require.NoError(t, err)
	assert.Equal(t, model.HostDisconnected, h.Status)

	assert.Error(t, RefreshHosts(context.Background(), src, s, []int64{3}))
	assert.ErrorIs(t, RefreshHosts(context.Background(), fakeHosts{9: model.HostUp}, s, []int64{9}), util.ErrNotFound)
}
