package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// Transport delivers an envelope and returns the agent's answers. A
// transport that cannot reach the agent, or gets no answer in time, returns
// an error; Dispatcher reports it as agent unavailable.
type Transport interface {
	Send(ctx context.Context, env *Envelope) ([]command.Answer, error)
}

// Dispatcher sends command batches to router agents over a Transport and
// delegates redundant pair remediation to a Remediator.
type Dispatcher struct {
	*Remediator
	transport Transport
	seq       uint64
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(transport Transport, remediator *Remediator) *Dispatcher {
	return &Dispatcher{Remediator: remediator, transport: transport}
}

func (d *Dispatcher) nextBatch(router string) string {
	n := atomic.AddUint64(&d.seq, 1)
	return fmt.Sprintf("%s-%d-%d", router, time.Now().UnixNano(), n)
}

// SendCommandsToRouter sends cmds to the agent of router. It returns false
// when at least one command failed, and an error wrapping
// util.ErrAgentUnavailable when the agent could not be reached.
func (d *Dispatcher) SendCommandsToRouter(ctx context.Context, router *model.Router, cmds *command.Commands) (bool, error) {
	log := util.WithRouter(router.InstanceName)
	if cmds.IsEmpty() {
		log.Debugf("No commands to send")
		return true, nil
	}

	env, err := Encode(d.nextBatch(router.InstanceName), router, cmds)
	if err != nil {
		return false, err
	}
	log.Debugf("Sending batch %s: %s", env.Batch, cmds)

	answers, err := d.transport.Send(ctx, env)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, err
		}
		if errors.Is(err, util.ErrAgentUnavailable) {
			return false, err
		}
		return false, util.NewAgentUnavailable(router.InstanceName, err)
	}

	ok := Evaluate(env, answers)
	if !ok {
		for _, a := range answers {
			if !a.Result {
				log.Warnf("Command %s failed on %s: %s", a.ID, router.InstanceName, a.Details)
			}
		}
	}
	return ok, nil
}
