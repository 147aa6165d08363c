// Package agent delivers command batches to the agents that execute them on
// virtual routers, and remediates redundant router pairs where only one
// router could be reached.
//
// Batches travel through Redis. The dispatcher appends an Envelope to the
// router's command queue and waits for the agent to push the answers to a
// per-batch answer key:
//
//	NETORCH_CMD|<router>           list of JSON envelopes
//	NETORCH_ANS|<router>|<batch>   list holding one JSON answer array
//	NETORCH_HOST|<host id>         hash {status, last_seen} kept by the host agent
package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tenantnet/netorch/pkg/command"
	"github.com/tenantnet/netorch/pkg/model"
)

// Redis key prefixes.
const (
	CommandQueuePrefix = "NETORCH_CMD"
	AnswerPrefix       = "NETORCH_ANS"
	HostPrefix         = "NETORCH_HOST"
)

func commandQueueKey(router string) string {
	return fmt.Sprintf("%s|%s", CommandQueuePrefix, router)
}

func answerKey(router, batch string) string {
	return fmt.Sprintf("%s|%s|%s", AnswerPrefix, router, batch)
}

func hostKey(hostID int64) string {
	return fmt.Sprintf("%s|%d", HostPrefix, hostID)
}

// WireCommand is one command of an envelope.
type WireCommand struct {
	ID   string          `json:"id"`
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// Envelope is a command batch as queued for an agent.
type Envelope struct {
	Batch    string          `json:"batch"`
	Router   string          `json:"router"`
	RouterIP string          `json:"router_ip,omitempty"`
	Host     int64           `json:"host,omitempty"`
	OnError  command.OnError `json:"on_error"`
	Commands []WireCommand   `json:"commands"`
	SentAt   time.Time       `json:"sent_at"`
}

// Encode serializes cmds for router under batch id.
func Encode(batch string, router *model.Router, cmds *command.Commands) (*Envelope, error) {
	env := &Envelope{
		Batch:    batch,
		Router:   router.InstanceName,
		RouterIP: router.ControlIP,
		Host:     router.HostID,
		OnError:  cmds.OnError(),
		SentAt:   time.Now().UTC(),
	}
	for _, e := range cmds.Entries() {
		body, err := json.Marshal(e.Command)
		if err != nil {
			return nil, fmt.Errorf("encoding %s for %s: %w", e.ID, router.InstanceName, err)
		}
		env.Commands = append(env.Commands, WireCommand{ID: e.ID, Kind: e.Command.Kind(), Body: body})
	}
	return env, nil
}

// Evaluate reports whether answers acknowledge every command of env. A
// command without an answer counts as failed; under the Stop policy the
// agent does not answer the commands after the first failure.
func Evaluate(env *Envelope, answers []command.Answer) bool {
	byID := make(map[string]command.Answer, len(answers))
	for _, a := range answers {
		byID[a.ID] = a
	}
	for _, c := range env.Commands {
		a, ok := byID[c.ID]
		if !ok || !a.Result {
			return false
		}
	}
	return true
}
