// Package command defines the transport commands sent to router agents, the
// ordered batch they travel in, and the Builder that derives them from rule
// payloads.
package command

import (
	"fmt"
	"strings"
)

// OnError is the error policy of a batch: whether the agent keeps executing
// the remaining commands after one fails.
type OnError string

const (
	// Stop aborts the batch on the first failed command. Used for ordered,
	// single-intent sequences where partial application is unsafe.
	Stop OnError = "Stop"
	// Continue executes every command regardless of earlier failures. Used for
	// sets of independent rules.
	Continue OnError = "Continue"
)

// Access detail keys attached to every router command.
const (
	AccessRouterName   = "router.name"
	AccessRouterIP     = "router.ip"
	AccessRouterGuest  = "router.guest.ip"
	AccessZoneNetType  = "zone.network.type"
	AccessGuestGateway = "guest.network.gateway"
	AccessGuestCIDR    = "guest.cidr"
	AccessGuestBcast   = "guest.bcast.uri"
)

// Command is a single instruction executed by a router agent.
type Command interface {
	// Kind is the wire name of the command.
	Kind() string
	// Access returns the router access details the agent needs to route it.
	Access() map[string]string
}

// RouterCommand carries the access details shared by all commands.
type RouterCommand struct {
	AccessDetails map[string]string `json:"access_details"`
}

// Access implements Command.
func (c *RouterCommand) Access() map[string]string {
	return c.AccessDetails
}

// SetAccess sets one access detail.
func (c *RouterCommand) SetAccess(key, value string) {
	if c.AccessDetails == nil {
		c.AccessDetails = make(map[string]string)
	}
	c.AccessDetails[key] = value
}

// Entry is a command together with the id it was added under.
type Entry struct {
	ID      string
	Command Command
}

// Commands is an ordered batch of commands sent to one router in one call.
type Commands struct {
	onError OnError
	entries []Entry
}

// NewCommands creates an empty batch with the given error policy.
func NewCommands(onError OnError) *Commands {
	return &Commands{onError: onError}
}

// OnError returns the batch error policy.
func (c *Commands) OnError() OnError {
	return c.onError
}

// AddCommand appends a command under a generated id.
func (c *Commands) AddCommand(cmd Command) {
	c.AddCommandWithID(fmt.Sprintf("%s-%d", cmd.Kind(), len(c.entries)), cmd)
}

// AddCommandWithID appends a command under an explicit id.
func (c *Commands) AddCommandWithID(id string, cmd Command) {
	c.entries = append(c.entries, Entry{ID: id, Command: cmd})
}

// Size returns the number of commands in the batch.
func (c *Commands) Size() int {
	return len(c.entries)
}

// IsEmpty returns true if the batch holds no commands.
func (c *Commands) IsEmpty() bool {
	return len(c.entries) == 0
}

// Entries returns the commands in insertion order.
func (c *Commands) Entries() []Entry {
	return c.entries
}

// Kinds returns the command kinds in insertion order.
func (c *Commands) Kinds() []string {
	kinds := make([]string, len(c.entries))
	for i, e := range c.entries {
		kinds[i] = e.Command.Kind()
	}
	return kinds
}

// String returns a one-line summary of the batch.
func (c *Commands) String() string {
	if c.IsEmpty() {
		return "No commands"
	}
	return fmt.Sprintf("[%s] %s", c.onError, strings.Join(c.Kinds(), ", "))
}

// Answer is the agent's reply to one command.
type Answer struct {
	ID      string `json:"id"`
	Result  bool   `json:"result"`
	Details string `json:"details,omitempty"`
}
