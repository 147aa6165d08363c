// Package audit records the outcome of every command batch pushed to a
// virtual router, and every redundancy remediation, as JSON lines.
package audit

import (
	"fmt"
	"time"
)

// Outcome classifies what happened to one router during a rule application.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeRejected     Outcome = "rejected"
	OutcomeDisconnected Outcome = "disconnected"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeStopPending  Outcome = "stop-pending"
	OutcomeWrongState   Outcome = "wrong-state"
	OutcomeRemediated   Outcome = "remediated"
)

// Event is a single audited router interaction.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Topology  string        `json:"topology"`
	Intent    string        `json:"intent"`
	Applier   string        `json:"applier,omitempty"`
	NetworkID int64         `json:"network_id,omitempty"`
	VpcID     int64         `json:"vpc_id,omitempty"`
	RouterID  int64         `json:"router_id,omitempty"`
	Router    string        `json:"router,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Message   string        `json:"message,omitempty"`
	Commands  []string      `json:"commands,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Severity indicates the importance of an audit event
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Severity derives the event severity from its outcome.
func (e *Event) Severity() Severity {
	switch e.Outcome {
	case OutcomeApplied, OutcomeSkipped:
		return SeverityInfo
	case OutcomeDisconnected, OutcomeRemediated, OutcomeStopPending:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Filter defines criteria for querying audit events
type Filter struct {
	Router      string
	Topology    string
	Intent      string
	Outcome     Outcome
	NetworkID   int64
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(topology, intent string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Topology:  topology,
		Intent:    intent,
	}
}

// WithApplier sets the rule family name
func (e *Event) WithApplier(name string) *Event {
	e.Applier = name
	return e
}

// WithNetwork sets the network the rules belong to
func (e *Event) WithNetwork(id int64) *Event {
	e.NetworkID = id
	return e
}

// WithVpc sets the VPC of appliers not bound to a network
func (e *Event) WithVpc(id int64) *Event {
	e.VpcID = id
	return e
}

// WithRouter sets the router the batch was sent to
func (e *Event) WithRouter(id int64, instanceName string) *Event {
	e.RouterID = id
	e.Router = instanceName
	return e
}

// WithCommands records the command kinds in the batch
func (e *Event) WithCommands(kinds []string) *Event {
	e.Commands = kinds
	return e
}

// WithOutcome sets the outcome. Applied, skipped and remediated count as success.
func (e *Event) WithOutcome(o Outcome) *Event {
	e.Outcome = o
	e.Success = o == OutcomeApplied || o == OutcomeSkipped || o == OutcomeRemediated
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithMessage attaches a human readable note, such as a remediation reason
func (e *Event) WithMessage(format string, args ...interface{}) *Event {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
