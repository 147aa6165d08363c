// Package util provides logging helpers and the error taxonomy shared by the
// orchestration packages.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to one or more of these so that
// callers can classify failures with errors.Is.
var (
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrAgentUnavailable    = errors.New("agent unavailable")
	ErrNotImplemented      = errors.New("not implemented")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("resource not found")
	ErrValidationFailed    = errors.New("validation failed")

	// Reasons carried by ResourceUnavailableError.
	ErrNoRouter     = errors.New("no virtual router")
	ErrRouterState  = errors.New("virtual router not in the right state")
	ErrRuleRejected = errors.New("rules rejected by router")
	ErrDisconnected = errors.New("virtual router disconnected")
	ErrStopPending  = errors.New("stop pending router not stopped")
)

// Scope is the resource class a ResourceUnavailableError is raised against.
type Scope string

const (
	ScopePod        Scope = "Pod"
	ScopeDataCenter Scope = "DataCenter"
)

// Reason classifies why a resource was unavailable.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonNoRouter
	ReasonRouterState
	ReasonRuleRejected
	ReasonDisconnected
	ReasonStopPending
)

func (r Reason) sentinel() error {
	switch r {
	case ReasonNoRouter:
		return ErrNoRouter
	case ReasonRouterState:
		return ErrRouterState
	case ReasonRuleRejected:
		return ErrRuleRejected
	case ReasonDisconnected:
		return ErrDisconnected
	case ReasonStopPending:
		return ErrStopPending
	}
	return nil
}

// ResourceUnavailableError reports that an intent could not be applied,
// scoped to a Pod or a DataCenter so callers can decide where to retry.
type ResourceUnavailableError struct {
	Message string
	Scope   Scope
	ID      int64
	Reason  Reason
}

func (e *ResourceUnavailableError) Error() string {
	return fmt.Sprintf("%s (scope=%s, id=%d)", e.Message, e.Scope, e.ID)
}

// Unwrap exposes both the family sentinel and the reason sentinel.
func (e *ResourceUnavailableError) Unwrap() []error {
	errs := []error{ErrResourceUnavailable}
	if s := e.Reason.sentinel(); s != nil {
		errs = append(errs, s)
	}
	return errs
}

// NewResourceUnavailable creates a ResourceUnavailableError.
func NewResourceUnavailable(reason Reason, scope Scope, id int64, format string, args ...interface{}) *ResourceUnavailableError {
	return &ResourceUnavailableError{
		Message: fmt.Sprintf(format, args...),
		Scope:   scope,
		ID:      id,
		Reason:  reason,
	}
}

// AgentUnavailableError is returned by the dispatch layer when the agent
// owning a router could not be reached or did not answer in time.
type AgentUnavailableError struct {
	Router string
	Err    error
}

func (e *AgentUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("agent for router %s unavailable", e.Router)
	}
	return fmt.Sprintf("agent for router %s unavailable: %v", e.Router, e.Err)
}

func (e *AgentUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAgentUnavailable}
	}
	return []error{ErrAgentUnavailable, e.Err}
}

// NewAgentUnavailable creates an AgentUnavailableError.
func NewAgentUnavailable(router string, err error) *AgentUnavailableError {
	return &AgentUnavailableError{Router: router, Err: err}
}

// NotImplementedError is raised when an intent is dispatched to a topology
// that does not support it.
type NotImplementedError struct {
	Applier  string
	Topology string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s not implemented in %s Network Topology.", e.Applier, e.Topology)
}

func (e *NotImplementedError) Unwrap() error {
	return ErrNotImplemented
}

// NewNotImplemented creates a NotImplementedError.
func NewNotImplemented(applier, topology string) *NotImplementedError {
	return &NotImplementedError{Applier: applier, Topology: topology}
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
