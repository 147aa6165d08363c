package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestResourceUnavailableError(t *testing.T) {
	err := NewResourceUnavailable(ReasonRuleRejected, ScopePod, 7, "Unable to apply %s on router", "dhcp entry")

	msg := err.Error()
	if !strings.Contains(msg, "dhcp entry") {
		t.Errorf("Error message should contain type string: %s", msg)
	}
	if !strings.Contains(msg, "scope=Pod") || !strings.Contains(msg, "id=7") {
		t.Errorf("Error message should contain scope and id: %s", msg)
	}

	if !errors.Is(err, ErrResourceUnavailable) {
		t.Error("should unwrap to ErrResourceUnavailable")
	}
	if !errors.Is(err, ErrRuleRejected) {
		t.Error("should unwrap to ErrRuleRejected")
	}
	if errors.Is(err, ErrDisconnected) {
		t.Error("should not unwrap to ErrDisconnected")
	}

	wrapped := fmt.Errorf("applying: %w", err)
	var rue *ResourceUnavailableError
	if !errors.As(wrapped, &rue) {
		t.Fatal("errors.As should find ResourceUnavailableError through wrapping")
	}
	if rue.Scope != ScopePod || rue.ID != 7 {
		t.Errorf("got scope=%s id=%d", rue.Scope, rue.ID)
	}
}

func TestResourceUnavailableReasons(t *testing.T) {
	tests := []struct {
		reason Reason
		want   error
	}{
		{ReasonNoRouter, ErrNoRouter},
		{ReasonRouterState, ErrRouterState},
		{ReasonRuleRejected, ErrRuleRejected},
		{ReasonDisconnected, ErrDisconnected},
		{ReasonStopPending, ErrStopPending},
	}
	for _, tt := range tests {
		err := NewResourceUnavailable(tt.reason, ScopeDataCenter, 1, "x")
		if !errors.Is(err, tt.want) {
			t.Errorf("reason %d should unwrap to %v", tt.reason, tt.want)
		}
	}

	unknown := NewResourceUnavailable(ReasonUnknown, ScopeDataCenter, 1, "x")
	if len(unknown.Unwrap()) != 1 {
		t.Errorf("unknown reason should only unwrap to the family sentinel")
	}
}

func TestAgentUnavailableError(t *testing.T) {
	cause := errors.New("i/o timeout")
	err := NewAgentUnavailable("r-4-VM", cause)

	if !errors.Is(err, ErrAgentUnavailable) {
		t.Error("should unwrap to ErrAgentUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("should unwrap to the cause")
	}
	if !strings.Contains(err.Error(), "i/o timeout") {
		t.Errorf("message should include cause: %s", err.Error())
	}

	bare := NewAgentUnavailable("r-4-VM", nil)
	if strings.Contains(bare.Error(), "<nil>") {
		t.Errorf("message should not render nil cause: %s", bare.Error())
	}
}

func TestNotImplementedError(t *testing.T) {
	err := NewNotImplemented("NetworkAclsRules", "Basic")
	if err.Error() != "NetworkAclsRules not implemented in Basic Network Topology." {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrNotImplemented) {
		t.Error("should unwrap to ErrNotImplemented")
	}
}

func TestValidationBuilder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(true, "this should not appear")
		if v.HasErrors() {
			t.Error("Should not have errors when all conditions are true")
		}
		if err := v.Build(); err != nil {
			t.Errorf("Build() should return nil when no errors: %v", err)
		}
	})

	t.Run("accumulates", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(false, "router id required").AddErrorf("unknown zone %d", 9)
		err := v.Build()
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.Is(err, ErrValidationFailed) {
			t.Error("should unwrap to ErrValidationFailed")
		}
		if !strings.Contains(err.Error(), "router id required") || !strings.Contains(err.Error(), "unknown zone 9") {
			t.Errorf("missing messages: %s", err.Error())
		}
	})
}
