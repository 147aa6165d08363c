package model

import (
	"testing"
)

func TestRouter_State(t *testing.T) {
	tests := []struct {
		state       RouterState
		running     bool
		stoppedLike bool
	}{
		{RouterRunning, true, false},
		{RouterStopped, false, true},
		{RouterStopping, false, true},
		{RouterStarting, false, false},
		{RouterMigrating, false, false},
		{RouterError, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			r := &Router{State: tt.state}
			if got := r.IsRunning(); got != tt.running {
				t.Errorf("IsRunning() = %v, want %v", got, tt.running)
			}
			if got := r.IsStoppedOrStopping(); got != tt.stoppedLike {
				t.Errorf("IsStoppedOrStopping() = %v, want %v", got, tt.stoppedLike)
			}
		})
	}
}

func TestNetwork_Classification(t *testing.T) {
	shared := &Network{TrafficType: TrafficGuest, GuestType: GuestShared}
	if !shared.IsSharedGuest() {
		t.Error("shared guest network not detected")
	}
	if shared.InVpc() {
		t.Error("network without vpc reported as VPC tier")
	}

	tier := &Network{TrafficType: TrafficGuest, GuestType: GuestIsolated, VpcID: 3}
	if tier.IsSharedGuest() {
		t.Error("isolated network reported as shared")
	}
	if !tier.InVpc() {
		t.Error("VPC tier not detected")
	}
}

func TestDeployDestination_HasPod(t *testing.T) {
	var nilDest *DeployDestination
	if nilDest.HasPod() {
		t.Error("nil destination should not have a pod")
	}
	if (&DeployDestination{DataCenterID: 1}).HasPod() {
		t.Error("destination without pod reported pod")
	}
	if !(&DeployDestination{DataCenterID: 1, PodID: 5}).HasPod() {
		t.Error("destination with pod not detected")
	}
}

func TestVMProfile_IsUserVM(t *testing.T) {
	var nilProfile *VMProfile
	if nilProfile.IsUserVM() {
		t.Error("nil profile is not a user VM")
	}
	if !(&VMProfile{VM: &VirtualMachine{Type: VMUser}}).IsUserVM() {
		t.Error("user VM not detected")
	}
	if (&VMProfile{VM: &VirtualMachine{Type: VMDomainRouter}}).IsUserVM() {
		t.Error("router VM reported as user VM")
	}
}

func TestRuleRevocation(t *testing.T) {
	if !(&FirewallRule{State: RuleRevoke}).IsRevoked() {
		t.Error("revoked firewall rule not detected")
	}
	if (&LoadBalancingRule{State: RuleAdd}).IsRevoked() {
		t.Error("added LB rule reported revoked")
	}
	if !(&PublicIPAddress{State: IPReleasing}).IsReleasing() {
		t.Error("releasing IP not detected")
	}
	if !(&DataCenter{NetworkType: NetworkTypeBasic}).IsBasic() {
		t.Error("basic zone not detected")
	}
}
