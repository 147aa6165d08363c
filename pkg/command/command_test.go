package command

import (
	"testing"
)

func TestCommands_Order(t *testing.T) {
	cmds := NewCommands(Continue)
	if !cmds.IsEmpty() || cmds.String() != "No commands" {
		t.Fatalf("new batch not empty: %s", cmds)
	}

	cmds.AddCommand(&SetFirewallRulesCommand{})
	cmds.AddCommandWithID("dhcp", &DhcpEntryCommand{})
	cmds.AddCommand(&VMDataCommand{})

	if cmds.Size() != 3 {
		t.Fatalf("Size() = %d", cmds.Size())
	}
	want := []string{"SetFirewallRulesCommand", "DhcpEntryCommand", "VmDataCommand"}
	for i, k := range cmds.Kinds() {
		if k != want[i] {
			t.Errorf("kind %d = %s, want %s", i, k, want[i])
		}
	}

	ids := []string{"SetFirewallRulesCommand-0", "dhcp", "VmDataCommand-2"}
	for i, e := range cmds.Entries() {
		if e.ID != ids[i] {
			t.Errorf("id %d = %s, want %s", i, e.ID, ids[i])
		}
	}
	if got := cmds.String(); got != "[Continue] SetFirewallRulesCommand, DhcpEntryCommand, VmDataCommand" {
		t.Errorf("String() = %s", got)
	}
}

func TestCommands_OnError(t *testing.T) {
	if NewCommands(Stop).OnError() != Stop {
		t.Error("Stop policy lost")
	}
	if NewCommands(Continue).OnError() != Continue {
		t.Error("Continue policy lost")
	}
}

func TestRouterCommand_SetAccess(t *testing.T) {
	var rc RouterCommand
	rc.SetAccess(AccessRouterName, "r-1-VM")
	if rc.Access()[AccessRouterName] != "r-1-VM" {
		t.Errorf("Access() = %v", rc.Access())
	}
}
