package version

import "testing"

func TestDefaults(t *testing.T) {
	if Version != "dev" {
		t.Errorf("default Version = %q, want %q", Version, "dev")
	}
	if GitCommit != "unknown" {
		t.Errorf("default GitCommit = %q, want %q", GitCommit, "unknown")
	}
}

func TestString(t *testing.T) {
	if got := String("netorch"); got != "netorch dev build" {
		t.Errorf("String() = %q", got)
	}

	old, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = old, oldCommit })
	Version, GitCommit = "v0.3.0", "abc1234"
	if got := String("netorch"); got != "netorch v0.3.0 (abc1234)" {
		t.Errorf("String() = %q", got)
	}
}
