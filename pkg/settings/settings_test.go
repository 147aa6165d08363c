package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetInventory(); got != "/etc/netorch/inventory.yaml" {
		t.Errorf("GetInventory() default = %q", got)
	}
	if got := s.GetLogLevel(); got != "info" {
		t.Errorf("GetLogLevel() default = %q", got)
	}
	if got := s.GetAgentAddr(); got != "127.0.0.1:6379" {
		t.Errorf("GetAgentAddr() default = %q", got)
	}
	if s.GetAuditLog() == "" {
		t.Error("GetAuditLog() should have a fallback")
	}
}

func TestSettings_AgentAddrForHost(t *testing.T) {
	s := &Settings{
		Agent: AgentSettings{Addr: "10.0.0.1:6379"},
		Hosts: map[int64]string{3: "10.0.0.3:6379"},
	}
	if got := s.AgentAddrForHost(3); got != "10.0.0.3:6379" {
		t.Errorf("host 3 = %q", got)
	}
	if got := s.AgentAddrForHost(4); got != "10.0.0.1:6379" {
		t.Errorf("host 4 = %q", got)
	}
}

func TestSettings_Set(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(*Settings) bool
		wantErr    bool
	}{
		{"inventory", "/tmp/inv.yaml", func(s *Settings) bool { return s.Inventory == "/tmp/inv.yaml" }, false},
		{"log_json", "true", func(s *Settings) bool { return s.LogJSON }, false},
		{"agent.timeout", "45s", func(s *Settings) bool { return s.Agent.Timeout == 45*time.Second }, false},
		{"AGENT.Tunnel", "jump-1", func(s *Settings) bool { return s.Agent.Tunnel == "jump-1" }, false},
		{"agent.timeout", "soon", nil, true},
		{"colour", "blue", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s := &Settings{}
			err := s.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(s) {
				t.Errorf("Set(%q) not applied: %+v", tt.key, s)
			}
		})
	}
}

func TestSettings_Get(t *testing.T) {
	s := &Settings{}
	for _, key := range Keys {
		if v, err := s.Get(key); err != nil || v != "" {
			t.Errorf("Get(%q) on empty settings = %q, %v", key, v, err)
		}
	}

	for _, key := range Keys {
		value := "x"
		switch key {
		case "log_json":
			value = "true"
		case "agent.timeout":
			value = "1m30s"
		}
		if err := s.Set(key, value); err != nil {
			t.Fatalf("Set(%q) failed: %v", key, err)
		}
		if got, err := s.Get(key); err != nil || got != value {
			t.Errorf("Get(%q) = %q, %v; want %q", key, got, err, value)
		}
	}

	if _, err := s.Get("colour"); err == nil {
		t.Error("Get() should reject unknown keys")
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{
		Inventory: "inv.yaml",
		LogLevel:  "debug",
		Agent:     AgentSettings{SSHUser: "admin"},
	}

	s.Clear()

	if s.Inventory != "" || s.LogLevel != "" || s.Agent.SSHUser != "" {
		t.Error("Clear() should reset all fields to empty")
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	original := &Settings{
		Inventory:    "/srv/inventory.yaml",
		LogLevel:     "debug",
		AuditMaxSize: 1 << 20,
		Agent: AgentSettings{
			Addr:    "10.0.0.1:6379",
			Timeout: 30 * time.Second,
			Tunnel:  "jump-1",
		},
		Hosts:       map[int64]string{2: "10.0.0.2:6379"},
		MetricsAddr: ":9100",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("SaveTo() should have created the file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("settings mode = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if loaded.Inventory != original.Inventory || loaded.LogLevel != original.LogLevel {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Agent.Timeout != 30*time.Second {
		t.Errorf("Agent.Timeout = %v", loaded.Agent.Timeout)
	}
	if loaded.Hosts[2] != "10.0.0.2:6379" {
		t.Errorf("Hosts = %v", loaded.Hosts)
	}
	if loaded.AuditMaxSize != 1<<20 || loaded.MetricsAddr != ":9100" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	s, err := LoadFrom("/nonexistent/path/settings.yaml")
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s == nil || s.Inventory != "" {
		t.Error("LoadFrom() non-existent should return empty settings")
	}
}

func TestSettings_LoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("agent: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() with invalid YAML should error")
	}
}

func TestSettings_ApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvInventory, "/env/inventory.yaml")
	t.Setenv(EnvAgentAddr, "")
	t.Setenv(EnvAgentTimeout, "2m")
	t.Setenv(EnvSSHUser, "ops")
	t.Setenv(EnvSSHPassword, "secret")

	s := &Settings{LogLevel: "debug", Agent: AgentSettings{Addr: "file:6379"}}
	if err := s.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() failed: %v", err)
	}
	if s.LogLevel != "warn" || s.Inventory != "/env/inventory.yaml" {
		t.Errorf("settings = %+v", s)
	}
	if s.Agent.Addr != "file:6379" {
		t.Errorf("empty variable overrode Agent.Addr: %q", s.Agent.Addr)
	}
	if s.Agent.Timeout != 2*time.Minute || s.Agent.SSHUser != "ops" || s.Agent.SSHPassword != "secret" {
		t.Errorf("agent = %+v", s.Agent)
	}

	t.Setenv(EnvAgentTimeout, "later")
	if err := s.ApplyEnv(); err == nil {
		t.Error("ApplyEnv() should reject a bad duration")
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "NETORCH_DOTENV_PROBE"
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })

	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv() failed: %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q", key, got)
	}
}

func TestLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvInventory, "")
	t.Setenv(EnvAgentTimeout, "")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() with non-existent file should not error: %v", err)
	}
	if s.Inventory != "" {
		t.Error("Load() with non-existent file should return empty settings")
	}

	dir := filepath.Join(home, ".netorch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := "inventory: /srv/inv.yaml\nagent:\n  timeout: 15s\n"
	if err := os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err = Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.Inventory != "/srv/inv.yaml" || s.Agent.Timeout != 15*time.Second {
		t.Errorf("Load() = %+v", s)
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	path := DefaultSettingsPath()
	if !filepath.IsAbs(path) && path != "netorch_settings.yaml" {
		t.Errorf("DefaultSettingsPath() should be absolute or fallback, got %q", path)
	}
}
