// Package settings manages persistent user settings for the netorch CLI.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the settings file.
const (
	EnvLogLevel     = "NETORCH_LOG_LEVEL"
	EnvInventory    = "NETORCH_INVENTORY"
	EnvAgentAddr    = "NETORCH_AGENT_ADDR"
	EnvAgentTimeout = "NETORCH_AGENT_TIMEOUT"
	EnvSSHUser      = "NETORCH_SSH_USER"
	EnvSSHPassword  = "NETORCH_SSH_PASSWORD"
)

// Settings holds persistent user preferences
type Settings struct {
	// Inventory is the YAML inventory file routers and networks are read from
	Inventory string `yaml:"inventory,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`
	LogJSON  bool   `yaml:"log_json,omitempty"`

	AuditLog        string `yaml:"audit_log,omitempty"`
	AuditMaxSize    int64  `yaml:"audit_max_size,omitempty"` // bytes
	AuditMaxBackups int    `yaml:"audit_max_backups,omitempty"`

	Agent AgentSettings `yaml:"agent,omitempty"`

	// Hosts maps a host id to the address of its agent bus, for hosts not
	// reachable through Agent.Addr.
	Hosts map[int64]string `yaml:"hosts,omitempty"`

	// MetricsAddr, when set, serves Prometheus metrics during apply
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// AgentSettings configures the command channel to router agents.
type AgentSettings struct {
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`

	// Tunnel is an SSH host the agent bus is reached through
	Tunnel      string `yaml:"tunnel,omitempty"`
	SSHUser     string `yaml:"ssh_user,omitempty"`
	SSHPassword string `yaml:"ssh_password,omitempty"`
	KnownHosts  string `yaml:"known_hosts,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "netorch_settings.yaml"
	}
	return filepath.Join(home, ".netorch", "settings.yaml")
}

// Load reads settings from the default location, then applies .env and
// NETORCH_* overrides.
func Load() (*Settings, error) {
	s, err := LoadFrom(DefaultSettingsPath())
	if err != nil {
		return nil, err
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := s.ApplyEnv(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	return s, nil
}

// loadDotEnv loads path into the environment when it exists. Variables
// already set are left alone.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from NETORCH_* environment variables.
func (s *Settings) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvInventory); v != "" {
		s.Inventory = v
	}
	if v := os.Getenv(EnvAgentAddr); v != "" {
		s.Agent.Addr = v
	}
	if v := os.Getenv(EnvAgentTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAgentTimeout, err)
		}
		s.Agent.Timeout = d
	}
	if v := os.Getenv(EnvSSHUser); v != "" {
		s.Agent.SSHUser = v
	}
	if v := os.Getenv(EnvSSHPassword); v != "" {
		s.Agent.SSHPassword = v
	}
	return nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	// May hold SSH and agent passwords
	return os.WriteFile(path, data, 0600)
}

// GetLogLevel returns the log level (with fallback)
func (s *Settings) GetLogLevel() string {
	if s.LogLevel != "" {
		return s.LogLevel
	}
	return "info"
}

// GetInventory returns the inventory path (with fallback)
func (s *Settings) GetInventory() string {
	if s.Inventory != "" {
		return s.Inventory
	}
	return "/etc/netorch/inventory.yaml"
}

// GetAuditLog returns the audit log path (with fallback)
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "netorch_audit.log"
	}
	return filepath.Join(home, ".netorch", "audit.log")
}

// GetAgentAddr returns the agent bus address (with fallback)
func (s *Settings) GetAgentAddr() string {
	if s.Agent.Addr != "" {
		return s.Agent.Addr
	}
	return "127.0.0.1:6379"
}

// AgentAddrForHost returns the agent bus of hostID, falling back to the
// default bus.
func (s *Settings) AgentAddrForHost(hostID int64) string {
	if addr, ok := s.Hosts[hostID]; ok && addr != "" {
		return addr
	}
	return s.GetAgentAddr()
}

// Keys lists the names accepted by Get and Set.
var Keys = []string{
	"inventory", "log_level", "log_json", "audit_log", "metrics_addr",
	"agent.addr", "agent.timeout", "agent.tunnel", "agent.ssh_user", "agent.known_hosts",
}

// Get returns a settings key by name, as stored. Unset keys are empty.
func (s *Settings) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "inventory":
		return s.Inventory, nil
	case "log_level":
		return s.LogLevel, nil
	case "log_json":
		if s.LogJSON {
			return "true", nil
		}
		return "", nil
	case "audit_log":
		return s.AuditLog, nil
	case "metrics_addr":
		return s.MetricsAddr, nil
	case "agent.addr":
		return s.Agent.Addr, nil
	case "agent.timeout":
		if s.Agent.Timeout == 0 {
			return "", nil
		}
		return s.Agent.Timeout.String(), nil
	case "agent.tunnel":
		return s.Agent.Tunnel, nil
	case "agent.ssh_user":
		return s.Agent.SSHUser, nil
	case "agent.known_hosts":
		return s.Agent.KnownHosts, nil
	}
	return "", fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys, ", "))
}

// Set assigns a settings key by name. Keys match the YAML names; agent keys
// are prefixed with "agent.".
func (s *Settings) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "inventory":
		s.Inventory = value
	case "log_level":
		s.LogLevel = value
	case "log_json":
		s.LogJSON = value == "true"
	case "audit_log":
		s.AuditLog = value
	case "metrics_addr":
		s.MetricsAddr = value
	case "agent.addr":
		s.Agent.Addr = value
	case "agent.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("agent.timeout: %w", err)
		}
		s.Agent.Timeout = d
	case "agent.tunnel":
		s.Agent.Tunnel = value
	case "agent.ssh_user":
		s.Agent.SSHUser = value
	case "agent.known_hosts":
		s.Agent.KnownHosts = value
	default:
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
