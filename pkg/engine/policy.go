package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultProfileID names the built-in safety profile.
const DefaultProfileID = "sysv-ssh"

// PolicyProfile describes the target platform the safety policy is written for.
type PolicyProfile struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	Platform          string   `yaml:"platform"`
	AdminService      string   `yaml:"admin_service"`
	AdminPort         int      `yaml:"admin_port"`
	PendingLog        string   `yaml:"pending_log"`
	MaxLines          int      `yaml:"max_lines"`
	AllowedCommands   []string `yaml:"allowed_commands"`
	ForbiddenCommands []string `yaml:"forbidden_commands"`
	// Template replaces the built-in policy text when set.
	Template string `yaml:"template,omitempty"`
}

// DefaultProfile targets a legacy SysV-init Linux host administered over SSH.
func DefaultProfile() PolicyProfile {
	return PolicyProfile{
		ID:           DefaultProfileID,
		Name:         "SysV init host, SSH administration",
		Platform:     "Metasploitable 2 (Ubuntu 8.04, SysV init)",
		AdminService: "ssh",
		AdminPort:    22,
		PendingLog:   "/tmp/mitigation_todo.log",
		MaxLines:     40,
		AllowedCommands: []string{
			"/etc/init.d/<svc>", "invoke-rc.d", "update-rc.d", "netstat", "ps", "pidof", "kill",
			"sed", "grep", "cp", "mv", "chmod", "cat", "tee", "date", "awk", "iptables",
		},
		ForbiddenCommands: []string{
			"systemctl", "journalctl", "ss", "nft", "firewall-cmd", "apt-get install",
			"python", "service", "read", "vncpasswd", "passwd",
		},
	}
}

// Validate checks the fields the policy text depends on.
func (p PolicyProfile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile must have an id")
	}
	if p.AdminService == "" {
		return fmt.Errorf("profile %s: admin_service is required", p.ID)
	}
	if p.AdminPort < 1 || p.AdminPort > 65535 {
		return fmt.Errorf("profile %s: admin_port %d out of range", p.ID, p.AdminPort)
	}
	if p.PendingLog == "" {
		return fmt.Errorf("profile %s: pending_log is required", p.ID)
	}
	return nil
}

// PolicyEngine manages safety-policy profiles.
type PolicyEngine struct {
	Profiles map[string]PolicyProfile
}

// NewPolicyEngine creates an engine holding the built-in profile.
func NewPolicyEngine() *PolicyEngine {
	def := DefaultProfile()
	return &PolicyEngine{
		Profiles: map[string]PolicyProfile{def.ID: def},
	}
}

// LoadProfiles reads YAML profiles from a directory. Fields missing from a
// file are inherited from the built-in profile.
func (e *PolicyEngine) LoadProfiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		p := DefaultProfile()
		p.ID = ""
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid profile in %s: %w", entry.Name(), err)
		}
		e.Profiles[p.ID] = p
	}
	return nil
}

// ListProfiles returns the loaded profile IDs in sorted order.
func (e *PolicyEngine) ListProfiles() []string {
	ids := make([]string, 0, len(e.Profiles))
	for id := range e.Profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetProfile retrieves a profile by ID.
func (e *PolicyEngine) GetProfile(id string) (PolicyProfile, error) {
	if id == "" {
		id = DefaultProfileID
	}
	p, ok := e.Profiles[id]
	if !ok {
		return PolicyProfile{}, fmt.Errorf("policy profile not found: %s", id)
	}
	return p, nil
}
