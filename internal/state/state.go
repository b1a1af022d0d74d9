package state

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hostplane/hostplane/internal/certs"
	"github.com/hostplane/hostplane/internal/topology"
	"github.com/hostplane/hostplane/internal/util/atomicfile"
	"github.com/hostplane/hostplane/internal/verify"
)

// State is the persisted deployment record.
type State struct {
	Topology   *topology.Topology      `yaml:"topology"`
	Zones      []*certs.Zone           `yaml:"zones"`
	LastReport *verify.ReadinessReport `yaml:"lastReport,omitempty"`
	UpdatedAt  time.Time               `yaml:"updatedAt"`
}

// Load reads the persisted state. Returns os.ErrNotExist-wrapped errors
// when no deployment has been recorded yet.
func Load(layout Layout) (*State, error) {
	data, err := os.ReadFile(layout.StatePath()) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	return &s, nil
}

// Save writes the state atomically, stamping UpdatedAt.
func Save(layout Layout, s *State) error {
	if err := os.MkdirAll(layout.BaseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	s.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := atomicfile.WriteFile(layout.StatePath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
