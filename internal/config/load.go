package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name looked up in the working directory when
// no --config flag is given.
const DefaultConfigFile = "hostplane.yaml"

// LoadFile reads and parses an Intent from a YAML file.
func LoadFile(path string) (*Intent, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var intent Intent
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &intent,
		TagName: "yaml",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	intent.ApplyDefaults()
	return &intent, nil
}

// WriteFile serializes an Intent to a YAML file. Used by `hostplane init`
// and the wizard so the operator gets a config file to edit and re-apply.
func WriteFile(path string, intent *Intent) error {
	data, err := yaml.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# hostplane host configuration.\n# Re-run `hostplane deploy` after editing.\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil { // #nosec G306
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
