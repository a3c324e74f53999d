package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Demonstration describes one decode/lift/print run.
type Demonstration struct {
	// Name labels the run in output and trace records.
	Name string `yaml:"name"`

	// Bytes is the hex-encoded instruction encoding. Spaces are allowed.
	Bytes string `yaml:"bytes"`

	// Addr is the virtual address to decode at.
	Addr uint64 `yaml:"addr"`

	// PrintUnoptimized also prints the lifted body before optimization.
	// Useful for runs whose point is showing which semantics were resolved.
	PrintUnoptimized bool `yaml:"print_unoptimized,omitempty"`
}

// Manifest is an optional YAML file overriding the built-in demonstration
// list.
type Manifest struct {
	Demos []Demonstration `yaml:"demos"`
}

// Raw returns the decoded instruction bytes.
func (d *Demonstration) Raw() ([]byte, error) {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(d.Bytes, " ", ""), "\t", "")
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("demonstration %q: bad hex bytes %q: %w", d.Name, d.Bytes, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("demonstration %q: empty byte sequence", d.Name)
	}
	return raw, nil
}

// DefaultDemos returns the built-in demonstration list: a plain instruction,
// and CPUID, whose behavior the stock hotpatch modifies.
func DefaultDemos() []Demonstration {
	return []Demonstration{
		{
			Name:  "mov rcx, 1337",
			Bytes: "48c7c139050000",
			Addr:  0x1000,
		},
		{
			Name:             "cpuid",
			Bytes:            "0fa2",
			Addr:             0x2000,
			PrintUnoptimized: true,
		},
	}
}

// LoadManifest reads and validates a demonstration manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Demos) == 0 {
		return nil, fmt.Errorf("manifest %s: no demos defined", path)
	}
	for i, d := range m.Demos {
		if d.Name == "" {
			return nil, fmt.Errorf("manifest %s: demo %d has no name", path, i)
		}
		if _, err := d.Raw(); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	return &m, nil
}
