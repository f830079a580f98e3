// Package config loads the optional tuning file. Absent file or absent
// keys fall back to compiled defaults; nothing is read from the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Tuning holds the knobs the selector and dispatch layer expose.
type Tuning struct {
	// HostMaxBytes is the input size below which the host always wins.
	HostMaxBytes int64 `toml:"host_max_bytes"`
	// DeviceMaxBytes caps one device dispatch.
	DeviceMaxBytes int64 `toml:"device_max_bytes"`
	// MaxResults bounds the device result buffer.
	MaxResults int64 `toml:"max_results"`
	// Backend forces a backend: "auto", "cpu" or "gpu".
	Backend string `toml:"backend"`
}

// Default returns the compiled defaults.
func Default() Tuning {
	return Tuning{
		HostMaxBytes:   64 << 10,
		DeviceMaxBytes: 64 << 20,
		MaxResults:     1 << 16,
		Backend:        "auto",
	}
}

// Load reads path over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Tuning, error) {
	t := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := toml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse %s: %w", path, err)
	}
	switch t.Backend {
	case "auto", "cpu", "gpu":
	default:
		return t, fmt.Errorf("parse %s: unknown backend %q", path, t.Backend)
	}
	return t, nil
}
