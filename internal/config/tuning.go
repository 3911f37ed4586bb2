package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Tuning is the advanced-tuning layer: knobs that almost nobody changes,
// kept out of the environment so deployments that do change them can check
// a file into their config management instead of spreading env vars.
type Tuning struct {
	// GatewayURL overrides the default gateway host used when no resume
	// URL is known.
	GatewayURL string `toml:"gateway_url"`

	// APIVersion overrides the gateway wire version query parameter.
	APIVersion int `toml:"api_version"`

	// LargeThreshold overrides the member-count threshold sent with
	// Identify.
	LargeThreshold int `toml:"large_threshold"`
}

// DefaultTuning returns the zero-override tuning layer. Zero values mean
// "use the gateway package's defaults".
func DefaultTuning() Tuning {
	return Tuning{}
}

// LoadTuning parses a TOML tuning file. Unknown keys are an error so a
// typo'd knob fails loudly instead of silently doing nothing.
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("config: reading tuning file: %w", err)
	}

	var t Tuning
	meta, err := toml.Decode(string(data), &t)
	if err != nil {
		return Tuning{}, fmt.Errorf("config: parsing tuning file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Tuning{}, fmt.Errorf("config: tuning file %s has unknown key %q", path, undecoded[0].String())
	}
	return t, nil
}
