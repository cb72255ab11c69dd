package manifest

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Provision declares shared named environment blocks and the provisioning
// profiles that reference them.
type Provision struct {
	// Env maps block names to reusable key/value sets.
	Env map[string]map[string]string `json:"env,omitempty"`
	// Profiles maps profile names to their declarations.
	Profiles map[string]*Profile `json:"profiles"`
}

// ProfileNames returns the profile names in sorted order.
func (p *Provision) ProfileNames() []string {
	names := make([]string, 0, len(p.Profiles))
	for name := range p.Profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Profile is a named bundle of environment references plus a script,
// selected at provision time.
type Profile struct {
	// Script is the profile's provisioning script path, relative to the input directory.
	Script string `json:"script"`
	// Env is the ordered list of environment references; later entries win on key conflict.
	Env []EnvRef `json:"env,omitempty"`
}

// EnvRef is a tagged union over a named reference to a shared environment
// block and an inline key/value map. Exactly one field is populated.
type EnvRef struct {
	// Block names a shared environment block declared under provision.env.
	Block string
	// Vars is an inline key/value map.
	Vars map[string]string
}

// UnmarshalJSON decodes either a block-name string or an inline object.
func (r *EnvRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}

		*r = EnvRef{Block: name}

		return nil
	}

	var vars map[string]string
	if err := json.Unmarshal(trimmed, &vars); err != nil {
		return err
	}

	*r = EnvRef{Vars: vars}

	return nil
}

// MarshalJSON restores the original wire shape.
func (r EnvRef) MarshalJSON() ([]byte, error) {
	if r.Block != "" {
		return json.Marshal(r.Block)
	}

	return json.Marshal(r.Vars)
}
