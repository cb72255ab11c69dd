package env

import (
	"fmt"
	"maps"

	"github.com/oshokin/mason/internal/manifest"
)

// UndefinedBlockError reports a profile referencing a shared environment
// block that the manifest does not declare.
type UndefinedBlockError struct {
	// Profile is the provisioning profile holding the reference.
	Profile string
	// Block is the missing block name.
	Block string
}

// Error implements the error interface.
func (e *UndefinedBlockError) Error() string {
	return fmt.Sprintf("profile %q references undefined environment block %q", e.Profile, e.Block)
}

// ResolveProfile flattens a profile's ordered environment reference list into
// a single key/value map. Named references insert the shared block's pairs,
// inline references insert their own pairs; later entries overwrite earlier
// keys on conflict.
func ResolveProfile(name string, profile *manifest.Profile, provision *manifest.Provision) (map[string]string, error) {
	resolved := make(map[string]string)

	for _, ref := range profile.Env {
		if ref.Block != "" {
			block, ok := sharedBlock(provision, ref.Block)
			if !ok {
				return nil, &UndefinedBlockError{Profile: name, Block: ref.Block}
			}

			maps.Copy(resolved, block)

			continue
		}

		maps.Copy(resolved, ref.Vars)
	}

	return resolved, nil
}

// sharedBlock looks up a named environment block.
func sharedBlock(provision *manifest.Provision, name string) (map[string]string, bool) {
	if provision == nil || provision.Env == nil {
		return nil, false
	}

	block, ok := provision.Env[name]

	return block, ok
}
