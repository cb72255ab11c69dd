package env

import (
	"os"
	"strings"
)

// Expand substitutes ${NAME} occurrences in every value using the provided
// process environment. Unresolved names are left verbatim; each occurrence is
// examined exactly once, so expansion cannot loop.
func Expand(vars, processEnv map[string]string) map[string]string {
	expanded := make(map[string]string, len(vars))
	for key, value := range vars {
		expanded[key] = ExpandValue(value, processEnv)
	}

	return expanded
}

// ExpandValue substitutes ${NAME} tokens in a single value. A token whose
// name is not present in processEnv stays in the output unchanged and
// scanning continues after it.
func ExpandValue(value string, processEnv map[string]string) string {
	var b strings.Builder

	rest := value
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)

			return b.String()
		}

		end := strings.Index(rest[start:], "}")
		if end < 0 {
			b.WriteString(rest)

			return b.String()
		}

		end += start
		name := rest[start+2 : end]

		b.WriteString(rest[:start])

		if replacement, ok := processEnv[name]; ok && name != "" {
			b.WriteString(replacement)
		} else {
			// Unresolved token stays verbatim.
			b.WriteString(rest[start : end+1])
		}

		rest = rest[end+1:]
	}
}

// ProcessEnv snapshots the ambient process environment as a map, so callers
// can thread it explicitly (and tests can substitute a synthetic one).
func ProcessEnv() map[string]string {
	environ := os.Environ()

	snapshot := make(map[string]string, len(environ))
	for _, pair := range environ {
		if key, value, found := strings.Cut(pair, "="); found {
			snapshot[key] = value
		}
	}

	return snapshot
}

// ToEnviron converts a key/value map to the KEY=VALUE slice form consumed by
// os/exec, in sorted key order for reproducibility.
func ToEnviron(vars map[string]string) []string {
	pairs := make([]string, 0, len(vars))
	for _, key := range sortedKeys(vars) {
		pairs = append(pairs, key+"="+vars[key])
	}

	return pairs
}
