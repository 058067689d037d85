// Package secrets resolves credentials from the environment or the
// [secrets] table of $IWES_HOME/config.toml. The environment wins.
//
// Every secret is optional: a missing GitHub token only means release
// lookups run against the anonymous API rate limit.
package secrets

import (
	"fmt"
	"os"
	"sort"
)

// GitHubToken authenticates release lookups.
const GitHubToken = "github_token"

// SourceConfig is the source reported for values read from config.toml.
const SourceConfig = "config.toml"

type keySpec struct {
	envVars []string
	desc    string
}

var knownKeys = map[string]keySpec{
	GitHubToken: {
		envVars: []string{"GITHUB_TOKEN", "GH_TOKEN"},
		desc:    "GitHub token for release lookups (raises the API rate limit)",
	},
}

// KeyInfo describes a known secret.
type KeyInfo struct {
	Name    string
	EnvVars []string
	Desc    string
}

// IsKnown reports whether name is a secret this tool reads.
func IsKnown(name string) bool {
	_, ok := knownKeys[name]
	return ok
}

// Lookup resolves name from its environment variables in order, then from
// stored. source is the environment variable or SourceConfig that supplied
// the value; both are empty when the secret is not set anywhere.
func Lookup(name string, stored map[string]string) (value, source string, err error) {
	spec, ok := knownKeys[name]
	if !ok {
		return "", "", fmt.Errorf("unknown secret key: %q", name)
	}
	for _, env := range spec.envVars {
		if v := os.Getenv(env); v != "" {
			return v, env, nil
		}
	}
	if v := stored[name]; v != "" {
		return v, SourceConfig, nil
	}
	return "", "", nil
}

// KnownKeys lists the known secrets sorted by name.
func KnownKeys() []KeyInfo {
	keys := make([]KeyInfo, 0, len(knownKeys))
	for name, spec := range knownKeys {
		keys = append(keys, KeyInfo{Name: name, EnvVars: spec.envVars, Desc: spec.desc})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys
}
