package config

import (
	"fmt"
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default}.
// Group 1 is the name, group 2 the ":-default" part, group 3 the default.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
// An unset variable without a default is an error.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		hasDefault := sub[2] != ""

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return sub[3]
		}
		firstErr = fmt.Errorf("environment variable %q is not set", name)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandMap expands every value of m in place.
func expandMap(m map[string]string) (key string, err error) {
	for k, v := range m {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return k, err
		}
		m[k] = expanded
	}
	return "", nil
}
