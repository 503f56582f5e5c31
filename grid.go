package healthboard

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/template"
)

// NewProbeGrid expands a URL template over every combination of dimension
// values, producing one [Probe] per combination, all in category.
//
// The template uses text/template syntax with dimension keys as variables;
// values are URL-encoded before interpolation and a missing key is an error.
// Each item is named baseItem followed by the combination's values joined
// with "-", taken in sorted key order:
//
//	probes, err := healthboard.NewProbeGrid("api", "health",
//	    healthboard.WithURLTemplate("https://{{.region}}.api.example.com/health?env={{.env}}"),
//	    healthboard.WithDimensions(map[string][]string{
//	        "env":    {"prod", "staging"},
//	        "region": {"us-east", "eu-west"},
//	    }),
//	)
//	// items: health-prod-eu-west, health-prod-us-east, health-staging-eu-west, ...
//
// Generated item names must pass the usual name rules.
func NewProbeGrid(category, baseItem string, opts ...GridOption) ([]Probe, error) {
	if strings.TrimSpace(baseItem) == "" {
		return nil, errors.New("base item name cannot be empty")
	}

	cfg := &gridConfig{headers: make(map[string]string)}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.urlTemplate == "" {
		return nil, errors.New("URL template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}

	tmpl, err := template.New("url").Option("missingkey=error").Parse(cfg.urlTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}

	combinations := cartesianProduct(cfg.dimensions)
	probes := make([]Probe, 0, len(combinations))
	for _, combo := range combinations {
		var buf strings.Builder
		if err := tmpl.Execute(&buf, urlEncodeMap(combo)); err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}

		item := gridItemName(baseItem, combo)
		p, err := NewProbe(category, item, buf.String(), cfg.probeOptions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to create probe '%s': %w", item, err)
		}
		probes = append(probes, p)
	}

	return probes, nil
}

// cartesianProduct returns every combination of dimension values, iterating
// keys in sorted order so the output is deterministic.
func cartesianProduct(dims map[string][]string) []map[string]string {
	keys := sortedKeys(dims)
	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	result := []map[string]string{{}}
	for _, k := range keys {
		next := make([]map[string]string, 0, len(result)*len(dims[k]))
		for _, partial := range result {
			for _, v := range dims[k] {
				combo := make(map[string]string, len(partial)+1)
				for pk, pv := range partial {
					combo[pk] = pv
				}
				combo[k] = v
				next = append(next, combo)
			}
		}
		result = next
	}
	return result
}

func urlEncodeMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = url.QueryEscape(v)
	}
	return result
}

// gridItemName joins baseItem and the combination's values in sorted key order.
func gridItemName(baseItem string, combo map[string]string) string {
	keys := sortedKeys(combo)
	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, baseItem)
	for _, k := range keys {
		parts = append(parts, combo[k])
	}
	return strings.Join(parts, "-")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
