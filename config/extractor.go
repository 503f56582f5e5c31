package config

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExtractorConfig selects how probe responses become verdicts.
//
// Shorthand strings:
//
//	extractor: default
//	extractor: http
//	extractor: json:data.health.status
//	extractor: contains:ok
//
// Structured form, required for regex:
//
//	extractor:
//	  type: regex
//	  pattern: '<status>(\w+)</status>'
//	  up_match: healthy
type ExtractorConfig struct {
	// Type is "default", "http", "json", "contains" or "regex".
	Type string

	// Path is the dotted JSON field path (json).
	Path string

	// Text is the substring looked for (contains).
	Text string

	// Pattern and UpMatch configure the regex extractor.
	Pattern string
	UpMatch string
}

// UnmarshalYAML implements yaml.Unmarshaler for ExtractorConfig.
func (e *ExtractorConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return e.parseShorthand(s)

	case yaml.MappingNode:
		var raw struct {
			Type    string `yaml:"type"`
			Path    string `yaml:"path"`
			Text    string `yaml:"text"`
			Pattern string `yaml:"pattern"`
			UpMatch string `yaml:"up_match"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*e = ExtractorConfig(raw)
		return nil
	}

	return fmt.Errorf("extractor must be a string or object, got %v", node.Kind)
}

func (e *ExtractorConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if kind, value, ok := strings.Cut(s, ":"); ok {
		e.Type = kind
		switch kind {
		case "json":
			e.Path = value
		case "contains":
			e.Text = value
		default:
			return fmt.Errorf("unknown extractor type %q", kind)
		}
		return nil
	}

	switch s {
	case "default", "http":
		e.Type = s
	default:
		return fmt.Errorf("unknown extractor %q (expected 'default', 'http', 'json:path', or 'contains:text')", s)
	}
	return nil
}

// validate checks e, prefixing errors with where.
func (e ExtractorConfig) validate(where string) error {
	switch e.Type {
	case "", "default", "http":
	case "json":
		if e.Path == "" {
			return fmt.Errorf("%s: extractor type 'json' requires a path", where)
		}
	case "contains":
		if e.Text == "" {
			return fmt.Errorf("%s: extractor type 'contains' requires text", where)
		}
	case "regex":
		if e.Pattern == "" || e.UpMatch == "" {
			return fmt.Errorf("%s: extractor type 'regex' requires pattern and up_match", where)
		}
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return fmt.Errorf("%s: invalid extractor pattern: %w", where, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("%s: extractor pattern needs a capture group", where)
		}
	default:
		return fmt.Errorf("%s: unknown extractor type %q", where, e.Type)
	}
	return nil
}
