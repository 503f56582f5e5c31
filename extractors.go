package healthboard

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/jpalmerr/healthboard/internal/probe"
)

// HTTPStatusExtractor decides from the status code alone: 2xx is
// [VerdictUp], 4xx [VerdictDegraded], anything else [VerdictDown].
var HTTPStatusExtractor Extractor = func(_ []byte, statusCode int) Verdict {
	return Verdict(probe.HTTPStatusVerdict(statusCode))
}

// JSONFieldExtractor returns an [Extractor] reading a JSON field addressed
// with dot notation, e.g. "data.health.status".
//
// Common health vocabulary is recognized: "ok", "healthy", "up", "pass",
// "green" and friends are up; "degraded", "warning", "yellow" and friends
// are degraded; other values are down. A missing field or a body that is
// not JSON gives [VerdictUnknown]. Booleans and 0/1 read as "true"/"false".
func JSONFieldExtractor(path string) Extractor {
	parts := strings.Split(path, ".")

	return func(body []byte, _ int) Verdict {
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return VerdictUnknown
		}

		value := lookupJSONPath(data, parts)
		if value == "" {
			return VerdictUnknown
		}
		return verdictFromWord(strings.ToLower(value))
	}
}

// lookupJSONPath walks a decoded JSON value and renders the leaf as a string.
func lookupJSONPath(data any, parts []string) string {
	current := data
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		if current, ok = obj[part]; !ok {
			return ""
		}
	}

	switch v := current.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		switch v {
		case 0:
			return "false"
		case 1:
			return "true"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func verdictFromWord(s string) Verdict {
	switch s {
	case "ok", "healthy", "up", "active", "running", "pass", "passed", "passing",
		"true", "green", "none", "operational":
		return VerdictUp
	case "degraded", "warning", "warn", "partial", "yellow", "amber":
		return VerdictDegraded
	default:
		return VerdictDown
	}
}

// RegexExtractor returns an [Extractor] matching the body against pattern,
// which must contain a capture group. A first group equal to upMatch
// (case-insensitive) is up, any other capture is down, no match is unknown.
func RegexExtractor(pattern string, upMatch string) (Extractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	return func(body []byte, _ int) Verdict {
		matches := re.FindSubmatch(body)
		if len(matches) < 2 {
			return VerdictUnknown
		}
		if strings.EqualFold(string(matches[1]), upMatch) {
			return VerdictUp
		}
		return VerdictDown
	}, nil
}

// MustRegexExtractor is like [RegexExtractor] but panics if the pattern
// is invalid. Use it for constant patterns.
func MustRegexExtractor(pattern string, upMatch string) Extractor {
	extractor, err := RegexExtractor(pattern, upMatch)
	if err != nil {
		panic("healthboard: invalid regex pattern: " + err.Error())
	}
	return extractor
}

// ContainsExtractor returns an [Extractor] that is up when the body
// contains text (case-insensitive) and down otherwise.
func ContainsExtractor(text string) Extractor {
	lower := strings.ToLower(text)
	return func(body []byte, _ int) Verdict {
		if strings.Contains(strings.ToLower(string(body)), lower) {
			return VerdictUp
		}
		return VerdictDown
	}
}

// FirstMatch tries extractors in order and returns the first verdict that
// is not [VerdictUnknown].
//
//	extractor := healthboard.FirstMatch(
//	    healthboard.JSONFieldExtractor("health.status"),
//	    healthboard.HTTPStatusExtractor,
//	)
func FirstMatch(extractors ...Extractor) Extractor {
	return func(body []byte, statusCode int) Verdict {
		for _, extractor := range extractors {
			if v := extractor(body, statusCode); v != VerdictUnknown {
				return v
			}
		}
		return VerdictUnknown
	}
}

// DefaultExtractor is used when a probe has no extractor: the JSON "status"
// field if present, otherwise the HTTP status code.
var DefaultExtractor = FirstMatch(
	JSONFieldExtractor("status"),
	HTTPStatusExtractor,
)
