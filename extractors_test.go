package healthboard

import (
	"testing"
)

func TestHTTPStatusExtractor(t *testing.T) {
	cases := map[int]Verdict{
		200: VerdictUp,
		204: VerdictUp,
		299: VerdictUp,
		400: VerdictDegraded,
		404: VerdictDegraded,
		499: VerdictDegraded,
		500: VerdictDown,
		503: VerdictDown,
		0:   VerdictDown,
		100: VerdictDown,
		301: VerdictDown,
	}

	for code, want := range cases {
		if got := HTTPStatusExtractor(nil, code); got != want {
			t.Errorf("HTTPStatusExtractor(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestJSONFieldExtractor(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want Verdict
	}{
		{"ok", "status", `{"status": "ok"}`, VerdictUp},
		{"passing", "status", `{"status": "passing"}`, VerdictUp},
		{"operational", "status", `{"status": "operational"}`, VerdictUp},
		{"upper case", "status", `{"status": "HEALTHY"}`, VerdictUp},
		{"warning", "status", `{"status": "warning"}`, VerdictDegraded},
		{"amber", "status", `{"status": "amber"}`, VerdictDegraded},
		{"error", "status", `{"status": "error"}`, VerdictDown},
		{"unrecognized word", "status", `{"status": "rebooting"}`, VerdictDown},

		{"nested", "data.health.status", `{"data": {"health": {"status": "up"}}}`, VerdictUp},
		{"bool true", "healthy", `{"healthy": true}`, VerdictUp},
		{"bool false", "healthy", `{"healthy": false}`, VerdictDown},
		{"one", "status", `{"status": 1}`, VerdictUp},
		{"zero", "status", `{"status": 0}`, VerdictDown},
		{"other number", "status", `{"status": 42.5}`, VerdictDown},

		{"missing", "status", `{"state": "ok"}`, VerdictUnknown},
		{"missing nested", "data.status", `{"data": {}}`, VerdictUnknown},
		{"path through scalar", "data.status", `{"data": "ok"}`, VerdictUnknown},
		{"array leaf", "status", `{"status": ["ok"]}`, VerdictUnknown},
		{"object leaf", "status", `{"status": {"value": "ok"}}`, VerdictUnknown},
		{"empty string leaf", "status", `{"status": ""}`, VerdictUnknown},
		{"not json", "status", `<html>`, VerdictUnknown},
		{"empty body", "status", ``, VerdictUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JSONFieldExtractor(tt.path)([]byte(tt.body), 200)
			if got != tt.want {
				t.Errorf("JSONFieldExtractor(%q)(%s) = %v, want %v", tt.path, tt.body, got, tt.want)
			}
		})
	}
}

func TestRegexExtractor(t *testing.T) {
	const pattern = `<state>(\w+)</state>`

	tests := []struct {
		name    string
		upMatch string
		body    string
		want    Verdict
	}{
		{"match", "green", "<state>green</state>", VerdictUp},
		{"match ignores case", "GREEN", "<state>green</state>", VerdictUp},
		{"other capture", "green", "<state>red</state>", VerdictDown},
		{"no match", "green", "nothing here", VerdictUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor, err := RegexExtractor(pattern, tt.upMatch)
			if err != nil {
				t.Fatalf("RegexExtractor() error = %v", err)
			}
			if got := extractor([]byte(tt.body), 200); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegexExtractor_InvalidPattern(t *testing.T) {
	if _, err := RegexExtractor(`(unclosed`, "ok"); err == nil {
		t.Error("RegexExtractor() expected error for invalid pattern")
	}
}

func TestMustRegexExtractor(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		extractor := MustRegexExtractor(`status=(\w+)`, "ok")
		if got := extractor([]byte("status=ok"), 200); got != VerdictUp {
			t.Errorf("got %v, want %v", got, VerdictUp)
		}
	})

	t.Run("invalid panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("MustRegexExtractor() expected panic")
			}
		}()
		MustRegexExtractor(`(unclosed`, "ok")
	})
}

func TestContainsExtractor(t *testing.T) {
	extractor := ContainsExtractor("All Systems Go")

	if got := extractor([]byte("status: all systems go\n"), 200); got != VerdictUp {
		t.Errorf("contained text: got %v, want %v", got, VerdictUp)
	}
	if got := extractor([]byte("partial outage"), 200); got != VerdictDown {
		t.Errorf("missing text: got %v, want %v", got, VerdictDown)
	}
	if got := extractor(nil, 200); got != VerdictDown {
		t.Errorf("empty body: got %v, want %v", got, VerdictDown)
	}
}

func TestFirstMatch(t *testing.T) {
	fixed := func(v Verdict) Extractor {
		return func([]byte, int) Verdict { return v }
	}

	tests := []struct {
		name       string
		extractors []Extractor
		want       Verdict
	}{
		{"first decides", []Extractor{fixed(VerdictDegraded), fixed(VerdictUp)}, VerdictDegraded},
		{"skips unknown", []Extractor{fixed(VerdictUnknown), fixed(VerdictDown)}, VerdictDown},
		{"all unknown", []Extractor{fixed(VerdictUnknown), fixed(VerdictUnknown)}, VerdictUnknown},
		{"none", nil, VerdictUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstMatch(tt.extractors...)(nil, 200); got != tt.want {
				t.Errorf("FirstMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultExtractor(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		want       Verdict
	}{
		{"json field wins over 500", `{"status": "ok"}`, 500, VerdictUp},
		{"json field down", `{"status": "down"}`, 200, VerdictDown},
		{"no field falls back to 200", `{"uptime": 12}`, 200, VerdictUp},
		{"no field falls back to 404", `{"uptime": 12}`, 404, VerdictDegraded},
		{"plain text 503", `unavailable`, 503, VerdictDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultExtractor([]byte(tt.body), tt.statusCode); got != tt.want {
				t.Errorf("DefaultExtractor(%s, %d) = %v, want %v", tt.body, tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestStatusMap_For(t *testing.T) {
	m := DefaultStatusMap()

	cases := map[Verdict]string{
		VerdictUp:       "passing",
		VerdictDegraded: "degraded",
		VerdictDown:     "failing",
		VerdictUnknown:  "unknown",
		Verdict("odd"):  "unknown",
	}
	for v, want := range cases {
		if got := m.For(v); got != want {
			t.Errorf("For(%q) = %q, want %q", v, got, want)
		}
	}
}
