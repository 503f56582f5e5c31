package healthboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/jpalmerr/healthboard/internal/validate"
)

const defaultProbeTimeout = 10 * time.Second

// Default board statuses a probe reports for each verdict.
const (
	DefaultUpStatus       = "passing"
	DefaultDegradedStatus = "degraded"
	DefaultDownStatus     = "failing"
	DefaultUnknownStatus  = "unknown"
)

// StatusMap translates probe verdicts into board statuses.
type StatusMap struct {
	Up       string
	Degraded string
	Down     string
	Unknown  string
}

// DefaultStatusMap returns the statuses used when a probe sets none.
func DefaultStatusMap() StatusMap {
	return StatusMap{
		Up:       DefaultUpStatus,
		Degraded: DefaultDegradedStatus,
		Down:     DefaultDownStatus,
		Unknown:  DefaultUnknownStatus,
	}
}

// For returns the board status for v.
func (m StatusMap) For(v Verdict) string {
	switch v {
	case VerdictUp:
		return m.Up
	case VerdictDegraded:
		return m.Degraded
	case VerdictDown:
		return m.Down
	default:
		return m.Unknown
	}
}

// Probe binds an HTTP endpoint to a board item. Each check writes the item's
// status, a short message and the probed URL.
//
// Probe is immutable after creation via [NewProbe].
type Probe struct {
	category  string
	item      string
	url       string
	headers   map[string]string
	timeout   time.Duration
	extractor Extractor
	method    string
	interval  time.Duration
	statuses  StatusMap
}

// Category returns the board category the probe reports into.
func (p Probe) Category() string {
	return p.category
}

// Item returns the board item the probe reports on.
func (p Probe) Item() string {
	return p.item
}

// URL returns the probed URL.
func (p Probe) URL() string {
	return p.url
}

// Headers returns a copy of the probe's custom HTTP headers.
func (p Probe) Headers() map[string]string {
	return copyMap(p.headers)
}

// Timeout returns the per-request timeout, 10 seconds unless set with
// [WithTimeout].
func (p Probe) Timeout() time.Duration {
	return p.timeout
}

// Extractor returns the probe's extractor, or nil when [DefaultExtractor]
// applies.
func (p Probe) Extractor() Extractor {
	return p.extractor
}

// Method returns the HTTP method; empty means GET.
func (p Probe) Method() string {
	return p.method
}

// Interval returns the probe's own check interval, or 0 for the board's
// default.
func (p Probe) Interval() time.Duration {
	return p.interval
}

// Statuses returns the verdict to status mapping.
func (p Probe) Statuses() StatusMap {
	return p.statuses
}

// NewProbe creates a [Probe] reporting on category/item by checking rawURL.
//
// Category and item must be valid board names. The URL must be absolute
// http or https.
//
//	p, err := healthboard.NewProbe("services", "api", "https://api.example.com/health",
//	    healthboard.WithTimeout(5*time.Second),
//	    healthboard.WithExtractor(healthboard.JSONFieldExtractor("data.status")),
//	)
func NewProbe(category, item, rawURL string, opts ...ProbeOption) (Probe, error) {
	if err := validate.Name(category); err != nil {
		return Probe{}, fmt.Errorf("invalid probe category: %w", err)
	}
	if err := validate.Name(item); err != nil {
		return Probe{}, fmt.Errorf("invalid probe item: %w", err)
	}
	if !validate.SafeURL(rawURL) {
		return Probe{}, errors.New("probe URL must be an absolute http:// or https:// URL")
	}

	cfg := &probeConfig{
		headers:  make(map[string]string),
		timeout:  defaultProbeTimeout,
		statuses: DefaultStatusMap(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Probe{}, err
		}
	}

	return Probe{
		category:  category,
		item:      item,
		url:       rawURL,
		headers:   cfg.headers,
		timeout:   cfg.timeout,
		extractor: cfg.extractor,
		method:    cfg.method,
		interval:  cfg.interval,
		statuses:  cfg.statuses,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
