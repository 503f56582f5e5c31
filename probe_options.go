package healthboard

import (
	"errors"
	"net/http"
	"time"
)

// probeConfig holds configuration during probe construction.
type probeConfig struct {
	headers   map[string]string
	timeout   time.Duration
	extractor Extractor
	method    string
	interval  time.Duration
	statuses  StatusMap
}

// ProbeOption configures a [Probe].
type ProbeOption func(*probeConfig) error

// WithHeaders adds HTTP headers sent with every check, as key-value pairs.
//
//	healthboard.WithHeaders("Authorization", "Bearer token")
func WithHeaders(keyValues ...string) ProbeOption {
	return func(cfg *probeConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ProbeOption {
	return func(cfg *probeConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithExtractor sets how responses are interpreted. Nil restores
// [DefaultExtractor].
func WithExtractor(e Extractor) ProbeOption {
	return func(cfg *probeConfig) error {
		cfg.extractor = e
		return nil
	}
}

// WithMethod sets the HTTP method: GET (default), HEAD or POST.
func WithMethod(method string) ProbeOption {
	return func(cfg *probeConfig) error {
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET, HEAD, or POST")
		}
	}
}

// WithInterval sets a per-probe check interval between 1 second and 1 hour,
// overriding [WithPollingInterval].
//
// The interval is measured from when a check starts, so for slow endpoints
// the effective interval is the configured interval plus the latency.
func WithInterval(d time.Duration) ProbeOption {
	return func(cfg *probeConfig) error {
		if d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		if d > time.Hour {
			return errors.New("interval must not exceed 1 hour")
		}
		cfg.interval = d
		return nil
	}
}

// WithStatusMap sets the board statuses written for each verdict. Empty
// fields keep their defaults. The statuses are checked against the board's
// vocabulary when written, not here, since the vocabulary can be reloaded.
func WithStatusMap(m StatusMap) ProbeOption {
	return func(cfg *probeConfig) error {
		if m.Up != "" {
			cfg.statuses.Up = m.Up
		}
		if m.Degraded != "" {
			cfg.statuses.Degraded = m.Degraded
		}
		if m.Down != "" {
			cfg.statuses.Down = m.Down
		}
		if m.Unknown != "" {
			cfg.statuses.Unknown = m.Unknown
		}
		return nil
	}
}
