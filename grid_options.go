package healthboard

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// gridConfig holds configuration during probe grid construction.
type gridConfig struct {
	urlTemplate string
	dimensions  map[string][]string
	headers     map[string]string
	timeout     time.Duration
	extractor   Extractor
	method      string
	interval    time.Duration
	statuses    StatusMap
}

// probeOptions converts the shared settings into per-probe options.
func (cfg *gridConfig) probeOptions() []ProbeOption {
	var opts []ProbeOption
	if len(cfg.headers) > 0 {
		for _, k := range sortedKeys(cfg.headers) {
			opts = append(opts, WithHeaders(k, cfg.headers[k]))
		}
	}
	if cfg.timeout > 0 {
		opts = append(opts, WithTimeout(cfg.timeout))
	}
	if cfg.extractor != nil {
		opts = append(opts, WithExtractor(cfg.extractor))
	}
	if cfg.method != "" {
		opts = append(opts, WithMethod(cfg.method))
	}
	if cfg.interval > 0 {
		opts = append(opts, WithInterval(cfg.interval))
	}
	return append(opts, WithStatusMap(cfg.statuses))
}

// GridOption configures [NewProbeGrid].
type GridOption func(*gridConfig) error

// WithURLTemplate sets the URL template, e.g.
// "https://api.example.com/health?env={{.env}}".
func WithURLTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("URL template required")
		}
		cfg.urlTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the values to expand. Every dimension needs at least
// one value and values cannot be empty.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

// WithGridHeaders adds HTTP headers to every generated probe.
func WithGridHeaders(keyValues ...string) GridOption {
	return func(cfg *gridConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithGridHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithGridTimeout sets the request timeout of every generated probe.
// Zero keeps the probe default.
func WithGridTimeout(d time.Duration) GridOption {
	return func(cfg *gridConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		cfg.timeout = d
		return nil
	}
}

// WithGridExtractor sets the extractor of every generated probe.
func WithGridExtractor(e Extractor) GridOption {
	return func(cfg *gridConfig) error {
		cfg.extractor = e
		return nil
	}
}

// WithGridMethod sets the HTTP method of every generated probe.
func WithGridMethod(method string) GridOption {
	return func(cfg *gridConfig) error {
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET, HEAD, or POST")
		}
	}
}

// WithGridInterval sets the check interval of every generated probe.
// Zero keeps the board default; otherwise 1 second to 1 hour.
func WithGridInterval(d time.Duration) GridOption {
	return func(cfg *gridConfig) error {
		if d < 0 {
			return errors.New("interval cannot be negative")
		}
		if d != 0 && d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		if d > time.Hour {
			return errors.New("interval must not exceed 1 hour")
		}
		cfg.interval = d
		return nil
	}
}

// WithGridStatusMap sets the verdict to status mapping of every generated
// probe.
func WithGridStatusMap(m StatusMap) GridOption {
	return func(cfg *gridConfig) error {
		cfg.statuses = m
		return nil
	}
}
