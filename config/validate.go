package config

import (
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/jpalmerr/healthboard/internal/validate"
)

// expandAndValidate expands environment variables and validates c.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.ProbeInterval.Duration() < minProbeInterval {
		return fmt.Errorf("probe_interval must be at least %s, got %s", minProbeInterval, c.ProbeInterval.Duration())
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if d := c.CheckpointInterval.Duration(); d < 0 || (d > 0 && d < time.Second) {
		return fmt.Errorf("checkpoint_interval must be 0 or at least 1s, got %s", d)
	}

	if err := c.Snapshot.expandAndValidate(); err != nil {
		return err
	}

	for i, s := range c.Seed {
		if err := validate.Name(s.Category); err != nil {
			return fmt.Errorf("seed[%d]: category: %w", i, err)
		}
		for j, item := range s.Items {
			if err := validate.Name(item); err != nil {
				return fmt.Errorf("seed[%d] (%s): items[%d]: %w", i, s.Category, j, err)
			}
		}
	}

	seen := make(map[string]int, len(c.Probes))
	for i := range c.Probes {
		p := &c.Probes[i]
		where := fmt.Sprintf("probes[%d] (%s/%s)", i, p.Category, p.Item)

		if err := p.expandAndValidate(where); err != nil {
			return err
		}

		key := p.Category + "/" + p.Item
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("%s: duplicates probes[%d]", where, prev)
		}
		seen[key] = i
	}

	for i := range c.Grids {
		g := &c.Grids[i]
		if err := g.expandAndValidate(fmt.Sprintf("grids[%d] (%s/%s)", i, g.Category, g.Item)); err != nil {
			return err
		}
	}

	return nil
}

func (s *SnapshotConfig) expandAndValidate() error {
	switch s.Backend {
	case BackendFile:
		if s.Path == "" {
			return errors.New("snapshot: path is required for the file backend")
		}
	case BackendRedis:
		addr, err := expandEnvVars(s.Redis.Addr)
		if err != nil {
			return fmt.Errorf("snapshot.redis.addr: %w", err)
		}
		if addr == "" {
			return errors.New("snapshot.redis.addr is required for the redis backend")
		}
		password, err := expandEnvVars(s.Redis.Password)
		if err != nil {
			return fmt.Errorf("snapshot.redis.password: %w", err)
		}
		if s.Redis.DB < 0 {
			return fmt.Errorf("snapshot.redis.db cannot be negative, got %d", s.Redis.DB)
		}
		s.Redis.Addr = addr
		s.Redis.Password = password
	case BackendSQLite:
		if s.SQLite.Path == "" {
			return errors.New("snapshot.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("snapshot.backend must be file, redis, or sqlite, got %q", s.Backend)
	}
	return nil
}

func (p *ProbeConfig) expandAndValidate(where string) error {
	if err := validate.Name(p.Category); err != nil {
		return fmt.Errorf("%s: category: %w", where, err)
	}
	if err := validate.Name(p.Item); err != nil {
		return fmt.Errorf("%s: item: %w", where, err)
	}

	if p.URL == "" {
		return fmt.Errorf("%s: url is required", where)
	}
	expanded, err := expandEnvVars(p.URL)
	if err != nil {
		return fmt.Errorf("%s: url: %w", where, err)
	}
	if !validate.SafeURL(expanded) {
		return fmt.Errorf("%s: url must be an absolute http:// or https:// URL", where)
	}
	p.URL = expanded

	if k, err := expandMap(p.Headers); err != nil {
		return fmt.Errorf("%s: headers[%s]: %w", where, k, err)
	}

	return validateRequestSettings(where, p.Method, p.Timeout, p.Interval, p.Extractor)
}

func (g *GridConfig) expandAndValidate(where string) error {
	if err := validate.Name(g.Category); err != nil {
		return fmt.Errorf("%s: category: %w", where, err)
	}
	if g.Item == "" {
		return fmt.Errorf("%s: item is required", where)
	}

	if g.URLTemplate == "" {
		return fmt.Errorf("%s: url_template is required", where)
	}
	expanded, err := expandEnvVars(g.URLTemplate)
	if err != nil {
		return fmt.Errorf("%s: url_template: %w", where, err)
	}
	if _, err := template.New("").Parse(expanded); err != nil {
		return fmt.Errorf("%s: invalid url_template: %w", where, err)
	}
	g.URLTemplate = expanded

	if len(g.Dimensions) == 0 {
		return fmt.Errorf("%s: at least one dimension is required", where)
	}
	for name, values := range g.Dimensions {
		if len(values) == 0 {
			return fmt.Errorf("%s: dimension %q has no values", where, name)
		}
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			if _, dup := seen[v]; dup {
				return fmt.Errorf("%s: dimension %q has duplicate value %q", where, name, v)
			}
			seen[v] = struct{}{}
		}
	}

	if k, err := expandMap(g.Headers); err != nil {
		return fmt.Errorf("%s: headers[%s]: %w", where, k, err)
	}

	return validateRequestSettings(where, g.Method, g.Timeout, g.Interval, g.Extractor)
}

// validateRequestSettings checks the fields probes and grids share.
func validateRequestSettings(where, method string, timeout, interval Duration, extractor ExtractorConfig) error {
	if method != "" && method != "GET" && method != "HEAD" && method != "POST" {
		return fmt.Errorf("%s: method must be GET, HEAD, or POST", where)
	}

	if timeout != 0 && timeout.Duration() < time.Second {
		return fmt.Errorf("%s: timeout must be at least 1s if specified, got %s", where, timeout.Duration())
	}

	if interval != 0 {
		if interval.Duration() < time.Second {
			return fmt.Errorf("%s: interval must be at least 1s, got %s", where, interval.Duration())
		}
		if interval.Duration() > time.Hour {
			return fmt.Errorf("%s: interval must not exceed 1h, got %s", where, interval.Duration())
		}
	}

	return extractor.validate(where)
}
