package config

import (
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/jpalmerr/healthboard"
)

// Build converts a parsed configuration into board options.
//
// Probes and grids are turned into [healthboard.Probe] values here, so
// errors the SDK would raise surface before the server starts.
func Build(cfg *Config) ([]healthboard.Option, error) {
	opts := []healthboard.Option{
		healthboard.WithTitle(cfg.Title),
		healthboard.WithRestoreOnStart(cfg.RestoreOnStart),
		healthboard.WithCheckpointInterval(cfg.CheckpointInterval.Duration()),
		snapshotOption(cfg.Snapshot),
	}

	// zero values leave the SDK defaults in place
	if cfg.Port != 0 {
		opts = append(opts, healthboard.WithPort(cfg.Port))
	}
	if cfg.ProbeInterval != 0 {
		opts = append(opts, healthboard.WithPollingInterval(cfg.ProbeInterval.Duration()))
	}
	if cfg.MaxConcurrency != 0 {
		opts = append(opts, healthboard.WithMaxConcurrency(cfg.MaxConcurrency))
	}

	if cfg.VocabularyFile != "" {
		opts = append(opts,
			healthboard.WithVocabularyFile(cfg.VocabularyFile),
			healthboard.WithWatchVocabulary(cfg.WatchVocabulary),
		)
	}

	for _, s := range cfg.Seed {
		opts = append(opts, healthboard.WithSeed(s.Category, s.Items...))
	}

	probes, err := BuildProbes(cfg)
	if err != nil {
		return nil, err
	}
	if len(probes) > 0 {
		opts = append(opts, healthboard.WithProbes(probes...))
	}

	return opts, nil
}

// BuildProbes converts the configured probes and grids into SDK probes.
func BuildProbes(cfg *Config) ([]healthboard.Probe, error) {
	var probes []healthboard.Probe

	for i, pc := range cfg.Probes {
		p, err := buildProbe(pc)
		if err != nil {
			return nil, fmt.Errorf("probes[%d] (%s/%s): %w", i, pc.Category, pc.Item, err)
		}
		probes = append(probes, p)
	}

	for i, gc := range cfg.Grids {
		generated, err := buildGrid(gc)
		if err != nil {
			return nil, fmt.Errorf("grids[%d] (%s/%s): %w", i, gc.Category, gc.Item, err)
		}
		probes = append(probes, generated...)
	}

	return probes, nil
}

func snapshotOption(sc SnapshotConfig) healthboard.Option {
	switch sc.Backend {
	case BackendRedis:
		return healthboard.WithRedisSnapshot(&redis.Options{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		}, sc.Redis.Key)
	case BackendSQLite:
		return healthboard.WithSQLiteSnapshot(sc.SQLite.Path, sc.SQLite.Name)
	default:
		path := sc.Path
		if path == "" {
			path = defaultSnapshotPath
		}
		return healthboard.WithFileSnapshot(path)
	}
}

func buildProbe(pc ProbeConfig) (healthboard.Probe, error) {
	var opts []healthboard.ProbeOption

	if pc.Method != "" {
		opts = append(opts, healthboard.WithMethod(pc.Method))
	}
	if pc.Timeout != 0 {
		opts = append(opts, healthboard.WithTimeout(pc.Timeout.Duration()))
	}
	if pc.Interval != 0 {
		opts = append(opts, healthboard.WithInterval(pc.Interval.Duration()))
	}
	if len(pc.Headers) > 0 {
		opts = append(opts, healthboard.WithHeaders(mapToKeyValuePairs(pc.Headers)...))
	}

	extractor, err := buildExtractor(pc.Extractor)
	if err != nil {
		return healthboard.Probe{}, err
	}
	if extractor != nil {
		opts = append(opts, healthboard.WithExtractor(extractor))
	}
	opts = append(opts, healthboard.WithStatusMap(pc.statusMap()))

	return healthboard.NewProbe(pc.Category, pc.Item, pc.URL, opts...)
}

func buildGrid(gc GridConfig) ([]healthboard.Probe, error) {
	opts := []healthboard.GridOption{
		healthboard.WithURLTemplate(gc.URLTemplate),
		healthboard.WithDimensions(gc.Dimensions),
		healthboard.WithGridStatusMap(gc.statusMap()),
	}

	if gc.Method != "" {
		opts = append(opts, healthboard.WithGridMethod(gc.Method))
	}
	if gc.Timeout != 0 {
		opts = append(opts, healthboard.WithGridTimeout(gc.Timeout.Duration()))
	}
	if gc.Interval != 0 {
		opts = append(opts, healthboard.WithGridInterval(gc.Interval.Duration()))
	}
	if len(gc.Headers) > 0 {
		opts = append(opts, healthboard.WithGridHeaders(mapToKeyValuePairs(gc.Headers)...))
	}

	extractor, err := buildExtractor(gc.Extractor)
	if err != nil {
		return nil, err
	}
	if extractor != nil {
		opts = append(opts, healthboard.WithGridExtractor(extractor))
	}

	return healthboard.NewProbeGrid(gc.Category, gc.Item, opts...)
}

func (s StatusesConfig) statusMap() healthboard.StatusMap {
	return healthboard.StatusMap{
		Up:       s.UpStatus,
		Degraded: s.DegradedStatus,
		Down:     s.DownStatus,
		Unknown:  s.UnknownStatus,
	}
}

// mapToKeyValuePairs flattens m into sorted key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildExtractor returns nil for the default extractor.
func buildExtractor(ec ExtractorConfig) (healthboard.Extractor, error) {
	switch ec.Type {
	case "http":
		return healthboard.HTTPStatusExtractor, nil
	case "json":
		return healthboard.JSONFieldExtractor(ec.Path), nil
	case "contains":
		return healthboard.ContainsExtractor(ec.Text), nil
	case "regex":
		return healthboard.RegexExtractor(ec.Pattern, ec.UpMatch)
	default:
		return nil, nil
	}
}
