package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tableau/pkg/cache"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/kb"
	"github.com/matzehuels/tableau/pkg/observability"
	"github.com/matzehuels/tableau/pkg/render"
	"github.com/matzehuels/tableau/pkg/tableau"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so the caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Loaded is a decoded knowledge base together with its content hash.
type Loaded struct {
	File *kb.File
	Hash string
}

// Execute runs the complete load → check → render pipeline with caching.
// An inconsistent knowledge base is not an error: the report says so and
// no artifacts are rendered.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	ld, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.KBHash = ld.Hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Axioms = len(ld.File.Axioms)
	result.Stats.Roles = len(ld.File.Roles)
	result.Stats.Individuals = len(ld.File.Individuals)
	result.Stats.Links = len(ld.File.Links)

	// Stage 2: Check
	checkStart := time.Now()
	report, checkHit, err := r.CheckWithCacheInfo(ctx, ld, opts)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	result.Report = report
	result.Stats.CheckTime = time.Since(checkStart)
	result.CacheInfo.CheckHit = checkHit

	r.Logger.Info("checked knowledge base",
		"consistent", report.Consistent,
		"models", report.Models,
		"branches", report.Stats.Branches,
		"cached", checkHit,
		"duration", result.Stats.CheckTime)

	if !report.Consistent || len(opts.Formats) == 0 {
		return result, nil
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, ld, report, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered model",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load decodes the knowledge base named by opts and hashes its canonical
// form.
func (r *Runner) Load(ctx context.Context, opts Options) (*Loaded, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	source := opts.Path
	if len(opts.Source) > 0 {
		source = "inline"
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()
	ld, err := load(opts)
	axioms, individuals := 0, 0
	if ld != nil {
		axioms, individuals = len(ld.File.Axioms), len(ld.File.Individuals)
	}
	hooks.OnLoadComplete(ctx, source, axioms, individuals, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("loaded knowledge base", "source", source, "hash", ld.Hash[:12])
	return ld, nil
}

func load(opts Options) (*Loaded, error) {
	var (
		f   *kb.File
		err error
	)
	if len(opts.Source) > 0 {
		f, err = kb.Parse(opts.Source)
	} else {
		f, err = kb.Load(opts.Path)
	}
	if err != nil {
		return nil, err
	}
	canon, err := f.Canonical()
	if err != nil {
		return nil, err
	}
	return &Loaded{File: f, Hash: cache.Hash(canon)}, nil
}

// CheckWithCacheInfo checks the knowledge base with caching and returns
// cache hit info.
func (r *Runner) CheckWithCacheInfo(ctx context.Context, ld *Loaded, opts Options) (*Report, bool, error) {
	if err := opts.ValidateForCheck(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.ResultKey(ld.Hash, opts.ResultKeyOpts())
	hooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var report Report
			if err := json.Unmarshal(data, &report); err == nil {
				hooks.OnCacheHit(ctx, "result")
				return &report, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", cacheKey, "error", err)
		}
		hooks.OnCacheMiss(ctx, "result")
	}

	report, err := Check(ctx, ld.File, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(report); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLResult); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		} else {
			hooks.OnCacheSet(ctx, "result", len(data))
		}
	}
	return report, false, nil
}

// Check builds f and runs the reasoner on it without caching.
func Check(ctx context.Context, f *kb.File, opts Options) (*Report, error) {
	if err := opts.ValidateForCheck(); err != nil {
		return nil, err
	}
	k, err := f.Build()
	if err != nil {
		return nil, err
	}
	res, err := tableau.Check(ctx, k.ABox, opts.TableauOptions())
	if err != nil {
		return nil, err
	}
	return NewReport(res), nil
}

// RenderWithCacheInfo draws the first model of report in every requested
// format, with caching, and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, ld *Loaded, report *Report, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	if !report.Consistent || report.Model == nil {
		return nil, false, errors.New(errors.ErrCodeInconsistentABox, "knowledge base is inconsistent, there is no model to render")
	}

	resultKey := r.Keyer.ResultKey(ld.Hash, opts.ResultKeyOpts())
	hooks := observability.Cache()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(resultKey, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			allCached = false
			break
		}
		artifacts[format] = data
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		hooks.OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	hooks.OnCacheMiss(ctx, "artifact")

	rendered, err := Render(ctx, report.Model, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(resultKey, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLResult); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render draws m in every format of opts without caching.
func Render(ctx context.Context, m *render.Model, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	out := make(map[string][]byte, len(opts.Formats))
	var err error
	for _, format := range opts.Formats {
		var data []byte
		if data, err = render.Render(ctx, m, format, opts.RenderOptions()); err != nil {
			err = fmt.Errorf("%s: %w", format, err)
			break
		}
		out[format] = data
	}
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
