// Package pipeline runs the load → check → render pipeline shared by the
// CLI and the HTTP API.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Decode a TOML knowledge base (see package kb)
//  2. Check: Build the knowledge base and search for a model (see package tableau)
//  3. Render: Draw the first model as SVG, DOT or JSON (see package render)
//
// Check results and rendered artifacts are cached, keyed by a hash of the
// canonical knowledge base and the options that affect them.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "family.toml",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report.Consistent)
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tableau/pkg/blocking"
	"github.com/matzehuels/tableau/pkg/cache"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/render"
	"github.com/matzehuels/tableau/pkg/tableau"
)

// DefaultKeepModels is the number of completions kept when enumerating all
// models.
const DefaultKeepModels = 16

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Source takes precedence over Path.
	Path   string `json:"-"`
	Source []byte `json:"-"`

	// Check options
	All         bool   `json:"all,omitempty"` // enumerate every completion instead of stopping at the first
	Semantic    bool   `json:"semantic,omitempty"`
	Backjump    bool   `json:"backjump,omitempty"`
	Blocking    string `json:"blocking,omitempty"`
	KeepModels  int    `json:"keep_models,omitempty"`
	MaxBranches int    `json:"max_branches,omitempty"`
	Refresh     bool   `json:"refresh,omitempty"` // ignore cached results

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Retired  bool     `json:"retired,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForCheck(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a knowledge base is given.
func (o *Options) ValidateForLoad() error {
	if len(o.Source) == 0 && o.Path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "knowledge base path or source is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForCheck checks the search options and applies defaults.
func (o *Options) ValidateForCheck() error {
	o.Blocking = strings.ToLower(o.Blocking)
	if o.Blocking == "" {
		o.Blocking = blocking.KindAuto
	}
	if !slices.Contains(blocking.Kinds, o.Blocking) {
		return errors.New(errors.ErrCodeInvalidInput, "unknown blocking strategy %q (want one of %s)",
			o.Blocking, strings.Join(blocking.Kinds, ", "))
	}
	if o.KeepModels < 0 || o.MaxBranches < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "keep_models and max_branches must not be negative")
	}
	if o.All && o.KeepModels == 0 {
		o.KeepModels = DefaultKeepModels
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForRender checks the output formats.
func (o *Options) ValidateForRender() error {
	for _, f := range o.Formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// TableauOptions returns the reasoner options.
func (o *Options) TableauOptions() tableau.Options {
	return tableau.Options{
		SemanticBranching: o.Semantic,
		StopAtFirst:       !o.All,
		Backjump:          o.Backjump,
		Blocking:          o.Blocking,
		KeepModels:        o.KeepModels,
		MaxBranches:       o.MaxBranches,
		Logger:            o.Logger,
	}
}

// ResultKeyOpts returns cache key options for check results.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Semantic:    o.Semantic,
		Backjump:    o.Backjump,
		All:         o.All,
		Blocking:    o.Blocking,
		KeepModels:  o.KeepModels,
		MaxBranches: o.MaxBranches,
	}
}

// ArtifactKeyOpts returns cache key options for a rendered artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Retired:  o.Retired,
	}
}

// RenderOptions returns the DOT options.
func (o *Options) RenderOptions() render.Options {
	return render.Options{Detailed: o.Detailed, Retired: o.Retired}
}

// =============================================================================
// Results
// =============================================================================

// Report is the cacheable outcome of a check.
type Report struct {
	SessionID   string          `json:"session_id"`
	Consistent  bool            `json:"consistent"`
	Models      int             `json:"models"`
	Clash       *Clash          `json:"clash,omitempty"`
	Stats       tableau.Stats   `json:"stats"`
	Model       *render.Model   `json:"model,omitempty"`
	Completions []*render.Model `json:"completions,omitempty"`
}

// Clash explains why the last branch of an inconsistent knowledge base
// failed.
type Clash struct {
	Node     int64    `json:"node"`
	Reason   string   `json:"reason"`
	Culprits []string `json:"culprits,omitempty"`
}

// NewReport converts a reasoner result.
func NewReport(res *tableau.Result) *Report {
	r := &Report{
		SessionID:  res.SessionID,
		Consistent: res.Consistent,
		Models:     res.ModelCount,
		Stats:      res.Stats,
	}
	if res.Clash != nil && !res.Consistent {
		r.Clash = &Clash{Node: res.Clash.Node, Reason: res.Clash.Reason, Culprits: res.Clash.Culprits}
	}
	if res.Model != nil {
		r.Model = render.Snapshot(res.Model)
	}
	for _, m := range res.Models {
		r.Completions = append(r.Completions, render.Snapshot(m))
	}
	return r
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Report is the outcome of the check.
	Report *Report

	// KBHash is the hash of the canonical knowledge base.
	KBHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Axioms      int
	Roles       int
	Individuals int
	Links       int
	LoadTime    time.Duration
	CheckTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CheckHit  bool // Whether the report came from cache
	RenderHit bool // Whether all artifacts came from cache
}
