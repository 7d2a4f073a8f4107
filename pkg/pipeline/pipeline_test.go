package pipeline

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tableau/pkg/cache"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/render"
)

const consistentKB = `
axioms = ["(implies Parent (some hasChild Person))"]

[[individuals]]
name = "alice"
terms = ["Parent"]
`

const inconsistentKB = `
[[individuals]]
name = "alice"
terms = ["A", "(not A)"]
`

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func quiet() *log.Logger { return log.NewWithOptions(io.Discard, log.Options{}) }

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"source", Options{Source: []byte(consistentKB)}, false},
		{"path", Options{Path: "kb.toml"}, false},
		{"missing input", Options{}, true},
		{"blocking", Options{Path: "kb.toml", Blocking: "DOUBLE"}, false},
		{"bad blocking", Options{Path: "kb.toml", Blocking: "pairwise"}, true},
		{"bad format", Options{Path: "kb.toml", Formats: []string{"png"}}, true},
		{"negative keep", Options{Path: "kb.toml", KeepModels: -1}, true},
		{"negative branches", Options{Path: "kb.toml", MaxBranches: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.opts.Logger == nil {
				t.Error("Logger not defaulted")
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Path: "kb.toml", All: true, Blocking: "Subset"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Blocking != "subset" {
		t.Errorf("Blocking = %q, want subset", opts.Blocking)
	}
	if opts.KeepModels != DefaultKeepModels {
		t.Errorf("KeepModels = %d, want %d", opts.KeepModels, DefaultKeepModels)
	}
	to := opts.TableauOptions()
	if to.StopAtFirst {
		t.Error("StopAtFirst should be off when enumerating all models")
	}

	first := Options{Path: "kb.toml"}
	if err := first.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if first.Blocking != "auto" || first.KeepModels != 0 || !first.TableauOptions().StopAtFirst {
		t.Errorf("unexpected defaults: %+v", first)
	}
}

func TestExecuteConsistent(t *testing.T) {
	r := NewRunner(nil, nil, quiet())
	res, err := r.Execute(context.Background(), Options{
		Source:  []byte(consistentKB),
		Formats: []string{render.FormatDOT, render.FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Report.Consistent {
		t.Fatalf("expected consistent, clash = %+v", res.Report.Clash)
	}
	if res.Report.Models != 1 {
		t.Errorf("Models = %d, want 1", res.Report.Models)
	}
	if res.Report.Model == nil || len(res.Report.Model.Nodes) != 2 {
		t.Fatalf("expected alice and one child in the model, got %+v", res.Report.Model)
	}
	if res.Stats.Axioms != 1 || res.Stats.Individuals != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if len(res.KBHash) != 64 {
		t.Errorf("KBHash = %q", res.KBHash)
	}
	for _, f := range []string{render.FormatDOT, render.FormatJSON} {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	m, err := render.ParseJSON(res.Artifacts[render.FormatJSON])
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Links) != 1 || m.Links[0].Role != "hasChild" {
		t.Errorf("links = %+v", m.Links)
	}
}

func TestExecuteInconsistent(t *testing.T) {
	r := NewRunner(nil, nil, quiet())
	res, err := r.Execute(context.Background(), Options{
		Source:  []byte(inconsistentKB),
		Formats: []string{render.FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Report.Consistent {
		t.Fatal("expected inconsistent")
	}
	if res.Report.Clash == nil {
		t.Fatal("expected a clash")
	}
	if res.Report.Model != nil || len(res.Artifacts) != 0 {
		t.Error("inconsistent knowledge bases have nothing to render")
	}

	ld, err := r.Load(context.Background(), Options{Source: []byte(inconsistentKB)})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = r.RenderWithCacheInfo(context.Background(), ld, res.Report, Options{Formats: []string{"dot"}})
	if !errors.Is(err, errors.ErrCodeInconsistentABox) {
		t.Errorf("RenderWithCacheInfo error = %v, want %s", err, errors.ErrCodeInconsistentABox)
	}
}

func TestExecuteCaching(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, quiet())
	ctx := context.Background()
	opts := Options{Source: []byte(consistentKB), Formats: []string{render.FormatDOT}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.CheckHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}
	if c.sets != 2 {
		t.Errorf("sets = %d, want 2 (result and artifact)", c.sets)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.CheckHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if second.Report.SessionID != first.Report.SessionID {
		t.Error("cached report should keep its session id")
	}
	if string(second.Artifacts["dot"]) != string(first.Artifacts["dot"]) {
		t.Error("cached artifact differs")
	}

	// Different search options use a different key.
	other := opts
	other.Semantic = true
	third, err := r.Execute(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.CheckHit {
		t.Error("semantic branching should not share cached results")
	}

	refresh := opts
	refresh.Refresh = true
	fourth, err := r.Execute(ctx, refresh)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.CheckHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestLoadCanonicalHash(t *testing.T) {
	r := NewRunner(nil, nil, quiet())
	ctx := context.Background()
	a, err := r.Load(ctx, Options{Source: []byte(consistentKB)})
	if err != nil {
		t.Fatal(err)
	}
	// Same knowledge base, different layout.
	reformatted := "axioms = [ \"(implies Parent (some hasChild Person))\" ]\n\n" +
		"[[individuals]]\nterms = [\"Parent\"]\nname = \"alice\"\n"
	b, err := r.Load(ctx, Options{Source: []byte(reformatted)})
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash != b.Hash {
		t.Errorf("equivalent files hash differently: %s != %s", a.Hash, b.Hash)
	}

	c, err := r.Load(ctx, Options{Source: []byte(inconsistentKB)})
	if err != nil {
		t.Fatal(err)
	}
	if c.Hash == a.Hash {
		t.Error("different knowledge bases share a hash")
	}
}

func TestLoadErrors(t *testing.T) {
	r := NewRunner(nil, nil, quiet())
	ctx := context.Background()
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing file", Options{Path: "does-not-exist.toml"}, errors.ErrCodeFileNotFound},
		{"bad toml", Options{Source: []byte("axioms = [")}, errors.ErrCodeParse},
		{"no input", Options{}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Load(ctx, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Load error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestCheckAllModels(t *testing.T) {
	src := `
[[individuals]]
name = "x"
terms = ["(or A B)"]
`
	r := NewRunner(nil, nil, quiet())
	res, err := r.Execute(context.Background(), Options{Source: []byte(src), All: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Report.Models != 2 || len(res.Report.Completions) != 2 {
		t.Errorf("Models = %d, completions = %d, want 2 and 2", res.Report.Models, len(res.Report.Completions))
	}
}

func TestScopedKeyerSeparatesResults(t *testing.T) {
	c := newMemCache()
	ctx := context.Background()
	opts := Options{Source: []byte(consistentKB)}

	a := NewRunner(c, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "a"), quiet())
	if _, err := a.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	b := NewRunner(c, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "b"), quiet())
	res, err := b.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.CheckHit {
		t.Error("scoped keyers should not share entries")
	}
}
