package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/tableau/pkg/cache"
	"github.com/matzehuels/tableau/pkg/pipeline"
	"github.com/matzehuels/tableau/pkg/render"
)

const familyKB = `
axioms = ["(implies Parent (some hasChild Person))"]

[[individuals]]
name = "alice"
terms = ["Parent"]
`

const clashKB = `
[[individuals]]
name = "alice"
terms = ["A", "(not A)"]
`

func writeKB(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.toml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(envRedisURL, "")
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	want := []string{"check", "models", "render", "explore", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	if err := run(t, "check", writeKB(t, familyKB)); err != nil {
		t.Errorf("check consistent: %v", err)
	}
	if err := run(t, "check", "--blocking", "double", "--show-model", writeKB(t, familyKB)); err != nil {
		t.Errorf("check with model: %v", err)
	}
	if err := run(t, "check", writeKB(t, clashKB)); err != ErrInconsistent {
		t.Errorf("check inconsistent = %v, want ErrInconsistent", err)
	}
	if err := run(t, "check", "--json", writeKB(t, clashKB)); err != ErrInconsistent {
		t.Errorf("check --json inconsistent = %v, want ErrInconsistent", err)
	}
	if err := run(t, "check", "--blocking", "pairwise", writeKB(t, familyKB)); err == nil {
		t.Error("unknown blocking strategy should fail")
	}
	if err := run(t, "check", filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestModelsCommand(t *testing.T) {
	src := "[[individuals]]\nname = \"x\"\nterms = [\"(or A B)\", \"(or C D)\"]\n"
	if err := run(t, "models", "--keep", "2", writeKB(t, src)); err != nil {
		t.Errorf("models: %v", err)
	}
}

func TestRenderCommand(t *testing.T) {
	kb := writeKB(t, familyKB)
	out := filepath.Join(t.TempDir(), "model.dot")
	if err := run(t, "render", "-f", "dot", "-o", out, kb); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "digraph") || !strings.Contains(string(data), "hasChild") {
		t.Errorf("unexpected DOT output:\n%s", data)
	}

	base := filepath.Join(t.TempDir(), "both")
	if err := run(t, "render", "-f", "dot,json", "-o", base, kb); err != nil {
		t.Fatalf("render multiple: %v", err)
	}
	for _, ext := range []string{".dot", ".json"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s output: %v", ext, err)
		}
	}

	if err := run(t, "render", "-f", "png", kb); err == nil {
		t.Error("unknown format should fail")
	}
	if err := run(t, "render", "-f", "dot", writeKB(t, clashKB)); err != ErrInconsistent {
		t.Errorf("render inconsistent = %v, want ErrInconsistent", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		format   string
		multiple bool
		input    string
		output   string
		want     string
	}{
		{"svg", false, "kb/family.toml", "", "kb/family.svg"},
		{"svg", false, "family.toml", "out.svg", "out.svg"},
		{"svg", false, "family.toml", "picture", "picture"},
		{"dot", true, "family.toml", "out.svg", "out.dot"},
		{"json", true, "family.toml", "out", "out.json"},
		{"json", true, "family.toml", "", "family.json"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.format, tt.multiple, tt.input, tt.output); got != tt.want {
			t.Errorf("outputPath(%q, %v, %q, %q) = %q, want %q",
				tt.format, tt.multiple, tt.input, tt.output, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); len(got) != 1 || got[0] != render.FormatSVG {
		t.Errorf("parseFormats(\"\") = %v", got)
	}
	if got := parseFormats("svg, dot"); len(got) != 2 || got[1] != "dot" {
		t.Errorf("parseFormats = %v", got)
	}
}

func sampleModel() *render.Model {
	return &render.Model{
		Nodes: []render.Node{
			{ID: 0, Label: "alice", Names: []string{"alice"}, Terms: []string{"Parent"}, Retired: []string{"(some hasChild Person)"}},
			{ID: 1, Label: "_:1", Terms: []string{"Person"}},
		},
		Links: []render.Link{{From: 0, Role: "hasChild", To: 1}},
	}
}

func TestFormatModel(t *testing.T) {
	out := formatModel(sampleModel(), false)
	for _, want := range []string{"alice", "_:1", "Parent", "hasChild → _:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatModel output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(some hasChild Person)") {
		t.Error("retired terms should be hidden by default")
	}
	if !strings.Contains(formatModel(sampleModel(), true), "(some hasChild Person)") {
		t.Error("retired terms should be shown on request")
	}
}

func TestFormatClash(t *testing.T) {
	got := formatClash(&pipeline.Clash{Node: 3, Reason: "A and (not A)", Culprits: []string{"0:(or A B)"}})
	want := "clash on node 3: A and (not A) (depends on 0:(or A B))"
	if got != want {
		t.Errorf("formatClash = %q, want %q", got, want)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestExploreModel(t *testing.T) {
	rep := &pipeline.Report{
		Consistent:  true,
		Models:      3,
		Model:       sampleModel(),
		Completions: []*render.Model{sampleModel(), sampleModel()},
	}
	var m tea.Model = NewExploreModel("kb.toml", rep)

	steps := []struct {
		key    string
		index  int
		cursor int
	}{
		{"down", 0, 1},
		{"down", 0, 1}, // last node
		{"right", 1, 0},
		{"right", 1, 0}, // last completion
		{"j", 1, 1},
		{"k", 1, 0},
		{"h", 0, 0},
		{"left", 0, 0},
	}
	for i, st := range steps {
		m, _ = m.Update(key(st.key))
		em := m.(ExploreModel)
		if em.Index != st.index || em.Cursor != st.cursor {
			t.Fatalf("step %d (%s): index=%d cursor=%d, want %d %d", i, st.key, em.Index, em.Cursor, st.index, st.cursor)
		}
	}

	view := m.View()
	for _, want := range []string{"kb.toml · completion 1/2", "(of 3)", "alice"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m, _ = m.Update(key("r"))
	if !m.(ExploreModel).Retired {
		t.Error("r should toggle expanded terms")
	}
	if !strings.Contains(m.View(), "(some hasChild Person)") {
		t.Error("expanded terms should be visible after toggling")
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

func TestExploreModelSingleModel(t *testing.T) {
	m := NewExploreModel("kb.toml", &pipeline.Report{Consistent: true, Models: 1, Model: sampleModel()})
	if m.Current() == nil {
		t.Fatal("the first model should be browsable without completions")
	}
	if !strings.Contains(m.View(), "completion 1/1") {
		t.Errorf("View() = %s", m.View())
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		root := New(io.Discard, log.InfoLevel).RootCommand()
		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetArgs([]string{"completion", shell})
		if err := root.Execute(); err != nil {
			t.Errorf("completion %s: %v", shell, err)
		}
		if !strings.Contains(buf.String(), appName) {
			t.Errorf("completion %s output does not mention %s", shell, appName)
		}
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	t.Setenv(envRedisURL, "")
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c, err := newCache(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("--no-cache gave %T, want NullCache", c)
	}

	c, err = newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("default cache is %T, want *FileCache", c)
	}

	t.Setenv(envRedisURL, "redis://127.0.0.1:1/0")
	if _, err := newCache(ctx, false); err == nil {
		t.Error("unreachable redis should fail")
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	t.Setenv(envRedisURL, "")

	fc, err := cache.NewFileCache(filepath.Join(dir, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = fc.Set(ctx, "result:a", []byte("a"), cache.TTLResult)
	_ = fc.Set(ctx, "result:b", []byte("b"), cache.TTLResult)

	root := New(io.Discard, log.InfoLevel).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := fc.Get(ctx, "result:a"); hit {
		t.Error("cache clear left entries behind")
	}
}
