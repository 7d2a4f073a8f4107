package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tableau/pkg/blocking"
	"github.com/matzehuels/tableau/pkg/buildinfo"
	"github.com/matzehuels/tableau/pkg/cache"
	"github.com/matzehuels/tableau/pkg/pipeline"
	"github.com/matzehuels/tableau/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "tableau"

	// envRedisURL selects the shared redis cache instead of the local
	// file cache, e.g. redis://localhost:6379/0.
	envRedisURL = "TABLEAU_REDIS_ADDR"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Tableau checks description logic knowledge bases for consistency",
		Long: `Tableau decides whether a description logic knowledge base has a model.

A knowledge base is a TOML file of roles, terminological axioms, individuals
and role links. Tableau expands it into complete models with a tableau
search and reports either a model or the contradiction that rules one out.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.modelsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// newCache picks redis when TABLEAU_REDIS_ADDR is set and the XDG file
// cache otherwise.
func newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if url := os.Getenv(envRedisURL); url != "" {
		return cache.NewRedisCache(ctx, url)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/tableau/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// searchFlags registers the reasoner flags shared by check, models, render
// and explore.
func searchFlags(cmd *cobra.Command, opts *pipeline.Options, noCache *bool) {
	cmd.Flags().BoolVar(&opts.Semantic, "semantic", false, "branch on complete truth assignments of disjuncts")
	cmd.Flags().BoolVar(&opts.Backjump, "backjump", true, "prune alternatives that cannot avoid a clash")
	cmd.Flags().StringVar(&opts.Blocking, "blocking", "auto", "blocking strategy: "+strings.Join(blocking.Kinds, ", "))
	cmd.Flags().IntVar(&opts.MaxBranches, "max-branches", 0, "abort after this many branches (0 = no limit)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("blocking", completeBlocking)
	cmd.ValidArgsFunction = completeKB
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
