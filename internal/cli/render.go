package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tableau/pkg/pipeline"
	"github.com/matzehuels/tableau/pkg/render"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [kb.toml]",
		Short: "Draw the first model of a knowledge base",
		Long: `Draw the first model of a knowledge base.

Nodes are individuals, values and the anonymous elements the search created;
edges are role links. Named nodes are drawn solid, anonymous ones dashed and
datatype values as ellipses. Use --detailed to list each node's terms.

With a single format, -o names the output file. With several formats, -o is a
base path and the format is appended as the extension. Without -o the output
is written next to the input file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			opts.Formats = parseFormats(formatsStr)
			for _, f := range opts.Formats {
				if err := render.ValidateFormat(f); err != nil {
					return err
				}
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	searchFlags(cmd, &opts, &noCache)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): "+strings.Join(render.Formats, ", ")+" (comma-separated, default svg)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "list node terms in the drawing")
	cmd.Flags().BoolVar(&opts.Retired, "retired", false, "include expanded terms (implies --detailed)")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger
	if opts.Retired {
		opts.Detailed = true
	}

	label := "Rendering " + filepath.Base(opts.Path)
	spinner := newSpinnerWithContext(ctx, label+"...")
	stop := trackSearch(spinner, label)
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	stop()
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if !res.Report.Consistent {
		printVerdict(filepath.Base(opts.Path), res.Report, res.CacheInfo.CheckHit)
		return ErrInconsistent
	}

	paths, err := writeArtifacts(res.Artifacts, opts.Formats, opts.Path, output)
	if err != nil {
		return err
	}
	printSuccess("Rendered model of %s", filepath.Base(opts.Path))
	printStats(res.Report, res.CacheInfo.CheckHit && res.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes each rendered format and returns the paths written
// in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	var paths []string
	for _, f := range formats {
		path := outputPath(f, len(formats) > 1, input, output)
		if slices.Contains(paths, path) {
			continue
		}
		if err := os.WriteFile(path, artifacts[f], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath picks the file for one format. A single format is written to
// output verbatim; otherwise output (or the input without its extension)
// is a base path.
func outputPath(format string, multiple bool, input, output string) string {
	if output != "" && !multiple {
		return output
	}
	return basePath(output, input) + "." + format
}

// basePath strips a known format extension from output, or the extension
// from input when output is empty.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(render.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
