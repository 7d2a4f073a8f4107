package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/pipeline"
)

// ErrInconsistent is returned by commands whose knowledge base has no
// model. The verdict has already been printed when it is returned.
var ErrInconsistent = errors.New(errors.ErrCodeInconsistentABox, "knowledge base is inconsistent")

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		noCache   bool
		showModel bool
		asJSON    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "check [kb.toml]",
		Short: "Decide whether a knowledge base is consistent",
		Long: `Decide whether a knowledge base is consistent.

The search stops at the first complete, clash-free model. When there is none,
the contradiction that closed the last branch is shown together with the
choices it depends on. The command exits with status 2 for inconsistent
knowledge bases.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			res, err := c.runCheck(cmd.Context(), opts, noCache)
			if err != nil {
				return err
			}
			if asJSON {
				if err := printJSON(res.Report); err != nil {
					return err
				}
			} else {
				printVerdict(filepath.Base(opts.Path), res.Report, res.CacheInfo.CheckHit)
				if showModel && res.Report.Model != nil {
					printNewline()
					fmt.Println(formatModel(res.Report.Model, opts.Retired))
				}
			}
			if !res.Report.Consistent {
				return ErrInconsistent
			}
			return nil
		},
	}

	searchFlags(cmd, &opts, &noCache)
	cmd.Flags().BoolVarP(&showModel, "show-model", "m", false, "print the model that was found")
	cmd.Flags().BoolVar(&opts.Retired, "retired", false, "include expanded terms when printing the model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

// modelsCommand creates the models command.
func (c *CLI) modelsCommand() *cobra.Command {
	var (
		noCache bool
		asJSON  bool
	)
	opts := pipeline.Options{All: true}

	cmd := &cobra.Command{
		Use:   "models [kb.toml]",
		Short: "Enumerate the completions of a knowledge base",
		Long: `Enumerate the completions of a knowledge base.

Every branch of the search is explored; the number of complete models is
reported and the first --keep of them are printed. With --semantic each
disjunction is split into the complete truth assignments of its disjuncts,
which yields more, but pairwise distinct, completions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			res, err := c.runCheck(cmd.Context(), opts, noCache)
			if err != nil {
				return err
			}
			if asJSON {
				if err := printJSON(res.Report); err != nil {
					return err
				}
			} else {
				printCompletions(filepath.Base(opts.Path), res, opts.Retired)
			}
			if !res.Report.Consistent {
				return ErrInconsistent
			}
			return nil
		},
	}

	searchFlags(cmd, &opts, &noCache)
	cmd.Flags().IntVarP(&opts.KeepModels, "keep", "k", pipeline.DefaultKeepModels, "number of completions to print")
	cmd.Flags().BoolVar(&opts.Retired, "retired", false, "include expanded terms")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

// runCheck runs the pipeline without rendering, showing a spinner on
// stderr while the search is running.
func (c *CLI) runCheck(ctx context.Context, opts pipeline.Options, noCache bool) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	label := "Checking " + filepath.Base(opts.Path)
	spinner := newSpinnerWithContext(ctx, label+"...")
	stop := trackSearch(spinner, label)
	spinner.Start()
	prog := newProgress(c.Logger)

	res, err := runner.Execute(ctx, opts)
	stop()
	if err != nil {
		spinner.StopWithError("Check failed")
		return nil, err
	}
	spinner.Stop()
	prog.done("search finished", "branches", res.Report.Stats.Branches, "cached", res.CacheInfo.CheckHit)
	return res, nil
}

func printCompletions(name string, res *pipeline.Result, retired bool) {
	rep := res.Report
	printVerdict(name, rep, res.CacheInfo.CheckHit)
	for i, m := range rep.Completions {
		printNewline()
		fmt.Println(StyleTitle.Render(fmt.Sprintf("Completion %d/%d", i+1, rep.Models)))
		fmt.Println(formatModel(m, retired))
	}
	if n := rep.Models - len(rep.Completions); n > 0 {
		printNewline()
		printInfo("%d more not shown (raise --keep)", n)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
