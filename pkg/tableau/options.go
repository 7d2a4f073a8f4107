package tableau

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/tableau/pkg/blocking"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/rbox"
)

// Options configures a consistency check.
type Options struct {
	// SemanticBranching splits disjunctions into complete truth assignments
	// of their disjuncts instead of one branch per disjunct.
	SemanticBranching bool

	// StopAtFirst ends the search at the first complete ABox.
	StopAtFirst bool

	// Backjump prunes alternatives that cannot avoid a clash found in a
	// sibling branch.
	Backjump bool

	// Blocking names the blocking strategy (see [blocking.Kinds]). Empty
	// selects one suited to the role box.
	Blocking string

	// KeepModels is the number of complete ABoxes to return in
	// [Result.Models]. The first one is always available as [Result.Model].
	KeepModels int

	// MaxBranches aborts the search after that many branches have been
	// explored. Zero means no limit.
	MaxBranches int

	// Logger receives debug events. Defaults to log.Default().
	Logger *log.Logger
}

// validate checks o, fills in defaults and returns the blocking strategy.
func (o *Options) validate(rb *rbox.RBox) (blocking.Strategy, error) {
	if o.KeepModels < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "keep models must be >= 0, got %d", o.KeepModels)
	}
	if o.MaxBranches < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "max branches must be >= 0, got %d", o.MaxBranches)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return blocking.New(o.Blocking, rb)
}
