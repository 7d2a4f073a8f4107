package tableau

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tableau/pkg/abox"
	"github.com/matzehuels/tableau/pkg/blocking"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/observability"
	"github.com/matzehuels/tableau/pkg/rbox"
	"github.com/matzehuels/tableau/pkg/term"
)

// Result is the outcome of a consistency check.
type Result struct {
	// SessionID identifies the check in logs and API responses.
	SessionID string

	// Consistent is true when at least one complete, clash-free ABox was
	// found.
	Consistent bool

	// ModelCount is the number of complete ABoxes found. With
	// Options.StopAtFirst it is at most one.
	ModelCount int

	// Model is the first complete ABox, or nil.
	Model *abox.ABox

	// Models holds up to Options.KeepModels complete ABoxes in the order
	// they were found.
	Models []*abox.ABox

	// Clash is the last contradiction met, or nil. For an inconsistent
	// knowledge base it explains why the last branch failed.
	Clash *errors.ClashError

	Stats Stats
}

// Stats describes the work done by a check.
type Stats struct {
	Branches  int           `json:"branches"`  // branches expanded
	Clashes   int           `json:"clashes"`   // branches closed by a clash
	Pruned    int           `json:"pruned"`    // alternatives dropped by backjumping
	Backjumps int           `json:"backjumps"` // clashes that pruned at least one alternative
	MaxDepth  int           `json:"max_depth"` // deepest choice point level reached
	Nodes     int           `json:"nodes"`     // nodes in the first model
	Duration  time.Duration `json:"duration"`  // wall time of the search
	Blocking  string        `json:"blocking"`  // blocking strategy used
	Semantic  bool          `json:"semantic"`  // semantic branching was on
}

// Err returns the clash of an inconsistent result as an error, or nil.
func (r *Result) Err() error {
	if r.Consistent {
		return nil
	}
	if r.Clash != nil {
		return r.Clash
	}
	return errors.New(errors.ErrCodeInconsistentABox, "knowledge base is inconsistent")
}

type reasoner struct {
	ctx      context.Context
	opts     Options
	strategy blocking.Strategy
	rbox     *rbox.RBox
	log      *log.Logger
	session  string
	res      *Result
}

// Check decides whether a is consistent by searching for complete,
// clash-free extensions of it. a itself is not modified.
//
// A clash is not an error: an inconsistent knowledge base yields a Result
// with Consistent set to false. Errors report invalid options, contract
// violations such as illegal term types, cancellation of ctx, and
// exhaustion of Options.MaxBranches.
func Check(ctx context.Context, a *abox.ABox, opts Options) (*Result, error) {
	rb := a.Config().RBox()
	strategy, err := opts.validate(rb)
	if err != nil {
		return nil, err
	}
	r := &reasoner{
		ctx:      ctx,
		opts:     opts,
		strategy: strategy,
		rbox:     rb,
		session:  uuid.NewString(),
	}
	r.log = opts.Logger.With("session", r.session)
	r.res = &Result{SessionID: r.session}
	r.res.Stats.Blocking = strategy.Name()
	r.res.Stats.Semantic = opts.SemanticBranching

	hooks := observability.Reasoner()
	hooks.OnCheckStart(ctx, r.session, a.Len())
	start := time.Now()
	err = r.search(a.Clone())
	r.res.Stats.Duration = time.Since(start)
	hooks.OnCheckComplete(ctx, r.session, r.res.ModelCount, r.res.Stats.Duration, err)
	if err != nil {
		return nil, err
	}
	r.res.Consistent = r.res.ModelCount > 0
	r.log.Debug("check complete",
		"consistent", r.res.Consistent,
		"models", r.res.ModelCount,
		"branches", r.res.Stats.Branches,
		"clashes", r.res.Stats.Clashes,
		"duration", r.res.Stats.Duration)
	return r.res, nil
}

func (r *reasoner) search(a *abox.ABox) error {
	root := newState(a)
	info, err := a.Refresh()
	if err != nil {
		root.dispose()
		return err
	}
	root.track(info)

	stack := []*state{root}
	defer func() {
		for _, st := range stack {
			st.dispose()
		}
	}()
	for len(stack) > 0 {
		if err := r.ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeCanceled, err, "search canceled")
		}
		if limit := r.opts.MaxBranches; limit > 0 && r.res.Stats.Branches >= limit {
			return errors.New(errors.ErrCodeCanceled, "branch limit of %d reached", limit)
		}
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r.res.Stats.Branches++

		c, err := r.expand(st)
		var cl *clash
		switch {
		case errors.As(err, &cl):
			stack = r.onClash(st, cl, stack)
			st.dispose()
		case err != nil:
			st.dispose()
			return err
		case c != nil:
			stack = append(stack, r.branch(st, c)...)
		default:
			if r.onModel(st) {
				return nil
			}
		}
	}
	return nil
}

// expand runs the rules on st until it is complete, clashes or reaches a
// choice point.
func (r *reasoner) expand(st *state) (*choice, error) {
	a := st.abox()
	if st.pending != nil {
		apply := st.pending
		st.pending = nil
		if err := apply(st); err != nil {
			return nil, err
		}
	}
	for {
		if err := r.ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCanceled, err, "search canceled")
		}
		if a.Stale() {
			info, err := a.Refresh()
			st.track(info)
			if err != nil {
				return nil, err
			}
		}
		if id, ok := st.br.NextNonGeneratingNode(); ok {
			open, err := r.deterministic(st, id)
			if err != nil {
				return nil, err
			}
			if open {
				st.deferred[id] = struct{}{}
			}
			continue
		}
		for _, id := range st.resolved(st.deferred) {
			c := r.choiceFor(st, id)
			delete(st.deferred, id)
			if c != nil {
				return c, nil
			}
		}
		if id, ok := st.br.NextGeneratingNode(); ok {
			if r.strategy.IsBlocked(a, id) {
				st.waiting[id] = struct{}{}
				continue
			}
			if err := r.generating(st, id); err != nil {
				return nil, err
			}
			continue
		}
		if r.wake(st) {
			continue
		}
		return nil, nil
	}
}

// wake requeues waiting nodes that are no longer blocked.
func (r *reasoner) wake(st *state) bool {
	a := st.abox()
	woke := false
	for _, id := range st.resolved(st.waiting) {
		if r.strategy.IsBlocked(a, id) {
			continue
		}
		delete(st.waiting, id)
		st.br.TouchNode(id)
		woke = true
	}
	return woke
}

// branch takes choice c on st and returns one state per alternative, the
// first alternative last so that it is explored first.
func (r *reasoner) branch(st *state, c *choice) []*state {
	a := st.abox()
	level := st.level + 1
	e := abox.EntryOf(c.node, c.term)
	if c.retire {
		if err := a.RetireTerm(c.node, c.term); err != nil {
			// The term was found on the node by choiceFor.
			panic(err)
		}
	} else {
		a.Deps().AddGoverning(e)
	}
	st.levels[e] = level
	st.level = level
	r.res.Stats.MaxDepth = max(r.res.Stats.MaxDepth, level)
	observability.Reasoner().OnBranch(r.ctx, r.session, level, len(c.alts))
	r.log.Debug("branching", "level", level, "node", c.node, "term", c.term, "alternatives", len(c.alts))

	out := make([]*state, len(c.alts))
	for i := range c.alts {
		child := st
		if i > 0 {
			child = st.clone()
		}
		child.pending = c.alts[i].apply
		out[len(out)-1-i] = child
	}
	return out
}

// onClash records cl and, with backjumping, drops the pending states that
// cannot avoid it.
func (r *reasoner) onClash(st *state, cl *clash, stack []*state) []*state {
	r.res.Stats.Clashes++
	a := st.abox()
	culprits := a.Deps().GoverningAncestors(cl.entries...)
	target := 0
	cl.Culprits = cl.Culprits[:0]
	for _, e := range culprits {
		cl.Culprits = append(cl.Culprits, e.String())
		if l, ok := st.levels[e]; ok {
			target = max(target, l)
		}
	}
	r.res.Clash = cl.ClashError
	observability.Reasoner().OnClash(r.ctx, r.session, cl.Node, cl.Reason)
	r.log.Debug("clash", "node", cl.Node, "reason", cl.Reason, "level", st.level, "culprits", cl.Culprits)

	if !r.opts.Backjump {
		return stack
	}
	pruned := 0
	for len(stack) > 0 && stack[len(stack)-1].level > target {
		stack[len(stack)-1].dispose()
		stack = stack[:len(stack)-1]
		pruned++
	}
	if pruned > 0 {
		r.res.Stats.Pruned += pruned
		r.res.Stats.Backjumps++
		observability.Reasoner().OnBackjump(r.ctx, r.session, st.level, target)
		r.log.Debug("backjump", "from", st.level, "to", target, "pruned", pruned)
	}
	return stack
}

// onModel records the complete state st and reports whether the search
// should stop.
func (r *reasoner) onModel(st *state) bool {
	r.res.ModelCount++
	a := st.abox()
	keep := false
	if r.res.Model == nil {
		r.res.Model = a
		r.res.Stats.Nodes = a.Len()
		keep = true
	}
	if len(r.res.Models) < r.opts.KeepModels {
		r.res.Models = append(r.res.Models, a)
		keep = true
	}
	if !keep {
		st.dispose()
	} else {
		// Detach the queues; the ABox stays with the result.
		st.br.Dispose()
	}
	observability.Reasoner().OnModel(r.ctx, r.session, a.Len())
	r.log.Debug("model", "count", r.res.ModelCount, "nodes", a.Len(), "level", st.level)
	return r.opts.StopAtFirst
}

// Satisfiable reports whether concept c can have an instance with respect
// to the TBox and RBox of cfg. It checks a fresh ABox holding a single
// anonymous node labelled c and stops at the first model.
func Satisfiable(ctx context.Context, cfg *abox.Config, c *term.Term, opts Options) (bool, error) {
	a := abox.New(cfg)
	n, err := a.CreateNode(false)
	if err != nil {
		return false, err
	}
	if _, err := a.AddUnfoldedDescription(n.ID(), c); err != nil {
		return false, err
	}
	opts.StopAtFirst = true
	opts.KeepModels = 0
	res, err := Check(ctx, a, opts)
	if err != nil {
		return false, err
	}
	return res.Consistent, nil
}
