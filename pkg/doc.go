// Package pkg provides the core libraries of Tableau, a description logic
// consistency checker.
//
// # Overview
//
// Tableau decides whether a knowledge base (roles, terminological axioms
// and assertions about individuals) has a model. It does so by expanding
// an ABox with completion rules until every branch either contains a clash
// or is complete. The pkg directory is organized into three areas:
//
//  1. Model - [term], [rbox], [tbox], [abox] and [branch] hold the data the
//     search works on
//  2. Search - [blocking] and [tableau] drive the expansion
//  3. Plumbing - [kb], [render], [cache] and [pipeline] load knowledge bases,
//     draw models and cache results for the CLI and HTTP API
//
// # Architecture
//
// The typical data flow:
//
//	TOML knowledge base
//	         ↓
//	    [kb] package (decode, build RBox + TBox + ABox)
//	         ↓
//	    [tableau] package (rules, branching, backjumping, blocking)
//	         ↓
//	    [render] package (snapshot + DOT/SVG/JSON)
//
// # Quick Start
//
//	f, _ := kb.Load("family.toml")
//	k, _ := f.Build()
//	res, err := tableau.Check(ctx, k.ABox, tableau.Options{StopAtFirst: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Consistent)
//
// # Supporting Packages
//
//   - [errors]: coded errors and the typed clash error
//   - [observability]: hooks for reasoner, pipeline, cache and HTTP events
//   - [buildinfo]: version information set at build time
//
// [term]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/term
// [rbox]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/rbox
// [tbox]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/tbox
// [abox]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/abox
// [branch]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/branch
// [blocking]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/blocking
// [tableau]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/tableau
// [kb]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/kb
// [render]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/tableau/pkg/buildinfo
package pkg
