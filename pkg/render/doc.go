// Package render turns ABoxes into pictures and documents.
//
// An ABox is first captured as a [Model], a plain snapshot of its nodes,
// terms and links that can be serialized, cached and rendered later without
// the reasoner. A Model renders to:
//
//   - Graphviz DOT source with [ToDOT]
//   - SVG with [RenderSVG], using Graphviz compiled to WebAssembly
//   - JSON with [RenderJSON]
//
// # Usage
//
//	m := render.Snapshot(result.Model)
//	dot := render.ToDOT(m, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # DOT Format
//
// Individuals are drawn as rounded boxes, data values as ellipses and
// anonymous nodes with a dashed outline. Each role link is an edge labelled
// with the role name. With [Options.Detailed] the node label lists the
// node's terms below its name.
package render
