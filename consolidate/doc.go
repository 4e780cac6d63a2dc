// Package consolidate turns noisy per-page detections into a final, uniquely
// numbered element list.
//
// Raw detector output is unreliable: boxes overlap, captions sit apart from
// the regions they describe, subfigures arrive as separate detections, and
// the text sometimes names elements the detector missed entirely. This
// package reconciles those signals into one consistent ordering.
//
// # Pipeline
//
// [Engine.Consolidate] processes each page independently and in parallel:
//
//  1. Map detections from raster space to page space, dropping malformed ones
//  2. Suppress duplicate same-type detections by confidence ([Resolver])
//  3. Parse caption signatures out of the page's text runs
//  4. Match parsed captions to detections by adjacency, falling back to
//     position ranking
//
// After every page has finished, a single pass over the whole document:
//
//  1. Merges same-number subfigure detections into one element per figure
//  2. Reserves sequence slots for numbers the text references but no
//     detection backs
//  3. Assigns per-type sequence numbers 1..N in reading order
//
// # Configuration
//
// Behavior is controlled by [Config]:
//
//	config := consolidate.DefaultConfig()
//	config.IoUThreshold = 0.6
//	config.Workers = 4
//	engine := consolidate.NewEngine(config)
//	result, err := engine.Consolidate(ctx, pages)
//
// # Failure Semantics
//
// Nothing in this package fails a whole document. A malformed detection or
// caption is dropped and recorded in [Result].Warnings; a page without text
// runs falls back to positional numbering; zero elements is a valid result.
// Informational events, such as subfigure merges and reserved slots, are
// recorded in [Result].Notes.
package consolidate
