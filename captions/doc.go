// Package captions parses caption text and associates captions with
// detections.
//
// Caption evidence enters the pipeline as positioned text runs. The
// [Parser] scans each run for a caption signature: a type keyword
// ("Figure", "fig.", "Table", "Eq.") followed by a number and an optional
// sub-label. Enumerable multi-number forms ("Figures 3-5", "Tables 2 and
// 4") expand into one parsed caption per number; ambiguous forms are left
// unparsed and never drive numbering.
//
//	p := captions.NewParser()
//	parsed, raw := p.ParseAll(runs)
//
// The [Matcher] then pairs parsed captions with detections on the same
// page. Adjacency is tried first: a caption directly below a detection,
// within a page-relative vertical margin and horizontally overlapping it,
// wins; a caption above or overlapping is the fallback. When adjacency
// leaves several captions and detections of one type unpaired, both sides
// are sorted in reading order and paired by rank; those pairs carry an
// ambiguity flag and a warning. Detections left without a caption are
// numbered later purely by position; captions left without a detection
// become candidates for sequence-gap synthesis.
package captions
