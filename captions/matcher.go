package captions

import (
	"fmt"
	"math"
	"sort"

	"github.com/zebehn/docscalpel/model"
)

// Match pairs one detection with one parsed caption. Ambiguous is set when
// the pair was produced by positional rank fallback rather than adjacency;
// such pairs are best-effort and are surfaced as warnings.
type Match struct {
	Detection model.PlacedDetection
	Caption   model.ParsedCaption
	Ambiguous bool
}

// MatchResult holds the outcome of caption matching for one page and type.
// Every input detection and parsed caption appears in exactly one bucket:
// matched, uncaptioned (detections without a caption, numbered later by
// position alone), or unmatched (captions without a detection, candidates
// for sequence-gap synthesis).
type MatchResult struct {
	Matches     []Match
	Uncaptioned []model.PlacedDetection
	Unmatched   []model.ParsedCaption
	Warnings    []string
}

// Matcher associates parsed captions with placed detections on a page.
type Matcher struct {
	config Config
}

// NewMatcher creates a matcher with default configuration
func NewMatcher() *Matcher {
	return &Matcher{config: DefaultConfig()}
}

// NewMatcherWithConfig creates a matcher with custom configuration
func NewMatcherWithConfig(config Config) *Matcher {
	return &Matcher{config: config}
}

// MatchPage associates captions with detections for one page. Matching runs
// independently per element type; detections and captions of different
// types never pair.
func (m *Matcher) MatchPage(dets []model.PlacedDetection, caps []model.ParsedCaption, pageHeight float64) *MatchResult {
	result := &MatchResult{}

	for _, et := range model.ElementTypes() {
		ds := filterDetections(dets, et)
		cs := filterCaptions(caps, et)
		m.matchType(et, ds, cs, pageHeight, result)
	}
	return result
}

// matchType runs the two matching phases for one element type.
func (m *Matcher) matchType(et model.ElementType, ds []model.PlacedDetection, cs []model.ParsedCaption, pageHeight float64, result *MatchResult) {
	if len(ds) == 0 && len(cs) == 0 {
		return
	}

	sortDetectionsByPosition(ds)
	sortCaptionsByPosition(cs)

	margin := m.config.VerticalMargin * pageHeight
	claimed := make([]bool, len(ds))
	matchedCaps := make([]bool, len(cs))

	// Phase 1: containment/adjacency. A caption immediately below a
	// detection wins; above within the margin is the fallback. Horizontal
	// overlap is required either way.
	for ci, c := range cs {
		di := m.adjacentDetection(ds, claimed, c, margin)
		if di < 0 {
			continue
		}
		claimed[di] = true
		matchedCaps[ci] = true
		result.Matches = append(result.Matches, Match{Detection: ds[di], Caption: c})
	}

	// Phase 2: positional rank fallback. Only meaningful when the page
	// holds several detections and several captions of the type; leftover
	// pairs are walked in reading order and paired by rank.
	if len(ds) > 1 && len(cs) > 1 {
		var leftDets []int
		var leftCaps []int
		for i := range ds {
			if !claimed[i] {
				leftDets = append(leftDets, i)
			}
		}
		for i := range cs {
			if !matchedCaps[i] {
				leftCaps = append(leftCaps, i)
			}
		}
		n := len(leftDets)
		if len(leftCaps) < n {
			n = len(leftCaps)
		}
		for k := 0; k < n; k++ {
			di, ci := leftDets[k], leftCaps[k]
			claimed[di] = true
			matchedCaps[ci] = true
			result.Matches = append(result.Matches, Match{Detection: ds[di], Caption: cs[ci], Ambiguous: true})
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"page %d: ambiguous match: %s caption %d paired to detection %s by position",
				ds[di].Page, et, cs[ci].Number, ds[di].ID))
		}
	}

	for i := range ds {
		if !claimed[i] {
			result.Uncaptioned = append(result.Uncaptioned, ds[i])
		}
	}
	for i := range cs {
		if !matchedCaps[i] {
			result.Unmatched = append(result.Unmatched, cs[i])
		}
	}
}

// adjacentDetection finds the unclaimed detection the caption is adjacent
// to. A caption sitting below a detection within the margin wins; a caption
// above one, or overlapping one, is the fallback. Returns -1 when no
// detection qualifies.
func (m *Matcher) adjacentDetection(ds []model.PlacedDetection, claimed []bool, c model.ParsedCaption, margin float64) int {
	bestBelow, bestBelowGap := -1, math.Inf(1)
	bestAbove, bestAboveGap := -1, math.Inf(1)

	for i, d := range ds {
		if claimed[i] {
			continue
		}
		if d.BBox.HorizontalOverlap(c.BBox) <= 0 {
			continue
		}

		belowGap := c.BBox.Top() - d.BBox.Bottom()  // caption below the detection
		aboveGap := d.BBox.Top() - c.BBox.Bottom()  // caption above the detection
		overlapping := belowGap < 0 && aboveGap < 0 // vertical intervals intersect

		switch {
		case belowGap >= 0 && belowGap <= margin:
			if belowGap < bestBelowGap || (belowGap == bestBelowGap && closerX(d, ds[bestBelow], c)) {
				bestBelow, bestBelowGap = i, belowGap
			}
		case overlapping:
			if bestAboveGap > 0 {
				bestAbove, bestAboveGap = i, 0
			}
		case aboveGap >= 0 && aboveGap <= margin:
			if aboveGap < bestAboveGap {
				bestAbove, bestAboveGap = i, aboveGap
			}
		}
	}

	if bestBelow >= 0 {
		return bestBelow
	}
	return bestAbove
}

// closerX breaks a vertical-gap tie by horizontal center distance
func closerX(candidate, current model.PlacedDetection, c model.ParsedCaption) bool {
	cc := c.BBox.Center().X
	return math.Abs(candidate.BBox.Center().X-cc) < math.Abs(current.BBox.Center().X-cc)
}

func filterDetections(dets []model.PlacedDetection, et model.ElementType) []model.PlacedDetection {
	var out []model.PlacedDetection
	for _, d := range dets {
		if d.Type == et {
			out = append(out, d)
		}
	}
	return out
}

func filterCaptions(caps []model.ParsedCaption, et model.ElementType) []model.ParsedCaption {
	var out []model.ParsedCaption
	for _, c := range caps {
		if c.Type == et {
			out = append(out, c)
		}
	}
	return out
}

// sortDetectionsByPosition orders detections in reading order: top to
// bottom, then left to right, ties broken by id.
func sortDetectionsByPosition(ds []model.PlacedDetection) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].BBox.Y != ds[j].BBox.Y {
			return ds[i].BBox.Y < ds[j].BBox.Y
		}
		if ds[i].BBox.X != ds[j].BBox.X {
			return ds[i].BBox.X < ds[j].BBox.X
		}
		return ds[i].ID < ds[j].ID
	})
}

// sortCaptionsByPosition orders captions in reading order, ties broken by
// caption number.
func sortCaptionsByPosition(cs []model.ParsedCaption) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].BBox.Y != cs[j].BBox.Y {
			return cs[i].BBox.Y < cs[j].BBox.Y
		}
		if cs[i].BBox.X != cs[j].BBox.X {
			return cs[i].BBox.X < cs[j].BBox.X
		}
		return cs[i].Number < cs[j].Number
	})
}
