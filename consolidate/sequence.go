package consolidate

import (
	"sort"

	"github.com/zebehn/docscalpel/model"
)

// seqItem is one slot in a type's final ordering: a real element or a
// reserved gap.
type seqItem struct {
	cand *candidate
	gap  *model.SequenceGap
}

// assignSequences numbers candidates and reserved gaps 1..N per type. Real
// elements are ordered by page, then vertical position, then horizontal
// position, with ties broken by the smallest source detection id. Gaps are
// slotted in by their implied number, so a reserved slot at N pushes every
// later element past N.
func assignSequences(cands []candidate, gaps []model.SequenceGap) ([]model.Element, []model.SequenceGap) {
	var elements []model.Element
	var placed []model.SequenceGap

	for _, et := range model.ElementTypes() {
		var reals []*candidate
		for i := range cands {
			if cands[i].element.Type == et {
				reals = append(reals, &cands[i])
			}
		}
		sort.Slice(reals, func(i, j int) bool {
			a, b := reals[i].element, reals[j].element
			if a.Page != b.Page {
				return a.Page < b.Page
			}
			if a.BBox.Y != b.BBox.Y {
				return a.BBox.Y < b.BBox.Y
			}
			if a.BBox.X != b.BBox.X {
				return a.BBox.X < b.BBox.X
			}
			return a.SourceDetectionIDs[0] < b.SourceDetectionIDs[0]
		})

		var slots []*model.SequenceGap
		for i := range gaps {
			if gaps[i].Type == et {
				slots = append(slots, &gaps[i])
			}
		}
		sort.Slice(slots, func(i, j int) bool {
			return slots[i].Number < slots[j].Number
		})

		items := make([]seqItem, len(reals))
		for i, c := range reals {
			items[i] = seqItem{cand: c}
		}
		for _, g := range slots {
			pos := g.Number - 1
			if pos < 0 {
				pos = 0
			}
			if pos > len(items) {
				pos = len(items)
			}
			items = append(items, seqItem{})
			copy(items[pos+1:], items[pos:])
			items[pos] = seqItem{gap: g}
		}

		for i, item := range items {
			seq := i + 1
			if item.cand != nil {
				el := item.cand.element
				el.SequenceNumber = seq
				elements = append(elements, el)
			} else {
				g := *item.gap
				g.SequenceNumber = seq
				placed = append(placed, g)
			}
		}
	}
	return elements, placed
}
