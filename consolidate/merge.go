package consolidate

import (
	"fmt"
	"sort"

	"github.com/zebehn/docscalpel/model"
)

// candidate is an element under construction. Sequence numbers are not
// assigned until every page has been processed.
type candidate struct {
	element  model.Element
	number   int // caption primary number, 0 when uncaptioned
	sublabel string
}

// mergeGroup records one subfigure merge: the detections on a page whose
// captions share a primary number.
type mergeGroup struct {
	page         int
	elementType  model.ElementType
	number       int
	detectionIDs []string
}

// mergeSubfigures collapses candidates whose captions carry the same primary
// number but different sublabels into a single candidate per page. The merged
// element spans the union of the member boxes, takes the maximum member
// confidence, and lists every member detection. Candidates without a sublabel
// pass through untouched, as do types outside the merge scope. Running the
// merge again over its own output changes nothing.
func mergeSubfigures(cands []candidate, config Config) ([]candidate, []string) {
	type groupKey struct {
		page   int
		et     model.ElementType
		number int
	}

	groups := make(map[groupKey][]int)
	for i, c := range cands {
		if c.number == 0 || c.sublabel == "" || !config.mergesType(c.element.Type) {
			continue
		}
		key := groupKey{page: c.element.Page, et: c.element.Type, number: c.number}
		groups[key] = append(groups[key], i)
	}

	merged := make(map[int]bool)
	var out []candidate
	var notes []string

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].page != keys[j].page {
			return keys[i].page < keys[j].page
		}
		if keys[i].et != keys[j].et {
			return keys[i].et < keys[j].et
		}
		return keys[i].number < keys[j].number
	})

	for _, key := range keys {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		group := mergeGroup{page: key.page, elementType: key.et, number: key.number}
		first := cands[members[0]]
		box := first.element.BBox
		conf := first.element.Confidence
		var sources []string
		for _, i := range members {
			c := cands[i]
			box = box.Union(c.element.BBox)
			if c.element.Confidence > conf {
				conf = c.element.Confidence
			}
			sources = append(sources, c.element.SourceDetectionIDs...)
			merged[i] = true
		}
		el := model.NewElement(key.et, box, key.page, conf, sources)
		group.detectionIDs = el.SourceDetectionIDs
		out = append(out, candidate{element: el, number: key.number})
		notes = append(notes, fmt.Sprintf(
			"page %d: merged %d detections into %s %d (%v)",
			group.page, len(group.detectionIDs), group.elementType, group.number, group.detectionIDs))
	}

	for i, c := range cands {
		if !merged[i] {
			out = append(out, c)
		}
	}
	return out, notes
}
