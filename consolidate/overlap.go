package consolidate

import (
	"fmt"
	"sort"

	"github.com/zebehn/docscalpel/model"
)

// Resolver suppresses duplicate detections of the same type on a page.
type Resolver struct {
	threshold float64
}

// NewResolver creates a Resolver that treats pairs with intersection over
// union at or above threshold as duplicates.
func NewResolver(threshold float64) Resolver {
	return Resolver{threshold: threshold}
}

// Resolve returns the detections that survive duplicate suppression, plus a
// warning for each discarded detection. Detections are ranked by confidence,
// ties broken by id, and a lower ranked detection is discarded when it
// overlaps a kept detection of the same type at or above the threshold.
// Detections of different types never suppress each other.
func (r Resolver) Resolve(dets []model.PlacedDetection) ([]model.PlacedDetection, []string) {
	byType := make(map[model.ElementType][]model.PlacedDetection)
	for _, d := range dets {
		byType[d.Type] = append(byType[d.Type], d)
	}

	var kept []model.PlacedDetection
	var warnings []string
	for _, et := range model.ElementTypes() {
		group := byType[et]
		if len(group) == 0 {
			continue
		}
		survivors, discarded := r.resolveGroup(group)
		kept = append(kept, survivors...)
		warnings = append(warnings, discarded...)
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].ID < kept[j].ID
	})
	return kept, warnings
}

// resolveGroup runs greedy suppression over same-type detections.
func (r Resolver) resolveGroup(group []model.PlacedDetection) ([]model.PlacedDetection, []string) {
	ranked := make([]model.PlacedDetection, len(group))
	copy(ranked, group)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].ID < ranked[j].ID
	})

	var survivors []model.PlacedDetection
	var warnings []string
	for _, cand := range ranked {
		suppressor := -1
		for i, winner := range survivors {
			if cand.BBox.IoU(winner.BBox) >= r.threshold {
				suppressor = i
				break
			}
		}
		if suppressor < 0 {
			survivors = append(survivors, cand)
			continue
		}
		winner := survivors[suppressor]
		warnings = append(warnings, fmt.Sprintf(
			"page %d: duplicate %s detection %s (confidence %.2f) suppressed by %s (confidence %.2f)",
			cand.Page, cand.Type, cand.ID, cand.Confidence, winner.ID, winner.Confidence))
	}
	return survivors, warnings
}
