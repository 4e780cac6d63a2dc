package consolidate

import (
	"fmt"
	"sort"

	"github.com/zebehn/docscalpel/model"
)

// reference records where a caption number is first mentioned in the text.
type reference struct {
	page   int
	origin model.Point
	y, x   float64
}

// synthesize reserves sequence slots for element numbers the text refers to
// but no detection backs. A slot is created only when the number extends the
// backed sequence by at most MaxForwardGap; passing references to far-off
// numbers are ignored. Slots carry the position of the first reference and no
// bounding box.
func synthesize(parsed []model.ParsedCaption, cands []candidate, config Config) ([]model.SequenceGap, []string) {
	backed := make(map[model.ElementType]map[int]bool)
	for _, c := range cands {
		if c.number == 0 {
			continue
		}
		if backed[c.element.Type] == nil {
			backed[c.element.Type] = make(map[int]bool)
		}
		backed[c.element.Type][c.number] = true
	}

	referenced := make(map[model.ElementType]map[int]reference)
	for _, p := range parsed {
		if referenced[p.Type] == nil {
			referenced[p.Type] = make(map[int]reference)
		}
		ref := reference{
			page:   p.Page,
			origin: p.BBox.Center(),
			y:      p.BBox.Y,
			x:      p.BBox.X,
		}
		seen, ok := referenced[p.Type][p.Number]
		if !ok || ref.before(seen) {
			referenced[p.Type][p.Number] = ref
		}
	}

	var gaps []model.SequenceGap
	var notes []string
	for _, et := range model.ElementTypes() {
		maxBacked := 0
		for n := range backed[et] {
			if n > maxBacked {
				maxBacked = n
			}
		}

		numbers := make([]int, 0, len(referenced[et]))
		for n := range referenced[et] {
			if !backed[et][n] {
				numbers = append(numbers, n)
			}
		}
		sort.Ints(numbers)

		reach := maxBacked
		for _, n := range numbers {
			if n > reach+config.MaxForwardGap {
				continue
			}
			ref := referenced[et][n]
			gaps = append(gaps, model.SequenceGap{
				Type:   et,
				Number: n,
				Page:   ref.page,
				Origin: ref.origin,
			})
			notes = append(notes, fmt.Sprintf(
				"page %d: %s %d referenced in text but never detected; sequence slot reserved",
				ref.page, et, n))
			if n > reach {
				reach = n
			}
		}
	}
	return gaps, notes
}

// before reports whether r precedes other in reading order.
func (r reference) before(other reference) bool {
	if r.page != other.page {
		return r.page < other.page
	}
	if r.y != other.y {
		return r.y < other.y
	}
	return r.x < other.x
}
