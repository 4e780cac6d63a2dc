package consolidate

import (
	"github.com/zebehn/docscalpel/captions"
	"github.com/zebehn/docscalpel/model"
)

// Config controls consolidation behavior.
type Config struct {
	// IoUThreshold is the intersection-over-union ratio at or above which
	// two same-type detections on a page count as duplicates. The lower
	// confidence one is discarded.
	IoUThreshold float64

	// MinConfidence drops detections below this confidence before any
	// other processing.
	MinConfidence float64

	// MaxForwardGap bounds synthetic slot creation: a caption referencing
	// number N produces a placeholder only when N is at most the highest
	// backed number plus this gap.
	MaxForwardGap int

	// MergeScope lists the element types whose sublabeled detections are
	// merged into one element per primary number.
	MergeScope []model.ElementType

	// Workers caps the number of pages processed concurrently.
	Workers int

	// Captions configures caption-to-detection matching.
	Captions captions.Config
}

// DefaultConfig returns the default consolidation configuration.
func DefaultConfig() Config {
	return Config{
		IoUThreshold:  0.5,
		MinConfidence: 0.5,
		MaxForwardGap: 1,
		MergeScope:    []model.ElementType{model.ElementTypeFigure},
		Workers:       8,
		Captions:      captions.DefaultConfig(),
	}
}

// mergesType reports whether sublabeled detections of type et are merged.
func (c Config) mergesType(et model.ElementType) bool {
	for _, t := range c.MergeScope {
		if t == et {
			return true
		}
	}
	return false
}
