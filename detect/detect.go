// Package detect ingests object-detector output for the consolidation
// pipeline. Detector label strings are mapped to element types at this
// boundary; labels outside the known vocabulary are reported, never coerced.
package detect

import (
	"errors"
	"fmt"

	"github.com/zebehn/docscalpel/model"
)

// ErrUnknownFormat is returned when no source is registered for a format.
var ErrUnknownFormat = errors.New("detect: unknown source format")

// DetectionSet is one document's ingested detector output. Boxes are in
// raster space.
type DetectionSet struct {
	// Elements are detections carrying an element-type label.
	Elements []model.Detection

	// CaptionBoxes are regions the detector labeled as captions. The text
	// inside them is read separately from the document's text layer.
	CaptionBoxes []model.BoundingBox

	// Ignored lists labels that matched no known vocabulary, one entry
	// per skipped detection.
	Ignored []string
}

// Source reads detector output in one serialization format.
type Source interface {
	// Load reads detector output from path.
	Load(path string) (*DetectionSet, error)

	// Name returns the format name used for registry lookup.
	Name() string
}

// SourceRegistry holds registered sources by format name.
type SourceRegistry struct {
	sources map[string]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *SourceRegistry {
	return &SourceRegistry{
		sources: make(map[string]Source),
	}
}

// Register registers a source under its format name.
func (r *SourceRegistry) Register(source Source) {
	r.sources[source.Name()] = source
}

// Get retrieves a source by format name, or nil.
func (r *SourceRegistry) Get(name string) Source {
	return r.sources[name]
}

// List returns all registered format names.
func (r *SourceRegistry) List() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	return names
}

// Global registry
var globalRegistry = NewRegistry()

// RegisterSource registers a source globally.
func RegisterSource(source Source) {
	globalRegistry.Register(source)
}

// GetSource retrieves a globally registered source by format name.
func GetSource(name string) Source {
	return globalRegistry.Get(name)
}

// ListSources returns all globally registered format names.
func ListSources() []string {
	return globalRegistry.List()
}

// Open loads detector output from path using the source registered for
// format.
func Open(format, path string) (*DetectionSet, error) {
	s := GetSource(format)
	if s == nil {
		return nil, fmt.Errorf("%s: %w", format, ErrUnknownFormat)
	}
	return s.Load(path)
}

func init() {
	RegisterSource(NewJSONSource())
}
