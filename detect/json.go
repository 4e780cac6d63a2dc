package detect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/zebehn/docscalpel/model"
)

// rawDetection is the wire shape of one detector hit.
type rawDetection struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Page       int     `json:"page"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

// JSONSource reads detector output serialized as JSON: either a bare array
// of detections or an object with a "detections" array.
type JSONSource struct{}

// NewJSONSource creates a JSONSource.
func NewJSONSource() JSONSource {
	return JSONSource{}
}

// Name returns "json".
func (JSONSource) Name() string { return "json" }

// Load reads and routes the detections in the file at path. Detections with
// element-type labels land in Elements, caption-labeled ones in
// CaptionBoxes, and unknown labels in Ignored.
func (s JSONSource) Load(path string) (*DetectionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect: read %s: %w", path, err)
	}
	raws, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("detect: parse %s: %w", path, err)
	}

	set := &DetectionSet{}
	for i, raw := range raws {
		if model.IsCaptionLabel(raw.Label) {
			set.CaptionBoxes = append(set.CaptionBoxes,
				model.NewBoundingBox(raw.X, raw.Y, raw.Width, raw.Height, raw.Page))
			continue
		}
		et, err := model.ParseLabel(raw.Label)
		if err != nil {
			set.Ignored = append(set.Ignored, raw.Label)
			continue
		}
		id := raw.ID
		if id == "" {
			id = fmt.Sprintf("det-%04d", i)
		}
		set.Elements = append(set.Elements, model.Detection{
			ID:         id,
			Type:       et,
			Page:       raw.Page,
			RasterBBox: model.NewBoundingBox(raw.X, raw.Y, raw.Width, raw.Height, raw.Page),
			Confidence: raw.Confidence,
		})
	}
	return set, nil
}

// decode accepts both supported layouts.
func decode(data []byte) ([]rawDetection, error) {
	var raws []rawDetection
	arrayErr := json.Unmarshal(data, &raws)
	if arrayErr == nil {
		return raws, nil
	}

	var wrapper struct {
		Detections []rawDetection `json:"detections"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Detections != nil {
		return wrapper.Detections, nil
	}
	return nil, errors.New("expected a detection array or a detections object")
}
