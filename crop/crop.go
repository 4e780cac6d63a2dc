package crop

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/zebehn/docscalpel/model"
)

// Config holds the export settings.
type Config struct {
	// Padding is added on every side of an element's raster box before
	// cropping, in raster pixels.
	Padding float64

	// NamePattern builds the output file name from the lowercase element
	// type and the sequence number. The image extension is appended.
	NamePattern string

	// Format is the output image extension, anything the encoder
	// understands (png, jpg, tiff, bmp, gif).
	Format string
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Padding:     10,
		NamePattern: "%s_%02d",
		Format:      "png",
	}
}

// Exporter crops element images out of page rasters.
type Exporter struct {
	config Config
	mapper model.Mapper
}

// NewExporter creates an exporter. The mapper must be the one the source
// detections were placed with, so element boxes map back onto the rasters
// they were detected in.
func NewExporter(mapper model.Mapper, config Config) *Exporter {
	if config.NamePattern == "" {
		config.NamePattern = DefaultConfig().NamePattern
	}
	if config.Format == "" {
		config.Format = DefaultConfig().Format
	}
	return &Exporter{config: config, mapper: mapper}
}

// Export writes one image per element into dir and returns the written
// paths in element order. Pages maps page numbers to rasters; elements
// whose page has no raster, or whose padded box falls outside it, are
// skipped. The directory is created if needed.
func (e *Exporter) Export(dir string, elements []model.Element, pages map[int]image.Image) ([]string, error) {
	if len(elements) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crop: create %s: %w", dir, err)
	}

	var written []string
	for _, el := range elements {
		img, ok := pages[el.Page]
		if !ok {
			continue
		}
		window := e.window(el, img.Bounds())
		if window.Empty() {
			continue
		}

		name := fmt.Sprintf(e.config.NamePattern, el.Type.String(), el.SequenceNumber)
		path := filepath.Join(dir, name+"."+e.config.Format)
		if err := imaging.Save(imaging.Crop(img, window), path); err != nil {
			return written, fmt.Errorf("crop: save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// ExportFiles is Export with the page rasters loaded from a directory.
func (e *Exporter) ExportFiles(dir string, elements []model.Element, pagesDir string) ([]string, error) {
	pages, err := LoadPageImages(pagesDir)
	if err != nil {
		return nil, err
	}
	return e.Export(dir, elements, pages)
}

// Images crops each element in memory and returns the crops keyed by
// element ID, for callers that embed previews instead of writing files.
// Elements without a usable raster are absent from the map.
func (e *Exporter) Images(elements []model.Element, pages map[int]image.Image) map[string]image.Image {
	out := make(map[string]image.Image, len(elements))
	for _, el := range elements {
		img, ok := pages[el.Page]
		if !ok {
			continue
		}
		window := e.window(el, img.Bounds())
		if window.Empty() {
			continue
		}
		out[el.ID] = imaging.Crop(img, window)
	}
	return out
}

// window converts an element's page-space box to padded raster pixels,
// clamped to the page image.
func (e *Exporter) window(el model.Element, bounds image.Rectangle) image.Rectangle {
	b := e.mapper.ToRaster(el.BBox).Expand(e.config.Padding)
	r := image.Rect(
		int(math.Floor(b.Left())),
		int(math.Floor(b.Top())),
		int(math.Ceil(b.Right())),
		int(math.Ceil(b.Bottom())),
	)
	return r.Intersect(bounds)
}

// pageNumberPattern matches the trailing digits of an image file name,
// immediately before the extension.
var pageNumberPattern = regexp.MustCompile(`(\d+)\.[A-Za-z]+$`)

// LoadPageImages decodes every image in dir whose name ends in a page
// number and returns them keyed by that number. Files without a trailing
// number are ignored; two files claiming the same page is an error.
func LoadPageImages(dir string) (map[int]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("crop: read %s: %w", dir, err)
	}

	pages := make(map[int]image.Image)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageNumberPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil || page < 1 {
			continue
		}
		if _, dup := pages[page]; dup {
			return nil, fmt.Errorf("crop: page %d appears more than once in %s", page, dir)
		}
		img, err := imaging.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("crop: open %s: %w", entry.Name(), err)
		}
		pages[page] = img
	}
	return pages, nil
}
