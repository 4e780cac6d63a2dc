// Package pdfio provides read access to PDF documents: validation, page
// geometry, and positioned text runs for the consolidation pipeline.
//
// Coordinates returned by this package are in page space with the origin at
// the top-left corner and y growing downward, matching the rest of the
// module. PDF-native bottom-up coordinates are converted on the way out.
package pdfio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Sentinel errors for document validation and loading.
var (
	ErrNotFound  = errors.New("pdfio: file not found")
	ErrEmptyFile = errors.New("pdfio: file is empty")
	ErrEncrypted = errors.New("pdfio: document is encrypted")
	ErrNoPages   = errors.New("pdfio: document has no pages")
)

const (
	// US-Letter defaults for pages without a usable MediaBox.
	letterWidth  = 612.0
	letterHeight = 792.0

	// Files above this size get a validation warning.
	largeFileBytes = 500 << 20
)

// ValidationResult describes a document that passed validation.
type ValidationResult struct {
	Path      string
	SizeBytes int64
	Pages     int
	Warnings  []string
}

// Validate checks that path names a readable, non-empty, unencrypted PDF
// with at least one page. Failures wrap the package sentinels.
func Validate(path string) (*ValidationResult, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pdfio: stat %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		if looksEncrypted(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrEncrypted)
		}
		return nil, fmt.Errorf("pdfio: open %s: %w", path, err)
	}
	defer f.Close()

	res := &ValidationResult{Path: path, SizeBytes: fi.Size(), Pages: reader.NumPage()}
	if res.Pages == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}
	if fi.Size() > largeFileBytes {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"file is %d MB; processing may be slow", fi.Size()>>20))
	}
	return res, nil
}

// Info holds document-level metadata.
type Info struct {
	Title    string
	Author   string
	Creator  string
	Producer string
	Pages    int
}

// PageInfo holds one page's geometry. Width and height account for the
// page's rotation entry.
type PageInfo struct {
	Number   int
	Width    float64
	Height   float64
	Rotation int
}

// Document is an open PDF. Close releases the underlying file.
type Document struct {
	path   string
	file   *os.File
	reader *pdf.Reader
	info   Info
	pages  []PageInfo
}

// Load opens the document at path and reads its metadata and page geometry.
// When maxPages is positive, only the first maxPages pages are exposed.
func Load(path string, maxPages int) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		if looksEncrypted(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrEncrypted)
		}
		return nil, fmt.Errorf("pdfio: open %s: %w", path, err)
	}

	total := reader.NumPage()
	if total == 0 {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}
	count := total
	if maxPages > 0 && maxPages < count {
		count = maxPages
	}

	d := &Document{path: path, file: f, reader: reader}
	d.info = readInfo(reader)
	d.info.Pages = total
	for i := 1; i <= count; i++ {
		w, h, rot := pageGeometry(reader.Page(i))
		d.pages = append(d.pages, PageInfo{Number: i, Width: w, Height: h, Rotation: rot})
	}
	return d, nil
}

// Close releases the document's file handle.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Path returns the file path the document was loaded from.
func (d *Document) Path() string { return d.path }

// Info returns the document's metadata.
func (d *Document) Info() Info { return d.info }

// PageCount returns the number of exposed pages. This is less than the
// document's total when Load capped the page count.
func (d *Document) PageCount() int { return len(d.pages) }

// Pages returns geometry for every exposed page, in page order.
func (d *Document) Pages() []PageInfo {
	out := make([]PageInfo, len(d.pages))
	copy(out, d.pages)
	return out
}

// Page returns geometry for the 1-based page n.
func (d *Document) Page(n int) (PageInfo, error) {
	if n < 1 || n > len(d.pages) {
		return PageInfo{}, fmt.Errorf("pdfio: page %d out of range 1..%d", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// readInfo pulls document metadata out of the trailer's Info dictionary.
func readInfo(reader *pdf.Reader) Info {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return Info{}
	}
	return Info{
		Title:    info.Key("Title").Text(),
		Author:   info.Key("Author").Text(),
		Creator:  info.Key("Creator").Text(),
		Producer: info.Key("Producer").Text(),
	}
}

// pageGeometry reads a page's MediaBox and rotation, falling back to
// US-Letter when the box is missing or degenerate.
func pageGeometry(page pdf.Page) (width, height float64, rotation int) {
	width, height = letterWidth, letterHeight
	if page.V.IsNull() {
		return width, height, 0
	}

	box := inherited(page.V, "MediaBox")
	if !box.IsNull() && box.Len() == 4 {
		llx := box.Index(0).Float64()
		lly := box.Index(1).Float64()
		urx := box.Index(2).Float64()
		ury := box.Index(3).Float64()
		if urx > llx && ury > lly {
			width = urx - llx
			height = ury - lly
		}
	}

	if rot := inherited(page.V, "Rotate"); !rot.IsNull() {
		rotation = int(rot.Int64()) % 360
		if rotation < 0 {
			rotation += 360
		}
	}
	if rotation == 90 || rotation == 270 {
		width, height = height, width
	}
	return width, height, rotation
}

// inherited resolves a page attribute, walking up the page tree when the
// page's own dictionary does not carry it.
func inherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if attr := v.Key(key); !attr.IsNull() {
			return attr
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// looksEncrypted reports whether err indicates an encrypted document.
func looksEncrypted(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}
