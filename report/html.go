package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/net/html"

	"github.com/zebehn/docscalpel/model"
)

// thumbnailWidth is the widest a rendered element preview gets, in pixels.
const thumbnailWidth = 160

const styleSheet = `
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #222; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; vertical-align: top; }
th { background: #f2f2f2; }
.meta { color: #666; }
img { display: block; max-width: 160px; }
`

// SaveHTML renders the report and writes it to path.
func SaveHTML(path string, data Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := WriteHTML(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteHTML renders the report as a standalone HTML page.
func WriteHTML(w io.Writer, data Data) error {
	body := el("body",
		el("h1", text(data.displayTitle())),
		metaLine(data),
		summaryTable(data),
		elementsSection(data),
	)
	if len(data.Gaps) > 0 {
		body.AppendChild(gapsSection(data))
	}
	if len(data.Warnings) > 0 {
		body.AppendChild(listSection("Warnings", data.Warnings))
	}
	if len(data.Notes) > 0 {
		body.AppendChild(listSection("Notes", data.Notes))
	}

	head := el("head",
		withAttr(el("meta"), "charset", "utf-8"),
		el("title", text(data.displayTitle())),
		el("style", text(styleSheet)),
	)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(el("html", head, body))
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

func metaLine(data Data) *html.Node {
	parts := []string{
		fmt.Sprintf("%d pages", data.Pages),
		fmt.Sprintf("%d elements", len(data.Elements)),
	}
	if data.Source != "" {
		parts = append([]string{data.Source}, parts...)
	}
	if data.Elapsed > 0 {
		parts = append(parts, data.Elapsed.Round(time.Millisecond).String())
	}
	return withAttr(el("p", text(strings.Join(parts, " · "))), "class", "meta")
}

func summaryTable(data Data) *html.Node {
	table := el("table",
		el("tr", el("th", text("Type")), el("th", text("Elements")), el("th", text("Reserved slots"))),
	)
	for _, et := range model.ElementTypes() {
		table.AppendChild(el("tr",
			el("td", text(et.String())),
			el("td", text(strconv.Itoa(data.elementCount(et)))),
			el("td", text(strconv.Itoa(data.gapCount(et)))),
		))
	}
	return el("section", el("h2", text("Summary")), table)
}

func elementsSection(data Data) *html.Node {
	withThumbs := len(data.Images) > 0

	header := el("tr")
	if withThumbs {
		header.AppendChild(el("th", text("Preview")))
	}
	for _, h := range []string{"Type", "#", "Page", "Box (x, y, w, h)", "Confidence", "Sources"} {
		header.AppendChild(el("th", text(h)))
	}

	table := el("table", header)
	for _, e := range data.Elements {
		row := el("tr")
		if withThumbs {
			row.AppendChild(previewCell(data.Images[e.ID], fmt.Sprintf("%s %d", e.Type, e.SequenceNumber)))
		}
		row.AppendChild(el("td", text(e.Type.String())))
		row.AppendChild(el("td", text(strconv.Itoa(e.SequenceNumber))))
		row.AppendChild(el("td", text(strconv.Itoa(e.Page))))
		row.AppendChild(el("td", text(formatBox(e.BBox))))
		row.AppendChild(el("td", text(fmt.Sprintf("%.2f", e.Confidence))))
		row.AppendChild(el("td", text(strings.Join(e.SourceDetectionIDs, ", "))))
		table.AppendChild(row)
	}
	return el("section", el("h2", text("Elements")), table)
}

func previewCell(img image.Image, alt string) *html.Node {
	cell := el("td")
	if img == nil {
		return cell
	}
	uri, err := thumbnailDataURI(img)
	if err != nil {
		return cell
	}
	cell.AppendChild(withAttr(withAttr(el("img"), "src", uri), "alt", alt))
	return cell
}

func gapsSection(data Data) *html.Node {
	table := el("table",
		el("tr", el("th", text("Type")), el("th", text("Number")), el("th", text("Sequence")), el("th", text("Referenced on page"))),
	)
	for _, g := range data.Gaps {
		table.AppendChild(el("tr",
			el("td", text(g.Type.String())),
			el("td", text(strconv.Itoa(g.Number))),
			el("td", text(strconv.Itoa(g.SequenceNumber))),
			el("td", text(strconv.Itoa(g.Page))),
		))
	}
	return el("section", el("h2", text("Reserved slots")), table)
}

func listSection(title string, items []string) *html.Node {
	list := el("ul")
	for _, item := range items {
		list.AppendChild(el("li", text(item)))
	}
	return el("section", el("h2", text(title)), list)
}

func formatBox(b model.BoundingBox) string {
	return fmt.Sprintf("%.1f, %.1f, %.1f, %.1f", b.X, b.Y, b.Width, b.Height)
}

// thumbnailDataURI scales the image to the preview width and inlines it as
// a base64 PNG data URI.
func thumbnailDataURI(src image.Image) (string, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", fmt.Errorf("report: empty image")
	}

	w := thumbnailWidth
	if b.Dx() < w {
		w = b.Dx()
	}
	h := b.Dy() * w / b.Dx()
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", fmt.Errorf("report: encode thumbnail: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func el(tag string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func withAttr(n *html.Node, key, val string) *html.Node {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
