// Package pptx writes PresentationML (.pptx) files from a small in-memory
// deck model: solid backgrounds, text boxes, filled rectangles and tables.
// Positions and sizes are in inches.
package pptx

import "time"

// EMU per inch, the unit of every DrawingML coordinate.
const emuPerInch = 914400

// Layout16x9 is the 10 x 5.625 inch widescreen layout.
var Layout16x9 = Layout{Name: "screen16x9", Width: 10, Height: 5.625}

// Layout is the slide size.
type Layout struct {
	Name   string
	Width  float64
	Height float64
}

// Align values for paragraphs.
type Align string

const (
	AlignLeft   Align = "l"
	AlignCenter Align = "ctr"
	AlignRight  Align = "r"
)

// VAlign values for text anchoring.
type VAlign string

const (
	VAlignTop    VAlign = "t"
	VAlignMiddle VAlign = "ctr"
	VAlignBottom VAlign = "b"
)

// Presentation is a deck plus its document properties.
type Presentation struct {
	Layout  Layout
	Title   string
	Author  string
	Company string
	Created time.Time
	Slides  []*Slide
}

// New returns an empty 16:9 presentation.
func New() *Presentation {
	return &Presentation{Layout: Layout16x9}
}

// AddSlide appends a slide with a white background.
func (p *Presentation) AddSlide() *Slide {
	s := &Slide{Background: "FFFFFF"}
	p.Slides = append(p.Slides, s)
	return s
}

// Slide holds shapes in z-order.
type Slide struct {
	Background string
	Shapes     []Shape
}

// Shape is implemented by *TextBox, *Rect and *Table.
type Shape interface {
	bounds() (x, y, w, h float64)
}

// TextStyle describes a run of text.
type TextStyle struct {
	FontFace string
	Size     float64 // points
	Color    string
	Bold     bool
	Align    Align
	VAlign   VAlign
}

// TextBox is a single-paragraph text frame.
type TextBox struct {
	X, Y, W, H float64
	Text       string
	Style      TextStyle
	Fill       string
}

func (t *TextBox) bounds() (float64, float64, float64, float64) { return t.X, t.Y, t.W, t.H }

// Rect is a filled rectangle without outline.
type Rect struct {
	X, Y, W, H float64
	Fill       string
}

func (r *Rect) bounds() (float64, float64, float64, float64) { return r.X, r.Y, r.W, r.H }

// Cell is one table cell. Empty style fields fall back to the table style.
type Cell struct {
	Text        string
	Fill        string
	Color       string
	Bold        bool
	BorderColor string
	BorderPt    float64
}

// Table is a grid of cells. Rows shorter than the widest row are padded with
// empty cells when written.
type Table struct {
	X, Y, W     float64
	ColW        []float64
	RowH        float64
	Rows        [][]Cell
	Style       TextStyle
	BorderColor string
}

func (t *Table) bounds() (float64, float64, float64, float64) {
	return t.X, t.Y, t.W, t.RowH * float64(len(t.Rows))
}

// Columns is the width of the widest row.
func (t *Table) Columns() int {
	n := 0
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// AddText appends a text box.
func (s *Slide) AddText(text string, x, y, w, h float64, style TextStyle) *TextBox {
	tb := &TextBox{X: x, Y: y, W: w, H: h, Text: text, Style: style}
	s.Shapes = append(s.Shapes, tb)
	return tb
}

// AddRect appends a filled rectangle.
func (s *Slide) AddRect(x, y, w, h float64, fill string) *Rect {
	r := &Rect{X: x, Y: y, W: w, H: h, Fill: fill}
	s.Shapes = append(s.Shapes, r)
	return r
}

// AddTable appends a table.
func (s *Slide) AddTable(t *Table) *Table {
	s.Shapes = append(s.Shapes, t)
	return t
}

// Texts returns the text of every text box on the slide, in z-order.
func (s *Slide) Texts() []string {
	var out []string
	for _, sh := range s.Shapes {
		if tb, ok := sh.(*TextBox); ok {
			out = append(out, tb.Text)
		}
	}
	return out
}

// Tables returns the tables on the slide, in z-order.
func (s *Slide) Tables() []*Table {
	var out []*Table
	for _, sh := range s.Shapes {
		if t, ok := sh.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

func emu(in float64) int64 {
	return int64(in*emuPerInch + 0.5)
}
