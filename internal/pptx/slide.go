package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	nsDecl    = `xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`

	emptyGroup = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/>` +
		`<a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

	defaultBorder = "CBD5E1"
	tableURI      = "http://schemas.openxmlformats.org/drawingml/2006/table"
)

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// slideXML renders one slide part.
func slideXML(s *Slide) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sld ` + nsDecl + `><p:cSld>`)
	if s.Background != "" {
		fmt.Fprintf(&b, `<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`, s.Background)
	}
	b.WriteString(`<p:spTree>` + emptyGroup)
	for i, sh := range s.Shapes {
		id := i + 2
		switch v := sh.(type) {
		case *TextBox:
			writeTextBox(&b, id, v)
		case *Rect:
			writeRect(&b, id, v)
		case *Table:
			writeTable(&b, id, v)
		}
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

func writeXfrm(b *strings.Builder, tag string, x, y, w, h float64) {
	fmt.Fprintf(b, `<%s><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></%s>`,
		tag, emu(x), emu(y), emu(w), emu(h), tag)
}

func writeFill(b *strings.Builder, color string) {
	if color == "" {
		b.WriteString(`<a:noFill/>`)
		return
	}
	fmt.Fprintf(b, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, color)
}

func writeTextBox(b *strings.Builder, id int, t *TextBox) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Text %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr>`, id, id-1)
	writeXfrm(b, "a:xfrm", t.X, t.Y, t.W, t.H)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`)
	writeFill(b, t.Fill)
	b.WriteString(`</p:spPr><p:txBody>`)
	anchor := t.Style.VAlign
	if anchor == "" {
		anchor = VAlignTop
	}
	fmt.Fprintf(b, `<a:bodyPr wrap="square" lIns="91440" tIns="45720" rIns="91440" bIns="45720" rtlCol="0" anchor="%s"><a:noAutofit/></a:bodyPr><a:lstStyle/>`, anchor)
	writeParagraph(b, t.Text, t.Style)
	b.WriteString(`</p:txBody></p:sp>`)
}

func writeRect(b *strings.Builder, id int, r *Rect) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Rectangle %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr>`, id, id-1)
	writeXfrm(b, "a:xfrm", r.X, r.Y, r.W, r.H)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`)
	writeFill(b, r.Fill)
	b.WriteString(`<a:ln><a:noFill/></a:ln></p:spPr></p:sp>`)
}

func writeParagraph(b *strings.Builder, text string, st TextStyle) {
	align := st.Align
	if align == "" {
		align = AlignLeft
	}
	fmt.Fprintf(b, `<a:p><a:pPr algn="%s"/>`, align)
	rpr := runProps(st)
	if text != "" {
		fmt.Fprintf(b, `<a:r><a:rPr %s</a:rPr><a:t>%s</a:t></a:r>`, rpr, esc(text))
	}
	fmt.Fprintf(b, `<a:endParaRPr %s</a:endParaRPr></a:p>`, rpr)
}

// runProps returns the attributes and children of an rPr element, without
// the element name, ending just before the closing tag.
func runProps(st TextStyle) string {
	var b strings.Builder
	b.WriteString(`lang="ja-JP" altLang="en-US"`)
	if st.Size > 0 {
		fmt.Fprintf(&b, ` sz="%d"`, int(st.Size*100+0.5))
	}
	if st.Bold {
		b.WriteString(` b="1"`)
	}
	b.WriteString(` dirty="0">`)
	if st.Color != "" {
		fmt.Fprintf(&b, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, st.Color)
	}
	if st.FontFace != "" {
		face := esc(st.FontFace)
		fmt.Fprintf(&b, `<a:latin typeface="%s"/><a:ea typeface="%s"/><a:cs typeface="%s"/>`, face, face, face)
	}
	return b.String()
}

func writeTable(b *strings.Builder, id int, t *Table) {
	cols := t.Columns()
	if cols == 0 {
		return
	}
	widths := t.columnWidths(cols)
	rowH := t.RowH
	if rowH <= 0 {
		rowH = 0.4
	}
	total := 0.0
	for _, w := range widths {
		total += w
	}

	fmt.Fprintf(b, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Table %d"/>`+
		`<p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>`, id, id-1)
	writeXfrm(b, "p:xfrm", t.X, t.Y, total, rowH*float64(len(t.Rows)))
	b.WriteString(`<a:graphic><a:graphicData uri="` + tableURI + `"><a:tbl><a:tblPr firstRow="1" bandRow="1"/><a:tblGrid>`)
	for _, w := range widths {
		fmt.Fprintf(b, `<a:gridCol w="%d"/>`, emu(w))
	}
	b.WriteString(`</a:tblGrid>`)

	border := t.BorderColor
	if border == "" {
		border = defaultBorder
	}
	for _, row := range t.Rows {
		fmt.Fprintf(b, `<a:tr h="%d">`, emu(rowH))
		for c := 0; c < cols; c++ {
			var cell Cell
			if c < len(row) {
				cell = row[c]
			}
			writeCell(b, cell, t.Style, border)
		}
		b.WriteString(`</a:tr>`)
	}
	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
}

func (t *Table) columnWidths(cols int) []float64 {
	widths := make([]float64, cols)
	if len(t.ColW) == cols {
		copy(widths, t.ColW)
		return widths
	}
	w := t.W
	if w <= 0 {
		w = 9
	}
	for i := range widths {
		widths[i] = w / float64(cols)
	}
	return widths
}

func writeCell(b *strings.Builder, c Cell, base TextStyle, border string) {
	st := base
	if c.Color != "" {
		st.Color = c.Color
	}
	st.Bold = base.Bold || c.Bold
	anchor := base.VAlign
	if anchor == "" {
		anchor = VAlignMiddle
	}

	b.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/>`)
	writeParagraph(b, c.Text, st)
	fmt.Fprintf(b, `</a:txBody><a:tcPr marL="91440" marR="91440" marT="45720" marB="45720" anchor="%s">`, anchor)

	lineColor, lineW := border, int64(12700)
	if c.BorderColor != "" {
		lineColor = c.BorderColor
	}
	if c.BorderPt > 0 {
		lineW = int64(c.BorderPt*12700 + 0.5)
	}
	for _, side := range []string{"lnL", "lnR", "lnT", "lnB"} {
		fmt.Fprintf(b, `<a:%s w="%d" cap="flat" cmpd="sng" algn="ctr"><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:prstDash val="solid"/></a:%s>`,
			side, lineW, lineColor, side)
	}
	writeFill(b, c.Fill)
	b.WriteString(`</a:tcPr></a:tc>`)
}
