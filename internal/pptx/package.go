package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	ctBase  = "application/vnd.openxmlformats-officedocument.presentationml."

	// ContentType is the media type of a .pptx file.
	ContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

type part struct {
	name string
	body string
}

type rel struct {
	id, typ, target string
}

func relsXML(rels []rel) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.typ, r.target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

// Bytes serializes the presentation.
func (p *Presentation) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the presentation as a zip package. Output is deterministic
// for a given Presentation, including Created.
func (p *Presentation) WriteTo(w io.Writer) (int64, error) {
	if len(p.Slides) == 0 {
		return 0, fmt.Errorf("pptx: presentation has no slides")
	}
	created := p.Created
	if created.IsZero() {
		created = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, pt := range p.parts(created) {
		hdr := &zip.FileHeader{Name: pt.name, Method: zip.Deflate, Modified: created}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return cw.n, fmt.Errorf("pptx: create %s: %w", pt.name, err)
		}
		if _, err := io.WriteString(fw, pt.body); err != nil {
			return cw.n, fmt.Errorf("pptx: write %s: %w", pt.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("pptx: close: %w", err)
	}
	return cw.n, nil
}

func (p *Presentation) parts(created time.Time) []part {
	n := len(p.Slides)
	parts := []part{
		{"[Content_Types].xml", p.contentTypesXML()},
		{"_rels/.rels", relsXML([]rel{
			{"rId1", relBase + "officeDocument", "ppt/presentation.xml"},
			{"rId2", "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", "docProps/core.xml"},
			{"rId3", relBase + "extended-properties", "docProps/app.xml"},
		})},
		{"docProps/core.xml", p.coreXML(created)},
		{"docProps/app.xml", p.appXML()},
		{"ppt/presentation.xml", p.presentationXML()},
	}

	presRels := []rel{{"rId1", relBase + "slideMaster", "slideMasters/slideMaster1.xml"}}
	for i := 0; i < n; i++ {
		presRels = append(presRels, rel{fmt.Sprintf("rId%d", i+2), relBase + "slide", fmt.Sprintf("slides/slide%d.xml", i+1)})
	}
	presRels = append(presRels,
		rel{fmt.Sprintf("rId%d", n+2), relBase + "presProps", "presProps.xml"},
		rel{fmt.Sprintf("rId%d", n+3), relBase + "viewProps", "viewProps.xml"},
		rel{fmt.Sprintf("rId%d", n+4), relBase + "theme", "theme/theme1.xml"},
		rel{fmt.Sprintf("rId%d", n+5), relBase + "tableStyles", "tableStyles.xml"},
	)
	parts = append(parts,
		part{"ppt/_rels/presentation.xml.rels", relsXML(presRels)},
		part{"ppt/presProps.xml", xmlHeader + `<p:presentationPr ` + nsDecl + `/>`},
		part{"ppt/viewProps.xml", xmlHeader + `<p:viewPr ` + nsDecl + `/>`},
		part{"ppt/tableStyles.xml", xmlHeader + `<a:tblStyleLst xmlns:a="` + nsA + `" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`},
		part{"ppt/theme/theme1.xml", themeXML},
		part{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		part{"ppt/slideMasters/_rels/slideMaster1.xml.rels", relsXML([]rel{
			{"rId1", relBase + "slideLayout", "../slideLayouts/slideLayout1.xml"},
			{"rId2", relBase + "theme", "../theme/theme1.xml"},
		})},
		part{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		part{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", relsXML([]rel{
			{"rId1", relBase + "slideMaster", "../slideMasters/slideMaster1.xml"},
		})},
	)
	for i, s := range p.Slides {
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideXML(s)},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), relsXML([]rel{
				{"rId1", relBase + "slideLayout", "../slideLayouts/slideLayout1.xml"},
			})},
		)
	}
	return parts
}

func (p *Presentation) contentTypesXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	override := func(name, ct string) {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, name, ct)
	}
	override("/ppt/presentation.xml", ctBase+"presentation.main+xml")
	override("/ppt/slideMasters/slideMaster1.xml", ctBase+"slideMaster+xml")
	override("/ppt/slideLayouts/slideLayout1.xml", ctBase+"slideLayout+xml")
	for i := range p.Slides {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", i+1), ctBase+"slide+xml")
	}
	override("/ppt/presProps.xml", ctBase+"presProps+xml")
	override("/ppt/viewProps.xml", ctBase+"viewProps+xml")
	override("/ppt/tableStyles.xml", ctBase+"tableStyles+xml")
	override("/ppt/theme/theme1.xml", "application/vnd.openxmlformats-officedocument.theme+xml")
	override("/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	override("/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml")
	b.WriteString(`</Types>`)
	return b.String()
}

func (p *Presentation) presentationXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation ` + nsDecl + ` saveSubsetFonts="1">`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst>`)
	for i := range p.Slides {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	b.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"`, emu(p.Layout.Width), emu(p.Layout.Height))
	if p.Layout.Name != "" {
		fmt.Fprintf(&b, ` type="%s"`, p.Layout.Name)
	}
	b.WriteString(`/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`)
	return b.String()
}

func (p *Presentation) coreXML(created time.Time) string {
	ts := created.UTC().Format(time.RFC3339)
	return xmlHeader +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"` +
		` xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + esc(p.Title) + `</dc:title>` +
		`<dc:creator>` + esc(p.Author) + `</dc:creator>` +
		`<cp:lastModifiedBy>` + esc(p.Author) + `</cp:lastModifiedBy>` +
		`<cp:revision>1</cp:revision>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func (p *Presentation) appXML() string {
	return xmlHeader +
		`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"` +
		` xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">` +
		`<Application>report-generator</Application>` +
		fmt.Sprintf(`<Slides>%d</Slides>`, len(p.Slides)) +
		`<Company>` + esc(p.Company) + `</Company>` +
		`<AppVersion>16.0000</AppVersion></Properties>`
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
