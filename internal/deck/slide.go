package deck

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	apperrors "thumbdeck/internal/errors"
)

const slideHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
	`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

const slideFooter = `</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`

type slideText struct {
	text string
	size Points
}

type presentationSlide struct {
	layout *layout
	texts  map[int]slideText
}

// SetPlaceholderText sets the text of the placeholder with the given idx.
func (s *presentationSlide) SetPlaceholderText(idx int, text string, size Points) error {
	ph, ok := s.layout.placeholder(idx)
	if !ok {
		return apperrors.NewTemplateError(
			fmt.Sprintf("placeholder %d not found on layout %q", idx, s.layout.name), nil).
			WithContext("placeholder", idx)
	}
	if nonTextPlaceholders[ph.typ] {
		return apperrors.NewTemplateError(
			fmt.Sprintf("placeholder %d on layout %q does not hold text", idx, s.layout.name), nil).
			WithContext("placeholder", idx)
	}
	s.texts[idx] = slideText{text: text, size: size}
	return nil
}

func (s *presentationSlide) xml() []byte {
	var b bytes.Buffer
	b.WriteString(slideHeader)
	for i, ph := range s.layout.placeholders {
		b.WriteString(`<p:sp><p:nvSpPr>`)
		fmt.Fprintf(&b, `<p:cNvPr id="%d" name="%s"/>`, i+2, escape(ph.name))
		b.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph`)
		if ph.typ != "" {
			fmt.Fprintf(&b, ` type="%s"`, escape(ph.typ))
		}
		if ph.hasIdx {
			fmt.Fprintf(&b, ` idx="%d"`, ph.idx)
		}
		b.WriteString(`/></p:nvPr></p:nvSpPr><p:spPr/>`)
		if !nonTextPlaceholders[ph.typ] {
			writeTextBody(&b, s.texts[ph.idx], s.texts[ph.idx] != (slideText{}))
		}
		b.WriteString(`</p:sp>`)
	}
	b.WriteString(slideFooter)
	return b.Bytes()
}

// writeTextBody emits one paragraph per line. Empty lines keep the font size
// on the paragraph end so blank lines render at the same height.
func writeTextBody(b *bytes.Buffer, t slideText, set bool) {
	b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	if !set {
		b.WriteString(`<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p></p:txBody>`)
		return
	}
	sz := int(t.size * 100)
	for _, line := range strings.Split(t.text, "\n") {
		if line == "" {
			fmt.Fprintf(b, `<a:p><a:endParaRPr lang="en-US" sz="%d" dirty="0"/></a:p>`, sz)
			continue
		}
		fmt.Fprintf(b, `<a:p><a:r><a:rPr lang="en-US" sz="%d" dirty="0"/><a:t>%s</a:t></a:r></a:p>`, sz, escape(line))
	}
	b.WriteString(`</p:txBody>`)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
