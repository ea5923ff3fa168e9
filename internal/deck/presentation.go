package deck

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/files"
)

// Placeholder types that never carry a text frame on a new slide.
var nonTextPlaceholders = map[string]bool{
	"pic": true, "chart": true, "tbl": true, "dgm": true, "media": true, "clipArt": true,
}

// Placeholder types a new slide does not inherit from its layout.
var skippedPlaceholders = map[string]bool{
	"dt": true, "ftr": true, "sldNum": true,
}

var (
	slidePartRe  = regexp.MustCompile(`^(.*/)?slides/slide(\d+)\.xml$`)
	rootPrefixRe = regexp.MustCompile(`<(\w+:)?presentation[\s>]`)
	relsPrefixRe = regexp.MustCompile(`xmlns:(\w+)="` + regexp.QuoteMeta(nsOfficeRels) + `"`)
)

// LayoutInfo describes one layout of a template.
type LayoutInfo struct {
	Index        int
	Name         string
	Placeholders []int
}

type placeholder struct {
	idx    int
	hasIdx bool
	typ    string
	name   string
}

type layout struct {
	name         string
	part         string
	placeholders []placeholder
}

func (l *layout) placeholder(idx int) (placeholder, bool) {
	for _, ph := range l.placeholders {
		if ph.idx == idx {
			return ph, true
		}
	}
	return placeholder{}, false
}

// Presentation is a .pptx document built on top of a template.
type Presentation struct {
	pkg            *opcPackage
	presPart       string
	layouts        []*layout
	existingSlides int
	canvas         *Canvas
	slides         []*presentationSlide
}

// OpenPresentation loads a .pptx template from disk.
func OpenPresentation(path string) (*Presentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read template", err).
			WithContext(apperrors.ContextPath, path)
	}
	p, err := ReadPresentation(data)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok {
			appErr.WithContext(apperrors.ContextPath, path)
		}
		return nil, err
	}

	slog.Info("Opened presentation template",
		slog.String("path", path),
		slog.Int("layouts", len(p.layouts)),
		slog.Int("existing_slides", p.existingSlides))
	return p, nil
}

// ReadPresentation parses a .pptx package held in memory.
func ReadPresentation(data []byte) (*Presentation, error) {
	pkg, err := readPackage(data)
	if err != nil {
		return nil, apperrors.NewTemplateError("invalid presentation package", err)
	}

	rootRels, err := pkg.rels("")
	if err != nil {
		return nil, apperrors.NewTemplateError("invalid package relationships", err)
	}
	docRel, ok := rootRels.byType(relTypeOfficeDocument)
	if !ok {
		return nil, apperrors.NewTemplateError("package has no main document", nil)
	}
	presPart := resolveTarget("", docRel.Target)

	p := &Presentation{pkg: pkg, presPart: presPart}
	if err := p.loadLayouts(); err != nil {
		return nil, err
	}
	return p, nil
}

type relID struct {
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

// slideIDXML keeps every attribute of a p:sldId. A plain `xml:"id,attr"`
// tag would also match r:id, so the unqualified id is picked out by hand.
type slideIDXML struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func (s slideIDXML) id() uint32 {
	for _, a := range s.Attrs {
		if a.Name.Space == "" && a.Name.Local == "id" {
			if n, err := strconv.ParseUint(a.Value, 10, 32); err == nil {
				return uint32(n)
			}
		}
	}
	return 0
}

type presentationXML struct {
	MasterIDs []relID      `xml:"sldMasterIdLst>sldMasterId"`
	SlideIDs  []slideIDXML `xml:"sldIdLst>sldId"`
}

type masterXML struct {
	LayoutIDs []relID `xml:"sldLayoutIdLst>sldLayoutId"`
}

type layoutXML struct {
	CSld struct {
		Name   string `xml:"name,attr"`
		Shapes []struct {
			NvSpPr struct {
				CNvPr struct {
					Name string `xml:"name,attr"`
				} `xml:"cNvPr"`
				NvPr struct {
					Ph *struct {
						Type string `xml:"type,attr"`
						Idx  string `xml:"idx,attr"`
					} `xml:"ph"`
				} `xml:"nvPr"`
			} `xml:"nvSpPr"`
		} `xml:"spTree>sp"`
	} `xml:"cSld"`
}

func (p *Presentation) loadLayouts() error {
	data, ok := p.pkg.part(p.presPart)
	if !ok {
		return apperrors.NewTemplateError(fmt.Sprintf("missing part %s", p.presPart), nil)
	}
	var pres presentationXML
	if err := xml.Unmarshal(data, &pres); err != nil {
		return apperrors.NewTemplateError("invalid presentation part", err)
	}
	p.existingSlides = len(pres.SlideIDs)
	if len(pres.MasterIDs) == 0 {
		return apperrors.NewTemplateError("template has no slide master", nil)
	}

	presRels, err := p.pkg.rels(p.presPart)
	if err != nil {
		return apperrors.NewTemplateError("invalid presentation relationships", err)
	}
	masterRel, ok := presRels.byID(pres.MasterIDs[0].RID)
	if !ok {
		return apperrors.NewTemplateError("slide master relationship not found", nil)
	}
	masterPart := resolveTarget(p.presPart, masterRel.Target)

	masterData, ok := p.pkg.part(masterPart)
	if !ok {
		return apperrors.NewTemplateError(fmt.Sprintf("missing part %s", masterPart), nil)
	}
	var master masterXML
	if err := xml.Unmarshal(masterData, &master); err != nil {
		return apperrors.NewTemplateError("invalid slide master", err)
	}
	masterRels, err := p.pkg.rels(masterPart)
	if err != nil {
		return apperrors.NewTemplateError("invalid slide master relationships", err)
	}

	for _, id := range master.LayoutIDs {
		rel, ok := masterRels.byID(id.RID)
		if !ok {
			return apperrors.NewTemplateError(fmt.Sprintf("layout relationship %s not found", id.RID), nil)
		}
		l, err := p.parseLayout(resolveTarget(masterPart, rel.Target))
		if err != nil {
			return err
		}
		p.layouts = append(p.layouts, l)
	}
	return nil
}

func (p *Presentation) parseLayout(part string) (*layout, error) {
	data, ok := p.pkg.part(part)
	if !ok {
		return nil, apperrors.NewTemplateError(fmt.Sprintf("missing part %s", part), nil)
	}
	var lx layoutXML
	if err := xml.Unmarshal(data, &lx); err != nil {
		return nil, apperrors.NewTemplateError(fmt.Sprintf("invalid layout %s", part), err)
	}

	l := &layout{name: lx.CSld.Name, part: part}
	for _, sp := range lx.CSld.Shapes {
		ph := sp.NvSpPr.NvPr.Ph
		if ph == nil || skippedPlaceholders[ph.Type] {
			continue
		}
		entry := placeholder{typ: ph.Type, name: sp.NvSpPr.CNvPr.Name}
		if ph.Idx != "" {
			idx, err := strconv.Atoi(ph.Idx)
			if err != nil {
				return nil, apperrors.NewTemplateError(fmt.Sprintf("invalid placeholder idx %q in %s", ph.Idx, part), err)
			}
			entry.idx, entry.hasIdx = idx, true
		}
		l.placeholders = append(l.placeholders, entry)
	}
	return l, nil
}

// LayoutCount returns the number of layouts of the first slide master.
func (p *Presentation) LayoutCount() int {
	return len(p.layouts)
}

// Layouts describes the template layouts in selection order.
func (p *Presentation) Layouts() []LayoutInfo {
	infos := make([]LayoutInfo, 0, len(p.layouts))
	for i, l := range p.layouts {
		info := LayoutInfo{Index: i, Name: l.name}
		for _, ph := range l.placeholders {
			info.Placeholders = append(info.Placeholders, ph.idx)
		}
		infos = append(infos, info)
	}
	return infos
}

// SlideCount returns the number of slides the saved document will hold,
// including any already present in the template.
func (p *Presentation) SlideCount() int {
	return p.existingSlides + len(p.slides)
}

// SetCanvasSize fixes the slide size written on Save.
func (p *Presentation) SetCanvasSize(c Canvas) {
	p.canvas = &c
}

// AddSlide appends a slide cloned from the placeholders of layout.
func (p *Presentation) AddSlide(layout int) (Slide, error) {
	if layout < 0 || layout >= len(p.layouts) {
		return nil, apperrors.NewUnknownLayoutError(layout, len(p.layouts))
	}
	s := &presentationSlide{
		layout: p.layouts[layout],
		texts:  make(map[int]slideText),
	}
	p.slides = append(p.slides, s)
	return s, nil
}

// Save writes the presentation to path atomically.
func (p *Presentation) Save(path string) error {
	out, err := p.render()
	if err != nil {
		return err
	}
	if err := files.WriteAtomic(path, out.write); err != nil {
		return apperrors.NewStorageError("failed to save presentation", err).
			WithContext(apperrors.ContextPath, path)
	}
	slog.Info("Saved presentation",
		slog.String("path", path),
		slog.Int("slides", p.SlideCount()))
	return nil
}

// WriteTo streams the presentation package to w.
func (p *Presentation) WriteTo(w io.Writer) (int64, error) {
	out, err := p.render()
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}
	err = out.write(cw)
	return cw.n, err
}

// render produces a new package with the added slides. The template package
// itself is never modified so Save can be repeated.
func (p *Presentation) render() (*opcPackage, error) {
	out := p.pkg.clone()

	ct, err := out.contentTypes()
	if err != nil {
		return nil, apperrors.NewTemplateError("invalid content types", err)
	}
	ct.ensureDefault("rels", ctRelationships)
	ct.ensureDefault("xml", "application/xml")

	presRels, err := out.rels(p.presPart)
	if err != nil {
		return nil, apperrors.NewTemplateError("invalid presentation relationships", err)
	}
	presData, _ := out.part(p.presPart)

	var pres presentationXML
	if err := xml.Unmarshal(presData, &pres); err != nil {
		return nil, apperrors.NewTemplateError("invalid presentation part", err)
	}
	nextID := uint32(256)
	for _, s := range pres.SlideIDs {
		if id := s.id(); id >= nextID {
			nextID = id + 1
		}
	}

	slideNum := 0
	for _, name := range out.order {
		if m := slidePartRe.FindStringSubmatch(name); m != nil {
			if n, _ := strconv.Atoi(m[2]); n > slideNum {
				slideNum = n
			}
		}
	}

	prefix, relPrefix, err := namespacePrefixes(presData)
	if err != nil {
		return nil, err
	}

	slidesDir := path.Join(path.Dir(p.presPart), "slides")
	var entries strings.Builder
	for _, s := range p.slides {
		slideNum++
		part := fmt.Sprintf("%s/slide%d.xml", slidesDir, slideNum)

		out.put(part, s.xml())
		slideRels := &relationships{}
		slideRels.add(relTypeSlideLayout, relativeTarget(part, s.layout.part))
		if err := out.setRels(part, slideRels); err != nil {
			return nil, apperrors.NewTemplateError("failed to write slide relationships", err)
		}
		ct.override(part, ctSlide)

		rid := presRels.add(relTypeSlide, relativeTarget(p.presPart, part))
		fmt.Fprintf(&entries, `<%ssldId id="%d" %s:id="%s"/>`, prefix, nextID, relPrefix, rid)
		nextID++
	}

	presData, err = insertSlideIDs(presData, prefix, entries.String())
	if err != nil {
		return nil, err
	}
	if p.canvas != nil {
		presData, err = setSlideSize(presData, prefix, *p.canvas)
		if err != nil {
			return nil, err
		}
	}
	out.put(p.presPart, presData)

	if err := out.setRels(p.presPart, presRels); err != nil {
		return nil, apperrors.NewTemplateError("failed to write presentation relationships", err)
	}
	if err := out.setContentTypes(ct); err != nil {
		return nil, apperrors.NewTemplateError("failed to write content types", err)
	}
	return out, nil
}

func namespacePrefixes(doc []byte) (prefix, relPrefix string, err error) {
	m := rootPrefixRe.FindSubmatch(doc)
	if m == nil {
		return "", "", apperrors.NewTemplateError("presentation root element not found", nil)
	}
	prefix = string(m[1])

	r := relsPrefixRe.FindSubmatch(doc)
	if r == nil {
		return "", "", apperrors.NewTemplateError("presentation does not declare the relationships namespace", nil)
	}
	return prefix, string(r[1]), nil
}

func insertSlideIDs(doc []byte, prefix, entries string) ([]byte, error) {
	if entries == "" {
		return doc, nil
	}
	closeTag := []byte("</" + prefix + "sldIdLst>")
	if i := bytes.Index(doc, closeTag); i >= 0 {
		return splice(doc, i, i, entries), nil
	}

	list := "<" + prefix + "sldIdLst>" + entries + string(closeTag)
	empty := regexp.MustCompile(`<` + regexp.QuoteMeta(prefix) + `sldIdLst\s*/>`)
	if loc := empty.FindIndex(doc); loc != nil {
		return splice(doc, loc[0], loc[1], list), nil
	}
	for _, anchor := range []string{"sldSz", "notesSz"} {
		if i := bytes.Index(doc, []byte("<"+prefix+anchor)); i >= 0 {
			return splice(doc, i, i, list), nil
		}
	}
	return nil, apperrors.NewTemplateError("cannot locate slide list in presentation part", nil)
}

func setSlideSize(doc []byte, prefix string, c Canvas) ([]byte, error) {
	size := fmt.Sprintf(`<%ssldSz cx="%d" cy="%d"/>`, prefix, c.Width, c.Height)
	existing := regexp.MustCompile(`<` + regexp.QuoteMeta(prefix) + `sldSz\b[^>]*/>`)
	if loc := existing.FindIndex(doc); loc != nil {
		return splice(doc, loc[0], loc[1], size), nil
	}
	if i := bytes.Index(doc, []byte("<"+prefix+"notesSz")); i >= 0 {
		return splice(doc, i, i, size), nil
	}
	return nil, apperrors.NewTemplateError("cannot locate slide size in presentation part", nil)
}

func splice(doc []byte, from, to int, insert string) []byte {
	out := make([]byte, 0, len(doc)+len(insert))
	out = append(out, doc[:from]...)
	out = append(out, insert...)
	return append(out, doc[to:]...)
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
