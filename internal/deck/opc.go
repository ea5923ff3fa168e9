package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

const (
	nsOfficeRels = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeOfficeDocument = nsOfficeRels + "/officeDocument"
	relTypeSlide          = nsOfficeRels + "/slide"
	relTypeSlideLayout    = nsOfficeRels + "/slideLayout"
	relTypeSlideMaster    = nsOfficeRels + "/slideMaster"
	relTypeTheme          = nsOfficeRels + "/theme"

	contentTypesPart = "[Content_Types].xml"

	ctRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ctPresentation  = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide         = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctSlideLayout   = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctSlideMaster   = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctTheme         = "application/vnd.openxmlformats-officedocument.theme+xml"
)

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

type relationships struct {
	XMLName xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Items   []relationship `xml:"Relationship"`
}

// byType returns the first relationship of the given type.
func (r *relationships) byType(relType string) (relationship, bool) {
	for _, rel := range r.Items {
		if rel.Type == relType {
			return rel, true
		}
	}
	return relationship{}, false
}

func (r *relationships) byID(id string) (relationship, bool) {
	for _, rel := range r.Items {
		if rel.ID == id {
			return rel, true
		}
	}
	return relationship{}, false
}

// nextID returns an unused rIdN identifier.
func (r *relationships) nextID() string {
	max := 0
	for _, rel := range r.Items {
		if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && n > max {
			max = n
		}
	}
	return "rId" + strconv.Itoa(max+1)
}

func (r *relationships) add(relType, target string) string {
	id := r.nextID()
	r.Items = append(r.Items, relationship{ID: id, Type: relType, Target: target})
	return id
}

type ctDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypes struct {
	XMLName   xml.Name     `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []ctDefault  `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

func (c *contentTypes) override(partName, contentType string) {
	partName = "/" + strings.TrimPrefix(partName, "/")
	for i, o := range c.Overrides {
		if strings.EqualFold(o.PartName, partName) {
			c.Overrides[i].ContentType = contentType
			return
		}
	}
	c.Overrides = append(c.Overrides, ctOverride{PartName: partName, ContentType: contentType})
}

func (c *contentTypes) ensureDefault(ext, contentType string) {
	for _, d := range c.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return
		}
	}
	c.Defaults = append(c.Defaults, ctDefault{Extension: ext, ContentType: contentType})
}

// opcPackage is an in-memory Open Packaging Conventions archive. Part names
// are stored without the leading slash, in archive order.
type opcPackage struct {
	order []string
	parts map[string][]byte
}

func newPackage() *opcPackage {
	return &opcPackage{parts: make(map[string][]byte)}
}

func readPackage(data []byte) (*opcPackage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a zip package: %w", err)
	}

	pkg := newPackage()
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		pkg.put(f.Name, body)
	}
	return pkg, nil
}

func (p *opcPackage) clone() *opcPackage {
	out := &opcPackage{
		order: append([]string(nil), p.order...),
		parts: make(map[string][]byte, len(p.parts)),
	}
	for k, v := range p.parts {
		out.parts[k] = v
	}
	return out
}

func (p *opcPackage) put(name string, data []byte) {
	name = strings.TrimPrefix(name, "/")
	if _, ok := p.parts[name]; !ok {
		p.order = append(p.order, name)
	}
	p.parts[name] = data
}

func (p *opcPackage) part(name string) ([]byte, bool) {
	data, ok := p.parts[strings.TrimPrefix(name, "/")]
	return data, ok
}

func (p *opcPackage) rels(source string) (*relationships, error) {
	rels := &relationships{}
	data, ok := p.part(relsPath(source))
	if !ok {
		return rels, nil
	}
	if err := xml.Unmarshal(data, rels); err != nil {
		return nil, fmt.Errorf("parse relationships of %q: %w", source, err)
	}
	return rels, nil
}

func (p *opcPackage) setRels(source string, rels *relationships) error {
	data, err := marshalXML(rels)
	if err != nil {
		return err
	}
	p.put(relsPath(source), data)
	return nil
}

func (p *opcPackage) contentTypes() (*contentTypes, error) {
	ct := &contentTypes{}
	data, ok := p.part(contentTypesPart)
	if !ok {
		return nil, fmt.Errorf("package has no %s", contentTypesPart)
	}
	if err := xml.Unmarshal(data, ct); err != nil {
		return nil, fmt.Errorf("parse content types: %w", err)
	}
	return ct, nil
}

func (p *opcPackage) setContentTypes(ct *contentTypes) error {
	data, err := marshalXML(ct)
	if err != nil {
		return err
	}
	p.put(contentTypesPart, data)
	return nil
}

// write streams the package as a zip archive with the content types part first.
func (p *opcPackage) write(w io.Writer) error {
	zw := zip.NewWriter(w)

	names := make([]string, 0, len(p.order))
	if _, ok := p.parts[contentTypesPart]; ok {
		names = append(names, contentTypesPart)
	}
	for _, name := range p.order {
		if name != contentTypesPart {
			names = append(names, name)
		}
	}

	for _, name := range names {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := fw.Write(p.parts[name]); err != nil {
			return fmt.Errorf("write part %s: %w", name, err)
		}
	}
	return zw.Close()
}

func marshalXML(v interface{}) ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// relsPath returns the relationships part that belongs to source. The
// package itself is the empty source.
func relsPath(source string) string {
	dir, base := path.Split(strings.TrimPrefix(source, "/"))
	return dir + "_rels/" + base + ".rels"
}

// resolveTarget turns a relationship target into an absolute part name.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(strings.TrimPrefix(source, "/")), target)
}

// relativeTarget is the inverse of resolveTarget.
func relativeTarget(source, part string) string {
	from := strings.Split(path.Dir(source), "/")
	if path.Dir(source) == "." {
		from = nil
	}
	to := strings.Split(part, "/")

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	var segs []string
	for range from[common:] {
		segs = append(segs, "..")
	}
	segs = append(segs, to[common:]...)
	return strings.Join(segs, "/")
}
