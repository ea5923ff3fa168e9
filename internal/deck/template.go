package deck

import (
	"fmt"
	"io"
	"strings"

	apperrors "thumbdeck/internal/errors"
	"thumbdeck/internal/files"
)

const (
	nsDrawing = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPresML  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	xmlDecl   = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	rootNS    = `xmlns:a="` + nsDrawing + `" xmlns:r="` + nsOfficeRels + `" xmlns:p="` + nsPresML + `"`
)

// layoutBackgrounds gives generated layouts distinct solid backgrounds.
var layoutBackgrounds = []string{"1E6B52", "0B3D2E", "2F3B45", "8C6D1F", "5B2A86", "7A1F2B"}

// DefaultTemplate builds a minimal title-slide template with n layouts. Each
// layout has a centered title (placeholder 0) and a subtitle (placeholder 1)
// on its own background color.
func DefaultTemplate(n int) (*Presentation, error) {
	if n < 1 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("template needs at least one layout, got %d", n), nil)
	}

	pkg := newPackage()
	ct := &contentTypes{
		Defaults: []ctDefault{
			{Extension: "rels", ContentType: ctRelationships},
			{Extension: "xml", ContentType: "application/xml"},
		},
	}

	rootRels := &relationships{}
	rootRels.add(relTypeOfficeDocument, "ppt/presentation.xml")

	presRels := &relationships{}
	masterRID := presRels.add(relTypeSlideMaster, "slideMasters/slideMaster1.xml")
	presRels.add(relTypeTheme, "theme/theme1.xml")

	pkg.put("ppt/presentation.xml", []byte(xmlDecl+
		`<p:presentation `+rootNS+` saveSubsetFonts="1">`+
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="`+masterRID+`"/></p:sldMasterIdLst>`+
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d"/>`, Canvas16x9.Width, Canvas16x9.Height)+
		`<p:notesSz cx="6858000" cy="9144000"/>`+
		`</p:presentation>`))
	ct.override("ppt/presentation.xml", ctPresentation)

	masterRels := &relationships{}
	var layoutIDs strings.Builder
	for i := 0; i < n; i++ {
		part := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1)
		rid := masterRels.add(relTypeSlideLayout, relativeTarget("ppt/slideMasters/slideMaster1.xml", part))
		fmt.Fprintf(&layoutIDs, `<p:sldLayoutId id="%d" r:id="%s"/>`, 2147483649+i, rid)

		pkg.put(part, []byte(defaultLayoutXML(i)))
		layoutRels := &relationships{}
		layoutRels.add(relTypeSlideMaster, "../slideMasters/slideMaster1.xml")
		if err := pkg.setRels(part, layoutRels); err != nil {
			return nil, apperrors.NewTemplateError("failed to build layout", err)
		}
		ct.override(part, ctSlideLayout)
	}
	masterRels.add(relTypeTheme, "../theme/theme1.xml")

	pkg.put("ppt/slideMasters/slideMaster1.xml", []byte(xmlDecl+
		`<p:sldMaster `+rootNS+`><p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>`+
		groupShapeProps+
		placeholderShape(2, "Title Placeholder 1", `type="title"`, 838200, 365125, 10515600, 1325563, 4400, "")+
		placeholderShape(3, "Text Placeholder 2", `type="body" idx="1"`, 838200, 1825625, 10515600, 4351338, 2800, "")+
		`</p:spTree></p:cSld>`+
		`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`+
		`<p:sldLayoutIdLst>`+layoutIDs.String()+`</p:sldLayoutIdLst>`+
		`</p:sldMaster>`))
	if err := pkg.setRels("ppt/slideMasters/slideMaster1.xml", masterRels); err != nil {
		return nil, apperrors.NewTemplateError("failed to build slide master", err)
	}
	ct.override("ppt/slideMasters/slideMaster1.xml", ctSlideMaster)

	pkg.put("ppt/theme/theme1.xml", []byte(themeXML))
	ct.override("ppt/theme/theme1.xml", ctTheme)

	if err := pkg.setRels("", rootRels); err != nil {
		return nil, apperrors.NewTemplateError("failed to build package relationships", err)
	}
	if err := pkg.setRels("ppt/presentation.xml", presRels); err != nil {
		return nil, apperrors.NewTemplateError("failed to build presentation relationships", err)
	}
	if err := pkg.setContentTypes(ct); err != nil {
		return nil, apperrors.NewTemplateError("failed to build content types", err)
	}

	p := &Presentation{pkg: pkg, presPart: "ppt/presentation.xml"}
	if err := p.loadLayouts(); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteDefaultTemplate saves DefaultTemplate(n) to path.
func WriteDefaultTemplate(path string, n int) error {
	p, err := DefaultTemplate(n)
	if err != nil {
		return err
	}
	if err := files.WriteAtomic(path, func(w io.Writer) error { return p.pkg.write(w) }); err != nil {
		return apperrors.NewStorageError("failed to write template", err).
			WithContext(apperrors.ContextPath, path)
	}
	return nil
}

const groupShapeProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

func placeholderShape(id int, name, ph string, x, y, cx, cy int64, sz int, color string) string {
	fill := ""
	if color != "" {
		fill = `<a:solidFill><a:srgbClr val="` + color + `"/></a:solidFill>`
	}
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr>`+
		`<p:nvPr><p:ph %s/></p:nvPr></p:nvSpPr>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm></p:spPr>`+
		`<p:txBody><a:bodyPr/><a:lstStyle><a:lvl1pPr algn="ctr" marL="0" indent="0"><a:buNone/><a:defRPr sz="%d">%s</a:defRPr></a:lvl1pPr></a:lstStyle>`+
		`<a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>`,
		id, name, ph, x, y, cx, cy, sz, fill)
}

func defaultLayoutXML(i int) string {
	bg := layoutBackgrounds[i%len(layoutBackgrounds)]
	return xmlDecl +
		`<p:sldLayout ` + rootNS + ` type="title" preserve="1">` +
		fmt.Sprintf(`<p:cSld name="Thumbnail %d">`, i+1) +
		`<p:bg><p:bgPr><a:solidFill><a:srgbClr val="` + bg + `"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>` +
		`<p:spTree>` + groupShapeProps +
		placeholderShape(2, "Title 1", `type="ctrTitle"`, 1524000, 1122363, 9144000, 2387600, 4800, "FFFFFF") +
		placeholderShape(3, "Subtitle 2", `type="subTitle" idx="1"`, 1524000, 3602038, 9144000, 1655762, 2400, "FFFFFF") +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`
}

const themeXML = xmlDecl +
	`<a:theme xmlns:a="` + nsDrawing + `" name="Thumbnail"><a:themeElements>` +
	`<a:clrScheme name="Thumbnail">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="0B3D2E"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="1E6B52"/></a:accent1><a:accent2><a:srgbClr val="8C6D1F"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Thumbnail">` +
	`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Thumbnail">` +
	`<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>` +
	`<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>` +
	`</a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`
