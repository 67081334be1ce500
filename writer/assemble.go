package writer

import (
	"bytes"
	"fmt"

	srwxml "github.com/adnsv/srw/xml"

	"github.com/adnsv/xlcore/cellref"
	"github.com/adnsv/xlcore/opc"
	"github.com/adnsv/xlcore/worksheet"
)

const mainNS = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
const relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
const drawingNS = "http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"
const drawingMainNS = "http://schemas.openxmlformats.org/drawingml/2006/main"

// emuPerPixel converts a display pixel to EMUs (English Metric Units), the
// unit DrawingML anchors use for every offset and extent.
const emuPerPixel = 9525

// defaultPictureWidthPx and defaultPictureHeightPx size a picture anchor
// when the caller supplies no explicit display size, matching Excel's own
// "Insert Picture" placeholder size.
const defaultPictureWidthPx = 200
const defaultPictureHeightPx = 150

// assemble lays out every part of the package and wires their
// relationships, mirroring the teacher's writeWorkbook/writeSheet/Write
// orchestration (xl/writer.go) but driven by the accumulated
// WorkbookWriter/SheetBuilder state instead of a single pass over caller
// callbacks.
func (wb *WorkbookWriter) assemble() (*opc.Writer, error) {
	w := opc.NewWriter()
	w.SetDefaultContentType("vml", opc.ContentTypeVMLDrawing)

	w.AddRelationship(opc.RootRelsPart, opc.Relationship{
		Type:   opc.RelTypeOfficeDocument,
		Target: "xl/workbook.xml",
	})

	sheetRelIDs := make([]string, len(wb.sheets))
	for i, sb := range wb.sheets {
		sheetPath := opc.NewPartPath(fmt.Sprintf("/xl/worksheets/sheet%d.xml", i+1))
		sheetRelIDs[i] = w.AddRelationship(opc.WorkbookPart, opc.Relationship{
			Type:   opc.RelTypeWorksheet,
			Target: fmt.Sprintf("worksheets/sheet%d.xml", i+1),
		})

		legacyDrawingRelID := ""
		if len(sb.comments) > 0 {
			legacyDrawingRelID = wb.emitComments(w, sheetPath, i+1, sb)
		}
		drawingRelID := ""
		if len(sb.pictures) > 0 {
			drawingRelID = wb.emitPictures(w, sheetPath, i+1, sb)
		}
		hyperlinkRelIDs := wb.emitHyperlinkRelationships(w, sheetPath, sb)

		w.AddPart(sheetPath, writeSheetXML(sb, hyperlinkRelIDs, drawingRelID, legacyDrawingRelID), opc.ContentTypeWorksheet)
	}

	w.AddRelationship(opc.WorkbookPart, opc.Relationship{
		Type:   opc.RelTypeStyles,
		Target: "styles.xml",
	})
	w.AddPart(opc.StylesPart, wb.styles.Marshal(), opc.ContentTypeStyles)

	if wb.sharedStrings.Len() > 0 {
		w.AddRelationship(opc.WorkbookPart, opc.Relationship{
			Type:   opc.RelTypeSharedStrings,
			Target: "sharedStrings.xml",
		})
		w.AddPart(opc.SharedStringsPart, wb.sharedStrings.Marshal(), opc.ContentTypeSharedStrings)
	}

	w.AddPart(opc.WorkbookPart, wb.writeWorkbookXML(sheetRelIDs), opc.ContentTypeWorkbook)

	return w, nil
}

// writeWorkbookXML emits xl/workbook.xml: the sheet catalog, defined names,
// and workbook protection, following the teacher's writeWorkbook ("+sheet"
// repeated-sibling convention for catalog rows).
func (wb *WorkbookWriter) writeWorkbookXML(sheetRelIDs []string) []byte {
	var buf bytes.Buffer
	x := srwxml.NewWriter(&buf, srwxml.WriterConfig{Indent: srwxml.Indent2Spaces})
	x.XmlStandaloneDecl()
	x.OTag("workbook")
	x.Attr("xmlns", mainNS)
	x.Attr("xmlns:r", relNS)

	if wb.date1904 {
		x.OTag("workbookPr").Attr("date1904", 1).CTag()
	}

	x.OTag("sheets")
	for i, sb := range wb.sheets {
		x.OTag("+sheet")
		x.Attr("name", sb.Name)
		x.Attr("sheetId", i+1)
		x.Attr("r:id", sheetRelIDs[i])
		x.CTag()
	}
	x.CTag() // sheets

	if len(wb.definedNames) > 0 {
		x.OTag("definedNames")
		for _, dn := range wb.definedNames {
			x.OTag("+definedName").Attr("name", dn.Name)
			if dn.HasLocalSheetID {
				x.Attr("localSheetId", dn.LocalSheetID)
			}
			x.Write(dn.RefersTo)
			x.CTag()
		}
		x.CTag()
	}

	if wb.hasProtection {
		x.OTag("workbookProtection")
		if wb.protection.StructureProtected {
			x.Attr("lockStructure", 1)
		}
		if wb.protection.WindowsProtected {
			x.Attr("lockWindows", 1)
		}
		if wb.protection.PasswordHash != "" {
			x.Attr("workbookPassword", wb.protection.PasswordHash)
		}
		x.CTag()
	}

	x.CTag() // workbook
	return buf.Bytes()
}

// writeSheetXML emits one xl/worksheets/sheetN.xml. hyperlinkRelIDs maps
// SheetBuilder.hlinks index -> its resolved relationship ID (empty for
// internal hyperlinks, which carry "location" instead of "r:id").
func writeSheetXML(sb *SheetBuilder, hyperlinkRelIDs []string, drawingRelID, legacyDrawingRelID string) []byte {
	var buf bytes.Buffer
	x := srwxml.NewWriter(&buf, srwxml.WriterConfig{Indent: srwxml.Indent2Spaces})
	x.XmlStandaloneDecl()
	x.OTag("worksheet")
	x.Attr("xmlns", mainNS)
	x.Attr("xmlns:r", relNS)

	writeCols(x, sb.cols)
	writeSheetData(x, sb)

	if sb.hasProtection {
		writeSheetProtection(x, sb.protection)
	}

	if len(sb.merges) > 0 {
		x.OTag("mergeCells").Attr("count", len(sb.merges))
		for _, m := range sb.merges {
			x.OTag("+mergeCell").Attr("ref", m).CTag()
		}
		x.CTag()
	}

	if len(sb.dvs) > 0 {
		x.OTag("dataValidations").Attr("count", len(sb.dvs))
		for _, dv := range sb.dvs {
			x.OTag("+dataValidation")
			x.Attr("type", dv.Type)
			if dv.Operator != "" {
				x.Attr("operator", dv.Operator)
			}
			x.Attr("allowBlank", boolAttr(dv.AllowBlank))
			if dv.ShowDropDown {
				x.Attr("showDropDown", 1)
			}
			x.Attr("sqref", dv.Sqref)
			if dv.Formula1 != "" {
				x.OTag("formula1").Write(dv.Formula1).CTag()
			}
			if dv.Formula2 != "" {
				x.OTag("formula2").Write(dv.Formula2).CTag()
			}
			x.CTag()
		}
		x.CTag()
	}

	if len(sb.hlinks) > 0 {
		x.OTag("hyperlinks")
		for i, h := range sb.hlinks {
			x.OTag("+hyperlink").Attr("ref", h.Ref)
			if h.IsExternal {
				x.Attr("r:id", hyperlinkRelIDs[i])
			} else {
				x.Attr("location", h.Location)
			}
			if h.Display != "" {
				x.Attr("display", h.Display)
			}
			if h.Tooltip != "" {
				x.Attr("tooltip", h.Tooltip)
			}
			x.CTag()
		}
		x.CTag()
	}

	if drawingRelID != "" {
		x.OTag("drawing").Attr("r:id", drawingRelID).CTag()
	}

	if legacyDrawingRelID != "" {
		x.OTag("legacyDrawing").Attr("r:id", legacyDrawingRelID).CTag()
	}

	x.CTag() // worksheet
	return buf.Bytes()
}

// writeSheetProtection emits <sheetProtection>, writing a permission
// attribute only when it is blocked: worksheet.parseSheetProtection treats
// an absent attribute as permitted, so an omitted attribute here round-trips
// correctly.
func writeSheetProtection(x *srwxml.Writer, p worksheet.SheetProtection) {
	x.OTag("sheetProtection")
	x.Attr("sheet", 1)
	if p.PasswordHash != "" {
		x.Attr("password", p.PasswordHash)
	}
	blocked := func(name string, permitted bool) {
		if !permitted {
			x.Attr(name, 1)
		}
	}
	blocked("formatCells", p.FormatCells)
	blocked("formatColumns", p.FormatColumns)
	blocked("formatRows", p.FormatRows)
	blocked("insertColumns", p.InsertColumns)
	blocked("insertRows", p.InsertRows)
	blocked("insertHyperlinks", p.InsertHyperlinks)
	blocked("deleteColumns", p.DeleteColumns)
	blocked("deleteRows", p.DeleteRows)
	blocked("sort", p.Sort)
	blocked("autoFilter", p.AutoFilter)
	blocked("pivotTables", p.PivotTables)
	blocked("selectLockedCells", p.SelectLockedCells)
	blocked("selectUnlockedCells", p.SelectUnlockedCells)
	x.CTag()
}

// emitPictures writes /xl/drawings/drawingN.xml and one /xl/media blob per
// picture anchored on sb, registers the sheet's "drawing" relationship and
// each drawing-to-media "image" relationship, and returns the drawing
// relationship ID for the sheet's <drawing r:id>.
func (wb *WorkbookWriter) emitPictures(w *opc.Writer, sheetPath opc.PartPath, sheetNum int, sb *SheetBuilder) string {
	drawingPath := opc.NewPartPath(fmt.Sprintf("/xl/drawings/drawing%d.xml", sheetNum))

	imageRelIDs := make([]string, len(sb.pictures))
	for i, p := range sb.pictures {
		mediaName := opc.NewMediaName(p.blob, p.ext)
		mediaPath := opc.NewPartPath("/xl/media/" + mediaName)
		w.AddPart(mediaPath, p.blob, imageContentType(p.ext))
		imageRelIDs[i] = w.AddRelationship(drawingPath, opc.Relationship{
			Type:   opc.RelTypeImage,
			Target: "../media/" + mediaName,
		})
	}

	w.AddPart(drawingPath, writeDrawingXML(sb.pictures, imageRelIDs), opc.ContentTypeDrawing)

	return w.AddRelationship(sheetPath, opc.Relationship{
		Type:   opc.RelTypeDrawing,
		Target: fmt.Sprintf("../drawings/drawing%d.xml", sheetNum),
	})
}

func imageContentType(ext string) opc.ContentType {
	switch ext {
	case ".png":
		return opc.ContentTypePNG
	case ".gif":
		return opc.ContentTypeGIF
	default:
		return opc.ContentTypeJPEG
	}
}

// writeDrawingXML emits a DrawingML spreadsheetDrawing part: one
// xdr:oneCellAnchor per picture, each anchored to its cell's top-left corner
// with a fixed default extent.
func writeDrawingXML(pictures []picture, imageRelIDs []string) []byte {
	var buf bytes.Buffer
	x := srwxml.NewWriter(&buf, srwxml.WriterConfig{Indent: srwxml.Indent2Spaces})
	x.XmlStandaloneDecl()
	x.OTag("xdr:wsDr")
	x.Attr("xmlns:xdr", drawingNS)
	x.Attr("xmlns:a", drawingMainNS)
	x.Attr("xmlns:r", relNS)

	for i, p := range pictures {
		x.OTag("+xdr:oneCellAnchor")

		x.OTag("xdr:from")
		x.OTag("xdr:col").Write(fmt.Sprint(p.ref.Col - 1)).CTag()
		x.OTag("xdr:colOff").Write("0").CTag()
		x.OTag("xdr:row").Write(fmt.Sprint(p.ref.Row - 1)).CTag()
		x.OTag("xdr:rowOff").Write("0").CTag()
		x.CTag() // xdr:from

		x.OTag("xdr:ext").
			Attr("cx", defaultPictureWidthPx*emuPerPixel).
			Attr("cy", defaultPictureHeightPx*emuPerPixel).
			CTag()

		x.OTag("xdr:pic")

		x.OTag("xdr:nvPicPr")
		x.OTag("xdr:cNvPr").Attr("id", i+1).Attr("name", fmt.Sprintf("Picture %d", i+1)).CTag()
		x.OTag("xdr:cNvPicPr").CTag()
		x.CTag() // xdr:nvPicPr

		x.OTag("xdr:blipFill")
		x.OTag("a:blip").Attr("r:embed", imageRelIDs[i]).CTag()
		x.OTag("a:stretch")
		x.OTag("a:fillRect").CTag()
		x.CTag() // a:stretch
		x.CTag() // xdr:blipFill

		x.OTag("xdr:spPr")
		x.OTag("a:xfrm")
		x.OTag("a:off").Attr("x", 0).Attr("y", 0).CTag()
		x.OTag("a:ext").Attr("cx", defaultPictureWidthPx*emuPerPixel).Attr("cy", defaultPictureHeightPx*emuPerPixel).CTag()
		x.CTag() // a:xfrm
		x.OTag("a:prstGeom").Attr("prst", "rect")
		x.OTag("a:avLst").CTag()
		x.CTag() // a:prstGeom
		x.CTag() // xdr:spPr

		x.CTag() // xdr:pic

		x.OTag("xdr:clientData").CTag()

		x.CTag() // xdr:oneCellAnchor
	}

	x.CTag() // xdr:wsDr
	return buf.Bytes()
}

func boolAttr(v bool) int {
	if v {
		return 1
	}
	return 0
}

func writeCols(x *srwxml.Writer, cols []worksheet.ColumnProps) {
	if len(cols) == 0 {
		return
	}
	x.OTag("cols")
	for _, c := range cols {
		x.OTag("+col").Attr("min", c.Min).Attr("max", c.Max)
		if c.HasWidth {
			x.Attr("width", c.Width).Attr("customWidth", 1)
		}
		if c.Hidden {
			x.Attr("hidden", 1)
		}
		x.CTag()
	}
	x.CTag()
}

func writeSheetData(x *srwxml.Writer, sb *SheetBuilder) {
	x.OTag("sheetData")
	refs := sb.sortedRefs()
	rowStart := 0
	for rowStart < len(refs) {
		row := refs[rowStart].Row
		rowEnd := rowStart
		for rowEnd < len(refs) && refs[rowEnd].Row == row {
			rowEnd++
		}
		writeRow(x, sb, row, refs[rowStart:rowEnd])
		rowStart = rowEnd
	}
	x.CTag() // sheetData
}

func writeRow(x *srwxml.Writer, sb *SheetBuilder, row int, refs []cellref.Ref) {
	x.OTag("+row").Attr("r", row)
	if p, ok := sb.rows[row]; ok {
		if p.HasHeight {
			x.Attr("ht", p.Height).Attr("customHeight", 1)
		}
		if p.Hidden {
			x.Attr("hidden", 1)
		}
	}
	for _, ref := range refs {
		cell := sb.cells[ref]
		x.OTag("+c").Attr("r", ref.String())
		if cell.hasStyle {
			x.Attr("s", cell.styleIndex)
		}
		switch cell.typ {
		case worksheet.CellTypeSharedString:
			x.Attr("t", "s")
		case worksheet.CellTypeBoolean:
			x.Attr("t", "b")
		}
		if cell.hasFormula {
			x.OTag("f").Write(cell.formula).CTag()
		}
		if cell.value != "" {
			x.OTag("v").Write(cell.value).CTag()
		}
		x.CTag() // c
	}
	x.CTag() // row
}

// emitHyperlinkRelationships adds one relationship per external hyperlink
// on sb and returns a slice parallel to sb.hlinks (empty string for
// internal hyperlinks).
func (wb *WorkbookWriter) emitHyperlinkRelationships(w *opc.Writer, sheetPath opc.PartPath, sb *SheetBuilder) []string {
	relIDs := make([]string, len(sb.hlinks))
	for i, h := range sb.hlinks {
		if !h.IsExternal {
			continue
		}
		relIDs[i] = w.AddRelationship(sheetPath, opc.Relationship{
			Type:       opc.RelTypeHyperlink,
			Target:     h.Location, // AddHyperlinkExternal stashes the URL in Location
			IsExternal: true,
		})
	}
	return relIDs
}

// emitComments writes /xl/commentsN.xml and /xl/drawings/vmlDrawingN.vml
// for a sheet with at least one comment, registers both relationships
// (types "comments" and "vmlDrawing") against sheetPath, and returns the
// vmlDrawing relationship ID for the sheet's <legacyDrawing r:id>.
func (wb *WorkbookWriter) emitComments(w *opc.Writer, sheetPath opc.PartPath, sheetNum int, sb *SheetBuilder) string {
	commentsPath := opc.NewPartPath(fmt.Sprintf("/xl/comments%d.xml", sheetNum))
	vmlPath := opc.NewPartPath(fmt.Sprintf("/xl/drawings/vmlDrawing%d.vml", sheetNum))

	w.AddPart(commentsPath, writeCommentsXML(sb.comments), opc.ContentTypeComments)
	w.AddPart(vmlPath, writeVMLDrawing(sb.comments), opc.ContentTypeVMLDrawing)

	w.AddRelationship(sheetPath, opc.Relationship{
		Type:   opc.RelTypeComments,
		Target: fmt.Sprintf("../comments%d.xml", sheetNum),
	})
	return w.AddRelationship(sheetPath, opc.Relationship{
		Type:   opc.RelTypeVMLDrawing,
		Target: fmt.Sprintf("../drawings/vmlDrawing%d.vml", sheetNum),
	})
}

func writeCommentsXML(comments []comment) []byte {
	authors := make([]string, 0, len(comments))
	authorIx := map[string]int{}
	for _, c := range comments {
		if _, ok := authorIx[c.author]; !ok {
			authorIx[c.author] = len(authors)
			authors = append(authors, c.author)
		}
	}

	var buf bytes.Buffer
	x := srwxml.NewWriter(&buf, srwxml.WriterConfig{Indent: srwxml.Indent2Spaces})
	x.XmlStandaloneDecl()
	x.OTag("comments").Attr("xmlns", mainNS)

	x.OTag("authors")
	for _, a := range authors {
		x.OTag("+author").Write(a).CTag()
	}
	x.CTag()

	x.OTag("commentList")
	for _, c := range comments {
		x.OTag("+comment").Attr("ref", c.ref.String()).Attr("authorId", authorIx[c.author])
		x.OTag("text")
		x.OTag("r")
		x.OTag("t").Write(c.text).CTag()
		x.CTag() // r
		x.CTag() // text
		x.CTag() // comment
	}
	x.CTag() // commentList

	x.CTag() // comments
	return buf.Bytes()
}

// writeVMLDrawing emits the fixed VML preamble (a single shared shapetype)
// plus one v:shape per comment, the legacy drawing format Excel still
// requires alongside commentsN.xml for any cell note. This is a fixed
// structural document, not SpreadsheetML, so it is built directly rather
// than through srw/xml.
func writeVMLDrawing(comments []comment) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<xml xmlns:v="urn:schemas-microsoft-com:vml"` +
		` xmlns:o="urn:schemas-microsoft-com:office:office"` +
		` xmlns:x="urn:schemas-microsoft-com:office:excel">` + "\n")
	buf.WriteString(`<o:shapelayout v:ext="edit"><o:idmap v:ext="edit" data="1"/></o:shapelayout>` + "\n")
	buf.WriteString(`<v:shapetype id="_x0000_t202" coordsize="21600,21600" o:spt="202" path="m,l,21600r21600,l21600,xe">` +
		`<v:stroke joinstyle="miter"/><v:path gradientshapeok="t" o:connecttype="rect"/></v:shapetype>` + "\n")

	for i, c := range comments {
		shapeID := c.vmlShapeID(i)
		fmt.Fprintf(&buf,
			`<v:shape id="%s" type="#_x0000_t202" style='position:absolute;visibility:hidden;width:108pt;height:59.25pt' fillcolor="#ffffe1" o:insetmode="auto">`+
				`<v:fill color2="#ffffe1"/><v:shadow on="t" color="black" obscured="t"/><v:path o:connecttype="none"/>`+
				`<v:textbox><div style='text-align:left'></div></v:textbox>`+
				`<x:ClientData ObjectType="Note"><x:MoveWithCells/><x:SizeWithCells/>`+
				`<x:Anchor>%d, 15, %d, 2, %d, 15, %d, 4</x:Anchor>`+
				`<x:AutoFill>False</x:AutoFill><x:Row>%d</x:Row><x:Column>%d</x:Column></x:ClientData></v:shape>`+"\n",
			shapeID, c.ref.Col, c.ref.Row-1, c.ref.Col+2, c.ref.Row+3, c.ref.Row-1, c.ref.Col-1)
	}

	buf.WriteString(`</xml>`)
	return buf.Bytes()
}
