// Package xlcore is a forward-only OOXML SpreadsheetML engine: it opens an
// .xlsx package, exposes its sheets through a read-only query surface
// (cell/row/range/find), and builds fresh .xlsx packages through the
// writer package, spec.md §1.
//
// Grounded on the teacher's (adnsv/go-xl) top-level package, which wired its
// zfs/xl packages together behind a small Document-shaped facade; xlcore
// generalizes that facade to the richer Workbook/Sheet split this module's
// read and write halves are built around.
package xlcore

import (
	"bytes"
	"io"
	"os"

	"github.com/adnsv/xlcore/cellref"
	"github.com/adnsv/xlcore/numfmt"
	"github.com/adnsv/xlcore/opc"
	"github.com/adnsv/xlcore/sharedstrings"
	"github.com/adnsv/xlcore/sheet"
	"github.com/adnsv/xlcore/styles"
	"github.com/adnsv/xlcore/workbook"
	"github.com/adnsv/xlcore/worksheet"
	"github.com/adnsv/xlcore/writer"
	"github.com/adnsv/xlcore/xlerrors"
)

// Version identifies this engine's release, reported by the cmd/xlcore CLI
// and useful for embedders that log their dependency versions.
const Version = "0.1.0"

// Workbook is an opened .xlsx package: its sheet catalog, shared-strings
// table, and styles table, with every worksheet parsed into a queryable
// sheet.Sheet while Open runs. Workbook is immutable once Open returns and
// safe for concurrent read access (spec.md §5).
type Workbook struct {
	pkg           *opc.Package
	Info          *workbook.Info
	SharedStrings *sharedstrings.Table
	Styles        *styles.Table

	sheets     []*sheet.Sheet
	sheetIndex map[string]int
}

// Open parses the .xlsx package backed by r (size bytes long): its workbook
// catalog, shared-strings table, styles table, and every worksheet part.
func Open(r io.ReaderAt, size int64) (*Workbook, error) {
	pkg, err := opc.Open(r, size)
	if err != nil {
		return nil, err
	}

	mainRel, ok := pkg.FindMainDocument()
	if !ok {
		return nil, xlerrors.MissingPartf("root relationship to the main workbook document")
	}
	workbookPath := opc.PartPath(mainRel.ResolveTarget("/"))

	wbData, err := pkg.ReadPart(workbookPath)
	if err != nil {
		return nil, err
	}
	info, err := workbook.Parse(bytes.NewReader(wbData))
	if err != nil {
		return nil, err
	}

	wbRels, err := pkg.Relationships(workbookPath)
	if err != nil {
		return nil, err
	}

	var sharedStrings *sharedstrings.Table
	var styleTable *styles.Table
	for _, rel := range wbRels.All() {
		target := opc.PartPath(rel.ResolveTarget(workbookPath))
		switch rel.Type {
		case opc.RelTypeSharedStrings:
			data, err := pkg.ReadPart(target)
			if err != nil {
				return nil, err
			}
			sharedStrings, err = sharedstrings.Parse(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
		case opc.RelTypeStyles:
			data, err := pkg.ReadPart(target)
			if err != nil {
				return nil, err
			}
			styleTable, err = styles.Parse(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
		}
	}
	if sharedStrings == nil {
		sharedStrings = sharedstrings.NewBuilder().Build()
	}

	wb := &Workbook{
		pkg:           pkg,
		Info:          info,
		SharedStrings: sharedStrings,
		Styles:        styleTable,
		sheetIndex:    map[string]int{},
	}

	for i, entry := range info.Sheets {
		rel, ok := wbRels.Get(entry.RelationshipID)
		if !ok {
			return nil, xlerrors.MissingPartf("relationship " + entry.RelationshipID + " for sheet " + entry.Name)
		}
		sheetPath := opc.PartPath(rel.ResolveTarget(workbookPath))
		data, err := pkg.ReadPart(sheetPath)
		if err != nil {
			return nil, err
		}
		sheetData, err := worksheet.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		wb.sheets = append(wb.sheets, &sheet.Sheet{
			Name:          entry.Name,
			Data:          sheetData,
			SharedStrings: wb.SharedStrings,
			Styles:        wb.Styles,
		})
		wb.sheetIndex[entry.Name] = i
	}

	return wb, nil
}

// OpenFile reads the whole file at path into memory and opens it as a
// Workbook.
func OpenFile(path string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xlerrors.Wrap(xlerrors.IO, path, err)
	}
	return Open(bytes.NewReader(data), int64(len(data)))
}

// SheetNames returns every sheet name in workbook catalog order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the sheet named name, or (_, false) if no such sheet exists.
func (wb *Workbook) Sheet(name string) (*sheet.Sheet, bool) {
	i, ok := wb.sheetIndex[name]
	if !ok {
		return nil, false
	}
	return wb.sheets[i], true
}

// SheetAt returns the sheet at catalog position index (0-based), or
// (_, false) if index is out of range.
func (wb *Workbook) SheetAt(index int) (*sheet.Sheet, bool) {
	if index < 0 || index >= len(wb.sheets) {
		return nil, false
	}
	return wb.sheets[index], true
}

// NewWorkbookWriter returns an empty WorkbookWriter for building a fresh
// .xlsx package, spec.md §4.7.
func NewWorkbookWriter() *writer.WorkbookWriter {
	return writer.NewWorkbookWriter()
}

// FormatCell renders the cell at ref on sh through its assigned number
// format, honoring this workbook's date epoch (spec.md §4.4). It returns ""
// for an unpopulated cell.
func (wb *Workbook) FormatCell(sh *sheet.Sheet, ref cellref.Ref) string {
	raw, ok := sh.Data.Cells[ref]
	if !ok {
		return ""
	}
	v, _ := sh.Cell(ref)
	return numfmt.FormatValue(v, wb.Styles, raw.StyleIndex, wb.Info.Date1904)
}
