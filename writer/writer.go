// Package writer builds a fresh .xlsx package from scratch: a
// WorkbookWriter holds one SheetBuilder per sheet plus the interned
// sharedstrings.Builder and styles.Builder every sheet shares, and
// serializes the whole package through opc.Writer, spec.md §4.7.
//
// Grounded on the teacher's (adnsv/go-xl) xl/writer.go Writer type, which
// played the same role — an in-memory accumulator flushed to a ZIP archive
// in one Write call — generalized from the teacher's fixed one-sheet-per-call
// API to an explicit multi-sheet builder with addressable sheets, and with
// shared-string/style interning factored out into their own packages rather
// than living directly on Writer.
package writer

import (
	"io"

	"github.com/adnsv/xlcore/sharedstrings"
	"github.com/adnsv/xlcore/styles"
	"github.com/adnsv/xlcore/workbook"
)

// WorkbookWriter accumulates an entire workbook's content: its sheets, the
// shared-strings and styles tables they draw from, defined names, pivot
// table references, and workbook-level protection, per spec.md §4.7.
type WorkbookWriter struct {
	sheets []*SheetBuilder

	sharedStrings *sharedstrings.Builder
	styles        *styles.Builder

	definedNames []workbook.DefinedName
	pivotRefs    []workbook.PivotRef

	protection    workbook.Protection
	hasProtection bool

	date1904 bool
}

// NewWorkbookWriter returns an empty workbook with no sheets and the
// mandatory default style already seeded (styles.NewBuilder's index-0 xf).
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{
		sharedStrings: sharedstrings.NewBuilder(),
		styles:        styles.NewBuilder(),
	}
}

// AddSheet appends a new, empty sheet named name and returns its index
// (spec.md §4.7: "addSheet(name) -> index").
func (wb *WorkbookWriter) AddSheet(name string) int {
	wb.sheets = append(wb.sheets, newSheetBuilder(wb, name))
	return len(wb.sheets) - 1
}

// ModifySheet applies mutator to the sheet at index (spec.md §4.7:
// "modifySheet(at: index, mutator)"). It panics if index is out of range,
// the same contract cellref.Ref indexing uses elsewhere in this module:
// a writer mutating a sheet it never added is a programming error, not a
// recoverable input condition.
func (wb *WorkbookWriter) ModifySheet(index int, mutator func(*SheetBuilder)) {
	mutator(wb.sheets[index])
}

// SheetCount returns the number of sheets added so far.
func (wb *WorkbookWriter) SheetCount() int { return len(wb.sheets) }

// AddCellStyle interns cs into the workbook's shared style table and
// returns its cellXfs index, for use with SheetBuilder.StyleCell.
func (wb *WorkbookWriter) AddCellStyle(cs styles.CellStyle) int {
	return wb.styles.AddCellStyle(cs)
}

// AddDefinedName records a workbook-scoped (or sheet-scoped, via
// localSheetID) named range or constant, spec.md §4.1.
func (wb *WorkbookWriter) AddDefinedName(name, refersTo string, localSheetID int, hasLocalSheetID bool) {
	wb.definedNames = append(wb.definedNames, workbook.DefinedName{
		Name: name, RefersTo: refersTo, LocalSheetID: localSheetID, HasLocalSheetID: hasLocalSheetID,
	})
}

// SetWorkbookProtection sets structure/window protection flags and an
// optional password hash, spec.md §4.8.
func (wb *WorkbookWriter) SetWorkbookProtection(passwordHash string, structureProtected, windowsProtected bool) {
	wb.protection = workbook.Protection{
		StructureProtected: structureProtected,
		WindowsProtected:   windowsProtected,
		PasswordHash:       passwordHash,
	}
	wb.hasProtection = true
}

// SetDate1904 switches the workbook's epoch to the 1904 date system,
// spec.md §4.4's date-serial conversion.
func (wb *WorkbookWriter) SetDate1904(v bool) { wb.date1904 = v }

// Save assembles the package and writes it to out as a ZIP archive.
func (wb *WorkbookWriter) Save(out io.Writer) error {
	w, err := wb.assemble()
	if err != nil {
		return err
	}
	return w.Finalize(out)
}
