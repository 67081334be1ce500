package writer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adnsv/xlcore/cellref"
	"github.com/adnsv/xlcore/worksheet"
)

// cellEntry is the write-side counterpart of worksheet.CellRaw: a cell
// value already reduced to its wire representation (a shared-string index,
// a formatted number, "0"/"1" for booleans, ...), spec.md §4.7.
type cellEntry struct {
	typ        worksheet.CellType
	value      string
	formula    string
	hasFormula bool
	styleIndex int
	hasStyle   bool
}

// comment is one addComment(at:, text, author) call, buffered until
// Finalize emits /xl/commentsN.xml and its VML drawing, spec.md §4.7.
type comment struct {
	ref    cellref.Ref
	text   string
	author string
}

// picture is one AddPicture call, anchored at a single cell and buffered
// until Finalize emits a DrawingML drawing part plus its image relationship.
type picture struct {
	ref cellref.Ref
	blob []byte
	ext  string // lower-case, leading dot, "jpg" already normalized to "jpeg"
}

// SheetBuilder accumulates one worksheet's content before Finalize
// serializes it to sheetN.xml (and any comments/vmlDrawing/hyperlink rels
// it implies). Generalized from the teacher's (adnsv/go-xl) Sheet/Row/Cell
// value types — which stored already-formatted strings directly on Cell —
// into a builder that defers shared-string interning to the owning
// WorkbookWriter, so two sheets writing the same text share one entry.
type SheetBuilder struct {
	Name string

	wb *WorkbookWriter

	cells    map[cellref.Ref]cellEntry
	merges   []string
	hlinks   []worksheet.Hyperlink
	dvs      []worksheet.DataValidation
	comments []comment
	pictures []picture

	protection    worksheet.SheetProtection
	hasProtection bool

	rows map[int]worksheet.RowProps
	cols []worksheet.ColumnProps
}

func newSheetBuilder(wb *WorkbookWriter, name string) *SheetBuilder {
	return &SheetBuilder{
		Name:  name,
		wb:    wb,
		cells: map[cellref.Ref]cellEntry{},
		rows:  map[int]worksheet.RowProps{},
	}
}

// WriteText interns s into the workbook's shared-strings table and records
// a shared-string cell at ref, spec.md §4.7. A style already assigned to ref
// via StyleCell is preserved.
func (sb *SheetBuilder) WriteText(ref cellref.Ref, s string) {
	idx := sb.wb.sharedStrings.InternPlain(s)
	entry := sb.cells[ref]
	entry.typ = worksheet.CellTypeSharedString
	entry.value = strconv.Itoa(idx)
	entry.formula = ""
	entry.hasFormula = false
	sb.cells[ref] = entry
}

// WriteNumber records a numeric cell, formatted with Go's shortest
// round-tripping representation (teacher's Cell.SetFloat used "%g" for the
// same reason: compact output that still parses back exactly). A style
// already assigned to ref via StyleCell is preserved.
func (sb *SheetBuilder) WriteNumber(ref cellref.Ref, v float64) {
	entry := sb.cells[ref]
	entry.typ = worksheet.CellTypeNumber
	entry.value = strconv.FormatFloat(v, 'g', -1, 64)
	entry.formula = ""
	entry.hasFormula = false
	sb.cells[ref] = entry
}

// WriteBoolean records a boolean cell ("1"/"0" on the wire, spec.md §4.5). A
// style already assigned to ref via StyleCell is preserved.
func (sb *SheetBuilder) WriteBoolean(ref cellref.Ref, v bool) {
	val := "0"
	if v {
		val = "1"
	}
	entry := sb.cells[ref]
	entry.typ = worksheet.CellTypeBoolean
	entry.value = val
	entry.formula = ""
	entry.hasFormula = false
	sb.cells[ref] = entry
}

// WriteFormula records a formula cell with an optional cached value,
// spec.md §4.7: "<f>formula</f><v>cached</v>". A style already assigned to
// ref via StyleCell is preserved.
func (sb *SheetBuilder) WriteFormula(ref cellref.Ref, formula string, cachedValue string, hasCachedValue bool) {
	entry := sb.cells[ref]
	entry.typ = worksheet.CellTypeNumber
	entry.formula = formula
	entry.hasFormula = true
	entry.value = ""
	if hasCachedValue {
		entry.value = cachedValue
	}
	sb.cells[ref] = entry
}

// StyleCell assigns cellXfs index xfIndex (as returned by
// WorkbookWriter.AddCellStyle) to the cell at ref, creating an empty cell
// entry first if none was written yet.
func (sb *SheetBuilder) StyleCell(ref cellref.Ref, xfIndex int) {
	entry := sb.cells[ref]
	entry.styleIndex = xfIndex
	entry.hasStyle = true
	sb.cells[ref] = entry
}

// AddComment buffers a cell comment; spec.md §4.7 requires the writer to
// emit a matching /xl/commentsN.xml and VML drawing for any sheet that has
// at least one.
func (sb *SheetBuilder) AddComment(ref cellref.Ref, text, author string) {
	sb.comments = append(sb.comments, comment{ref: ref, text: text, author: author})
}

// AddPicture anchors blob (a PNG/JPEG/GIF image, identified by ext, e.g.
// "png" or ".jpeg") at ref's top-left corner with a fixed default display
// size. Finalize emits it as a DrawingML drawing part referencing an
// /xl/media blob, the conventional anchoring mechanism rather than the
// teacher's XLRICHVALUE future-metadata picture-cell path (spec.md §4.7).
func (sb *SheetBuilder) AddPicture(ref cellref.Ref, blob []byte, ext string) {
	sb.pictures = append(sb.pictures, picture{ref: ref, blob: blob, ext: normalizeImageExt(ext)})
}

func normalizeImageExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	return ext
}

// AddHyperlinkExternal records a hyperlink whose target is an external URL,
// resolved at Finalize through a sheet-level relationship with
// TargetMode="External" (spec.md §4.1, §4.5).
func (sb *SheetBuilder) AddHyperlinkExternal(ref cellref.Ref, url, display, tooltip string) {
	sb.hlinks = append(sb.hlinks, worksheet.Hyperlink{
		Ref: ref.String(), Display: display, Tooltip: tooltip, IsExternal: true,
		// RelID is assigned at Finalize, once the sheet's relationship set is known.
		Location: url, // stashed here; assemble.go moves it into the relationship Target
	})
}

// AddHyperlinkInternal records a hyperlink to a location within the same
// workbook (a defined name or cell reference), spec.md §4.5.
func (sb *SheetBuilder) AddHyperlinkInternal(ref cellref.Ref, location, display, tooltip string) {
	sb.hlinks = append(sb.hlinks, worksheet.Hyperlink{
		Ref: ref.String(), Location: location, Display: display, Tooltip: tooltip,
	})
}

// MergeCells records a merged range, written verbatim to <mergeCells>.
func (sb *SheetBuilder) MergeCells(rangeRef string) {
	sb.merges = append(sb.merges, rangeRef)
}

// AddDataValidation records a data validation rule.
func (sb *SheetBuilder) AddDataValidation(dv worksheet.DataValidation) {
	sb.dvs = append(sb.dvs, dv)
}

// ProtectSheet sets the sheet's protection options; presets are
// worksheet.DefaultProtection() and worksheet.StrictProtection(), spec.md
// §4.8. An empty password means no password hash is emitted.
func (sb *SheetBuilder) ProtectSheet(passwordHash string, options worksheet.SheetProtection) {
	options.Sheet = true
	options.PasswordHash = passwordHash
	sb.protection = options
	sb.hasProtection = true
}

// SetRowHeight records an explicit row height, spec.md §4.7.
func (sb *SheetBuilder) SetRowHeight(row int, height float64, hidden bool) {
	sb.rows[row] = worksheet.RowProps{Num: row, Height: height, HasHeight: true, CustomHeight: true, Hidden: hidden}
}

// SetColumnWidth records an explicit column width for the column range
// [min, max], spec.md §4.7.
func (sb *SheetBuilder) SetColumnWidth(min, max int, width float64, hidden bool) {
	sb.cols = append(sb.cols, worksheet.ColumnProps{Min: min, Max: max, Width: width, HasWidth: true, CustomWidth: true, Hidden: hidden})
}

// sortedRefs returns every written cell reference sorted by the row-major
// ordering rule, spec.md §4.6, for deterministic output.
func (sb *SheetBuilder) sortedRefs() []cellref.Ref {
	refs := make([]cellref.Ref, 0, len(sb.cells))
	for r := range sb.cells {
		refs = append(refs, r)
	}
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0 && cellref.Less(refs[j], refs[j-1]); j-- {
			refs[j], refs[j-1] = refs[j-1], refs[j]
		}
	}
	return refs
}

func (c comment) vmlShapeID(index int) string {
	return fmt.Sprintf("_x0000_s%d", 1000+index)
}
