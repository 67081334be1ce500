// Package sheet exposes the read-only query surface over a parsed
// worksheet: cell(at:), row, rows, column, range, find, findAll, and
// validations (spec.md §4.6). It stitches worksheet.Data together with the
// shared sharedstrings.Table and styles.Table a Workbook holds, resolving
// CellRaw through them on every query rather than eagerly materializing a
// resolved cell map.
package sheet

import (
	"sort"
	"strconv"

	"github.com/adnsv/xlcore/cellref"
	"github.com/adnsv/xlcore/cellvalue"
	"github.com/adnsv/xlcore/sharedstrings"
	"github.com/adnsv/xlcore/styles"
	"github.com/adnsv/xlcore/worksheet"
)

// Sheet is the logical, queryable view of one worksheet, spec.md §3.
// SharedStrings and Styles are shared-immutable views owned by the
// Workbook; Sheet never copies them.
type Sheet struct {
	Name          string
	Data          *worksheet.Data
	SharedStrings *sharedstrings.Table
	Styles        *styles.Table
}

// Cell returns the resolved value at ref, or (_, false) if ref has no
// entry in the worksheet's cell map.
func (s *Sheet) Cell(ref cellref.Ref) (cellvalue.Value, bool) {
	raw, ok := s.Data.Cells[ref]
	if !ok {
		return cellvalue.Value{}, false
	}
	return s.resolve(raw), true
}

// CellAt parses at (e.g. "B2") and delegates to Cell; a malformed reference
// yields (_, false) rather than an error, consistent with spec.md §4.9
// ("query operations never fail").
func (s *Sheet) CellAt(at string) (cellvalue.Value, bool) {
	ref, err := cellref.Parse(at)
	if err != nil {
		return cellvalue.Value{}, false
	}
	return s.Cell(ref)
}

// resolve maps a CellRaw through the shared tables per spec.md §3's
// dispatch table: s -> shared-string lookup -> text/richText; n -> number
// (or date if style says so); b -> boolean; str/inlineStr -> inline text;
// e -> error; empty -> empty.
func (s *Sheet) resolve(raw worksheet.CellRaw) cellvalue.Value {
	switch raw.Type {
	case worksheet.CellTypeSharedString:
		idx, err := strconv.Atoi(raw.Value)
		if err != nil {
			return cellvalue.NewEmpty()
		}
		if rt, ok := s.SharedStrings.RichText(idx); ok {
			return cellvalue.NewRichText(rt)
		}
		if plain, ok := s.SharedStrings.Plain(idx); ok {
			return cellvalue.NewText(plain)
		}
		return cellvalue.NewEmpty()
	case worksheet.CellTypeBoolean:
		return cellvalue.NewBoolean(raw.Value == "1")
	case worksheet.CellTypeInlineStr, worksheet.CellTypeInline:
		return cellvalue.NewText(raw.Value)
	case worksheet.CellTypeError:
		return cellvalue.NewError(raw.Value)
	default: // CellTypeNumber, or absent "t"
		if raw.Value == "" {
			return cellvalue.NewEmpty()
		}
		f, err := strconv.ParseFloat(raw.Value, 64)
		if err != nil {
			return cellvalue.NewEmpty()
		}
		if raw.HasStyle && s.Styles != nil && s.Styles.IsDateFormat(raw.StyleIndex) {
			return cellvalue.NewDate(f)
		}
		return cellvalue.NewNumber(f)
	}
}

// maxColInRow returns the highest populated column in row n, or 0 if none.
func (s *Sheet) maxColInRow(n int) int {
	max := 0
	for ref := range s.Data.Cells {
		if ref.Row == n && ref.Col > max {
			max = ref.Col
		}
	}
	return max
}

// Row returns the cells of row n in column-letter order from A to the
// highest populated column in that row; gaps become empty, spec.md §4.6.
func (s *Sheet) Row(n int) []cellvalue.Value {
	max := s.maxColInRow(n)
	out := make([]cellvalue.Value, max)
	for col := 1; col <= max; col++ {
		if v, ok := s.Cell(cellref.Ref{Col: col, Row: n}); ok {
			out[col-1] = v
		} else {
			out[col-1] = cellvalue.NewEmpty()
		}
	}
	return out
}

// RowEntry pairs a reference with its resolved value, the element type of
// Rows' per-row slices.
type RowEntry struct {
	Ref   cellref.Ref
	Value cellvalue.Value
}

// sortedRowNums returns the distinct populated row numbers in ascending order.
func (s *Sheet) sortedRowNums() []int {
	seen := map[int]bool{}
	for ref := range s.Data.Cells {
		seen[ref.Row] = true
	}
	rows := make([]int, 0, len(seen))
	for r := range seen {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	return rows
}

// Rows materializes every non-empty row in ascending row-index order, each
// as its (ref, value) pairs in ascending column order, spec.md §4.6.
func (s *Sheet) Rows() [][]RowEntry {
	return s.rowsMatching(nil)
}

// RowFilter decides whether a row's entries should be included by Rows(filter).
type RowFilter func(entries []RowEntry) bool

// RowsFiltered materializes all rows whose entries satisfy filter, spec.md §4.6.
func (s *Sheet) RowsFiltered(filter RowFilter) [][]RowEntry {
	return s.rowsMatching(filter)
}

func (s *Sheet) rowsMatching(filter RowFilter) [][]RowEntry {
	var out [][]RowEntry
	for _, rowNum := range s.sortedRowNums() {
		refs := s.colsInRow(rowNum)
		entries := make([]RowEntry, 0, len(refs))
		for _, ref := range refs {
			v, _ := s.Cell(ref)
			entries = append(entries, RowEntry{Ref: ref, Value: v})
		}
		if filter == nil || filter(entries) {
			out = append(out, entries)
		}
	}
	return out
}

func (s *Sheet) colsInRow(n int) []cellref.Ref {
	var refs []cellref.Ref
	for ref := range s.Data.Cells {
		if ref.Row == n {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return cellref.Less(refs[i], refs[j]) })
	return refs
}

// Column returns the cells of the given 1-based column index in ascending
// row order, from the first populated row to the last; an entirely empty
// column returns an empty slice, spec.md §4.6.
func (s *Sheet) Column(index int) []cellvalue.Value {
	minRow, maxRow := 0, 0
	for ref := range s.Data.Cells {
		if ref.Col != index {
			continue
		}
		if minRow == 0 || ref.Row < minRow {
			minRow = ref.Row
		}
		if ref.Row > maxRow {
			maxRow = ref.Row
		}
	}
	if minRow == 0 {
		return nil
	}
	out := make([]cellvalue.Value, 0, maxRow-minRow+1)
	for row := minRow; row <= maxRow; row++ {
		if v, ok := s.Cell(cellref.Ref{Col: index, Row: row}); ok {
			out = append(out, v)
		} else {
			out = append(out, cellvalue.NewEmpty())
		}
	}
	return out
}

// ColumnLetter is Column, addressed by case-insensitive column letters
// (spec.md §4.6: "Letter lookup is case-insensitive").
func (s *Sheet) ColumnLetter(letters string) []cellvalue.Value {
	idx, err := cellref.ColumnIndex(letters)
	if err != nil {
		return nil
	}
	return s.Column(idx)
}

// Range returns the cells of rg in row-major order; gaps become empty,
// spec.md §4.6. Parsing failures are reported by RangeAt, not here.
func (s *Sheet) Range(rg cellref.Range) []cellvalue.Value {
	cells := rg.Cells()
	out := make([]cellvalue.Value, len(cells))
	for i, ref := range cells {
		if v, ok := s.Cell(ref); ok {
			out[i] = v
		} else {
			out[i] = cellvalue.NewEmpty()
		}
	}
	return out
}

// RangeAt parses a range string like "A1:C3" and returns its cells in
// row-major order; invalid syntax returns an empty (nil) slice, spec.md §4.6.
func (s *Sheet) RangeAt(spec string) []cellvalue.Value {
	rg, ok := cellref.ParseRange(spec)
	if !ok {
		return nil
	}
	return s.Range(rg)
}

// Predicate decides whether a (ref, value) pair matches, for Find/FindAll.
type Predicate func(ref cellref.Ref, v cellvalue.Value) bool

// allRefsRowMajor returns every populated cell reference in row-major order.
func (s *Sheet) allRefsRowMajor() []cellref.Ref {
	refs := make([]cellref.Ref, 0, len(s.Data.Cells))
	for ref := range s.Data.Cells {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return cellref.Less(refs[i], refs[j]) })
	return refs
}

// Find returns the first (ref, value) matching pred in row-major order, or
// (_, _, false) if none match, spec.md §4.6.
func (s *Sheet) Find(pred Predicate) (cellref.Ref, cellvalue.Value, bool) {
	for _, ref := range s.allRefsRowMajor() {
		v, _ := s.Cell(ref)
		if pred(ref, v) {
			return ref, v, true
		}
	}
	return cellref.Ref{}, cellvalue.Value{}, false
}

// FindAll returns every (ref, value) matching pred, in row-major order,
// spec.md §4.6. Sheet.Find(p) always equals the first element of
// Sheet.FindAll(p) when FindAll is non-empty.
func (s *Sheet) FindAll(pred Predicate) []RowEntry {
	var out []RowEntry
	for _, ref := range s.allRefsRowMajor() {
		v, _ := s.Cell(ref)
		if pred(ref, v) {
			out = append(out, RowEntry{Ref: ref, Value: v})
		}
	}
	return out
}

// ValidationsFor returns every data validation whose sqref intersects
// queryRange, spec.md §4.6.
func (s *Sheet) ValidationsFor(queryRange cellref.Range) []worksheet.DataValidation {
	var out []worksheet.DataValidation
	for _, dv := range s.Data.DataValidations {
		for _, sub := range cellref.ParseSqref(dv.Sqref) {
			if sub.Intersects(queryRange) {
				out = append(out, dv)
				break
			}
		}
	}
	return out
}

// ValidationsAt returns every data validation applying to a single cell.
func (s *Sheet) ValidationsAt(ref cellref.Ref) []worksheet.DataValidation {
	return s.ValidationsFor(cellref.Range{From: ref, To: ref})
}

// MergedRanges parses every stored merge range string, skipping malformed
// entries (none are expected from a conforming writer).
func (s *Sheet) MergedRanges() []cellref.Range {
	var out []cellref.Range
	for _, raw := range s.Data.MergedCells {
		if rg, ok := cellref.ParseRange(raw); ok {
			out = append(out, rg)
		}
	}
	return out
}
