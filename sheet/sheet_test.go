package sheet

import (
	"testing"

	"github.com/adnsv/xlcore/cellref"
	"github.com/adnsv/xlcore/cellvalue"
	"github.com/adnsv/xlcore/sharedstrings"
	"github.com/adnsv/xlcore/styles"
	"github.com/adnsv/xlcore/worksheet"
)

func newTestSheet(t *testing.T) *Sheet {
	t.Helper()
	ssb := sharedstrings.NewBuilder()
	textIx := ssb.InternPlain("hello")

	stb := styles.NewBuilder()
	dateStyleIx := stb.AddCellStyle(styles.CellStyle{FormatCode: "yyyy-mm-dd"})

	data := &worksheet.Data{
		Cells: map[cellref.Ref]worksheet.CellRaw{
			cellref.MustParse("A1"): {Ref: cellref.MustParse("A1"), Type: worksheet.CellTypeSharedString, Value: itoa(textIx)},
			cellref.MustParse("B1"): {Ref: cellref.MustParse("B1"), Type: worksheet.CellTypeNumber, Value: "42"},
			cellref.MustParse("C1"): {Ref: cellref.MustParse("C1"), Type: worksheet.CellTypeBoolean, Value: "1"},
			cellref.MustParse("A2"): {Ref: cellref.MustParse("A2"), Type: worksheet.CellTypeNumber, Value: "44197", HasStyle: true, StyleIndex: dateStyleIx},
			cellref.MustParse("C3"): {Ref: cellref.MustParse("C3"), Type: worksheet.CellTypeError, Value: "#DIV/0!"},
		},
		MergedCells: []string{"A1:B1"},
		DataValidations: []worksheet.DataValidation{
			{Type: "list", Sqref: "A1:A10"},
			{Type: "decimal", Sqref: "D1:D5"},
		},
	}

	return &Sheet{
		Name:          "Test",
		Data:          data,
		SharedStrings: ssb.Build(),
		Styles:        stb.Build(),
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestCellResolvesEachType(t *testing.T) {
	s := newTestSheet(t)

	v, ok := s.Cell(cellref.MustParse("A1"))
	if !ok || v.Kind != cellvalue.Text || v.Text() != "hello" {
		t.Errorf("A1 = %+v, %v, want Text \"hello\"", v, ok)
	}

	v, ok = s.Cell(cellref.MustParse("B1"))
	if !ok || v.Kind != cellvalue.Number || v.Number() != 42 {
		t.Errorf("B1 = %+v, %v, want Number 42", v, ok)
	}

	v, ok = s.Cell(cellref.MustParse("C1"))
	if !ok || v.Kind != cellvalue.Boolean || !v.Bool() {
		t.Errorf("C1 = %+v, %v, want Boolean true", v, ok)
	}

	v, ok = s.Cell(cellref.MustParse("A2"))
	if !ok || v.Kind != cellvalue.Date || v.Number() != 44197 {
		t.Errorf("A2 = %+v, %v, want Date 44197 (number format implies date)", v, ok)
	}

	v, ok = s.Cell(cellref.MustParse("C3"))
	if !ok || v.Kind != cellvalue.ErrorKind || v.ErrorToken() != "#DIV/0!" {
		t.Errorf("C3 = %+v, %v, want ErrorKind #DIV/0!", v, ok)
	}
}

func TestCellMissingReturnsFalse(t *testing.T) {
	s := newTestSheet(t)
	if _, ok := s.Cell(cellref.MustParse("Z99")); ok {
		t.Error("Cell() on an unpopulated ref should report false")
	}
}

func TestCellAtMalformedReturnsFalseNotError(t *testing.T) {
	s := newTestSheet(t)
	if _, ok := s.CellAt("not-a-ref"); ok {
		t.Error("CellAt() with malformed syntax should report false, not panic or error")
	}
}

func TestRowFillsGapsWithEmpty(t *testing.T) {
	s := newTestSheet(t)
	row := s.Row(1)
	if len(row) != 3 {
		t.Fatalf("Row(1) length = %d, want 3 (A1..C1)", len(row))
	}
	if row[0].Text() != "hello" || row[1].Number() != 42 || !row[2].Bool() {
		t.Errorf("Row(1) = %+v", row)
	}
}

func TestRowsAscendingOrder(t *testing.T) {
	s := newTestSheet(t)
	rows := s.Rows()
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (rows 1, 2, 3 populated)", len(rows))
	}
	if rows[0][0].Ref != cellref.MustParse("A1") {
		t.Errorf("first row's first ref = %v, want A1", rows[0][0].Ref)
	}
}

func TestRowsFilteredOnlyIncludesMatches(t *testing.T) {
	s := newTestSheet(t)
	filtered := s.RowsFiltered(func(entries []RowEntry) bool {
		for _, e := range entries {
			if e.Value.Kind == cellvalue.ErrorKind {
				return true
			}
		}
		return false
	})
	if len(filtered) != 1 {
		t.Fatalf("got %d filtered rows, want 1 (only row 3 has an error)", len(filtered))
	}
}

func TestColumnReturnsContiguousSpanWithGaps(t *testing.T) {
	s := newTestSheet(t)
	col := s.Column(1) // column A: A1 (row1), A2 (row2)
	if len(col) != 2 {
		t.Fatalf("Column(1) length = %d, want 2", len(col))
	}
	col3 := s.Column(3) // column C: C1 (row1), C3 (row3), gap at row2
	if len(col3) != 3 {
		t.Fatalf("Column(3) length = %d, want 3 (row1..row3 span with a gap)", len(col3))
	}
	if !col3[1].IsEmpty() {
		t.Errorf("Column(3)[1] (row2 gap) should be Empty, got %+v", col3[1])
	}
}

func TestColumnEntirelyEmptyReturnsNil(t *testing.T) {
	s := newTestSheet(t)
	if col := s.Column(26); col != nil {
		t.Errorf("Column() on an entirely empty column should return nil, got %v", col)
	}
}

func TestColumnLetterCaseInsensitive(t *testing.T) {
	s := newTestSheet(t)
	upper := s.ColumnLetter("A")
	lower := s.ColumnLetter("a")
	if len(upper) != len(lower) {
		t.Errorf("ColumnLetter should be case-insensitive: %v vs %v", upper, lower)
	}
}

func TestRangeRowMajorWithGaps(t *testing.T) {
	s := newTestSheet(t)
	rg, _ := cellref.ParseRange("A1:B2")
	vals := s.Range(rg)
	if len(vals) != 4 {
		t.Fatalf("Range(A1:B2) length = %d, want 4", len(vals))
	}
	if vals[0].Text() != "hello" || vals[1].Number() != 42 {
		t.Errorf("Range first row = %+v, %+v", vals[0], vals[1])
	}
	if !vals[3].IsEmpty() {
		t.Errorf("Range(A1:B2)[3] (B2, unpopulated) should be Empty, got %+v", vals[3])
	}
}

func TestRangeAtInvalidReturnsNil(t *testing.T) {
	s := newTestSheet(t)
	if got := s.RangeAt("not a range"); got != nil {
		t.Errorf("RangeAt(invalid) should return nil, got %v", got)
	}
}

func TestFindAndFindAllAgreeOnFirstMatch(t *testing.T) {
	s := newTestSheet(t)
	pred := func(ref cellref.Ref, v cellvalue.Value) bool { return v.Kind == cellvalue.Number }
	ref, v, ok := s.Find(pred)
	if !ok {
		t.Fatal("Find should locate the Number cell")
	}
	all := s.FindAll(pred)
	if len(all) == 0 || all[0].Ref != ref || !all[0].Value.Equal(v) {
		t.Errorf("Find() should equal FindAll()[0]: Find=%v/%v, FindAll[0]=%+v", ref, v, all[0])
	}
}

func TestFindNoMatchReturnsFalse(t *testing.T) {
	s := newTestSheet(t)
	_, _, ok := s.Find(func(ref cellref.Ref, v cellvalue.Value) bool { return false })
	if ok {
		t.Error("Find with an always-false predicate should report false")
	}
}

func TestValidationsForIntersectingRange(t *testing.T) {
	s := newTestSheet(t)
	rg, _ := cellref.ParseRange("A5:A15")
	vs := s.ValidationsFor(rg)
	if len(vs) != 1 || vs[0].Type != "list" {
		t.Errorf("ValidationsFor(A5:A15) = %+v, want the list validation (A1:A10 intersects)", vs)
	}
}

func TestValidationsAtSingleCell(t *testing.T) {
	s := newTestSheet(t)
	vs := s.ValidationsAt(cellref.MustParse("D3"))
	if len(vs) != 1 || vs[0].Type != "decimal" {
		t.Errorf("ValidationsAt(D3) = %+v, want the decimal validation", vs)
	}
}

func TestMergedRangesParsed(t *testing.T) {
	s := newTestSheet(t)
	ranges := s.MergedRanges()
	if len(ranges) != 1 {
		t.Fatalf("got %d merged ranges, want 1", len(ranges))
	}
	if ranges[0].From != cellref.MustParse("A1") || ranges[0].To != cellref.MustParse("B1") {
		t.Errorf("merged range = %+v, want A1:B1", ranges[0])
	}
}
