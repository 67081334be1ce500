package styles

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatCodeBuiltinAndCustom(t *testing.T) {
	tbl := &Table{numFmts: []NumFmt{{ID: 164, FormatCode: "0.0\"x\""}}}
	if got := tbl.FormatCode(9); got != "0%" {
		t.Errorf("FormatCode(9) = %q, want 0%%", got)
	}
	if got := tbl.FormatCode(164); got != `0.0"x"` {
		t.Errorf("FormatCode(164) = %q, want custom code", got)
	}
	if got := tbl.FormatCode(9999); got != "" {
		t.Errorf("FormatCode(unknown) = %q, want \"\"", got)
	}
}

func TestIsDateFormatID(t *testing.T) {
	cases := []struct {
		id   int
		code string
		want bool
	}{
		{14, "", true},
		{22, "", true},
		{46, "", true},
		{9, "", false},
		{0, "General", false},
		{164, `yyyy-mm-dd`, true},
		{164, `#,##0.00`, false},
		{164, `"m/d" 0.00`, false},
	}
	for _, c := range cases {
		if got := IsDateFormatID(c.id, c.code); got != c.want {
			t.Errorf("IsDateFormatID(%d, %q) = %v, want %v", c.id, c.code, got, c.want)
		}
	}
}

func TestContainsDateTokenIgnoresQuotedAndBracketed(t *testing.T) {
	if containsDateToken(`"month" 0`) {
		t.Error("quoted literal text should not count as a date token")
	}
	if !containsDateToken(`yyyy-mm-dd`) {
		t.Error("unquoted date tokens should be detected")
	}
}

func TestCellStyleComposition(t *testing.T) {
	tbl := &Table{
		fonts:   []Font{{Name: "Calibri", Size: 11}, {Name: "Arial", Bold: true}},
		fills:   []Fill{{PatternType: "none"}, {PatternType: "solid", FgColor: "FFFF00"}},
		borders: []Border{{}},
		cellXfs: []CellFormat{
			{NumFmtID: 0, FontID: 0, FillID: 0, BorderID: 0},
			{NumFmtID: 9, FontID: 1, FillID: 1, BorderID: 0, HasAlign: true, Alignment: Alignment{Horizontal: HAlignCenter}},
		},
	}
	cs, ok := tbl.CellStyle(1)
	if !ok {
		t.Fatal("CellStyle(1) should succeed")
	}
	if !cs.HasFont || cs.Font.Name != "Arial" || !cs.Font.Bold {
		t.Errorf("resolved font = %+v", cs.Font)
	}
	if !cs.HasFill || cs.Fill.FgColor != "FFFF00" {
		t.Errorf("resolved fill = %+v", cs.Fill)
	}
	if cs.FormatCode != "0%" {
		t.Errorf("resolved format code = %q, want 0%%", cs.FormatCode)
	}
	if !cs.HasAlign || cs.Alignment.Horizontal != HAlignCenter {
		t.Errorf("resolved alignment = %+v", cs.Alignment)
	}
}

func TestCellStyleOutOfRange(t *testing.T) {
	tbl := &Table{}
	if _, ok := tbl.CellStyle(0); ok {
		t.Error("CellStyle(0) on an empty table should report false")
	}
}

func TestBuilderSeedsDefaultXf(t *testing.T) {
	b := NewBuilder()
	if len(b.cellXfs) != 1 {
		t.Fatalf("NewBuilder should seed one default xf, got %d", len(b.cellXfs))
	}
	tbl := b.Build()
	if tbl.Len() != 1 {
		t.Errorf("Build().Len() = %d, want 1", tbl.Len())
	}
}

func TestBuilderInternsFontsByStructuralEquality(t *testing.T) {
	b := NewBuilder()
	i1 := b.AddCellStyle(CellStyle{Font: Font{Name: "Arial", Bold: true}})
	i2 := b.AddCellStyle(CellStyle{Font: Font{Name: "Arial", Bold: true}})
	i3 := b.AddCellStyle(CellStyle{Font: Font{Name: "Arial", Bold: false}})

	tbl := b.Build()
	cs1, _ := tbl.CellStyle(i1)
	cs2, _ := tbl.CellStyle(i2)
	cs3, _ := tbl.CellStyle(i3)
	if cs1.Font != cs2.Font {
		t.Error("identical fonts should be interned to the same resolved font")
	}
	if cs1.Font == cs3.Font {
		t.Error("differing fonts should not be interned to the same font")
	}
}

func TestBuilderMarshalParseRoundTrip(t *testing.T) {
	b := NewBuilder()
	idx := b.AddCellStyle(CellStyle{
		FormatCode: "0.00%",
		Font:       Font{Name: "Arial", Size: 14, Bold: true, Color: "FF0000"},
		Fill:       Fill{PatternType: "solid", FgColor: "FFFF00"},
		Border:     Border{Left: BorderEdge{Style: "thin"}},
		HasAlign:   true,
		Alignment:  Alignment{Horizontal: HAlignRight, WrapText: true},
	})

	data := b.Marshal()
	tbl, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse(Marshal()): %v", err)
	}
	cs, ok := tbl.CellStyle(idx)
	if !ok {
		t.Fatalf("CellStyle(%d) after round-trip should succeed", idx)
	}
	if cs.FormatCode != "0.00%" {
		t.Errorf("FormatCode = %q, want 0.00%%", cs.FormatCode)
	}
	if !cs.HasFont || cs.Font.Name != "Arial" || cs.Font.Size != 14 || !cs.Font.Bold || cs.Font.Color != "FF0000" {
		t.Errorf("font did not round-trip: %+v", cs.Font)
	}
	if !cs.HasFill || cs.Fill.FgColor != "FFFF00" {
		t.Errorf("fill did not round-trip: %+v", cs.Fill)
	}
	if !cs.HasBorder || cs.Border.Left.Style != "thin" {
		t.Errorf("border did not round-trip: %+v", cs.Border)
	}
	if !cs.HasAlign || cs.Alignment.Horizontal != HAlignRight || !cs.Alignment.WrapText {
		t.Errorf("alignment did not round-trip: %+v", cs.Alignment)
	}
}

func TestParseTolerantOfMissingSections(t *testing.T) {
	doc := `<?xml version="1.0"?><styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"></styleSheet>`
	tbl, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse should tolerate an empty styleSheet, got: %v", err)
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}
}
