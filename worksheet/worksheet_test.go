package worksheet

import (
	"strings"
	"testing"

	"github.com/adnsv/xlcore/cellref"
)

const sampleSheet = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <cols>
    <col min="1" max="1" width="20" customWidth="1"/>
    <col min="2" max="3" width="8.43" hidden="1"/>
  </cols>
  <sheetData>
    <row r="1" ht="30" customHeight="1">
      <c r="A1" t="s"><v>0</v></c>
      <c r="B1"><v>42</v></c>
      <c r="C1" t="b"><v>1</v></c>
    </row>
    <row r="2">
      <c r="A2" t="str"><is><t>inline text</t></is></c>
      <c r="B2" s="3"><f>A1+B1</f><v>42</v></c>
    </row>
  </sheetData>
  <mergeCells count="1"><mergeCell ref="A1:B1"/></mergeCells>
  <hyperlinks>
    <hyperlink ref="A1" r:id="rId1" display="example.com"/>
    <hyperlink ref="B1" location="Sheet2!A1" display="jump"/>
  </hyperlinks>
  <dataValidations count="1">
    <dataValidation type="list" operator="between" allowBlank="1" showDropDown="1" sqref="D1:D10">
      <formula1>"a,b,c"</formula1>
    </dataValidation>
  </dataValidations>
  <sheetProtection sheet="1" formatCells="1" insertRows="1"/>
  <legacyDrawing r:id="rId99"/>
</worksheet>`

func TestParseCellsAndTypes(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	a1 := d.Cells[cellref.MustParse("A1")]
	if a1.Type != CellTypeSharedString || a1.Value != "0" {
		t.Errorf("A1 = %+v, want sharedString type with value 0", a1)
	}

	b1 := d.Cells[cellref.MustParse("B1")]
	if b1.Type != CellTypeNumber || b1.Value != "42" {
		t.Errorf("B1 = %+v, want number 42 (t attribute absent defaults to number)", b1)
	}

	c1 := d.Cells[cellref.MustParse("C1")]
	if c1.Type != CellTypeBoolean || c1.Value != "1" {
		t.Errorf("C1 = %+v, want boolean 1", c1)
	}

	a2 := d.Cells[cellref.MustParse("A2")]
	if a2.Value != "inline text" {
		t.Errorf("A2 inline string = %q, want \"inline text\"", a2.Value)
	}

	b2 := d.Cells[cellref.MustParse("B2")]
	if !b2.HasFormula || b2.Formula != "A1+B1" || b2.Value != "42" {
		t.Errorf("B2 = %+v, want formula A1+B1 cached 42", b2)
	}
	if !b2.HasStyle || b2.StyleIndex != 3 {
		t.Errorf("B2 style = %+v, want HasStyle=true StyleIndex=3", b2)
	}
}

func TestParseRowProps(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(d.Rows))
	}
	if d.Rows[0].Num != 1 || !d.Rows[0].HasHeight || d.Rows[0].Height != 30 || !d.Rows[0].CustomHeight {
		t.Errorf("row 1 = %+v", d.Rows[0])
	}
}

func TestParseMergeCells(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.MergedCells) != 1 || d.MergedCells[0] != "A1:B1" {
		t.Errorf("MergedCells = %v, want [A1:B1]", d.MergedCells)
	}
}

func TestParseHyperlinksExternalAndInternal(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Hyperlinks) != 2 {
		t.Fatalf("got %d hyperlinks, want 2", len(d.Hyperlinks))
	}
	ext := d.Hyperlinks[0]
	if !ext.IsExternal || ext.RelID != "rId1" {
		t.Errorf("external hyperlink = %+v", ext)
	}
	internal := d.Hyperlinks[1]
	if internal.IsExternal || internal.Location != "Sheet2!A1" {
		t.Errorf("internal hyperlink = %+v", internal)
	}
}

func TestParseDataValidationShowDropDownNotInverted(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.DataValidations) != 1 {
		t.Fatalf("got %d data validations, want 1", len(d.DataValidations))
	}
	dv := d.DataValidations[0]
	if !dv.ShowDropDown {
		t.Error("showDropDown=\"1\" in the XML should parse as ShowDropDown=true (raw, not inverted)")
	}
	if !dv.AllowBlank || dv.Formula1 != `"a,b,c"` {
		t.Errorf("dataValidation = %+v", dv)
	}
}

func TestParseSheetProtectionInversion(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !d.HasProtection {
		t.Fatal("HasProtection should be true")
	}
	p := d.Protection
	if !p.Sheet {
		t.Error("Sheet should be true (literal, not inverted)")
	}
	if p.FormatCells {
		t.Error("formatCells=\"1\" (blocked) should invert to FormatCells=false")
	}
	if p.InsertRows {
		t.Error("insertRows=\"1\" (blocked) should invert to InsertRows=false")
	}
	if !p.FormatColumns {
		t.Error("formatColumns absent should default to permitted=true")
	}
	if !p.Sort {
		t.Error("sort absent should default to permitted=true")
	}
}

func TestDefaultAndStrictProtectionPresets(t *testing.T) {
	d := DefaultProtection()
	if !d.FormatCells || !d.Sort || d.Sheet {
		t.Errorf("DefaultProtection() = %+v, want every permission true and Sheet false", d)
	}
	s := StrictProtection()
	if s.FormatCells || s.Sort || !s.Sheet {
		t.Errorf("StrictProtection() = %+v, want every permission false and Sheet true", s)
	}
}

func TestParseColumnProps(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(d.Columns))
	}
	if d.Columns[0].Width != 20 || !d.Columns[0].CustomWidth || d.Columns[0].Hidden {
		t.Errorf("col 1 = %+v", d.Columns[0])
	}
	if !d.Columns[1].Hidden {
		t.Errorf("col 2-3 should be hidden: %+v", d.Columns[1])
	}
}

func TestParseLegacyDrawing(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleSheet))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.LegacyDrawingID != "rId99" {
		t.Errorf("LegacyDrawingID = %q, want rId99", d.LegacyDrawingID)
	}
}

func TestParseEmptySheetTolerated(t *testing.T) {
	doc := `<?xml version="1.0"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData/></worksheet>`
	d, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse minimal sheet: %v", err)
	}
	if len(d.Cells) != 0 || len(d.Rows) != 0 {
		t.Errorf("expected no cells/rows, got %d cells %d rows", len(d.Cells), len(d.Rows))
	}
}
