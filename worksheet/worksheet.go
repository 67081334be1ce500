// Package worksheet parses xl/worksheets/sheetN.xml (the writer package
// builds it): cell data, merges, hyperlinks, data validations, protection,
// row/column properties, and the <legacyDrawing> reference (spec.md §4.5).
package worksheet

import (
	"io"
	"strconv"

	"github.com/adnsv/xlcore/cellref"
	"github.com/adnsv/xlcore/xmlstream"
)

// CellType is the raw "t" attribute of a <c>, spec.md §4.5.
type CellType string

const (
	CellTypeNumber       CellType = "n"
	CellTypeSharedString CellType = "s"
	CellTypeBoolean      CellType = "b"
	CellTypeInlineStr    CellType = "str"
	CellTypeInline       CellType = "inlineStr"
	CellTypeError        CellType = "e"
)

// CellRaw is the unresolved contents of one <c>: the engine defers mapping
// through shared strings / styles to the query layer (spec.md §3).
type CellRaw struct {
	Ref        cellref.Ref
	Type       CellType // defaults to CellTypeNumber when the "t" attribute is absent
	Value      string   // raw <v> text, or inline <is><t> text for inlineStr
	StyleIndex int
	HasStyle   bool
	Formula    string
	HasFormula bool
}

// Hyperlink is one <hyperlink> entry.
type Hyperlink struct {
	Ref        string // "ref" attribute: a single cell or range
	RelID      string // "r:id", set when external
	Location   string // "location" attribute, set when internal
	Display    string
	Tooltip    string
	IsExternal bool
}

// DataValidation is one <dataValidation> entry.
type DataValidation struct {
	Type        string
	Operator    string
	AllowBlank  bool
	Sqref       string
	Formula1    string
	Formula2    string
	ShowDropDown bool
}

// SheetProtection mirrors <sheetProtection>. spec.md §4.8: the stored
// attribute value "1" means "blocked" in the XML; every field here has
// already been inverted to the model's "permitted" sense at parse time,
// except Sheet/Password which are not invertible booleans.
type SheetProtection struct {
	Sheet              bool // "protected" (not inverted: this is literal "sheet" attr)
	PasswordHash       string
	FormatCells        bool
	FormatColumns      bool
	FormatRows         bool
	InsertColumns      bool
	InsertRows         bool
	InsertHyperlinks   bool
	DeleteColumns      bool
	DeleteRows         bool
	Sort               bool
	AutoFilter         bool
	PivotTables        bool
	SelectLockedCells  bool
	SelectUnlockedCells bool
}

// DefaultProtection permits the common edits a reader expects when
// <sheetProtection> is silent on a flag, spec.md §4.8 ".default" preset.
func DefaultProtection() SheetProtection {
	return SheetProtection{
		FormatCells: true, FormatColumns: true, FormatRows: true,
		InsertColumns: true, InsertRows: true, InsertHyperlinks: true,
		DeleteColumns: true, DeleteRows: true, Sort: true, AutoFilter: true,
		PivotTables: true, SelectLockedCells: true, SelectUnlockedCells: true,
	}
}

// StrictProtection blocks every permitted edit, spec.md §4.8 ".strict" preset.
func StrictProtection() SheetProtection { return SheetProtection{Sheet: true} }

// RowProps mirrors <row r, ht, customHeight, hidden>.
type RowProps struct {
	Num          int
	Height       float64
	HasHeight    bool
	CustomHeight bool
	Hidden       bool
}

// ColumnProps mirrors <col min,max,width,customWidth,hidden>.
type ColumnProps struct {
	Min, Max     int
	Width        float64
	HasWidth     bool
	CustomWidth  bool
	Hidden       bool
}

// ChartRef is a reference to a chart part via a drawing relationship;
// chart rendering itself is out of scope (spec.md §1). Parse does not
// follow drawing relationships and leaves Data.Charts empty.
type ChartRef struct {
	DrawingRelID string
}

// Comment is one <comment> entry of a sheet's commentsN.xml. Parse reads
// only the worksheet part, not commentsN.xml, and leaves Data.Comments empty.
type Comment struct {
	Ref    string
	Author string
	Text   string
}

// Data is the parsed contents of one worksheet part, spec.md §3 WorksheetData.
type Data struct {
	Cells           map[cellref.Ref]CellRaw
	MergedCells     []string
	Hyperlinks      []Hyperlink
	DataValidations []DataValidation
	Protection      SheetProtection
	HasProtection   bool
	Rows            []RowProps
	Columns         []ColumnProps
	Charts          []ChartRef
	Comments        []Comment
	LegacyDrawingID string // r:id of <legacyDrawing>, set when comments/VML are present
}

// Parse reads a full xl/worksheets/sheetN.xml document, spec.md §4.5.
func Parse(r io.Reader) (*Data, error) {
	xr := xmlstream.NewReader(r)
	d := &Data{Cells: map[cellref.Ref]CellRaw{}}

	for {
		ev, err := xr.Next()
		if err == io.EOF {
			return d, nil
		}
		if err != nil {
			return nil, err
		}
		if ev.Kind != xmlstream.Start {
			continue
		}
		switch ev.Name {
		case "sheetData":
			if err := parseSheetData(xr, d); err != nil {
				return nil, err
			}
		case "mergeCells":
			if err := parseMergeCells(xr, d); err != nil {
				return nil, err
			}
		case "hyperlinks":
			if err := parseHyperlinks(xr, d); err != nil {
				return nil, err
			}
		case "dataValidations":
			if err := parseDataValidations(xr, d); err != nil {
				return nil, err
			}
		case "sheetProtection":
			d.Protection = parseSheetProtection(ev)
			d.HasProtection = true
		case "cols":
			if err := parseCols(xr, d); err != nil {
				return nil, err
			}
		case "legacyDrawing":
			d.LegacyDrawingID = ev.GetDefault("r:id", "")
		}
	}
}

func parseSheetData(xr *xmlstream.Reader, d *Data) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "sheetData":
				depth++
			case "row":
				if err := parseRow(xr, ev, d); err != nil {
					return err
				}
			}
		case xmlstream.End:
			if ev.Name == "sheetData" {
				depth--
			}
		}
	}
	return nil
}

func parseRow(xr *xmlstream.Reader, start xmlstream.Event, d *Data) error {
	rp := RowProps{}
	if n, ok := start.Get("r"); ok {
		rp.Num, _ = strconv.Atoi(n)
	}
	if h, ok := start.Get("ht"); ok {
		rp.Height, _ = strconv.ParseFloat(h, 64)
		rp.HasHeight = true
	}
	rp.CustomHeight = isAttrTrue(start, "customHeight")
	rp.Hidden = isAttrTrue(start, "hidden")
	d.Rows = append(d.Rows, rp)

	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "row":
				depth++
			case "c":
				cell, err := parseCell(xr, ev)
				if err != nil {
					return err
				}
				d.Cells[cell.Ref] = cell
			}
		case xmlstream.End:
			if ev.Name == "row" {
				depth--
			}
		}
	}
	return nil
}

func parseCell(xr *xmlstream.Reader, start xmlstream.Event) (CellRaw, error) {
	refStr := start.GetDefault("r", "")
	ref, err := cellref.Parse(refStr)
	if err != nil {
		return CellRaw{}, err
	}
	cell := CellRaw{Ref: ref, Type: CellTypeNumber}
	if t, ok := start.Get("t"); ok {
		cell.Type = CellType(t)
	}
	if s, ok := start.Get("s"); ok {
		cell.StyleIndex, _ = strconv.Atoi(s)
		cell.HasStyle = true
	}

	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return CellRaw{}, err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "c":
				depth++
			case "v":
				v, err := readCharData(xr, "v")
				if err != nil {
					return CellRaw{}, err
				}
				cell.Value = v
			case "f":
				f, err := readCharData(xr, "f")
				if err != nil {
					return CellRaw{}, err
				}
				cell.Formula = f
				cell.HasFormula = true
			case "is":
				text, err := parseInlineString(xr)
				if err != nil {
					return CellRaw{}, err
				}
				cell.Value = text
			}
		case xmlstream.End:
			if ev.Name == "c" {
				depth--
			}
		}
	}
	return cell, nil
}

// parseInlineString reads <is>...<t>text</t>...</is>, concatenating every
// <t> child (an inline string may itself carry <r> runs; this engine keeps
// only their plain text, since inline rich-text formatting is not part of
// the resolved CellValue model).
func parseInlineString(xr *xmlstream.Reader) (string, error) {
	var out string
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "is":
				depth++
			case "t":
				text, err := readCharData(xr, "t")
				if err != nil {
					return "", err
				}
				out += text
			}
		case xmlstream.End:
			if ev.Name == "is" {
				depth--
			}
		}
	}
	return out, nil
}

func readCharData(xr *xmlstream.Reader, closeName string) (string, error) {
	var sb []byte
	for {
		ev, err := xr.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case xmlstream.Text:
			sb = append(sb, ev.CharData...)
		case xmlstream.End:
			if ev.Name == closeName {
				return string(sb), nil
			}
		}
	}
}

func parseMergeCells(xr *xmlstream.Reader, d *Data) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "mergeCells":
				depth++
			case "mergeCell":
				d.MergedCells = append(d.MergedCells, ev.GetDefault("ref", ""))
			}
		case xmlstream.End:
			if ev.Name == "mergeCells" {
				depth--
			}
		}
	}
	return nil
}

func parseHyperlinks(xr *xmlstream.Reader, d *Data) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "hyperlinks":
				depth++
			case "hyperlink":
				hl := Hyperlink{
					Ref:      ev.GetDefault("ref", ""),
					RelID:    ev.GetDefault("r:id", ""),
					Location: ev.GetDefault("location", ""),
					Display:  ev.GetDefault("display", ""),
					Tooltip:  ev.GetDefault("tooltip", ""),
				}
				hl.IsExternal = hl.RelID != ""
				d.Hyperlinks = append(d.Hyperlinks, hl)
			}
		case xmlstream.End:
			if ev.Name == "hyperlinks" {
				depth--
			}
		}
	}
	return nil
}

func parseDataValidations(xr *xmlstream.Reader, d *Data) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "dataValidations":
				depth++
			case "dataValidation":
				dv, err := parseDataValidation(xr, ev)
				if err != nil {
					return err
				}
				d.DataValidations = append(d.DataValidations, dv)
			}
		case xmlstream.End:
			if ev.Name == "dataValidations" {
				depth--
			}
		}
	}
	return nil
}

func parseDataValidation(xr *xmlstream.Reader, start xmlstream.Event) (DataValidation, error) {
	dv := DataValidation{
		Type:       start.GetDefault("type", ""),
		Operator:   start.GetDefault("operator", ""),
		Sqref:      start.GetDefault("sqref", ""),
		AllowBlank: isAttrTrue(start, "allowBlank"),
	}
	if v, ok := start.Get("showDropDown"); ok {
		dv.ShowDropDown = v == "1" || v == "true"
	}

	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return DataValidation{}, err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "dataValidation":
				depth++
			case "formula1":
				f, err := readCharData(xr, "formula1")
				if err != nil {
					return DataValidation{}, err
				}
				dv.Formula1 = f
			case "formula2":
				f, err := readCharData(xr, "formula2")
				if err != nil {
					return DataValidation{}, err
				}
				dv.Formula2 = f
			}
		case xmlstream.End:
			if ev.Name == "dataValidation" {
				depth--
			}
		}
	}
	return dv, nil
}

// parseSheetProtection inverts the "1 means blocked" OOXML convention to
// the model's "true means permitted" sense, spec.md §4.8, except for the
// literal "sheet" (protection enabled) and "password" attributes which are
// not permission flags.
func parseSheetProtection(ev xmlstream.Event) SheetProtection {
	permitted := func(attr string) bool {
		v, ok := ev.Get(attr)
		if !ok {
			return true // absent means "not blocked" i.e. permitted
		}
		return !(v == "1" || v == "true")
	}
	return SheetProtection{
		Sheet:               isAttrTrue(ev, "sheet"),
		PasswordHash:        ev.GetDefault("password", ""),
		FormatCells:         permitted("formatCells"),
		FormatColumns:       permitted("formatColumns"),
		FormatRows:          permitted("formatRows"),
		InsertColumns:       permitted("insertColumns"),
		InsertRows:          permitted("insertRows"),
		InsertHyperlinks:    permitted("insertHyperlinks"),
		DeleteColumns:       permitted("deleteColumns"),
		DeleteRows:          permitted("deleteRows"),
		Sort:                permitted("sort"),
		AutoFilter:          permitted("autoFilter"),
		PivotTables:         permitted("pivotTables"),
		SelectLockedCells:   permitted("selectLockedCells"),
		SelectUnlockedCells: permitted("selectUnlockedCells"),
	}
}

func parseCols(xr *xmlstream.Reader, d *Data) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "cols":
				depth++
			case "col":
				cp := ColumnProps{}
				cp.Min, _ = strconv.Atoi(ev.GetDefault("min", "0"))
				cp.Max, _ = strconv.Atoi(ev.GetDefault("max", "0"))
				if w, ok := ev.Get("width"); ok {
					cp.Width, _ = strconv.ParseFloat(w, 64)
					cp.HasWidth = true
				}
				cp.CustomWidth = isAttrTrue(ev, "customWidth")
				cp.Hidden = isAttrTrue(ev, "hidden")
				d.Columns = append(d.Columns, cp)
			}
		case xmlstream.End:
			if ev.Name == "cols" {
				depth--
			}
		}
	}
	return nil
}

func isAttrTrue(ev xmlstream.Event, name string) bool {
	v, ok := ev.Get(name)
	if !ok {
		return false
	}
	return v == "1" || v == "true"
}
