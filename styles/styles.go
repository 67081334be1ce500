// Package styles parses and builds xl/styles.xml: the workbook-wide tables
// of number formats, fonts, fills, borders, and cell formats that cells
// reference by index (spec.md §4.4).
package styles

import (
	"io"
	"strconv"
	"strings"

	"github.com/adnsv/xlcore/xmlstream"
)

// NumFmt is one custom number format definition: <numFmt numFmtId="..."
// formatCode="..."/>.
type NumFmt struct {
	ID         int
	FormatCode string
}

// Font mirrors the subset of <font> children this engine resolves.
type Font struct {
	Name          string
	Size          float64
	Bold          bool
	Italic        bool
	Underline     UnderlineType
	Strikethrough bool
	Color         string // hex RGB; empty if unset or theme-based
	ThemeColor    int32
	HasThemeColor bool
}

// UnderlineType is the ST_UnderlineValues value of a font.
type UnderlineType string

const (
	UnderlineNone   UnderlineType = ""
	UnderlineSingle UnderlineType = "single"
	UnderlineDouble UnderlineType = "double"
)

// Fill mirrors <fill><patternFill patternType="..."><fgColor/><bgColor/>.
type Fill struct {
	PatternType string
	FgColor     string
	BgColor     string
}

// BorderEdge is one edge of a <border> (left/right/top/bottom/diagonal).
type BorderEdge struct {
	Style string
	Color string
}

// Border mirrors <border>.
type Border struct {
	Left, Right, Top, Bottom, Diagonal BorderEdge
}

// HorizontalAlignment is the ST_HorizontalAlignment of an <alignment>.
type HorizontalAlignment string

const (
	HAlignGeneral HorizontalAlignment = ""
	HAlignLeft    HorizontalAlignment = "left"
	HAlignCenter  HorizontalAlignment = "center"
	HAlignRight   HorizontalAlignment = "right"
	HAlignFill    HorizontalAlignment = "fill"
	HAlignJustify HorizontalAlignment = "justify"
	HAlignDistributed HorizontalAlignment = "distributed"
)

// VerticalAlignment is the ST_VerticalAlignment of an <alignment>.
type VerticalAlignment string

const (
	VAlignTop         VerticalAlignment = "top"
	VAlignCenter      VerticalAlignment = "center"
	VAlignBottom      VerticalAlignment = ""
	VAlignJustify     VerticalAlignment = "justify"
	VAlignDistributed VerticalAlignment = "distributed"
)

// Alignment is a cell format's optional <alignment> child, spec.md §4.4.
type Alignment struct {
	Horizontal   HorizontalAlignment
	Vertical     VerticalAlignment
	WrapText     bool
	TextRotation int
	Indent       int
}

// CellFormat is one <xf> entry of cellXfs: indices into the other tables
// plus an optional alignment.
type CellFormat struct {
	NumFmtID  int
	FontID    int
	FillID    int
	BorderID  int
	Alignment Alignment
	HasAlign  bool
}

// CellStyle is the resolved, composed view of a cellXfs index, returned by
// Table.CellStyle.
type CellStyle struct {
	NumFmtID   int
	FormatCode string // resolved format code: built-in table lookup or custom numFmts entry
	Font       Font
	HasFont    bool
	Fill       Fill
	HasFill    bool
	Border     Border
	HasBorder  bool
	Alignment  Alignment
	HasAlign   bool
}

// Table holds the parsed (or built) contents of xl/styles.xml.
//
// Grounded on TsubasaBE's styles.StyleTable (BuiltInNumFmt map and
// isDateFormatID heuristic), generalized from TsubasaBE's single-field
// {NumFmtID, FormatStr} XFStyle to the full numFmt/font/fill/border
// composition spec.md §4.4 requires, since go-xlsb's binary StylesTable
// only ever needed date detection, never font/fill/border resolution for
// its read-only use case.
type Table struct {
	numFmts []NumFmt // custom formats, in document order
	fonts   []Font
	fills   []Fill
	borders []Border
	cellXfs []CellFormat
}

// Len returns the number of cellXfs entries.
func (t *Table) Len() int { return len(t.cellXfs) }

// CellStyle composes the resolved view for cellXfs index i. It returns
// (_, false) when i is out of range, per spec.md §4.4.
func (t *Table) CellStyle(i int) (CellStyle, bool) {
	if i < 0 || i >= len(t.cellXfs) {
		return CellStyle{}, false
	}
	xf := t.cellXfs[i]
	cs := CellStyle{NumFmtID: xf.NumFmtID, FormatCode: t.FormatCode(xf.NumFmtID)}
	if f, ok := t.fontAt(xf.FontID); ok {
		cs.Font, cs.HasFont = f, true
	}
	if f, ok := t.fillAt(xf.FillID); ok {
		cs.Fill, cs.HasFill = f, true
	}
	if b, ok := t.borderAt(xf.BorderID); ok {
		cs.Border, cs.HasBorder = b, true
	}
	if xf.HasAlign {
		cs.Alignment, cs.HasAlign = xf.Alignment, true
	}
	return cs, true
}

func (t *Table) fontAt(i int) (Font, bool) {
	if i < 0 || i >= len(t.fonts) {
		return Font{}, false
	}
	return t.fonts[i], true
}

func (t *Table) fillAt(i int) (Fill, bool) {
	if i < 0 || i >= len(t.fills) {
		return Fill{}, false
	}
	return t.fills[i], true
}

func (t *Table) borderAt(i int) (Border, bool) {
	if i < 0 || i >= len(t.borders) {
		return Border{}, false
	}
	return t.borders[i], true
}

// FormatCode resolves numFmtId to its format code: a built-in code for ids
// under 164, or the matching custom <numFmt> entry, or "" if neither is
// found.
func (t *Table) FormatCode(numFmtID int) string {
	if code, ok := BuiltInNumFmt[numFmtID]; ok {
		return code
	}
	for _, nf := range t.numFmts {
		if nf.ID == numFmtID {
			return nf.FormatCode
		}
	}
	return ""
}

// IsDateFormat reports whether cellXfs index i resolves to a date/time
// display format, per spec.md §4.4's heuristic.
func (t *Table) IsDateFormat(i int) bool {
	cs, ok := t.CellStyle(i)
	if !ok {
		return false
	}
	return IsDateFormatID(cs.NumFmtID, cs.FormatCode)
}

// BuiltInNumFmt maps built-in numFmtId values to their canonical ECMA-376
// §18.8.30 format strings, grounded on TsubasaBE's styles.BuiltInNumFmt.
var BuiltInNumFmt = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `($#,##0_);($#,##0)`,
	6:  `($#,##0_);[Red]($#,##0)`,
	7:  `($#,##0.00_);($#,##0.00)`,
	8:  `($#,##0.00_);[Red]($#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "MM-DD-YY",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: `(#,##0_);(#,##0)`,
	38: `(#,##0_);[Red](#,##0)`,
	39: `(#,##0.00_);(#,##0.00)`,
	40: `(#,##0.00_);[Red](#,##0.00)`,
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_($* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
}

// IsDateFormatID reports whether numFmtId id (with custom format code
// formatCode, when id >= 164) represents a date or datetime format,
// spec.md §4.4: built-in date ranges 14-22, 45-47, plus the extra date ids
// 27-36 and 50-58 that TsubasaBE's isDateFormatID recognizes, OR a custom
// format whose unquoted, non-bracketed portion contains a date/time token.
func IsDateFormatID(id int, formatCode string) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	if id < 164 {
		return false
	}
	return containsDateToken(formatCode)
}

// containsDateToken scans the unquoted, non-bracketed portion of a custom
// format code for date/time token characters. Bracket contents are opaque,
// matching TsubasaBE's isDateFormatID: a code made only of "[mm]" or "[h]"
// is not date-like, while "[h]:mm:ss" is, through the tokens outside the
// brackets.
func containsDateToken(formatCode string) bool {
	inQuote := false
	inBracket := false
	for _, ch := range formatCode {
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == 'd' || ch == 'D' || ch == 'm' || ch == 'M' ||
			ch == 'y' || ch == 'Y' || ch == 'h' || ch == 'H' || ch == 's' || ch == 'S':
			return true
		}
	}
	return false
}

// Parse reads a full xl/styles.xml document, tolerating missing sections
// (spec.md §4.4: "parser must tolerate partial tables").
func Parse(r io.Reader) (*Table, error) {
	xr := xmlstream.NewReader(r)
	t := &Table{}

	for {
		ev, err := xr.Next()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		if ev.Kind != xmlstream.Start {
			continue
		}
		switch ev.Name {
		case "numFmts":
			if err := parseNumFmts(xr, t); err != nil {
				return nil, err
			}
		case "fonts":
			if err := parseFonts(xr, t); err != nil {
				return nil, err
			}
		case "fills":
			if err := parseFills(xr, t); err != nil {
				return nil, err
			}
		case "borders":
			if err := parseBorders(xr, t); err != nil {
				return nil, err
			}
		case "cellXfs":
			if err := parseCellXfs(xr, t); err != nil {
				return nil, err
			}
		}
	}
}

func parseNumFmts(xr *xmlstream.Reader, t *Table) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "numFmts":
				depth++
			case "numFmt":
				id, _ := strconv.Atoi(ev.GetDefault("numFmtId", "0"))
				t.numFmts = append(t.numFmts, NumFmt{ID: id, FormatCode: ev.GetDefault("formatCode", "")})
			}
		case xmlstream.End:
			if ev.Name == "numFmts" {
				depth--
			}
		}
	}
	return nil
}

func parseFonts(xr *xmlstream.Reader, t *Table) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "fonts":
				depth++
			case "font":
				f, err := parseFont(xr)
				if err != nil {
					return err
				}
				t.fonts = append(t.fonts, f)
			}
		case xmlstream.End:
			if ev.Name == "fonts" {
				depth--
			}
		}
	}
	return nil
}

func parseFont(xr *xmlstream.Reader) (Font, error) {
	var f Font
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return Font{}, err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "font":
				depth++
			case "name":
				f.Name = ev.GetDefault("val", "")
			case "sz":
				if v, ok := ev.Get("val"); ok {
					f.Size, _ = strconv.ParseFloat(v, 64)
				}
			case "b":
				f.Bold = isTruthyFlag(ev)
			case "i":
				f.Italic = isTruthyFlag(ev)
			case "strike":
				f.Strikethrough = isTruthyFlag(ev)
			case "u":
				f.Underline = UnderlineType(ev.GetDefault("val", "single"))
			case "color":
				if rgb, ok := ev.Get("rgb"); ok {
					f.Color = rgb
				} else if theme, ok := ev.Get("theme"); ok {
					n, _ := strconv.Atoi(theme)
					f.ThemeColor = int32(n)
					f.HasThemeColor = true
				}
			}
		case xmlstream.End:
			if ev.Name == "font" {
				depth--
			}
		}
	}
	return f, nil
}

func parseFills(xr *xmlstream.Reader, t *Table) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "fills":
				depth++
			case "fill":
				fill, err := parseFill(xr)
				if err != nil {
					return err
				}
				t.fills = append(t.fills, fill)
			}
		case xmlstream.End:
			if ev.Name == "fills" {
				depth--
			}
		}
	}
	return nil
}

func parseFill(xr *xmlstream.Reader) (Fill, error) {
	var fl Fill
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return Fill{}, err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "fill":
				depth++
			case "patternFill":
				fl.PatternType = ev.GetDefault("patternType", "none")
			case "fgColor":
				fl.FgColor = colorOf(ev)
			case "bgColor":
				fl.BgColor = colorOf(ev)
			}
		case xmlstream.End:
			if ev.Name == "fill" {
				depth--
			}
		}
	}
	return fl, nil
}

func colorOf(ev xmlstream.Event) string {
	if rgb, ok := ev.Get("rgb"); ok {
		return rgb
	}
	if indexed, ok := ev.Get("indexed"); ok {
		return "indexed:" + indexed
	}
	if theme, ok := ev.Get("theme"); ok {
		return "theme:" + theme
	}
	return ""
}

func parseBorders(xr *xmlstream.Reader, t *Table) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "borders":
				depth++
			case "border":
				b, err := parseBorder(xr)
				if err != nil {
					return err
				}
				t.borders = append(t.borders, b)
			}
		case xmlstream.End:
			if ev.Name == "borders" {
				depth--
			}
		}
	}
	return nil
}

func parseBorder(xr *xmlstream.Reader) (Border, error) {
	var b Border
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return Border{}, err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "border":
				depth++
			case "left":
				b.Left = parseBorderEdge(xr, ev)
			case "right":
				b.Right = parseBorderEdge(xr, ev)
			case "top":
				b.Top = parseBorderEdge(xr, ev)
			case "bottom":
				b.Bottom = parseBorderEdge(xr, ev)
			case "diagonal":
				b.Diagonal = parseBorderEdge(xr, ev)
			}
		case xmlstream.End:
			if ev.Name == "border" {
				depth--
			}
		}
	}
	return b, nil
}

// parseBorderEdge consumes a <left>/<right>/<top>/<bottom>/<diagonal>
// element whose Start event (start) was just returned by Next; the edge's
// style attribute is read from start. The element may be self-closing or
// carry a nested <color>.
func parseBorderEdge(xr *xmlstream.Reader, start xmlstream.Event) BorderEdge {
	name := start.Name
	edge := BorderEdge{Style: start.GetDefault("style", "")}
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return edge
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case name:
				depth++
				if edge.Style == "" {
					edge.Style = ev.GetDefault("style", "")
				}
			case "color":
				edge.Color = colorOf(ev)
			}
		case xmlstream.End:
			if ev.Name == name {
				depth--
			}
		}
	}
	return edge
}

func parseCellXfs(xr *xmlstream.Reader, t *Table) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "cellXfs":
				depth++
			case "xf":
				xf, err := parseXf(xr, ev)
				if err != nil {
					return err
				}
				t.cellXfs = append(t.cellXfs, xf)
			}
		case xmlstream.End:
			if ev.Name == "cellXfs" {
				depth--
			}
		}
	}
	return nil
}

func parseXf(xr *xmlstream.Reader, start xmlstream.Event) (CellFormat, error) {
	xf := CellFormat{
		NumFmtID: atoiDefault(start.GetDefault("numFmtId", "0")),
		FontID:   atoiDefault(start.GetDefault("fontId", "0")),
		FillID:   atoiDefault(start.GetDefault("fillId", "0")),
		BorderID: atoiDefault(start.GetDefault("borderId", "0")),
	}
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return CellFormat{}, err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "xf":
				depth++
			case "alignment":
				xf.Alignment = parseAlignment(ev)
				xf.HasAlign = true
			}
		case xmlstream.End:
			if ev.Name == "xf" {
				depth--
			}
		}
	}
	return xf, nil
}

func parseAlignment(ev xmlstream.Event) Alignment {
	a := Alignment{
		Horizontal: HorizontalAlignment(ev.GetDefault("horizontal", "")),
		Vertical:   VerticalAlignment(ev.GetDefault("vertical", "")),
	}
	if v, ok := ev.Get("wrapText"); ok {
		a.WrapText = v == "1" || v == "true"
	}
	if v, ok := ev.Get("textRotation"); ok {
		a.TextRotation, _ = strconv.Atoi(v)
	}
	if v, ok := ev.Get("indent"); ok {
		a.Indent, _ = strconv.Atoi(v)
	}
	return a
}

func isTruthyFlag(ev xmlstream.Event) bool {
	v, ok := ev.Get("val")
	if !ok {
		return true
	}
	return v != "0" && v != "false"
}

func atoiDefault(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
