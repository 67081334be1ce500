package styles

import (
	"bytes"

	"github.com/adnsv/srw/xml"
)

// Builder accumulates numFmts/fonts/fills/borders/cellXfs for a fresh
// xl/styles.xml, interning each sub-component by structural equality so
// that two cell styles sharing a font (say) reuse one <font> entry.
//
// Grounded on the teacher's (adnsv/go-xl) writer.go font/XF deduplication
// pattern, generalized from font+alignment-only interning to the full
// numFmt/font/fill/border composition.
type Builder struct {
	numFmts   []NumFmt
	numFmtIx  map[string]int // formatCode -> numFmtId, for custom formats only
	nextFmtID int

	fonts   []Font
	fontIx  map[Font]int
	fills   []Fill
	fillIx  map[Fill]int
	borders []Border
	borderIx map[Border]int

	cellXfs []CellFormat
}

// NewBuilder returns a Builder pre-seeded with the mandatory default xf at
// index 0 (spec.md §4.4: "A default xf at index 0 is always present"), and
// the default font/fill/border its xf references.
func NewBuilder() *Builder {
	b := &Builder{
		numFmtIx:  map[string]int{},
		fontIx:    map[Font]int{},
		fillIx:    map[Fill]int{},
		borderIx:  map[Border]int{},
		nextFmtID: 164,
	}
	defaultFont := b.internFont(Font{Name: "Calibri", Size: 11})
	defaultFill := b.internFill(Fill{PatternType: "none"})
	defaultBorder := b.internBorder(Border{})
	b.cellXfs = append(b.cellXfs, CellFormat{FontID: defaultFont, FillID: defaultFill, BorderID: defaultBorder})
	return b
}

// internNumFmt interns a custom format code, assigning it a fresh id
// starting at 164 (the first non-built-in id, spec.md §4.4), and returns
// that id. Built-in codes resolve to their fixed id without consuming a
// custom slot.
func (b *Builder) internNumFmt(code string) int {
	for id, builtin := range BuiltInNumFmt {
		if builtin == code {
			return id
		}
	}
	if id, ok := b.numFmtIx[code]; ok {
		return id
	}
	id := b.nextFmtID
	b.nextFmtID++
	b.numFmts = append(b.numFmts, NumFmt{ID: id, FormatCode: code})
	b.numFmtIx[code] = id
	return id
}

func (b *Builder) internFont(f Font) int {
	if i, ok := b.fontIx[f]; ok {
		return i
	}
	i := len(b.fonts)
	b.fonts = append(b.fonts, f)
	b.fontIx[f] = i
	return i
}

func (b *Builder) internFill(f Fill) int {
	if i, ok := b.fillIx[f]; ok {
		return i
	}
	i := len(b.fills)
	b.fills = append(b.fills, f)
	b.fillIx[f] = i
	return i
}

func (b *Builder) internBorder(bd Border) int {
	if i, ok := b.borderIx[bd]; ok {
		return i
	}
	i := len(b.borders)
	b.borders = append(b.borders, bd)
	b.borderIx[bd] = i
	return i
}

// AddCellStyle interns cs's font/fill/border (and custom format code, if
// any) by structural equality, appends a fresh cellXfs entry, and returns
// its index. Zero-value sub-components intern into (and reuse) the index-0
// defaults seeded by NewBuilder.
func (b *Builder) AddCellStyle(cs CellStyle) int {
	font, fill := cs.Font, cs.Fill
	if font == (Font{}) {
		font = b.fonts[0]
	}
	if fill == (Fill{}) {
		fill = b.fills[0]
	}
	xf := CellFormat{
		NumFmtID: cs.NumFmtID,
		FontID:   b.internFont(font),
		FillID:   b.internFill(fill),
		BorderID: b.internBorder(cs.Border),
	}
	if cs.FormatCode != "" {
		xf.NumFmtID = b.internNumFmt(cs.FormatCode)
	}
	if cs.HasAlign {
		xf.Alignment = cs.Alignment
		xf.HasAlign = true
	}
	i := len(b.cellXfs)
	b.cellXfs = append(b.cellXfs, xf)
	return i
}

// Build materializes a read-side Table, for round-trip tests that inspect
// a built style set without re-parsing XML.
func (b *Builder) Build() *Table {
	return &Table{
		numFmts: append([]NumFmt(nil), b.numFmts...),
		fonts:   append([]Font(nil), b.fonts...),
		fills:   append([]Fill(nil), b.fills...),
		borders: append([]Border(nil), b.borders...),
		cellXfs: append([]CellFormat(nil), b.cellXfs...),
	}
}

// Marshal serializes the accumulated tables to xl/styles.xml bytes.
func (b *Builder) Marshal() []byte {
	var buf bytes.Buffer
	x := xml.NewWriter(&buf, xml.WriterConfig{Indent: xml.Indent2Spaces})
	x.XmlStandaloneDecl()
	x.OTag("styleSheet")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/spreadsheetml/2006/main")

	if len(b.numFmts) > 0 {
		x.OTag("+numFmts").Attr("count", len(b.numFmts))
		for _, nf := range b.numFmts {
			x.OTag("+numFmt").Attr("numFmtId", nf.ID).Attr("formatCode", nf.FormatCode).CTag()
		}
		x.CTag()
	}

	x.OTag("+fonts").Attr("count", len(b.fonts))
	for _, f := range b.fonts {
		x.OTag("+font")
		if f.Bold {
			x.OTag("b").CTag()
		}
		if f.Italic {
			x.OTag("i").CTag()
		}
		if f.Strikethrough {
			x.OTag("strike").CTag()
		}
		if f.Underline != UnderlineNone {
			x.OTag("u")
			if f.Underline != UnderlineSingle {
				x.Attr("val", string(f.Underline))
			}
			x.CTag()
		}
		sz := f.Size
		if sz == 0 {
			sz = 11
		}
		x.OTag("sz").Attr("val", sz).CTag()
		if f.HasThemeColor {
			x.OTag("color").Attr("theme", f.ThemeColor).CTag()
		} else if f.Color != "" {
			x.OTag("color").Attr("rgb", f.Color).CTag()
		}
		name := f.Name
		if name == "" {
			name = "Calibri"
		}
		x.OTag("name").Attr("val", name).CTag()
		x.CTag() // font
	}
	x.CTag() // fonts

	x.OTag("+fills").Attr("count", len(b.fills))
	for _, fl := range b.fills {
		x.OTag("+fill")
		pt := fl.PatternType
		if pt == "" {
			pt = "none"
		}
		x.OTag("patternFill").Attr("patternType", pt)
		if fl.FgColor != "" {
			x.OTag("fgColor").Attr("rgb", fl.FgColor).CTag()
		}
		if fl.BgColor != "" {
			x.OTag("bgColor").Attr("rgb", fl.BgColor).CTag()
		}
		x.CTag() // patternFill
		x.CTag() // fill
	}
	x.CTag() // fills

	x.OTag("+borders").Attr("count", len(b.borders))
	for _, bd := range b.borders {
		x.OTag("+border")
		writeBorderEdge(x, "left", bd.Left)
		writeBorderEdge(x, "right", bd.Right)
		writeBorderEdge(x, "top", bd.Top)
		writeBorderEdge(x, "bottom", bd.Bottom)
		writeBorderEdge(x, "diagonal", bd.Diagonal)
		x.CTag() // border
	}
	x.CTag() // borders

	x.OTag("+cellStyleXfs").Attr("count", 1)
	x.OTag("+xf").Attr("numFmtId", 0).Attr("fontId", 0).Attr("fillId", 0).Attr("borderId", 0).CTag()
	x.CTag()

	x.OTag("+cellXfs").Attr("count", len(b.cellXfs))
	for _, xf := range b.cellXfs {
		x.OTag("+xf")
		x.Attr("numFmtId", xf.NumFmtID)
		x.Attr("fontId", xf.FontID)
		x.Attr("fillId", xf.FillID)
		x.Attr("borderId", xf.BorderID)
		x.Attr("xfId", 0)
		if xf.HasAlign {
			x.OTag("alignment")
			if xf.Alignment.Horizontal != HAlignGeneral {
				x.Attr("horizontal", string(xf.Alignment.Horizontal))
			}
			if xf.Alignment.Vertical != VAlignBottom {
				x.Attr("vertical", string(xf.Alignment.Vertical))
			}
			if xf.Alignment.WrapText {
				x.Attr("wrapText", 1)
			}
			if xf.Alignment.TextRotation != 0 {
				x.Attr("textRotation", xf.Alignment.TextRotation)
			}
			if xf.Alignment.Indent != 0 {
				x.Attr("indent", xf.Alignment.Indent)
			}
			x.CTag()
		}
		x.CTag() // xf
	}
	x.CTag() // cellXfs

	x.CTag() // styleSheet
	return buf.Bytes()
}

func writeBorderEdge(x *xml.Writer, name string, edge BorderEdge) {
	x.OTag("+" + name)
	if edge.Style != "" {
		x.Attr("style", edge.Style)
	}
	if edge.Color != "" {
		x.OTag("color").Attr("rgb", edge.Color).CTag()
	}
	x.CTag()
}
