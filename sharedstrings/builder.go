package sharedstrings

import (
	"bytes"

	"github.com/adnsv/srw/xml"

	"github.com/adnsv/xlcore/cellvalue"
)

// Builder interns plain and rich-text strings in first-insertion order, per
// spec.md §4.3 and §4.7 ("Writer: interns every written text/richText,
// emitting entries in first-insertion order"). Generalized from the
// teacher's (adnsv/go-xl) Writer.sharedStrings/sharedStringMap fields, which
// only interned plain strings; Builder additionally interns RichText values
// keyed by structural content so that two cells writing the identical rich
// text share one <si> entry.
type Builder struct {
	entries []Entry
	plainIx map[string]int // plain string -> index, for simple text interning
}

// NewBuilder returns an empty intern table.
func NewBuilder() *Builder {
	return &Builder{plainIx: map[string]int{}}
}

// InternPlain interns s and returns its index, reusing an existing entry
// when s was already written as plain text.
func (b *Builder) InternPlain(s string) int {
	if i, ok := b.plainIx[s]; ok {
		return i
	}
	i := len(b.entries)
	b.entries = append(b.entries, Entry{Plain: s})
	b.plainIx[s] = i
	return i
}

// InternRich interns a rich-text value and returns its index. Rich entries
// are never deduplicated against plain entries (even with identical
// plainText) because their <si> serialization differs.
func (b *Builder) InternRich(rt cellvalue.RichText) int {
	for i, e := range b.entries {
		if e.IsRich && e.Rich.Equal(rt) {
			return i
		}
	}
	i := len(b.entries)
	b.entries = append(b.entries, Entry{Plain: rt.PlainText(), Rich: rt, IsRich: true})
	return i
}

// Len returns the number of interned entries.
func (b *Builder) Len() int { return len(b.entries) }

// Build materializes a read-side Table with the same contents, useful for
// round-trip tests that write then immediately inspect without going
// through the ZIP archive.
func (b *Builder) Build() *Table {
	return &Table{entries: append([]Entry(nil), b.entries...)}
}

// Marshal serializes the intern table to xl/sharedStrings.xml bytes using
// adnsv/srw/xml, the teacher's own OOXML XML writer.
func (b *Builder) Marshal() []byte {
	var buf bytes.Buffer
	x := xml.NewWriter(&buf, xml.WriterConfig{Indent: xml.Indent2Spaces})
	x.XmlStandaloneDecl()
	x.OTag("sst")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/spreadsheetml/2006/main")
	x.Attr("count", len(b.entries))
	x.Attr("uniqueCount", len(b.entries))

	for _, e := range b.entries {
		x.OTag("+si")
		if e.IsRich {
			for _, run := range e.Rich.Runs {
				writeRun(x, run)
			}
		} else {
			x.OTag("t")
			if needsPreserve(e.Plain) {
				x.Attr("xml:space", "preserve")
			}
			x.Write(e.Plain)
			x.CTag()
		}
		x.CTag() // si
	}

	x.CTag() // sst
	return buf.Bytes()
}

func writeRun(x *xml.Writer, run cellvalue.TextRun) {
	x.OTag("+r")
	hasProps := run.Bold || run.Italic || run.Strikethrough || run.Underline != cellvalue.UnderlineNone ||
		run.FontName != "" || run.FontSize != 0 || run.Color != "" || run.HasThemeColor || run.VerticalAlign != cellvalue.VerticalAlignNone
	if hasProps {
		x.OTag("+rPr")
		if run.Bold {
			x.OTag("b").CTag()
		}
		if run.Italic {
			x.OTag("i").CTag()
		}
		if run.Strikethrough {
			x.OTag("strike").CTag()
		}
		if run.Underline != cellvalue.UnderlineNone {
			x.OTag("u")
			if run.Underline != cellvalue.UnderlineSingle {
				x.Attr("val", string(run.Underline))
			}
			x.CTag()
		}
		if run.VerticalAlign != cellvalue.VerticalAlignNone {
			x.OTag("vertAlign").Attr("val", string(run.VerticalAlign)).CTag()
		}
		if run.FontSize != 0 {
			x.OTag("sz").Attr("val", run.FontSize).CTag()
		}
		if run.HasThemeColor {
			x.OTag("color").Attr("theme", run.ThemeColor).CTag()
		} else if run.Color != "" {
			x.OTag("color").Attr("rgb", run.Color).CTag()
		}
		if run.FontName != "" {
			x.OTag("rFont").Attr("val", run.FontName).CTag()
		}
		x.CTag() // rPr
	}
	x.OTag("t")
	if needsPreserve(run.Text) {
		x.Attr("xml:space", "preserve")
	}
	x.Write(run.Text)
	x.CTag()
	x.CTag() // r
}

// needsPreserve reports whether t has leading/trailing whitespace that
// would otherwise be collapsed by a conforming XML consumer, requiring
// xml:space="preserve" on write (spec.md §4.3).
func needsPreserve(t string) bool {
	if t == "" {
		return false
	}
	return t[0] == ' ' || t[0] == '\t' || t[len(t)-1] == ' ' || t[len(t)-1] == '\t'
}
