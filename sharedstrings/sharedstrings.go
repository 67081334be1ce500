// Package sharedstrings parses and builds xl/sharedStrings.xml: the
// workbook-wide table of de-duplicated string values referenced by index
// from cells (spec.md §4.3).
package sharedstrings

import (
	"io"
	"strconv"

	"github.com/adnsv/xlcore/cellvalue"
	"github.com/adnsv/xlcore/xmlstream"
)

// Entry is one <si> item: either a plain string or a rich-text run
// sequence, spec.md §3.
type Entry struct {
	Plain string
	Rich  cellvalue.RichText
	IsRich bool
}

// Table holds the shared strings parsed from (or destined for)
// xl/sharedStrings.xml, indexed by position.
type Table struct {
	entries []Entry
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Plain returns the plain-text rendering of entry i: for a rich entry this
// is the concatenation of its runs (spec.md §4.3's invariant that plain(i)
// agrees between a rich and plain entry with the same concatenation). The
// second return is false when i is out of [0, Len()).
func (t *Table) Plain(i int) (string, bool) {
	if i < 0 || i >= len(t.entries) {
		return "", false
	}
	return t.entries[i].Plain, true
}

// RichText returns the rich-text run sequence for entry i. It returns
// (_, false) for plain entries and for out-of-range indices, matching
// spec.md §4.3 ("richText(i) returns none for plain entries").
func (t *Table) RichText(i int) (cellvalue.RichText, bool) {
	if i < 0 || i >= len(t.entries) || !t.entries[i].IsRich {
		return cellvalue.RichText{}, false
	}
	return t.entries[i].Rich, true
}

// Parse reads a full xl/sharedStrings.xml document.
func Parse(r io.Reader) (*Table, error) {
	xr := xmlstream.NewReader(r)
	t := &Table{}

	// Find <sst>, then iterate its <si> children.
	for {
		ev, err := xr.Next()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		if ev.Kind == xmlstream.Start && ev.Name == "si" {
			entry, err := parseSI(xr)
			if err != nil {
				return nil, err
			}
			t.entries = append(t.entries, entry)
		}
	}
}

// parseSI parses one <si>...</si> element, assuming the Start("si") event
// has already been consumed. <si> contains either a single <t> (plain text)
// or a sequence of <r> runs (spec.md §4.3).
func parseSI(xr *xmlstream.Reader) (Entry, error) {
	var runs []cellvalue.TextRun
	var plainParts []string
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return Entry{}, err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "si":
				depth++
			case "t":
				text, err := readText(xr)
				if err != nil {
					return Entry{}, err
				}
				plainParts = append(plainParts, text)
			case "r":
				run, err := parseRun(xr)
				if err != nil {
					return Entry{}, err
				}
				runs = append(runs, run)
				plainParts = append(plainParts, run.Text)
			default:
				if err := xr.Skip(ev.Name); err != nil {
					return Entry{}, err
				}
			}
		case xmlstream.End:
			if ev.Name == "si" {
				depth--
			}
		}
	}

	entry := Entry{}
	for _, p := range plainParts {
		entry.Plain += p
	}
	if len(runs) > 0 {
		entry.IsRich = true
		entry.Rich = cellvalue.RichText{Runs: runs}
	}
	return entry, nil
}

// parseRun parses one <r>...</r> rich-text run, assuming its Start event
// has been consumed.
func parseRun(xr *xmlstream.Reader) (cellvalue.TextRun, error) {
	run := cellvalue.TextRun{}
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return cellvalue.TextRun{}, err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "r":
				depth++
			case "rPr":
				if err := parseRunProps(xr, &run); err != nil {
					return cellvalue.TextRun{}, err
				}
			case "t":
				text, err := readText(xr)
				if err != nil {
					return cellvalue.TextRun{}, err
				}
				run.Text += text
			default:
				if err := xr.Skip(ev.Name); err != nil {
					return cellvalue.TextRun{}, err
				}
			}
		case xmlstream.End:
			if ev.Name == "r" {
				depth--
			}
		}
	}
	return run, nil
}

// parseRunProps parses <rPr>...</rPr>, assuming its Start event has been
// consumed, decoding the run-formatting children enumerated in spec.md §4.3.
func parseRunProps(xr *xmlstream.Reader, run *cellvalue.TextRun) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "rPr":
				depth++
			case "b":
				run.Bold = isTruthyFlag(ev)
			case "i":
				run.Italic = isTruthyFlag(ev)
			case "strike":
				run.Strikethrough = isTruthyFlag(ev)
			case "u":
				val := ev.GetDefault("val", "single")
				run.Underline = cellvalue.UnderlineStyle(val)
			case "rFont":
				run.FontName = ev.GetDefault("val", "")
			case "sz":
				if v, ok := ev.Get("val"); ok {
					run.FontSize, _ = strconv.ParseFloat(v, 64)
				}
			case "color":
				if rgb, ok := ev.Get("rgb"); ok {
					run.Color = rgb
				} else if theme, ok := ev.Get("theme"); ok {
					n, _ := strconv.Atoi(theme)
					run.ThemeColor = int32(n)
					run.HasThemeColor = true
				}
			case "vertAlign":
				run.VerticalAlign = cellvalue.VerticalAlign(ev.GetDefault("val", ""))
			default:
				// unknown rPr child: skip its subtree if it has one
			}
		case xmlstream.End:
			if ev.Name == "rPr" {
				depth--
			}
		}
	}
	return nil
}

// isTruthyFlag reports whether a boolean-flag element like <b/> or
// <b val="0"/> should be treated as set. Absent "val" means true (an empty
// element is the on-switch); "val" of "0"/"false" means false.
func isTruthyFlag(ev xmlstream.Event) bool {
	v, ok := ev.Get("val")
	if !ok {
		return true
	}
	return v != "0" && v != "false"
}

func readText(xr *xmlstream.Reader) (string, error) {
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
			if ev.Name == "t" {
				return string(sb), nil
			}
		}
	}
}
