// Package cellvalue holds the resolved, typed representation of a cell's
// contents (spec.md §3 CellValue) and the rich-text run model shared by
// shared strings and inline strings.
package cellvalue

import (
	"strconv"
	"strings"
)

// Kind discriminates the CellValue variant.
type Kind int

const (
	Empty Kind = iota
	Number
	Text
	Boolean
	RichTextKind
	ErrorKind
	Date
)

// Value is the tagged CellValue variant from spec.md §3. Exactly one of the
// typed fields is meaningful, selected by Kind; Value is returned by value
// (not by pointer) since it is always small and immutable once resolved.
type Value struct {
	Kind Kind

	number float64
	text   string
	rich   RichText
	errs   string
	date   float64 // serial, only meaningful when Kind == Date
}

func NewEmpty() Value { return Value{Kind: Empty} }

func NewNumber(f float64) Value { return Value{Kind: Number, number: f} }

func NewText(s string) Value { return Value{Kind: Text, text: s} }

func NewBoolean(b bool) Value {
	n := 0.0
	if b {
		n = 1.0
	}
	return Value{Kind: Boolean, number: n}
}

func NewRichText(rt RichText) Value {
	return Value{Kind: RichTextKind, rich: rt, text: rt.PlainText()}
}

func NewError(token string) Value { return Value{Kind: ErrorKind, errs: token} }

func NewDate(serial float64) Value { return Value{Kind: Date, date: serial} }

// IsEmpty reports whether the value is the Empty variant.
func (v Value) IsEmpty() bool { return v.Kind == Empty }

// Number returns the numeric payload (meaningful for Number and Date kinds).
func (v Value) Number() float64 {
	if v.Kind == Date {
		return v.date
	}
	return v.number
}

// Bool returns the boolean payload (meaningful for the Boolean kind).
func (v Value) Bool() bool { return v.number != 0 }

// Text returns the plain-text payload. For RichTextKind this is the
// concatenation of all runs, matching spec.md §4.3's invariant that
// plain(i) agrees between a rich and plain entry with the same
// concatenation.
func (v Value) Text() string { return v.text }

// ErrorToken returns the raw error token (e.g. "#DIV/0!") for the ErrorKind
// variant.
func (v Value) ErrorToken() string { return v.errs }

// RichText returns the rich-text run sequence for the RichTextKind variant.
// For every other kind it returns a zero-value RichText.
func (v Value) RichText() RichText { return v.rich }

// Equal reports whether two values represent the same resolved cell
// content. Used by round-trip tests.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case Empty:
		return true
	case Number, Boolean:
		return v.number == other.number
	case Date:
		return v.date == other.date
	case Text:
		return v.text == other.text
	case ErrorKind:
		return v.errs == other.errs
	case RichTextKind:
		return v.rich.Equal(other.rich)
	default:
		return false
	}
}

// String renders a human-readable form of v, for logging and CLI output.
// It is not used by any round-trip or equality logic.
func (v Value) String() string {
	switch v.Kind {
	case Empty:
		return ""
	case Number:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	case Date:
		return strconv.FormatFloat(v.date, 'g', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.Bool())
	case Text, RichTextKind:
		return v.text
	case ErrorKind:
		return v.errs
	default:
		return ""
	}
}

// VerticalAlign is the ST_VerticalAlignRun value of a rich-text run.
type VerticalAlign string

const (
	VerticalAlignNone         VerticalAlign = ""
	VerticalAlignSuperscript  VerticalAlign = "superscript"
	VerticalAlignSubscript    VerticalAlign = "subscript"
	VerticalAlignBaseline     VerticalAlign = "baseline"
)

// UnderlineStyle is the ST_UnderlineValues value of a rich-text run.
type UnderlineStyle string

const (
	UnderlineNone   UnderlineStyle = ""
	UnderlineSingle UnderlineStyle = "single"
	UnderlineDouble UnderlineStyle = "double"
)

// TextRun is one run of a rich-text string: a span of text sharing one set
// of font properties.
type TextRun struct {
	Text          string
	FontName      string
	FontSize      float64 // 0 means "unset"
	Color         string  // hex RGB, e.g. "FF0000"; empty if unset
	ThemeColor    int32
	HasThemeColor bool
	Bold          bool
	Italic        bool
	Underline     UnderlineStyle
	Strikethrough bool
	VerticalAlign VerticalAlign
}

// Equal compares two runs field-by-field.
func (r TextRun) Equal(o TextRun) bool {
	return r == o
}

// RichText is an ordered sequence of TextRuns, spec.md §3.
type RichText struct {
	Runs []TextRun
}

// PlainText concatenates every run's text.
func (rt RichText) PlainText() string {
	var sb strings.Builder
	for _, r := range rt.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Equal compares two rich-text values run-by-run.
func (rt RichText) Equal(o RichText) bool {
	if len(rt.Runs) != len(o.Runs) {
		return false
	}
	for i := range rt.Runs {
		if !rt.Runs[i].Equal(o.Runs[i]) {
			return false
		}
	}
	return true
}
