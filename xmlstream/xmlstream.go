// Package xmlstream is the single forward-only XML event reader shared by
// every part parser (sharedstrings, styles, worksheet, workbook). It exists
// so that element-stack bookkeeping, attribute lookup, and
// xml:space="preserve" handling are implemented once instead of once per
// part, per spec.md §4.2 and DESIGN NOTES ("XML dispatch... a state machine
// over events with an explicit element stack").
//
// The underlying token source is the standard library's encoding/xml.Decoder
// — see SPEC_FULL.md's "Open Question" section for why no third-party
// streaming XML reader from the retrieved pack was a better fit; this
// mirrors the decoder-loop shape used directly by the grate/excelize-derived
// readers in _examples/other_examples.
package xmlstream

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/adnsv/xlcore/xlerrors"
)

// EventKind discriminates the three event shapes a caller needs: element
// start, element end, and text content. Comments, processing instructions,
// and directives are silently skipped by Next.
type EventKind int

const (
	Start EventKind = iota
	End
	Text
)

// Event is one token in the stream. For Start, Name and Attrs are
// meaningful; for End, only Name; for Text, only CharData.
type Event struct {
	Kind     EventKind
	Name     string // local name only; element namespace prefixes are always stripped
	Attrs    []Attr
	CharData string
}

// Attr is a single attribute on a Start event. Name preserves a literal
// "r:" prefix (e.g. "r:id") since spec.md §4.2 requires the r: relationship
// attribute to be matched by qualified name while every other element/attr
// comparison is by local name only.
type Attr struct {
	Name  string
	Value string
}

// Get returns the value of the named attribute and whether it was present.
// Attribute access is case-sensitive, per spec.md §4.2.
func (e Event) Get(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// GetDefault returns the named attribute's value, or def if absent.
func (e Event) GetDefault(name, def string) string {
	if v, ok := e.Get(name); ok {
		return v
	}
	return def
}

// Reader drives an encoding/xml.Decoder and yields Events, tracking an
// explicit element stack so callers can ask "what element are we inside".
type Reader struct {
	dec      *xml.Decoder
	stack    []string
	preserve []bool // per open element: whether xml:space="preserve" is in effect
}

// NewReader wraps r as an XML event stream.
func NewReader(r io.Reader) *Reader {
	dec := xml.NewDecoder(r)
	// OOXML parts are UTF-8; tolerate a declared charset by treating unknown
	// charsets as passthrough bytes rather than failing the whole part.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return &Reader{dec: dec}
}

// Next returns the next event. At end of document it returns io.EOF.
// Comments, directives, and processing instructions are skipped
// transparently. Whitespace-only CharData is skipped unless an enclosing
// element carries xml:space="preserve"; any other CharData is returned
// verbatim (encoding/xml already performs entity decoding).
func (r *Reader) Next() (Event, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err == io.EOF {
				return Event{}, io.EOF
			}
			return Event{}, xlerrors.Wrap(xlerrors.InvalidXML, "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := localName(t.Name)
			r.stack = append(r.stack, name)
			keep := r.inPreserve()
			attrs := make([]Attr, 0, len(t.Attr))
			for _, a := range t.Attr {
				if a.Name.Local == "space" && (a.Name.Space == "xml" || a.Name.Space == "http://www.w3.org/XML/1998/namespace") {
					keep = a.Value == "preserve"
				}
				attrs = append(attrs, Attr{Name: attrName(a.Name), Value: a.Value})
			}
			r.preserve = append(r.preserve, keep)
			return Event{Kind: Start, Name: name, Attrs: attrs}, nil
		case xml.EndElement:
			name := localName(t.Name)
			if len(r.stack) > 0 {
				r.stack = r.stack[:len(r.stack)-1]
				r.preserve = r.preserve[:len(r.preserve)-1]
			}
			return Event{Kind: End, Name: name}, nil
		case xml.CharData:
			if len(bytesTrimmableAllWhitespace(t)) == 0 && !r.inPreserve() {
				continue
			}
			return Event{Kind: Text, CharData: string(t)}, nil
		default:
			continue // comments, PIs, directives
		}
	}
}

func (r *Reader) inPreserve() bool {
	return len(r.preserve) > 0 && r.preserve[len(r.preserve)-1]
}

// Stack returns the current element-name stack, outermost first. The
// element most recently opened (and not yet closed) is last.
func (r *Reader) Stack() []string {
	return append([]string(nil), r.stack...)
}

// In reports whether name is anywhere on the current element stack.
func (r *Reader) In(name string) bool {
	for _, s := range r.stack {
		if s == name {
			return true
		}
	}
	return false
}

// Skip consumes and discards every event up to and including the matching
// End event for the Start event just returned by Next (whose Name is
// passed in). This implements spec.md §4.9's "unrecognised elements are
// skipped with their subtree".
func (r *Reader) Skip(name string) error {
	depth := 1
	for depth > 0 {
		ev, err := r.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case Start:
			if ev.Name == name {
				depth++
			}
		case End:
			if ev.Name == name {
				depth--
			}
		}
	}
	return nil
}

func localName(n xml.Name) string {
	return n.Local
}

// attrName preserves the "r:" prefix specifically (the only namespace
// prefix spec.md §4.2 requires qualified matching for); every other
// attribute is reduced to its local name.
func attrName(n xml.Name) string {
	if n.Space == "http://schemas.openxmlformats.org/officeDocument/2006/relationships" || n.Space == "r" {
		return "r:" + n.Local
	}
	if n.Space != "" && n.Space != "xmlns" {
		return n.Local
	}
	return n.Local
}

func bytesTrimmableAllWhitespace(b []byte) []byte {
	return []byte(strings.TrimSpace(string(b)))
}

// EscapeText returns s with the three entities required in XML text content
// (&, <, >) escaped; quotes are left as they are. It is available to
// code paths that build XML fragments without going through adnsv/srw/xml.
func EscapeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeAttr returns s with the entities required inside a double-quoted
// XML attribute value escaped (the five predefined entities).
func EscapeAttr(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Errorf builds an xlerrors.InvalidXML error with call-site context, used by
// part parsers to report a missing mandatory attribute or malformed
// structure (spec.md §4.9).
func Errorf(format string, args ...any) error {
	return xlerrors.InvalidXMLf(format, args...)
}
