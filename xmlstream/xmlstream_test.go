package xmlstream

import (
	"io"
	"strings"
	"testing"
)

func TestNextEmitsStartEndAndText(t *testing.T) {
	r := NewReader(strings.NewReader(`<root><child attr="v">hello</child></root>`))

	ev, err := r.Next()
	if err != nil || ev.Kind != Start || ev.Name != "root" {
		t.Fatalf("expected root start, got %+v, err=%v", ev, err)
	}

	ev, err = r.Next()
	if err != nil || ev.Kind != Start || ev.Name != "child" {
		t.Fatalf("expected child start, got %+v, err=%v", ev, err)
	}
	if v, ok := ev.Get("attr"); !ok || v != "v" {
		t.Errorf("Get(attr) = %q, %v, want v, true", v, ok)
	}

	ev, err = r.Next()
	if err != nil || ev.Kind != Text || ev.CharData != "hello" {
		t.Fatalf("expected text 'hello', got %+v, err=%v", ev, err)
	}

	ev, err = r.Next()
	if err != nil || ev.Kind != End || ev.Name != "child" {
		t.Fatalf("expected child end, got %+v, err=%v", ev, err)
	}

	ev, err = r.Next()
	if err != nil || ev.Kind != End || ev.Name != "root" {
		t.Fatalf("expected root end, got %+v, err=%v", ev, err)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF at document end, got %v", err)
	}
}

func TestNextSkipsWhitespaceOnlyText(t *testing.T) {
	r := NewReader(strings.NewReader("<root>\n  <child/>\n</root>"))
	ev, _ := r.Next()
	if ev.Name != "root" {
		t.Fatalf("expected root, got %+v", ev)
	}
	ev, _ = r.Next()
	if ev.Kind != Start || ev.Name != "child" {
		t.Fatalf("whitespace-only text should be skipped, got %+v", ev)
	}
}

func TestRelationshipAttributeQualified(t *testing.T) {
	r := NewReader(strings.NewReader(
		`<sheet xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" r:id="rId1" name="Sheet1"/>`))
	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v, ok := ev.Get("r:id"); !ok || v != "rId1" {
		t.Errorf("Get(r:id) = %q, %v, want rId1, true", v, ok)
	}
	if v, ok := ev.Get("name"); !ok || v != "Sheet1" {
		t.Errorf("Get(name) = %q, %v, want Sheet1, true", v, ok)
	}
}

func TestGetDefault(t *testing.T) {
	r := NewReader(strings.NewReader(`<sheet name="Sheet1"/>`))
	ev, _ := r.Next()
	if got := ev.GetDefault("state", "visible"); got != "visible" {
		t.Errorf("GetDefault(missing) = %q, want visible", got)
	}
	if got := ev.GetDefault("name", "x"); got != "Sheet1" {
		t.Errorf("GetDefault(present) = %q, want Sheet1", got)
	}
}

func TestStackAndIn(t *testing.T) {
	r := NewReader(strings.NewReader(`<a><b><c/></b></a>`))
	r.Next() // a start
	r.Next() // b start
	ev, _ := r.Next()
	if ev.Name != "c" {
		t.Fatalf("expected c start, got %+v", ev)
	}
	if !r.In("a") || !r.In("b") {
		t.Error("stack should contain a and b while inside c's start tag")
	}
	stack := r.Stack()
	if len(stack) != 3 || stack[0] != "a" || stack[1] != "b" || stack[2] != "c" {
		t.Errorf("Stack() = %v, want [a b c]", stack)
	}
}

func TestSkipConsumesSubtree(t *testing.T) {
	r := NewReader(strings.NewReader(`<root><skip><nested><a/></nested></skip><after/></root>`))
	r.Next() // root start
	ev, _ := r.Next()
	if ev.Name != "skip" {
		t.Fatalf("expected skip start, got %+v", ev)
	}
	if err := r.Skip("skip"); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	ev, err := r.Next()
	if err != nil || ev.Kind != Start || ev.Name != "after" {
		t.Fatalf("expected after start following skip, got %+v, err=%v", ev, err)
	}
}

func TestEscapeTextAndAttr(t *testing.T) {
	in := `<a & "b" 'c'>`
	gotText := EscapeText(in)
	if strings.ContainsAny(gotText, "<>") || !strings.Contains(gotText, "&amp;") {
		t.Errorf("EscapeText(%q) = %q, angle brackets and & should be escaped", in, gotText)
	}
	gotAttr := EscapeAttr(in)
	for _, want := range []string{"&amp;", "&lt;", "&gt;", "&quot;", "&apos;"} {
		if !strings.Contains(gotAttr, want) {
			t.Errorf("EscapeAttr(%q) missing %q, got %q", in, want, gotAttr)
		}
	}
}

func TestMalformedXMLReturnsInvalidXMLError(t *testing.T) {
	r := NewReader(strings.NewReader(`<root><unclosed>`))
	for {
		_, err := r.Next()
		if err == io.EOF {
			t.Fatal("expected an error for unclosed element, got io.EOF")
		}
		if err != nil {
			return
		}
	}
}
