package cellvalue

import "testing"

func TestEqualAcrossKinds(t *testing.T) {
	n1 := NewNumber(3.5)
	n2 := NewNumber(3.5)
	n3 := NewNumber(4.5)
	if !n1.Equal(n2) {
		t.Error("equal numbers should compare equal")
	}
	if n1.Equal(n3) {
		t.Error("different numbers should not compare equal")
	}
	if n1.Equal(NewText("3.5")) {
		t.Error("Number and Text should never compare equal regardless of payload")
	}
}

func TestEqualEmpty(t *testing.T) {
	if !NewEmpty().Equal(NewEmpty()) {
		t.Error("two Empty values should compare equal")
	}
}

func TestEqualBoolean(t *testing.T) {
	if !NewBoolean(true).Equal(NewBoolean(true)) {
		t.Error("equal booleans should compare equal")
	}
	if NewBoolean(true).Equal(NewBoolean(false)) {
		t.Error("different booleans should not compare equal")
	}
}

func TestEqualDate(t *testing.T) {
	if !NewDate(44000).Equal(NewDate(44000)) {
		t.Error("equal date serials should compare equal")
	}
	if NewDate(44000).Equal(NewNumber(44000)) {
		t.Error("Date and Number with the same payload should not compare equal (different Kind)")
	}
}

func TestEqualError(t *testing.T) {
	if !NewError("#DIV/0!").Equal(NewError("#DIV/0!")) {
		t.Error("equal error tokens should compare equal")
	}
	if NewError("#DIV/0!").Equal(NewError("#N/A")) {
		t.Error("different error tokens should not compare equal")
	}
}

func TestRichTextPlainTextAgreement(t *testing.T) {
	rt := RichText{Runs: []TextRun{
		{Text: "Hello, "},
		{Text: "World", Bold: true},
	}}
	rich := NewRichText(rt)
	plain := NewText("Hello, World")
	if rich.Text() != plain.Text() {
		t.Errorf("rich.Text() = %q, want %q to agree with plain entry", rich.Text(), plain.Text())
	}
}

func TestRichTextEqual(t *testing.T) {
	a := RichText{Runs: []TextRun{{Text: "a", Bold: true}, {Text: "b"}}}
	b := RichText{Runs: []TextRun{{Text: "a", Bold: true}, {Text: "b"}}}
	c := RichText{Runs: []TextRun{{Text: "a", Bold: false}, {Text: "b"}}}
	if !a.Equal(b) {
		t.Error("identical rich text should compare equal")
	}
	if a.Equal(c) {
		t.Error("rich text differing in run formatting should not compare equal")
	}
	if a.Equal(RichText{Runs: []TextRun{{Text: "a", Bold: true}}}) {
		t.Error("rich text with different run counts should not compare equal")
	}
}

func TestStringDisplay(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NewEmpty(), ""},
		{NewNumber(3.5), "3.5"},
		{NewBoolean(true), "true"},
		{NewBoolean(false), "false"},
		{NewText("hi"), "hi"},
		{NewError("#REF!"), "#REF!"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestNumberAndBoolShareStorage(t *testing.T) {
	if NewBoolean(true).Number() != 1 {
		t.Error("NewBoolean(true).Number() should be 1")
	}
	if NewBoolean(false).Number() != 0 {
		t.Error("NewBoolean(false).Number() should be 0")
	}
}

func TestDateNumberIsolatedFromNumberKind(t *testing.T) {
	d := NewDate(123.25)
	if d.Number() != 123.25 {
		t.Errorf("Date.Number() = %v, want 123.25", d.Number())
	}
}
