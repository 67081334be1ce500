package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adnsv/xlcore"
	"github.com/adnsv/xlcore/cellref"
	"github.com/adnsv/xlcore/writer"
)

func writeSampleFile(t *testing.T) string {
	t.Helper()
	wb := xlcore.NewWorkbookWriter()
	idx := wb.AddSheet("Sheet1")
	wb.ModifySheet(idx, func(sb *writer.SheetBuilder) {
		sb.WriteText(cellref.MustParse("A1"), "hello")
	})
	wb.AddSheet("Sheet2")

	var buf bytes.Buffer
	if err := wb.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sample.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestSheetsCommandListsSheetNames(t *testing.T) {
	path := writeSampleFile(t)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sheets", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"Sheet1", "Sheet2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("sheets output %q does not list %q", out.String(), want)
		}
	}
}

func TestDumpCommandRejectsUnknownSheet(t *testing.T) {
	path := writeSampleFile(t)

	root := newRootCmd()
	root.SetArgs([]string{"dump", "--sheet", "NoSuchSheet", path})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "no such sheet") {
		t.Errorf("Execute() error = %v, want \"no such sheet\"", err)
	}
}

func TestSheetsCommandRequiresExactlyOneArg(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"sheets"})
	if err := root.Execute(); err == nil {
		t.Error("sheets with no path argument should fail")
	}
}
