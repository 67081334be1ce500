// Package workbook parses xl/workbook.xml (the writer package builds it): the sheet catalog,
// defined names, workbook-level protection, and pivot table references
// (spec.md §3 WorkbookInfo, §4.1).
package workbook

import (
	"io"
	"strconv"

	"github.com/adnsv/xlcore/xmlstream"
)

// SheetState is the visibility state of a SheetEntry.
type SheetState string

const (
	SheetVisible    SheetState = "visible"
	SheetHidden     SheetState = "hidden"
	SheetVeryHidden SheetState = "veryHidden"
)

// SheetEntry is one <sheet> catalog row.
type SheetEntry struct {
	Name           string
	SheetID        int
	RelationshipID string // r:id, resolved against workbook.xml.rels to find the worksheet part
	State          SheetState
}

// DefinedName is one <definedName name>refersTo</definedName>.
type DefinedName struct {
	Name      string
	RefersTo  string
	LocalSheetID int
	HasLocalSheetID bool
}

// Protection mirrors <workbookProtection sheet, windows, password>,
// spec.md §4.8.
type Protection struct {
	StructureProtected bool
	WindowsProtected   bool
	PasswordHash       string
}

// PivotRef is a discovered reference to a pivot-table cache part; pivot
// table rendering itself is out of scope (spec.md §1), only discovery.
type PivotRef struct {
	RelID string
	Name  string
}

// Info is the parsed contents of xl/workbook.xml, spec.md §3 WorkbookInfo.
type Info struct {
	Date1904      bool // <workbookPr date1904>: the workbook's date epoch, spec.md §4.4
	Sheets        []SheetEntry
	DefinedNames  []DefinedName
	Protection    Protection
	HasProtection bool
	PivotTables   []PivotRef
}

// Parse reads a full xl/workbook.xml document. Sheet ordering follows XML
// order, per spec.md §3.
func Parse(r io.Reader) (*Info, error) {
	xr := xmlstream.NewReader(r)
	info := &Info{}

	for {
		ev, err := xr.Next()
		if err == io.EOF {
			return info, nil
		}
		if err != nil {
			return nil, err
		}
		if ev.Kind != xmlstream.Start {
			continue
		}
		switch ev.Name {
		case "workbookPr":
			info.Date1904 = isAttrTrue(ev, "date1904")
		case "sheets":
			if err := parseSheets(xr, info); err != nil {
				return nil, err
			}
		case "definedNames":
			if err := parseDefinedNames(xr, info); err != nil {
				return nil, err
			}
		case "workbookProtection":
			info.Protection = parseProtection(ev)
			info.HasProtection = true
		case "pivotCaches":
			if err := parsePivotCaches(xr, info); err != nil {
				return nil, err
			}
		}
	}
}

func parseSheets(xr *xmlstream.Reader, info *Info) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "sheets":
				depth++
			case "sheet":
				entry, err := parseSheetEntry(ev)
				if err != nil {
					return err
				}
				info.Sheets = append(info.Sheets, entry)
			}
		case xmlstream.End:
			if ev.Name == "sheets" {
				depth--
			}
		}
	}
	return nil
}

func parseSheetEntry(ev xmlstream.Event) (SheetEntry, error) {
	name, ok := ev.Get("name")
	if !ok {
		return SheetEntry{}, xmlstream.Errorf("<sheet> missing required name attribute")
	}
	entry := SheetEntry{
		Name:           name,
		RelationshipID: ev.GetDefault("r:id", ""),
		State:          SheetVisible,
	}
	if id, ok := ev.Get("sheetId"); ok {
		entry.SheetID, _ = strconv.Atoi(id)
	}
	if state, ok := ev.Get("state"); ok {
		switch SheetState(state) {
		case SheetHidden:
			entry.State = SheetHidden
		case SheetVeryHidden:
			entry.State = SheetVeryHidden
		default:
			entry.State = SheetVisible
		}
	}
	return entry, nil
}

func parseDefinedNames(xr *xmlstream.Reader, info *Info) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "definedNames":
				depth++
			case "definedName":
				dn := DefinedName{Name: ev.GetDefault("name", "")}
				if id, ok := ev.Get("localSheetId"); ok {
					dn.LocalSheetID, _ = strconv.Atoi(id)
					dn.HasLocalSheetID = true
				}
				text, err := readCharData(xr, "definedName")
				if err != nil {
					return err
				}
				dn.RefersTo = text
				info.DefinedNames = append(info.DefinedNames, dn)
			}
		case xmlstream.End:
			if ev.Name == "definedNames" {
				depth--
			}
		}
	}
	return nil
}

func parseProtection(ev xmlstream.Event) Protection {
	return Protection{
		StructureProtected: isAttrTrue(ev, "structure") || isAttrTrue(ev, "sheet"),
		WindowsProtected:   isAttrTrue(ev, "windows"),
		PasswordHash:       ev.GetDefault("password", ""),
	}
}

func parsePivotCaches(xr *xmlstream.Reader, info *Info) error {
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case xmlstream.Start:
			switch ev.Name {
			case "pivotCaches":
				depth++
			case "pivotCache":
				info.PivotTables = append(info.PivotTables, PivotRef{
					RelID: ev.GetDefault("r:id", ""),
					Name:  ev.GetDefault("name", ""),
				})
			}
		case xmlstream.End:
			if ev.Name == "pivotCaches" {
				depth--
			}
		}
	}
	return nil
}

// readCharData reads text content until the matching end tag closeName,
// skipping over any nested elements (a <definedName> never has nested
// markup in practice, but this stays robust to it).
func readCharData(xr *xmlstream.Reader, closeName string) (string, error) {
	var sb []byte
	depth := 1
	for depth > 0 {
		ev, err := xr.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case xmlstream.Text:
			sb = append(sb, ev.CharData...)
		case xmlstream.Start:
			if ev.Name == closeName {
				depth++
			}
		case xmlstream.End:
			if ev.Name == closeName {
				depth--
			}
		}
	}
	return string(sb), nil
}

func isAttrTrue(ev xmlstream.Event, name string) bool {
	v, ok := ev.Get(name)
	if !ok {
		return false
	}
	return v == "1" || v == "true"
}
