package opc

import "testing"

func TestRelationshipsAddGetByType(t *testing.T) {
	rs := NewRelationships()
	rs.Add(Relationship{ID: "rId1", Type: RelTypeWorksheet, Target: "worksheets/sheet1.xml"})
	rs.Add(Relationship{ID: "rId2", Type: RelTypeStyles, Target: "styles.xml"})
	rs.Add(Relationship{ID: "rId3", Type: RelTypeWorksheet, Target: "worksheets/sheet2.xml"})

	if rs.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", rs.Len())
	}

	rel, ok := rs.Get("rId2")
	if !ok || rel.Target != "styles.xml" {
		t.Errorf("Get(rId2) = %+v, %v", rel, ok)
	}

	sheets := rs.ByType(RelTypeWorksheet)
	if len(sheets) != 2 {
		t.Fatalf("ByType(worksheet) returned %d, want 2", len(sheets))
	}
	if sheets[0].ID != "rId1" || sheets[1].ID != "rId3" {
		t.Errorf("ByType should preserve insertion order, got %+v", sheets)
	}
}

func TestRelationshipsAddOverwritesKeepsOrder(t *testing.T) {
	rs := NewRelationships()
	rs.Add(Relationship{ID: "rId1", Type: RelTypeWorksheet, Target: "a.xml"})
	rs.Add(Relationship{ID: "rId2", Type: RelTypeStyles, Target: "b.xml"})
	rs.Add(Relationship{ID: "rId1", Type: RelTypeWorksheet, Target: "c.xml"})

	all := rs.All()
	if len(all) != 2 {
		t.Fatalf("All() = %d entries, want 2", len(all))
	}
	if all[0].ID != "rId1" || all[0].Target != "c.xml" {
		t.Errorf("overwritten relationship should keep its original position, got %+v", all[0])
	}
}

func TestParseRelationshipsRoundTrip(t *testing.T) {
	rs := NewRelationships()
	rs.Add(Relationship{ID: "rId1", Type: RelTypeOfficeDocument, Target: "xl/workbook.xml"})
	rs.Add(Relationship{ID: "rId2", Type: RelTypeHyperlink, Target: "https://example.com", IsExternal: true})

	data, err := rs.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	parsed, err := ParseRelationships(data)
	if err != nil {
		t.Fatalf("ParseRelationships: %v", err)
	}
	if parsed.Len() != 2 {
		t.Fatalf("parsed.Len() = %d, want 2", parsed.Len())
	}
	rel, ok := parsed.Get("rId2")
	if !ok || !rel.IsExternal || rel.Target != "https://example.com" {
		t.Errorf("external relationship did not round-trip: %+v, %v", rel, ok)
	}
	rel1, ok := parsed.Get("rId1")
	if !ok || rel1.Type != RelTypeOfficeDocument || rel1.Target != "xl/workbook.xml" {
		t.Errorf("office document relationship did not round-trip: %+v, %v", rel1, ok)
	}
}

func TestParseRelationshipsRejectsMissingRequiredAttrs(t *testing.T) {
	bad := []byte(`<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Type="x" Target=""/></Relationships>`)
	if _, err := ParseRelationships(bad); err == nil {
		t.Error("expected error for relationship missing Id/Target")
	}
}
