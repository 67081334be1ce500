package opc

import (
	"encoding/xml"

	"github.com/adnsv/xlcore/xlerrors"
)

// RelationshipType is a closed set of OOXML-defined relationship type URIs
// (spec.md §3). Unrecognized type URIs still round-trip through
// Relationship.Type as an opaque string; these constants exist for callers
// that need to match by type without hard-coding the URI.
type RelationshipType string

const (
	RelTypeOfficeDocument RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeWorksheet      RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	RelTypeStyles         RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	RelTypeSharedStrings  RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	RelTypeTheme          RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	RelTypeComments       RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
	RelTypeVMLDrawing     RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/vmlDrawing"
	RelTypeDrawing        RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/drawing"
	RelTypeTable          RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/table"
	RelTypeChart          RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chart"
	RelTypeHyperlink      RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	RelTypeImage          RelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Relationship is a single typed, directed edge from a source part to a
// target, spec.md §3.
type Relationship struct {
	ID         string
	Type       RelationshipType
	Target     string // raw Target attribute: relative path, absolute path, or external URL
	IsExternal bool
}

// ResolveTarget resolves rel's Target relative to sourcePart. External
// relationships (IsExternal, e.g. hyperlinks to a URL) return the raw
// Target unchanged. Absolute targets (leading "/") bypass sourcePart's
// directory entirely; relative targets are joined to sourcePart's directory
// with ".." segments collapsed.
func (rel Relationship) ResolveTarget(sourcePart PartPath) string {
	if rel.IsExternal {
		return rel.Target
	}
	return string(resolveRelative(sourcePart.Directory(), rel.Target))
}

// Relationships is the parsed/built contents of one *.rels part: a
// collection of Relationship values, indexed by ID (unique per source part)
// and queryable by Type (many relationships may share a type).
type Relationships struct {
	byID  map[string]Relationship
	order []string // insertion order, for deterministic serialization
}

// NewRelationships returns an empty collection.
func NewRelationships() *Relationships {
	return &Relationships{byID: map[string]Relationship{}}
}

// Add records rel, keyed by rel.ID. A duplicate ID overwrites the prior
// entry but keeps its original position in iteration order.
func (rs *Relationships) Add(rel Relationship) {
	if _, exists := rs.byID[rel.ID]; !exists {
		rs.order = append(rs.order, rel.ID)
	}
	rs.byID[rel.ID] = rel
}

// Get returns the relationship with the given ID.
func (rs *Relationships) Get(id string) (Relationship, bool) {
	rel, ok := rs.byID[id]
	return rel, ok
}

// ByType returns every relationship whose Type matches, in insertion order.
func (rs *Relationships) ByType(t RelationshipType) []Relationship {
	var out []Relationship
	for _, id := range rs.order {
		if rel := rs.byID[id]; rel.Type == t {
			out = append(out, rel)
		}
	}
	return out
}

// All returns every relationship in insertion order.
func (rs *Relationships) All() []Relationship {
	out := make([]Relationship, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.byID[id])
	}
	return out
}

// Len returns the number of relationships.
func (rs *Relationships) Len() int { return len(rs.order) }

// ── XML (de)serialization ─────────────────────────────────────────────────

type relsXML struct {
	XMLName       xml.Name         `xml:"Relationships"`
	Xmlns         string           `xml:"xmlns,attr"`
	Relationships []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// ParseRelationships parses the raw bytes of a *.rels XML document.
// encoding/xml.Unmarshal is used here (rather than the streaming xmlstream
// reader) because a .rels document is always small and flat — a single
// repeated element with no nesting — matching how TsubasaBE/go-xlsb's
// internal/rels package and every grate-derived reader in the pack treats
// it.
func ParseRelationships(data []byte) (*Relationships, error) {
	var doc relsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, xlerrors.Wrap(xlerrors.InvalidXML, "parse relationships", err)
	}
	rs := NewRelationships()
	for _, r := range doc.Relationships {
		if r.ID == "" || r.Target == "" {
			return nil, xlerrors.InvalidXMLf("relationship missing required Id/Target attribute")
		}
		rs.Add(Relationship{
			ID:         r.ID,
			Type:       RelationshipType(r.Type),
			Target:     r.Target,
			IsExternal: r.TargetMode == "External",
		})
	}
	return rs, nil
}

// Marshal serializes the collection back to *.rels XML bytes.
func (rs *Relationships) Marshal() ([]byte, error) {
	doc := relsXML{Xmlns: "http://schemas.openxmlformats.org/package/2006/relationships"}
	for _, id := range rs.order {
		rel := rs.byID[id]
		rx := relationshipXML{ID: rel.ID, Type: string(rel.Type), Target: rel.Target}
		if rel.IsExternal {
			rx.TargetMode = "External"
		}
		doc.Relationships = append(doc.Relationships, rx)
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, xlerrors.Wrap(xlerrors.IO, "marshal relationships", err)
	}
	return append([]byte(xml.Header), out...), nil
}
