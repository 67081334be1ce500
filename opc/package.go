package opc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"sync"

	"github.com/adnsv/xlcore/xlerrors"
)

// Package is an opened OPC archive: a read-only view over its ZIP entries,
// content-types table, and root relationships, with per-part relationship
// files resolved and cached on demand (spec.md §3 OPCPackage, §4.1).
//
// Package is treated as immutable once Open returns, per spec.md §5: it may
// be shared across goroutines for concurrent reads without synchronization.
type Package struct {
	entries      map[string][]byte // zip entry path (no leading slash) -> raw bytes
	partPaths    []PartPath        // ordered set, in ZIP entry order
	contentTypes *ContentTypes
	rootRels     *Relationships
	relsMu       sync.Mutex // guards relsCache, which Relationships fills lazily
	relsCache    map[PartPath]*Relationships
}

// Open reads every entry of the ZIP archive backed by r (size bytes long)
// and parses [Content_Types].xml and /_rels/.rels.
func Open(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, xlerrors.Wrap(xlerrors.IO, "open zip archive", err)
	}

	pkg := &Package{
		entries:   map[string][]byte{},
		relsCache: map[PartPath]*Relationships{},
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, xlerrors.Wrap(xlerrors.IO, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, xlerrors.Wrap(xlerrors.IO, f.Name, err)
		}
		if closeErr != nil {
			return nil, xlerrors.Wrap(xlerrors.IO, f.Name, closeErr)
		}
		pkg.entries[f.Name] = data
		pkg.partPaths = append(pkg.partPaths, NewPartPath(f.Name))
	}

	ctBytes, ok := pkg.entries[ContentTypesPart.ZipEntryPath()]
	if !ok {
		return nil, xlerrors.MissingPartf(string(ContentTypesPart))
	}
	ct, err := parseContentTypes(ctBytes)
	if err != nil {
		return nil, err
	}
	pkg.contentTypes = ct

	rootRelsBytes, ok := pkg.entries[RootRelsPart.ZipEntryPath()]
	if !ok {
		return nil, xlerrors.MissingPartf(string(RootRelsPart))
	}
	rootRels, err := ParseRelationships(rootRelsBytes)
	if err != nil {
		return nil, err
	}
	pkg.rootRels = rootRels

	return pkg, nil
}

// PartExists reports whether path names a ZIP entry in the archive.
func (p *Package) PartExists(path PartPath) bool {
	_, ok := p.entries[path.ZipEntryPath()]
	return ok
}

// ReadPart returns the raw bytes of path, or xlerrors.MissingPart.
func (p *Package) ReadPart(path PartPath) ([]byte, error) {
	data, ok := p.entries[path.ZipEntryPath()]
	if !ok {
		return nil, xlerrors.MissingPartf(string(path))
	}
	return data, nil
}

// ContentType resolves the content type of path: an override always wins
// over the extension default. Returns ("", false) if neither is defined.
func (p *Package) ContentType(path PartPath) (ContentType, bool) {
	return p.contentTypes.Lookup(path)
}

// PartPaths returns every part path in the archive, in ZIP entry order.
func (p *Package) PartPaths() []PartPath {
	return append([]PartPath(nil), p.partPaths...)
}

// RootRelationships returns the package-level relationships parsed from
// /_rels/.rels.
func (p *Package) RootRelationships() *Relationships {
	return p.rootRels
}

// FindMainDocument scans the root relationships for an officeDocument-typed
// entry, spec.md §4.1.
func (p *Package) FindMainDocument() (Relationship, bool) {
	rels := p.rootRels.ByType(RelTypeOfficeDocument)
	if len(rels) == 0 {
		return Relationship{}, false
	}
	return rels[0], true
}

// Relationships returns (and caches) the relationships declared for part
// path's own *.rels file. If that file does not exist in the archive, an
// empty (non-nil) collection is returned, per spec.md §4.1.
func (p *Package) Relationships(path PartPath) (*Relationships, error) {
	p.relsMu.Lock()
	defer p.relsMu.Unlock()
	if cached, ok := p.relsCache[path]; ok {
		return cached, nil
	}
	relsPath := path.RelationshipsPath()
	data, ok := p.entries[relsPath.ZipEntryPath()]
	if !ok {
		empty := NewRelationships()
		p.relsCache[path] = empty
		return empty, nil
	}
	rels, err := ParseRelationships(data)
	if err != nil {
		return nil, err
	}
	p.relsCache[path] = rels
	return rels, nil
}

// ── [Content_Types].xml parsing ───────────────────────────────────────────

type contentTypesXML struct {
	XMLName   xml.Name          `xml:"Types"`
	Defaults  []defaultXML      `xml:"Default"`
	Overrides []overrideXML     `xml:"Override"`
}

type defaultXML struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type overrideXML struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

func parseContentTypes(data []byte) (*ContentTypes, error) {
	var doc contentTypesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, xlerrors.Wrap(xlerrors.InvalidXML, "parse [Content_Types].xml", err)
	}
	ct := NewContentTypes()
	for _, d := range doc.Defaults {
		ct.SetDefault(d.Extension, ContentType(d.ContentType))
	}
	for _, o := range doc.Overrides {
		ct.SetOverride(NewPartPath(o.PartName), ContentType(o.ContentType))
	}
	return ct, nil
}

// marshal serializes a ContentTypes table in deterministic (sorted) order so
// that repeated writes of the same content are byte-identical.
func (ct *ContentTypes) marshal() ([]byte, error) {
	doc := contentTypesXML{}
	exts := make([]string, 0, len(ct.Defaults))
	for ext := range ct.Defaults {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		doc.Defaults = append(doc.Defaults, defaultXML{Extension: ext, ContentType: string(ct.Defaults[ext])})
	}

	parts := make([]string, 0, len(ct.Overrides))
	for p := range ct.Overrides {
		parts = append(parts, string(p))
	}
	sort.Strings(parts)
	for _, p := range parts {
		doc.Overrides = append(doc.Overrides, overrideXML{PartName: p, ContentType: string(ct.Overrides[PartPath(p)])})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	for _, d := range doc.Defaults {
		buf.WriteString(`<Default Extension="` + d.Extension + `" ContentType="` + d.ContentType + `"/>`)
	}
	for _, o := range doc.Overrides {
		buf.WriteString(`<Override PartName="` + o.PartName + `" ContentType="` + o.ContentType + `"/>`)
	}
	buf.WriteString(`</Types>`)
	return buf.Bytes(), nil
}
