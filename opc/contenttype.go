package opc

// ContentType is an opaque MIME-like string identifying a part's schema.
// spec.md §3 calls for a closed set of well-known constants covering the
// parts this engine reads and writes; custom or future part types still
// round-trip as opaque strings through ContentTypes.Override.
type ContentType string

// Well-known content types, per spec.md §3 and §6.
const (
	ContentTypeRelationships = ContentType("application/vnd.openxmlformats-package.relationships+xml")
	ContentTypeWorkbook      = ContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml")
	ContentTypeWorksheet     = ContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml")
	ContentTypeStyles        = ContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml")
	ContentTypeSharedStrings = ContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml")
	ContentTypeTheme         = ContentType("application/vnd.openxmlformats-officedocument.theme+xml")
	ContentTypeComments      = ContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.comments+xml")
	ContentTypeVMLDrawing    = ContentType("application/vnd.openxmlformats-officedocument.vmlDrawing")
	ContentTypeDrawing       = ContentType("application/vnd.openxmlformats-officedocument.drawing+xml")
	ContentTypeTable         = ContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.table+xml")
	ContentTypeChart         = ContentType("application/vnd.openxmlformats-officedocument.drawingml.chart+xml")
	ContentTypeCoreProps     = ContentType("application/vnd.openxmlformats-package.core-properties+xml")
	ContentTypeExtendedProps = ContentType("application/vnd.openxmlformats-officedocument.extended-properties+xml")
	ContentTypePNG           = ContentType("image/png")
	ContentTypeJPEG          = ContentType("image/jpeg")
	ContentTypeGIF           = ContentType("image/gif")
)

// ContentTypes is the parsed/built [Content_Types].xml table: a set of
// extension-keyed defaults plus part-path-keyed overrides, where an override
// always wins. Invariant (spec.md §3 OPCPackage): every part listed in a
// package either matches a Default extension or has an Override.
type ContentTypes struct {
	Defaults  map[string]ContentType  // file extension (no dot, lower-case) -> type
	Overrides map[PartPath]ContentType // part path -> type
}

// NewContentTypes returns a table seeded with the single "rels" Default; no
// "xml" Default is added, so other parts need an Override or a Default
// registered by the caller (xlcore's writer adds defaults for media
// extensions lazily as parts are added).
func NewContentTypes() *ContentTypes {
	return &ContentTypes{
		Defaults:  map[string]ContentType{"rels": ContentTypeRelationships},
		Overrides: map[PartPath]ContentType{},
	}
}

// Lookup resolves the content type of a part: an Override always wins over
// a Default keyed by the part's extension. Returns ("", false) if neither
// applies.
func (ct *ContentTypes) Lookup(p PartPath) (ContentType, bool) {
	if t, ok := ct.Overrides[p]; ok {
		return t, true
	}
	if t, ok := ct.Defaults[p.Extension()]; ok {
		return t, true
	}
	return "", false
}

// SetOverride records a part-specific content type, taking precedence over
// any Default for the same extension.
func (ct *ContentTypes) SetOverride(p PartPath, t ContentType) {
	ct.Overrides[p] = t
}

// SetDefault records an extension-wide content type.
func (ct *ContentTypes) SetDefault(ext string, t ContentType) {
	ct.Defaults[ext] = t
}
