package opc

import (
	"archive/zip"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/adnsv/xlcore/xlerrors"
)

// Writer assembles a fresh OPC package from scratch: parts and their
// content types are buffered as they are added, and relationships are
// buffered per source part until Finalize serializes every *.rels file,
// [Content_Types].xml, and the part bytes themselves into the archive.
//
// This generalizes the teacher's (adnsv/go-xl) Writer bookkeeping —
// GlobalRels/WorkbookRels/PartContentTypes maps flushed at the end of
// Write — from two hard-coded relationship scopes (global and workbook) to
// an arbitrary per-source-part map, so that worksheet-level relationships
// (hyperlinks, comments, drawings) fit the same model as the
// root-and-workbook ones the teacher handled.
type Writer struct {
	parts        map[PartPath][]byte
	partOrder    []PartPath
	contentTypes *ContentTypes
	rels         map[PartPath]*Relationships // source part -> its outgoing relationships
	relOrder     []PartPath
	nextRelID    map[PartPath]int
}

// NewWriter returns an empty package writer.
func NewWriter() *Writer {
	return &Writer{
		parts:        map[PartPath][]byte{},
		contentTypes: NewContentTypes(),
		rels:         map[PartPath]*Relationships{},
		nextRelID:    map[PartPath]int{},
	}
}

// AddPart buffers path's bytes and records its content type (as an
// override, so it always takes precedence over any extension default).
func (w *Writer) AddPart(path PartPath, data []byte, ct ContentType) {
	if _, exists := w.parts[path]; !exists {
		w.partOrder = append(w.partOrder, path)
	}
	w.parts[path] = data
	w.contentTypes.SetOverride(path, ct)
}

// SetDefaultContentType registers an extension-wide content type, used for
// parts whose type is conventionally inferred from extension (e.g. "png",
// "vml") rather than given an explicit per-part override.
func (w *Writer) SetDefaultContentType(ext string, ct ContentType) {
	w.contentTypes.SetDefault(ext, ct)
}

// AddRelationship buffers a relationship from source part "from" to rel's
// target, to be serialized into from.RelationshipsPath() at Finalize. It
// returns the relationship ID assigned if rel.ID is empty ("rId1", "rId2",
// ... scoped per source part, matching the teacher's nextGlobalID/
// nextWorkbookID counters).
func (w *Writer) AddRelationship(from PartPath, rel Relationship) string {
	if rel.ID == "" {
		w.nextRelID[from]++
		rel.ID = ridFor(w.nextRelID[from])
	}
	rs, ok := w.rels[from]
	if !ok {
		rs = NewRelationships()
		w.rels[from] = rs
		w.relOrder = append(w.relOrder, from)
	}
	rs.Add(rel)
	return rel.ID
}

func ridFor(n int) string {
	return "rId" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// NewMediaName derives a stable, content-addressed file name for an
// embedded media blob, e.g. for "/xl/media/<name>". Grounded on the
// teacher's BlobHash (media.go): a name-based SHA-1 UUID of the blob bytes,
// followed by the given extension (including its leading dot).
func NewMediaName(blob []byte, ext string) string {
	h := uuid.NewSHA1(uuid.Nil, blob)
	return h.String() + ext
}

// Finalize serializes every buffered *.rels file and [Content_Types].xml,
// then writes every part (plus all rels files and the content-types part)
// into a ZIP archive written to out, in the fixed order spec.md §4.7
// prescribes: content-types last, after all overrides are known.
func (w *Writer) Finalize(out io.Writer) error {
	zw := zip.NewWriter(out)

	writeEntry := func(path PartPath, data []byte) error {
		f, err := zw.Create(path.ZipEntryPath())
		if err != nil {
			return xlerrors.Wrap(xlerrors.IO, string(path), err)
		}
		if _, err := f.Write(data); err != nil {
			return xlerrors.Wrap(xlerrors.IO, string(path), err)
		}
		return nil
	}

	for _, path := range w.partOrder {
		if err := writeEntry(path, w.parts[path]); err != nil {
			return err
		}
	}

	sortedSources := append([]PartPath(nil), w.relOrder...)
	sort.Slice(sortedSources, func(i, j int) bool { return sortedSources[i] < sortedSources[j] })
	for _, src := range sortedSources {
		data, err := w.rels[src].Marshal()
		if err != nil {
			return err
		}
		if err := writeEntry(src.RelationshipsPath(), data); err != nil {
			return err
		}
	}

	ctData, err := w.contentTypes.marshal()
	if err != nil {
		return err
	}
	if err := writeEntry(ContentTypesPart, ctData); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return xlerrors.Wrap(xlerrors.IO, "finalize archive", err)
	}
	return nil
}
