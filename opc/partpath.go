// Package opc implements the Open Packaging Conventions layer spec.md §4.1
// sits on top of: a ZIP archive presented as a mapping from absolute part
// path to bytes, plus the two package-wide sidecars ([Content_Types].xml and
// per-part _rels/*.rels relationship files).
//
// This is grounded on the teacher's (adnsv/go-xl) writer.go content-types
// and relationship bookkeeping (GlobalRels/WorkbookRels/PartContentTypes
// maps, flushed at the end of Write), generalized to also read an existing
// package, and on TsubasaBE/go-xlsb's rels.go/workbook.go relationship
// resolution for the read half.
package opc

import (
	"path"
	"strings"
)

// PartPath is an absolute, slash-rooted part identifier, e.g. "/xl/workbook.xml".
type PartPath string

// Well-known part paths.
const (
	ContentTypesPart PartPath = "/[Content_Types].xml"
	RootRelsPart     PartPath = "/_rels/.rels"
	WorkbookPart     PartPath = "/xl/workbook.xml"
	SharedStringsPart PartPath = "/xl/sharedStrings.xml"
	StylesPart       PartPath = "/xl/styles.xml"
)

// NewPartPath normalizes s into a PartPath: ensures a single leading slash
// and cleans the path with path.Clean, which collapses "." segments and
// also resolves ".." segments (never above the root).
func NewPartPath(s string) PartPath {
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	return PartPath(path.Clean(s))
}

// FileName returns the final path segment, e.g. "workbook.xml".
func (p PartPath) FileName() string {
	return path.Base(string(p))
}

// Directory returns the part's containing directory as an absolute path
// with no trailing slash (the root directory is "/").
func (p PartPath) Directory() string {
	d := path.Dir(string(p))
	if d == "." {
		return "/"
	}
	return d
}

// ZipEntryPath returns the path as it appears as a ZIP entry name: the same
// path with the leading slash stripped.
func (p PartPath) ZipEntryPath() string {
	return strings.TrimPrefix(string(p), "/")
}

// RelationshipsPath returns the path of this part's relationships file: the
// "_rels" sibling directory, same file name, ".rels" appended. E.g.
// "/xl/workbook.xml" -> "/xl/_rels/workbook.xml.rels".
func (p PartPath) RelationshipsPath() PartPath {
	dir := p.Directory()
	name := p.FileName()
	if dir == "/" {
		return PartPath("/_rels/" + name + ".rels")
	}
	return PartPath(dir + "/_rels/" + name + ".rels")
}

// Extension returns the file extension without the leading dot, lower-cased
// ("xml", "rels", "png"). Returns "" if the file name has no extension.
func (p PartPath) Extension() string {
	name := p.FileName()
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// resolveRelative joins a relative target to a base directory, collapsing
// ".." segments, and returns an absolute PartPath.
func resolveRelative(baseDir, target string) PartPath {
	if strings.HasPrefix(target, "/") {
		return NewPartPath(target)
	}
	joined := path.Join(baseDir, target)
	return NewPartPath(joined)
}
