// Package archive reads and writes the zip/cbz bundles used for bulk
// album import and export. A cbz is a zip with an index.json manifest
// describing the album and the naming scheme of its page entries.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"regexp"
	"sort"

	"github.com/maruel/natural"
	"github.com/tidwall/gjson"

	apperrors "github.com/damianb/minori/internal/pkg/errors"
)

// File is one extracted archive member, flattened to its base name.
type File struct {
	Name string
	Data []byte
}

// Extract unpacks a zip archive and returns its regular files sorted
// naturally by base name, the order pages are expected to read in.
func Extract(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidArchive)
	}

	var files []File
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrInvalidArchive)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrInvalidArchive)
		}
		files = append(files, File{
			Name: path.Base(member.Name),
			Data: content,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return natural.Less(files[i].Name, files[j].Name)
	})
	return files, nil
}

// ImportManifest is the subset of an index.json the importer acts on.
type ImportManifest struct {
	Title        string
	HasTitle     bool
	Author       string
	HasAuthor    bool
	PublicURL    string
	HasPublicURL bool
	CoverEntry   string
	Prefix       string
}

// entrySuffix strips the trailing digit-count pattern from a chapter
// entries expression, leaving the fixed filename prefix.
var entrySuffix = regexp.MustCompile(`\\d\{\d+\}$`)

// ParseManifest reads the fields the importer understands out of an
// index.json payload. Missing fields leave the matching Has flag unset.
func ParseManifest(data []byte) *ImportManifest {
	m := &ImportManifest{}

	if v := gjson.GetBytes(data, "title"); v.Exists() {
		m.Title = v.String()
		m.HasTitle = true
	}
	if v := gjson.GetBytes(data, "author"); v.Exists() {
		m.Author = v.String()
		m.HasAuthor = true
	}
	if v := gjson.GetBytes(data, "public_url"); v.Exists() {
		m.PublicURL = v.String()
		m.HasPublicURL = true
	}
	if v := gjson.GetBytes(data, "cover_entry"); v.Exists() {
		m.CoverEntry = v.String()
	}

	// The entries expression lives under chapters keyed by the source
	// album id.
	if id := gjson.GetBytes(data, "id"); id.Exists() {
		entries := gjson.GetBytes(data, "chapters."+id.String()+".entries")
		if entries.Exists() {
			m.Prefix = entrySuffix.ReplaceAllString(entries.String(), "")
		}
	}

	return m
}
