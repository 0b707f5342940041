package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// EntryPattern is the entries expression written into exported
// manifests; importers derive the page-name prefix from it.
const EntryPattern = `00000000_\d{6}`

const entryPrefix = "00000000_"

// ManifestTag is one tag entry in an exported manifest.
type ManifestTag struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// NewManifestTag builds a tag entry from its display string.
func NewManifestTag(display string) ManifestTag {
	return ManifestTag{
		Key:   strings.ReplaceAll(display, " ", "-"),
		Title: display,
	}
}

// Chapter describes the single chapter an exported album contains.
type Chapter struct {
	Number     int    `json:"number"`
	Volume     int    `json:"volume"`
	URL        string `json:"url"`
	Name       string `json:"name"`
	UploadDate int    `json:"uploadDate"`
	Branch     string `json:"branch"`
	Entries    string `json:"entries"`
}

// Manifest is the index.json payload of an exported cbz.
type Manifest struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	URL        string             `json:"url"`
	PublicURL  string             `json:"public_url"`
	Author     string             `json:"author"`
	Cover      string             `json:"cover"`
	Rating     int                `json:"rating"`
	Source     string             `json:"source"`
	Tags       []ManifestTag      `json:"tags"`
	Chapters   map[string]Chapter `json:"chapters"`
	AppID      string             `json:"app_id"`
	AppVersion string             `json:"app_version"`
	CoverEntry string             `json:"cover_entry"`
}

// NewManifest assembles an export manifest for one album. coverURL may
// be empty when the album has no cover. version has its dots stripped.
func NewManifest(albumToken, title, author, coverURL, frontendBase, version string, tags []ManifestTag) *Manifest {
	if tags == nil {
		tags = []ManifestTag{}
	}
	url := "/album.html#" + albumToken
	return &Manifest{
		ID:        albumToken,
		Title:     title,
		URL:       url,
		PublicURL: frontendBase + url,
		Author:    author,
		Cover:     coverURL,
		Rating:    -1,
		Source:    "minori",
		Tags:      tags,
		Chapters: map[string]Chapter{
			albumToken: {
				Number:     1,
				Volume:     0,
				URL:        url,
				Name:       title,
				UploadDate: 0,
				Branch:     "english",
				Entries:    EntryPattern,
			},
		},
		AppID:      "minori",
		AppVersion: strings.ReplaceAll(version, ".", ""),
	}
}

// Writer builds a cbz archive, numbering pages in the order they are
// added and finishing with the index.json manifest.
type Writer struct {
	zw       *zip.Writer
	manifest *Manifest
	next     int
}

func NewWriter(w io.Writer, manifest *Manifest) *Writer {
	return &Writer{
		zw:       zip.NewWriter(w),
		manifest: manifest,
	}
}

// AddImage appends the next page. ext is the filename extension with
// its leading dot. When isCover is set the manifest's cover_entry is
// pointed at this page.
func (w *Writer) AddImage(ext string, r io.Reader, isCover bool) (string, error) {
	name := fmt.Sprintf("%s%06d%s", entryPrefix, w.next, ext)
	fw, err := w.zw.Create(name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", err
	}
	if isCover {
		w.manifest.CoverEntry = name
	}
	w.next++
	return name, nil
}

// Close writes index.json and finalizes the archive.
func (w *Writer) Close() error {
	data, err := json.Marshal(w.manifest)
	if err != nil {
		return err
	}
	fw, err := w.zw.Create("index.json")
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	return w.zw.Close()
}
