package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/damianb/minori/internal/pkg/errors"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractSortsNaturally(t *testing.T) {
	data := buildZip(t, map[string]string{
		"page10.png":        "j",
		"page2.png":         "b",
		"page1.png":         "a",
		"nested/page3.png":  "c",
		"nested/":           "",
		"another/page4.png": "d",
	})

	files, err := Extract(data)
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"page1.png", "page2.png", "page3.png", "page4.png", "page10.png"}, names)
	assert.Equal(t, "a", string(files[0].Data))
}

func TestExtractRejectsNonZip(t *testing.T) {
	_, err := Extract([]byte("this is not a zip archive"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArchive))
}

func TestParseManifest(t *testing.T) {
	m := ParseManifest([]byte(`{
		"id": "abc123",
		"title": "Some Album",
		"author": "Somebody",
		"public_url": "https://gallery.example/album.html#abc123",
		"cover_entry": "00000000_000002.png",
		"chapters": {
			"abc123": {"entries": "00000000_\\d{6}"}
		}
	}`))

	assert.True(t, m.HasTitle)
	assert.Equal(t, "Some Album", m.Title)
	assert.True(t, m.HasAuthor)
	assert.Equal(t, "Somebody", m.Author)
	assert.True(t, m.HasPublicURL)
	assert.Equal(t, "00000000_000002.png", m.CoverEntry)
	assert.Equal(t, "00000000_", m.Prefix)
}

func TestParseManifestMissingFields(t *testing.T) {
	m := ParseManifest([]byte(`{"rating": -1}`))

	assert.False(t, m.HasTitle)
	assert.False(t, m.HasAuthor)
	assert.False(t, m.HasPublicURL)
	assert.Empty(t, m.Prefix)
	assert.Empty(t, m.CoverEntry)
}

func TestParseManifestEmptyAuthorIsPresent(t *testing.T) {
	m := ParseManifest([]byte(`{"author": ""}`))

	assert.True(t, m.HasAuthor)
	assert.Empty(t, m.Author)
}

func TestWriterRoundTrip(t *testing.T) {
	manifest := NewManifest("tok123", "My Album", "Somebody",
		"https://img.example/thumbs/tok/cover.png",
		"https://gallery.example", "1.2.0",
		[]ManifestTag{NewManifestTag("artist:some one")})

	var buf bytes.Buffer
	w := NewWriter(&buf, manifest)

	name, err := w.AddImage(".png", strings.NewReader("first"), false)
	require.NoError(t, err)
	assert.Equal(t, "00000000_000000.png", name)

	name, err = w.AddImage(".jpeg", strings.NewReader("second"), true)
	require.NoError(t, err)
	assert.Equal(t, "00000000_000001.jpeg", name)

	require.NoError(t, w.Close())

	files, err := Extract(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, files, 3)

	var indexData []byte
	for _, f := range files {
		if f.Name == "index.json" {
			indexData = f.Data
		}
	}
	require.NotNil(t, indexData)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(indexData, &got))
	assert.Equal(t, "tok123", got["id"])
	assert.Equal(t, "My Album", got["title"])
	assert.Equal(t, "/album.html#tok123", got["url"])
	assert.Equal(t, "https://gallery.example/album.html#tok123", got["public_url"])
	assert.Equal(t, float64(-1), got["rating"])
	assert.Equal(t, "minori", got["source"])
	assert.Equal(t, "minori", got["app_id"])
	assert.Equal(t, "120", got["app_version"])
	assert.Equal(t, "00000000_000001.jpeg", got["cover_entry"])

	tags := got["tags"].([]interface{})
	require.Len(t, tags, 1)
	tag := tags[0].(map[string]interface{})
	assert.Equal(t, "artist:some-one", tag["key"])
	assert.Equal(t, "artist:some one", tag["title"])

	chapters := got["chapters"].(map[string]interface{})
	chapter := chapters["tok123"].(map[string]interface{})
	assert.Equal(t, `00000000_\d{6}`, chapter["entries"])
	assert.Equal(t, "english", chapter["branch"])

	// an exported manifest must round-trip through the importer
	parsed := ParseManifest(indexData)
	assert.Equal(t, "00000000_", parsed.Prefix)
	assert.Equal(t, "My Album", parsed.Title)
}

func TestManifestNoTagsMarshalsEmptyArray(t *testing.T) {
	manifest := NewManifest("tok", "t", "", "", "https://x", "1.0.0", nil)
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags":[]`)
}
