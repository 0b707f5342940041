package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/damianb/minori/internal/pkg/errors"
	"github.com/damianb/minori/internal/pkg/storage"
	"github.com/damianb/minori/internal/pkg/token"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestPipeline(t *testing.T) (*Pipeline, storage.Store, storage.Store) {
	t.Helper()
	uploads := storage.NewDiskStore(t.TempDir())
	thumbs := storage.NewDiskStore(t.TempDir())
	return New(uploads, thumbs, 64, zap.NewNop()), uploads, thumbs
}

func TestProcessStoresOriginalAndThumbnail(t *testing.T) {
	ctx := context.Background()
	p, uploads, thumbs := newTestPipeline(t)

	tok := token.New()
	data := pngBytes(t, 256, 128)

	filename, err := p.Process(ctx, data, tok)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, tok[:3]+"/"))
	assert.True(t, strings.HasSuffix(filename, ".png"))

	rc, err := uploads.Open(ctx, filename)
	require.NoError(t, err)
	stored, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, data, stored, "original must be persisted untouched")

	rc, err = thumbs.Open(ctx, filename)
	require.NoError(t, err)
	thumb, _, err := image.Decode(rc)
	require.NoError(t, err)
	rc.Close()
	assert.LessOrEqual(t, thumb.Bounds().Dx(), 64)
	assert.LessOrEqual(t, thumb.Bounds().Dy(), 64)
}

func TestProcessKeepsSmallImagesUnscaled(t *testing.T) {
	ctx := context.Background()
	p, _, thumbs := newTestPipeline(t)

	tok := token.New()
	filename, err := p.Process(ctx, pngBytes(t, 10, 10), tok)
	require.NoError(t, err)

	rc, err := thumbs.Open(ctx, filename)
	require.NoError(t, err)
	defer rc.Close()
	thumb, _, err := image.Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, 10, thumb.Bounds().Dx())
}

func TestProcessRejectsNonImage(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	_, err := p.Process(context.Background(), []byte("definitely not an image"), token.New())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidImage))
}

func TestTryProcessSkipsNonImage(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	filename, ok, err := p.TryProcess(context.Background(), []byte("junk"), token.New())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, filename)
}

func TestTryProcessAcceptsImage(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	filename, ok, err := p.TryProcess(context.Background(), pngBytes(t, 20, 20), token.New())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, filename)
}

// failingStore rejects every write.
type failingStore struct {
	storage.Store
}

func (s *failingStore) Save(ctx context.Context, path string, r io.Reader, size int64) error {
	return errors.New("disk full")
}

func TestProcessRemovesOriginalWhenThumbnailFails(t *testing.T) {
	ctx := context.Background()
	uploads := storage.NewDiskStore(t.TempDir())
	thumbs := &failingStore{Store: storage.NewDiskStore(t.TempDir())}
	p := New(uploads, thumbs, 64, zap.NewNop())

	tok := token.New()
	filename, ok, err := p.TryProcess(ctx, pngBytes(t, 50, 50), tok)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, filename)

	derived, err := Filename(tok, "png")
	require.NoError(t, err)
	exists, err := uploads.Exists(ctx, derived)
	require.NoError(t, err)
	assert.False(t, exists, "failed member must not leave its original behind")
}

func TestRegenerateThumbnail(t *testing.T) {
	ctx := context.Background()
	p, _, thumbs := newTestPipeline(t)

	tok := token.New()
	filename, err := p.Process(ctx, pngBytes(t, 256, 256), tok)
	require.NoError(t, err)

	require.NoError(t, thumbs.Delete(ctx, filename))
	require.NoError(t, p.RegenerateThumbnail(ctx, filename, "png"))

	ok, err := thumbs.Exists(ctx, filename)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilenameDerivation(t *testing.T) {
	tok := token.New()
	id, err := token.Decode(tok)
	require.NoError(t, err)

	filename, err := Filename(tok, "jpeg")
	require.NoError(t, err)
	assert.Equal(t, tok[:3]+"/"+id.String()+".jpeg", filename)

	_, err = Filename("bad token", "png")
	assert.Error(t, err)
}
