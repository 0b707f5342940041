// Package imaging validates uploaded images, persists the originals and
// renders the thumbnails that gallery listings are served from.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	apperrors "github.com/damianb/minori/internal/pkg/errors"
	"github.com/damianb/minori/internal/pkg/storage"
	"github.com/damianb/minori/internal/pkg/token"
)

// allowedFormats are the sniffed format names accepted for upload.
var allowedFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// Pipeline persists validated originals and their thumbnails.
type Pipeline struct {
	uploads   storage.Store
	thumbs    storage.Store
	thumbSize int
	logger    *zap.Logger
}

func New(uploads, thumbs storage.Store, thumbSize int, logger *zap.Logger) *Pipeline {
	if thumbSize <= 0 {
		thumbSize = 500
	}
	return &Pipeline{
		uploads:   uploads,
		thumbs:    thumbs,
		thumbSize: thumbSize,
		logger:    logger,
	}
}

// Filename derives the storage path for an image token and sniffed
// format: the first three characters of the token shard the directory,
// the decoded UUID names the file.
func Filename(imageToken, format string) (string, error) {
	id, err := token.Decode(imageToken)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s.%s", imageToken[:3], id.String(), format), nil
}

// Process validates the image bytes, stores the original untouched and
// renders a thumbnail. It returns the storage filename. Non-images and
// disallowed formats fail with a client error.
func (p *Pipeline) Process(ctx context.Context, data []byte, imageToken string) (string, error) {
	filename, ok, err := p.process(ctx, data, imageToken, true)
	if err != nil {
		return "", err
	}
	if !ok {
		// strict mode never reports a silent skip
		return "", apperrors.New(apperrors.ErrInvalidImage)
	}
	return filename, nil
}

// TryProcess is the bulk-import variant: non-images and disallowed
// formats are skipped (ok=false) instead of failing the whole batch.
// Storage failures are still returned as errors.
func (p *Pipeline) TryProcess(ctx context.Context, data []byte, imageToken string) (filename string, ok bool, err error) {
	return p.process(ctx, data, imageToken, false)
}

func (p *Pipeline) process(ctx context.Context, data []byte, imageToken string, strict bool) (string, bool, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if !strict {
			return "", false, nil
		}
		return "", false, apperrors.Wrap(err, apperrors.ErrInvalidImage)
	}

	if !allowedFormats[format] {
		if !strict {
			return "", false, nil
		}
		return "", false, apperrors.New(apperrors.ErrInvalidFileType, format)
	}

	filename, err := Filename(imageToken, format)
	if err != nil {
		return "", false, apperrors.Wrap(err, apperrors.ErrInvalidParams)
	}

	// The original is persisted byte for byte, so animated images keep
	// all their frames.
	if err := p.uploads.Save(ctx, filename, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", false, apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}

	if err := p.saveThumbnail(ctx, data, filename, format); err != nil {
		// don't leave an original behind without its thumbnail
		if derr := p.uploads.Delete(ctx, filename); derr != nil {
			p.logger.Warn("failed to remove original after thumbnail failure",
				zap.String("filename", filename), zap.Error(derr))
		}
		return "", false, err
	}

	p.logger.Debug("image processed",
		zap.String("token", imageToken),
		zap.String("filename", filename),
		zap.String("format", format),
	)
	return filename, true, nil
}

// RegenerateThumbnail re-renders the thumbnail for an already stored
// original.
func (p *Pipeline) RegenerateThumbnail(ctx context.Context, filename, format string) error {
	rc, err := p.uploads.Open(ctx, filename)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}
	return p.saveThumbnail(ctx, data, filename, format)
}

func (p *Pipeline) saveThumbnail(ctx context.Context, data []byte, filename, format string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidImage)
	}

	size := uint(p.thumbSize)
	thumb := resize.Thumbnail(size, size, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85})
	case "gif":
		err = gif.Encode(&buf, thumb, nil)
	default:
		// png, and webp which has no encoder; browsers sniff content
		err = png.Encode(&buf, thumb)
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}

	if err := p.thumbs.Save(ctx, filename, &buf, int64(buf.Len())); err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}
	return nil
}
