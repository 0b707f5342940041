package biz

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/damianb/minori/internal/archive"
	"github.com/damianb/minori/internal/imaging"
	apperrors "github.com/damianb/minori/internal/pkg/errors"
	"github.com/damianb/minori/internal/pkg/storage"
	"github.com/damianb/minori/internal/pkg/token"
	"github.com/damianb/minori/internal/pkg/workerpool"
)

// Image is one page of an album. A record exists before its file is
// uploaded; Filename is set once the pipeline has stored it.
type Image struct {
	ID               int64
	Token            string
	Filename         *string
	OriginalFilename *string
	Uploaded         bool
	CreatedAt        time.Time
	UploadedAt       *time.Time
	AlbumID          int64
	OrderKey         int
}

// ImageRepo defines the interface for image data operations
type ImageRepo interface {
	// ListByAlbum returns the album's images in reading order:
	// order key ascending, then original filename ascending.
	ListByAlbum(ctx context.Context, albumID int64) ([]*Image, error)
	GetByToken(ctx context.Context, albumID int64, token string) (*Image, error)
	Create(ctx context.Context, image *Image) error
	CreateBatch(ctx context.Context, images []*Image) error
	Update(ctx context.Context, image *Image) error
	Delete(ctx context.Context, id int64) error
}

// ImageUseCase contains business logic for image operations
type ImageUseCase struct {
	repo     ImageRepo
	albums   AlbumRepo
	aliases  *AliasUseCase
	uploads  storage.Store
	thumbs   storage.Store
	pipeline *imaging.Pipeline
	pool     *workerpool.Pool
	logger   *zap.Logger
}

func NewImageUseCase(
	repo ImageRepo,
	albums AlbumRepo,
	aliases *AliasUseCase,
	uploads, thumbs storage.Store,
	pipeline *imaging.Pipeline,
	pool *workerpool.Pool,
	logger *zap.Logger,
) *ImageUseCase {
	return &ImageUseCase{
		repo:     repo,
		albums:   albums,
		aliases:  aliases,
		uploads:  uploads,
		thumbs:   thumbs,
		pipeline: pipeline,
		pool:     pool,
		logger:   logger,
	}
}

func (uc *ImageUseCase) ListImages(ctx context.Context, albumTok string) ([]*Image, error) {
	album, err := uc.albums.GetByToken(ctx, albumTok)
	if err != nil {
		return nil, albumError(err)
	}

	images, err := uc.repo.ListByAlbum(ctx, album.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return images, nil
}

// CreateImage registers an image slot in the album; the file itself
// arrives through a later upload.
func (uc *ImageUseCase) CreateImage(ctx context.Context, albumTok string) (*Image, error) {
	album, err := uc.albums.GetByToken(ctx, albumTok)
	if err != nil {
		return nil, albumError(err)
	}

	img := &Image{
		Token:     token.New(),
		Uploaded:  false,
		CreatedAt: time.Now(),
		AlbumID:   album.ID,
	}
	if err := uc.repo.Create(ctx, img); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return img, nil
}

func (uc *ImageUseCase) GetImage(ctx context.Context, albumTok, imageTok string) (*Image, error) {
	album, err := uc.albums.GetByToken(ctx, albumTok)
	if err != nil {
		return nil, albumError(err)
	}

	img, err := uc.repo.GetByToken(ctx, album.ID, imageTok)
	if err != nil {
		return nil, imageError(err)
	}
	return img, nil
}

// UploadImage runs the file through the pipeline and marks the record
// uploaded. Invalid files are rejected without touching the record.
func (uc *ImageUseCase) UploadImage(ctx context.Context, albumTok, imageTok, originalFilename string, data []byte) (*Image, error) {
	img, err := uc.GetImage(ctx, albumTok, imageTok)
	if err != nil {
		return nil, err
	}

	filename, err := uc.pipeline.Process(ctx, data, img.Token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	img.OriginalFilename = &originalFilename
	img.Filename = &filename
	img.Uploaded = true
	img.UploadedAt = &now

	if err := uc.repo.Update(ctx, img); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	uc.logger.Info("image uploaded",
		zap.String("album", albumTok),
		zap.String("image", imageTok),
		zap.String("filename", filename),
	)
	return img, nil
}

func (uc *ImageUseCase) SetImageOrder(ctx context.Context, albumTok, imageTok string, order int) (*Image, error) {
	img, err := uc.GetImage(ctx, albumTok, imageTok)
	if err != nil {
		return nil, err
	}

	img.OrderKey = order
	if err := uc.repo.Update(ctx, img); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return img, nil
}

// MakeCover marks the image as its album's cover.
func (uc *ImageUseCase) MakeCover(ctx context.Context, albumTok, imageTok string) error {
	album, err := uc.albums.GetByToken(ctx, albumTok)
	if err != nil {
		return albumError(err)
	}

	img, err := uc.repo.GetByToken(ctx, album.ID, imageTok)
	if err != nil {
		return imageError(err)
	}

	if err := uc.albums.SetCover(ctx, album.ID, &img.ID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return nil
}

func (uc *ImageUseCase) RegenerateThumbnail(ctx context.Context, albumTok, imageTok string) error {
	img, err := uc.GetImage(ctx, albumTok, imageTok)
	if err != nil {
		return err
	}

	if !img.Uploaded || img.Filename == nil {
		return apperrors.New(apperrors.ErrImageNotUploaded)
	}

	return uc.pipeline.RegenerateThumbnail(ctx, *img.Filename, formatFromFilename(*img.Filename))
}

// DeleteImage removes the record and any stored files.
func (uc *ImageUseCase) DeleteImage(ctx context.Context, albumTok, imageTok string) error {
	img, err := uc.GetImage(ctx, albumTok, imageTok)
	if err != nil {
		return err
	}

	if img.Uploaded && img.Filename != nil {
		if err := uc.uploads.Delete(ctx, *img.Filename); err != nil {
			uc.logger.Warn("failed to delete image file",
				zap.String("filename", *img.Filename), zap.Error(err))
		}
		if err := uc.thumbs.Delete(ctx, *img.Filename); err != nil {
			uc.logger.Warn("failed to delete thumbnail file",
				zap.String("filename", *img.Filename), zap.Error(err))
		}
	}

	if err := uc.repo.Delete(ctx, img.ID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return nil
}

// BulkImport populates an album from an uploaded zip or cbz archive.
// A cbz manifest updates the album metadata and scopes which entries
// count as pages; anything that is not a valid image is skipped.
func (uc *ImageUseCase) BulkImport(ctx context.Context, albumTok, archiveFilename string, data []byte) ([]*Image, error) {
	album, err := uc.albums.GetByToken(ctx, albumTok)
	if err != nil {
		return nil, albumError(err)
	}

	files, err := archive.Extract(data)
	if err != nil {
		return nil, err
	}

	prefix := ""
	coverEntry := ""
	isCbz := strings.EqualFold(filepath.Ext(archiveFilename), ".cbz")
	if isCbz {
		for _, f := range files {
			if f.Name != "index.json" {
				continue
			}
			manifest := archive.ParseManifest(f.Data)
			prefix = manifest.Prefix
			coverEntry = manifest.CoverEntry
			if err := uc.applyManifest(ctx, album, manifest); err != nil {
				return nil, err
			}
			break
		}
	}

	// entries outside the manifest's naming scheme are not pages
	var candidates []archive.File
	for _, f := range files {
		if prefix != "" && !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		candidates = append(candidates, f)
	}

	tokens := make([]string, len(candidates))
	for i := range candidates {
		tokens[i] = token.New()
	}

	type outcome struct {
		filename string
		ok       bool
		err      error
	}
	outcomes := make([]outcome, len(candidates))

	var wg sync.WaitGroup
	for i := range candidates {
		i := i
		wg.Add(1)
		err := uc.pool.Submit(func() {
			defer wg.Done()
			filename, ok, err := uc.pipeline.TryProcess(ctx, candidates[i].Data, tokens[i])
			outcomes[i] = outcome{filename: filename, ok: ok, err: err}
		})
		if err != nil {
			wg.Done()
			return nil, apperrors.Wrap(err, apperrors.ErrUploadFailed)
		}
	}
	wg.Wait()

	now := time.Now()
	var images []*Image
	var coverIdx = -1
	var failure error
	for i, f := range candidates {
		out := outcomes[i]
		if out.err != nil {
			failure = out.err
			continue
		}
		if !out.ok {
			continue
		}

		origName := f.Name
		if prefix != "" {
			origName = strings.TrimPrefix(origName, prefix)
		}

		filename := out.filename
		img := &Image{
			Token:            tokens[i],
			Filename:         &filename,
			OriginalFilename: &origName,
			Uploaded:         true,
			CreatedAt:        now,
			UploadedAt:       &now,
			AlbumID:          album.ID,
		}

		if coverEntry != "" && f.Name == coverEntry {
			coverIdx = len(images)
		}
		images = append(images, img)
	}

	if failure != nil {
		uc.cleanupStored(ctx, images)
		uc.logger.Error("archive upload failed", zap.Error(failure))
		return nil, apperrors.Wrap(failure, apperrors.ErrUploadFailed)
	}

	if len(images) > 0 {
		if err := uc.repo.CreateBatch(ctx, images); err != nil {
			uc.cleanupStored(ctx, images)
			uc.logger.Error("archive upload failed", zap.Error(err))
			return nil, apperrors.Wrap(err, apperrors.ErrUploadFailed)
		}
	}

	if coverIdx >= 0 {
		if err := uc.albums.SetCover(ctx, album.ID, &images[coverIdx].ID); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
		}
	}

	uc.logger.Info("archive imported",
		zap.String("album", albumTok),
		zap.Int("entries", len(files)),
		zap.Int("images", len(images)),
		zap.Bool("cbz", isCbz),
	)
	return images, nil
}

// applyManifest folds the manifest's album metadata into the record.
func (uc *ImageUseCase) applyManifest(ctx context.Context, album *Album, manifest *archive.ImportManifest) error {
	changed := false

	if manifest.HasPublicURL {
		url := manifest.PublicURL
		album.URL = &url
		changed = true
	}
	if manifest.HasAuthor {
		alias, err := uc.aliases.Resolve(ctx, manifest.Author)
		if err != nil {
			return err
		}
		album.AuthorAliasID = alias.ID
		album.AuthorAlias = alias
		album.LegacyAuthor = alias.Name
		changed = true
	}
	if manifest.HasTitle {
		album.Title = manifest.Title
		changed = true
	}

	if !changed {
		return nil
	}
	if err := uc.albums.Update(ctx, album); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return nil
}

// cleanupStored removes files the pipeline already persisted for a
// batch that is being rolled back.
func (uc *ImageUseCase) cleanupStored(ctx context.Context, images []*Image) {
	for _, img := range images {
		if img.Filename == nil {
			continue
		}
		if err := uc.uploads.Delete(ctx, *img.Filename); err != nil {
			uc.logger.Warn("cleanup failed for image file",
				zap.String("filename", *img.Filename), zap.Error(err))
		}
		if err := uc.thumbs.Delete(ctx, *img.Filename); err != nil {
			uc.logger.Warn("cleanup failed for thumbnail file",
				zap.String("filename", *img.Filename), zap.Error(err))
		}
	}
}

func imageError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.New(apperrors.ErrImageNotFound)
	}
	return apperrors.Wrap(err, apperrors.ErrInternalServer)
}
