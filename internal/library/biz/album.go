package biz

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"github.com/damianb/minori/internal/archive"
	"github.com/damianb/minori/internal/imaging"
	apperrors "github.com/damianb/minori/internal/pkg/errors"
	"github.com/damianb/minori/internal/pkg/pagination"
	"github.com/damianb/minori/internal/pkg/storage"
	"github.com/damianb/minori/internal/pkg/token"
	"github.com/damianb/minori/internal/pkg/workerpool"
)

// DefaultAlbumTitle is assigned when no title is supplied.
const DefaultAlbumTitle = "Untitled album"

const albumPageSize = 16

// Album is a collection of ordered images attributed to an author alias.
type Album struct {
	ID            int64
	Token         string
	Disabled      bool
	Title         string
	LegacyAuthor  string
	AuthorAliasID int64
	AuthorAlias   *AuthorAlias
	Description   *string
	URL           *string
	CreatedAt     time.Time
	CoverID       *int64
	Cover         *Image
	Tags          []*Tag
}

// Tag labels an album, optionally namespaced ("artist:somebody").
type Tag struct {
	ID          int64
	Token       string
	Namespace   *string
	Name        string
	Description *string
}

// Display renders the tag in its string form.
func (t *Tag) Display() string {
	if t.Namespace != nil && *t.Namespace != "" {
		return *t.Namespace + ":" + t.Name
	}
	return t.Name
}

// AlbumRepo defines the interface for album data operations
type AlbumRepo interface {
	GetByToken(ctx context.Context, token string) (*Album, error)
	List(ctx context.Context, offset, limit int, includeDisabled bool) ([]*Album, int64, error)
	ListByAliasIDs(ctx context.Context, aliasIDs []int64, offset, limit int, includeDisabled bool) ([]*Album, int64, error)
	ListAll(ctx context.Context, includeDisabled bool) ([]*Album, error)
	Create(ctx context.Context, album *Album) error
	Update(ctx context.Context, album *Album) error
	SetCover(ctx context.Context, albumID int64, imageID *int64) error
	// Delete removes the album, its image rows and its tag links in one
	// transaction. The cover reference must be cleared first.
	Delete(ctx context.Context, albumID int64) error
}

// SiteConfig carries the externally visible URLs and version baked into
// exported archives.
type SiteConfig struct {
	FrontendBaseURL string
	ImageBaseURL    string
	Version         string
}

// CreateAlbumParams are the caller-supplied fields for a new album.
// Nil fields take their defaults.
type CreateAlbumParams struct {
	Title       *string
	Author      *string
	Description *string
	URL         *string
}

// UpdateAlbumParams are the caller-supplied fields for an album update.
// Nil fields are left untouched.
type UpdateAlbumParams struct {
	Title       *string
	Author      *string
	Description *string
	URL         *string
}

// AlbumUseCase contains business logic for album operations
type AlbumUseCase struct {
	repo     AlbumRepo
	images   ImageRepo
	aliases  *AliasUseCase
	authors  AuthorRepo
	uploads  storage.Store
	thumbs   storage.Store
	pipeline *imaging.Pipeline
	pool     *workerpool.Pool
	site     SiteConfig
	logger   *zap.Logger
}

func NewAlbumUseCase(
	repo AlbumRepo,
	images ImageRepo,
	aliases *AliasUseCase,
	authors AuthorRepo,
	uploads, thumbs storage.Store,
	pipeline *imaging.Pipeline,
	pool *workerpool.Pool,
	site SiteConfig,
	logger *zap.Logger,
) *AlbumUseCase {
	return &AlbumUseCase{
		repo:     repo,
		images:   images,
		aliases:  aliases,
		authors:  authors,
		uploads:  uploads,
		thumbs:   thumbs,
		pipeline: pipeline,
		pool:     pool,
		site:     site,
		logger:   logger,
	}
}

func (uc *AlbumUseCase) ListAlbums(ctx context.Context, page int, includeDisabled bool) ([]*Album, pagination.Page, error) {
	page = pagination.Clamp(page)
	albums, total, err := uc.repo.List(ctx, pagination.Offset(page, albumPageSize), albumPageSize, includeDisabled)
	if err != nil {
		return nil, pagination.Page{}, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return albums, pagination.Paginate(page, albumPageSize, total), nil
}

// ListAllAlbums returns every album ordered naturally by title, so
// "Volume 2" sorts before "Volume 10".
func (uc *AlbumUseCase) ListAllAlbums(ctx context.Context, includeDisabled bool) ([]*Album, error) {
	albums, err := uc.repo.ListAll(ctx, includeDisabled)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	sort.SliceStable(albums, func(i, j int) bool {
		return natural.Less(albums[i].Title, albums[j].Title)
	})
	return albums, nil
}

// ListAuthorAlbums pages through the albums attached to any of the
// author's aliases.
func (uc *AlbumUseCase) ListAuthorAlbums(ctx context.Context, authorTok string, page int, includeDisabled bool) ([]*Album, pagination.Page, error) {
	author, err := uc.authors.GetByToken(ctx, authorTok)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pagination.Page{}, apperrors.New(apperrors.ErrAuthorNotFound)
		}
		return nil, pagination.Page{}, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	aliasIDs := make([]int64, len(author.Aliases))
	for i, alias := range author.Aliases {
		aliasIDs[i] = alias.ID
	}

	page = pagination.Clamp(page)
	albums, total, err := uc.repo.ListByAliasIDs(ctx, aliasIDs, pagination.Offset(page, albumPageSize), albumPageSize, includeDisabled)
	if err != nil {
		return nil, pagination.Page{}, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return albums, pagination.Paginate(page, albumPageSize, total), nil
}

// CreateAlbum creates a disabled album, resolving (or minting) the
// author identity from the supplied name.
func (uc *AlbumUseCase) CreateAlbum(ctx context.Context, params CreateAlbumParams) (*Album, error) {
	authorName := ""
	if params.Author != nil {
		authorName = *params.Author
	}
	alias, err := uc.aliases.Resolve(ctx, authorName)
	if err != nil {
		return nil, err
	}

	title := DefaultAlbumTitle
	if params.Title != nil && *params.Title != "" {
		title = *params.Title
	}

	album := &Album{
		Token:         token.New(),
		Disabled:      true,
		Title:         title,
		LegacyAuthor:  alias.Name,
		AuthorAliasID: alias.ID,
		AuthorAlias:   alias,
		Description:   params.Description,
		URL:           params.URL,
		CreatedAt:     time.Now(),
	}

	if err := uc.repo.Create(ctx, album); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	uc.logger.Info("album created",
		zap.String("token", album.Token),
		zap.String("title", album.Title),
		zap.String("author", alias.Name),
	)
	return album, nil
}

func (uc *AlbumUseCase) GetAlbum(ctx context.Context, tok string) (*Album, error) {
	album, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, albumError(err)
	}
	return album, nil
}

// UpdateAlbum applies the non-nil fields. Supplying an author name,
// even an empty one, re-resolves the album's identity.
func (uc *AlbumUseCase) UpdateAlbum(ctx context.Context, tok string, params UpdateAlbumParams) (*Album, error) {
	album, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, albumError(err)
	}

	if params.Author != nil {
		alias, err := uc.aliases.Resolve(ctx, *params.Author)
		if err != nil {
			return nil, err
		}
		album.AuthorAliasID = alias.ID
		album.AuthorAlias = alias
		album.LegacyAuthor = alias.Name
	}
	if params.Title != nil {
		album.Title = *params.Title
	}
	if params.Description != nil {
		album.Description = params.Description
	}
	if params.URL != nil {
		album.URL = params.URL
	}

	if err := uc.repo.Update(ctx, album); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return album, nil
}

// DeleteAlbum removes a disabled album along with its stored image
// files. Enabled albums are protected from deletion.
func (uc *AlbumUseCase) DeleteAlbum(ctx context.Context, tok string) error {
	album, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return albumError(err)
	}

	if !album.Disabled {
		return apperrors.New(apperrors.ErrAlbumNotDisabled)
	}

	images, err := uc.images.ListByAlbum(ctx, album.ID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	// drop the cover reference before deleting the rows it points at
	if err := uc.repo.SetCover(ctx, album.ID, nil); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	for _, img := range images {
		uc.removeImageFiles(ctx, img)
	}

	if err := uc.repo.Delete(ctx, album.ID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	uc.logger.Info("album deleted",
		zap.String("token", tok),
		zap.Int("images", len(images)),
	)
	return nil
}

// ToggleAlbum flips the disabled flag, or forces it when state is set.
func (uc *AlbumUseCase) ToggleAlbum(ctx context.Context, tok string, state *bool) (*Album, error) {
	album, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return nil, albumError(err)
	}

	if state == nil {
		album.Disabled = !album.Disabled
	} else {
		album.Disabled = *state
	}

	if err := uc.repo.Update(ctx, album); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
	return album, nil
}

// RegenerateThumbnails re-renders every uploaded image's thumbnail on
// the worker pool. Images without an uploaded file are skipped.
func (uc *AlbumUseCase) RegenerateThumbnails(ctx context.Context, tok string) error {
	album, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return albumError(err)
	}

	images, err := uc.images.ListByAlbum(ctx, album.ID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	var wg sync.WaitGroup
	for _, img := range images {
		if !img.Uploaded || img.Filename == nil {
			uc.logger.Warn("skipping thumbnail regeneration, no image uploaded",
				zap.String("image", img.Token))
			continue
		}

		filename := *img.Filename
		imageTok := img.Token
		wg.Add(1)
		err := uc.pool.Submit(func() {
			defer wg.Done()
			if err := uc.pipeline.RegenerateThumbnail(ctx, filename, formatFromFilename(filename)); err != nil {
				uc.logger.Error("thumbnail regeneration failed",
					zap.String("image", imageTok),
					zap.Error(err),
				)
			}
		})
		if err != nil {
			wg.Done()
			return apperrors.Wrap(err, apperrors.ErrInternalServer)
		}
	}
	wg.Wait()

	return nil
}

// ExportCBZ streams the album as a cbz archive and returns the download
// filename.
func (uc *AlbumUseCase) ExportCBZ(ctx context.Context, tok string, w io.Writer) (string, error) {
	album, err := uc.repo.GetByToken(ctx, tok)
	if err != nil {
		return "", albumError(err)
	}

	images, err := uc.images.ListByAlbum(ctx, album.ID)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternalServer)
	}

	authorName := ""
	if album.AuthorAlias != nil && album.AuthorAlias.Author != nil {
		authorName = album.AuthorAlias.Author.Name
	}

	coverURL := ""
	if album.Cover != nil && album.Cover.Filename != nil {
		coverURL = uc.site.ImageBaseURL + "/thumbs/" + *album.Cover.Filename
	}

	tags := make([]archive.ManifestTag, len(album.Tags))
	for i, tag := range album.Tags {
		tags[i] = archive.NewManifestTag(tag.Display())
	}

	manifest := archive.NewManifest(album.Token, album.Title, authorName, coverURL,
		uc.site.FrontendBaseURL, uc.site.Version, tags)
	zw := archive.NewWriter(w, manifest)

	for _, img := range images {
		if img.Filename == nil {
			continue
		}

		rc, err := uc.uploads.Open(ctx, *img.Filename)
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.ErrStorageFailed)
		}

		isCover := album.CoverID != nil && *album.CoverID == img.ID
		_, err = zw.AddImage(filepath.Ext(*img.Filename), rc, isCover)
		rc.Close()
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.ErrStorageFailed)
		}
	}

	if err := zw.Close(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}

	return album.Token + ".cbz", nil
}

// removeImageFiles deletes the stored original and thumbnail for an
// uploaded image. Missing files are not an error.
func (uc *AlbumUseCase) removeImageFiles(ctx context.Context, img *Image) {
	if !img.Uploaded || img.Filename == nil {
		return
	}
	if err := uc.uploads.Delete(ctx, *img.Filename); err != nil {
		uc.logger.Warn("failed to delete image file",
			zap.String("filename", *img.Filename), zap.Error(err))
	}
	if err := uc.thumbs.Delete(ctx, *img.Filename); err != nil {
		uc.logger.Warn("failed to delete thumbnail file",
			zap.String("filename", *img.Filename), zap.Error(err))
	}
}

func formatFromFilename(filename string) string {
	return strings.TrimPrefix(filepath.Ext(filename), ".")
}

func albumError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.New(apperrors.ErrAlbumNotFound)
	}
	return apperrors.Wrap(err, apperrors.ErrInternalServer)
}
