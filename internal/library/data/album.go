package data

import (
	"context"

	"gorm.io/gorm"

	"github.com/damianb/minori/internal/library/biz"
)

// AlbumRepo implements biz.AlbumRepo
type AlbumRepo struct {
	db *gorm.DB
}

func NewAlbumRepo(db *gorm.DB) biz.AlbumRepo {
	return &AlbumRepo{db: db}
}

func (r *AlbumRepo) GetByToken(ctx context.Context, tok string) (*biz.Album, error) {
	var po AlbumPO
	err := r.db.WithContext(ctx).
		Preload("AuthorAlias.Author").
		Preload("Cover").
		Preload("Tags").
		Where("token = ?", tok).
		First(&po).Error
	if err != nil {
		return nil, translate(err)
	}
	return toAlbum(&po), nil
}

func (r *AlbumRepo) List(ctx context.Context, offset, limit int, includeDisabled bool) ([]*biz.Album, int64, error) {
	query := r.db.WithContext(ctx).Model(&AlbumPO{})
	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var pos []AlbumPO
	err := query.
		Preload("AuthorAlias.Author").
		Preload("Cover").
		Preload("Tags").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, 0, translate(err)
	}

	return toAlbums(pos), total, nil
}

func (r *AlbumRepo) ListByAliasIDs(ctx context.Context, aliasIDs []int64, offset, limit int, includeDisabled bool) ([]*biz.Album, int64, error) {
	if len(aliasIDs) == 0 {
		return nil, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&AlbumPO{}).Where("author_alias_id IN ?", aliasIDs)
	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var pos []AlbumPO
	err := query.
		Preload("AuthorAlias.Author").
		Preload("Cover").
		Preload("Tags").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, 0, translate(err)
	}

	return toAlbums(pos), total, nil
}

func (r *AlbumRepo) ListAll(ctx context.Context, includeDisabled bool) ([]*biz.Album, error) {
	query := r.db.WithContext(ctx).Model(&AlbumPO{})
	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	var pos []AlbumPO
	err := query.
		Preload("AuthorAlias.Author").
		Order("title ASC").
		Find(&pos).Error
	if err != nil {
		return nil, translate(err)
	}
	return toAlbums(pos), nil
}

func (r *AlbumRepo) Create(ctx context.Context, album *biz.Album) error {
	po := &AlbumPO{
		Token:         album.Token,
		Disabled:      album.Disabled,
		Title:         album.Title,
		Author:        album.LegacyAuthor,
		AuthorAliasID: album.AuthorAliasID,
		Description:   album.Description,
		URL:           album.URL,
		CreatedAt:     album.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return translate(err)
	}

	album.ID = po.ID
	return nil
}

func (r *AlbumRepo) Update(ctx context.Context, album *biz.Album) error {
	err := r.db.WithContext(ctx).
		Model(&AlbumPO{}).
		Where("id = ?", album.ID).
		Updates(map[string]interface{}{
			"disabled":        album.Disabled,
			"title":           album.Title,
			"author":          album.LegacyAuthor,
			"author_alias_id": album.AuthorAliasID,
			"description":     album.Description,
			"url":             album.URL,
		}).Error
	return translate(err)
}

func (r *AlbumRepo) SetCover(ctx context.Context, albumID int64, imageID *int64) error {
	err := r.db.WithContext(ctx).
		Model(&AlbumPO{}).
		Where("id = ?", albumID).
		Update("album_cover_id", imageID).Error
	return translate(err)
}

func (r *AlbumRepo) Delete(ctx context.Context, albumID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&AlbumPO{ID: albumID}).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("album_id = ?", albumID).Delete(&ImagePO{}).Error; err != nil {
			return err
		}
		return tx.Delete(&AlbumPO{}, albumID).Error
	})
	return translate(err)
}

func toAlbums(pos []AlbumPO) []*biz.Album {
	albums := make([]*biz.Album, len(pos))
	for i := range pos {
		albums[i] = toAlbum(&pos[i])
	}
	return albums
}
