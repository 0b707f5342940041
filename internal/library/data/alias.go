package data

import (
	"context"

	"gorm.io/gorm"

	"github.com/damianb/minori/internal/library/biz"
	"github.com/damianb/minori/internal/pkg/token"
)

// AliasRepo implements biz.AliasRepo
type AliasRepo struct {
	db *gorm.DB
}

func NewAliasRepo(db *gorm.DB) biz.AliasRepo {
	return &AliasRepo{db: db}
}

func (r *AliasRepo) GetByToken(ctx context.Context, tok string) (*biz.AuthorAlias, error) {
	var po AuthorAliasPO
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("token = ?", tok).
		First(&po).Error
	if err != nil {
		return nil, translate(err)
	}
	return toAlias(&po), nil
}

func (r *AliasRepo) GetByName(ctx context.Context, name string) (*biz.AuthorAlias, error) {
	var po AuthorAliasPO
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("name = ?", name).
		First(&po).Error
	if err != nil {
		return nil, translate(err)
	}
	return toAlias(&po), nil
}

func (r *AliasRepo) List(ctx context.Context, offset, limit int) ([]*biz.AuthorAlias, int64, error) {
	var pos []AuthorAliasPO
	err := r.db.WithContext(ctx).
		Order("name DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, 0, translate(err)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&AuthorAliasPO{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	aliases := make([]*biz.AuthorAlias, len(pos))
	for i := range pos {
		aliases[i] = toAlias(&pos[i])
	}
	return aliases, total, nil
}

func (r *AliasRepo) CreateWithAuthor(ctx context.Context, name string) (*biz.AuthorAlias, error) {
	authorPO := &AuthorPO{
		Token: token.New(),
		Name:  name,
	}
	aliasPO := &AuthorAliasPO{
		Token: token.New(),
		Name:  name,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(authorPO).Error; err != nil {
			return err
		}
		aliasPO.AuthorID = authorPO.ID
		return tx.Create(aliasPO).Error
	})
	if err != nil {
		return nil, translate(err)
	}

	aliasPO.Author = authorPO
	return toAlias(aliasPO), nil
}

func (r *AliasRepo) Update(ctx context.Context, alias *biz.AuthorAlias) error {
	err := r.db.WithContext(ctx).
		Model(&AuthorAliasPO{}).
		Where("id = ?", alias.ID).
		Updates(map[string]interface{}{
			"name":      alias.Name,
			"author_id": alias.AuthorID,
		}).Error
	return translate(err)
}

func (r *AliasRepo) Delete(ctx context.Context, id int64) error {
	return translate(r.db.WithContext(ctx).Delete(&AuthorAliasPO{}, id).Error)
}

func (r *AliasRepo) CountAlbums(ctx context.Context, aliasID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&AlbumPO{}).
		Where("author_alias_id = ?", aliasID).
		Count(&total).Error
	if err != nil {
		return 0, translate(err)
	}
	return total, nil
}
