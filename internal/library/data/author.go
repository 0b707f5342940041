package data

import (
	"context"

	"gorm.io/gorm"

	"github.com/damianb/minori/internal/library/biz"
)

// AuthorRepo implements biz.AuthorRepo
type AuthorRepo struct {
	db *gorm.DB
}

func NewAuthorRepo(db *gorm.DB) biz.AuthorRepo {
	return &AuthorRepo{db: db}
}

func (r *AuthorRepo) GetByToken(ctx context.Context, tok string) (*biz.Author, error) {
	var po AuthorPO
	err := r.db.WithContext(ctx).
		Preload("Aliases").
		Where("token = ?", tok).
		First(&po).Error
	if err != nil {
		return nil, translate(err)
	}
	return toAuthor(&po), nil
}

func (r *AuthorRepo) List(ctx context.Context, offset, limit int) ([]*biz.Author, int64, error) {
	var pos []AuthorPO
	err := r.db.WithContext(ctx).
		Order("name DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, 0, translate(err)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&AuthorPO{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	authors := make([]*biz.Author, len(pos))
	for i := range pos {
		authors[i] = toAuthor(&pos[i])
	}
	return authors, total, nil
}

func (r *AuthorRepo) Update(ctx context.Context, author *biz.Author) error {
	err := r.db.WithContext(ctx).
		Model(&AuthorPO{}).
		Where("id = ?", author.ID).
		Update("name", author.Name).Error
	return translate(err)
}

func (r *AuthorRepo) RenameWithAlias(ctx context.Context, authorID int64, oldName, newName string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&AuthorPO{}).
			Where("id = ?", authorID).
			Update("name", newName).Error; err != nil {
			return err
		}
		return tx.Model(&AuthorAliasPO{}).
			Where("author_id = ? AND name = ?", authorID, oldName).
			Update("name", newName).Error
	})
	return translate(err)
}

func (r *AuthorRepo) Delete(ctx context.Context, id int64) error {
	return translate(r.db.WithContext(ctx).Delete(&AuthorPO{}, id).Error)
}

func (r *AuthorRepo) MergeAliases(ctx context.Context, targetID, consumedID int64, deleteConsumed bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&AuthorAliasPO{}).
			Where("author_id = ?", consumedID).
			Update("author_id", targetID).Error; err != nil {
			return err
		}
		if deleteConsumed {
			return tx.Delete(&AuthorPO{}, consumedID).Error
		}
		return nil
	})
	return translate(err)
}
