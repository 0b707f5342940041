package data

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/damianb/minori/internal/library/biz"
)

// ImageRepo implements biz.ImageRepo
type ImageRepo struct {
	db *gorm.DB
}

func NewImageRepo(db *gorm.DB) biz.ImageRepo {
	return &ImageRepo{db: db}
}

func (r *ImageRepo) ListByAlbum(ctx context.Context, albumID int64) ([]*biz.Image, error) {
	var pos []ImagePO
	err := r.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("album_order_key ASC, original_filename ASC").
		Find(&pos).Error
	if err != nil {
		return nil, translate(err)
	}

	images := make([]*biz.Image, len(pos))
	for i := range pos {
		images[i] = toImage(&pos[i])
	}
	return images, nil
}

func (r *ImageRepo) GetByToken(ctx context.Context, albumID int64, tok string) (*biz.Image, error) {
	var po ImagePO
	err := r.db.WithContext(ctx).
		Where("token = ? AND album_id = ?", tok, albumID).
		First(&po).Error
	if err != nil {
		return nil, translate(err)
	}
	return toImage(&po), nil
}

func (r *ImageRepo) Create(ctx context.Context, image *biz.Image) error {
	po := fromImage(image)
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return translate(err)
	}
	image.ID = po.ID
	return nil
}

func (r *ImageRepo) CreateBatch(ctx context.Context, images []*biz.Image) error {
	if len(images) == 0 {
		return nil
	}

	pos := make([]*ImagePO, len(images))
	for i, img := range images {
		pos[i] = fromImage(img)
	}

	if err := r.db.WithContext(ctx).Create(&pos).Error; err != nil {
		return translate(err)
	}

	for i, po := range pos {
		images[i].ID = po.ID
	}
	return nil
}

func (r *ImageRepo) Update(ctx context.Context, image *biz.Image) error {
	err := r.db.WithContext(ctx).
		Model(&ImagePO{}).
		Where("id = ?", image.ID).
		Updates(map[string]interface{}{
			"filename":          image.Filename,
			"original_filename": image.OriginalFilename,
			"uploaded":          image.Uploaded,
			"uploaded_at":       image.UploadedAt,
			"album_order_key":   image.OrderKey,
		}).Error
	return translate(err)
}

func (r *ImageRepo) Delete(ctx context.Context, id int64) error {
	return translate(r.db.WithContext(ctx).Delete(&ImagePO{}, id).Error)
}

func fromImage(image *biz.Image) *ImagePO {
	createdAt := image.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &ImagePO{
		ID:               image.ID,
		Token:            image.Token,
		Filename:         image.Filename,
		OriginalFilename: image.OriginalFilename,
		Uploaded:         image.Uploaded,
		CreatedAt:        createdAt,
		UploadedAt:       image.UploadedAt,
		AlbumID:          image.AlbumID,
		OrderKey:         image.OrderKey,
	}
}
