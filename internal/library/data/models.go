package data

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/damianb/minori/internal/library/biz"
)

// AuthorPO represents the author database model
type AuthorPO struct {
	ID    int64  `gorm:"primarykey"`
	Token string `gorm:"size:32;not null;uniqueIndex"`
	Name  string `gorm:"size:128;not null;uniqueIndex"`

	Aliases []AuthorAliasPO `gorm:"foreignKey:AuthorID"`
}

func (AuthorPO) TableName() string {
	return "author"
}

// AuthorAliasPO represents the author alias database model
type AuthorAliasPO struct {
	ID       int64  `gorm:"primarykey"`
	Token    string `gorm:"size:32;not null;uniqueIndex"`
	Name     string `gorm:"size:128;not null;uniqueIndex"`
	AuthorID int64  `gorm:"not null;index"`

	Author *AuthorPO `gorm:"foreignKey:AuthorID"`
}

func (AuthorAliasPO) TableName() string {
	return "authoralias"
}

// AlbumPO represents the album database model. Author is the legacy
// free-text author field kept alongside the alias reference.
type AlbumPO struct {
	ID            int64  `gorm:"primarykey"`
	Token         string `gorm:"size:32;not null;uniqueIndex"`
	Disabled      bool   `gorm:"not null;default:true"`
	Title         string `gorm:"size:256;not null;default:'Untitled album'"`
	Author        string `gorm:"size:128;not null;default:'Unknown author'"`
	AuthorAliasID int64  `gorm:"not null;index"`
	Description   *string `gorm:"size:1024"`
	URL           *string `gorm:"size:2048"`
	CreatedAt     time.Time `gorm:"not null"`
	CoverID       *int64    `gorm:"column:album_cover_id"`

	AuthorAlias *AuthorAliasPO `gorm:"foreignKey:AuthorAliasID"`
	Cover       *ImagePO       `gorm:"foreignKey:CoverID"`
	Tags        []TagPO        `gorm:"many2many:album_tag_xref"`
}

func (AlbumPO) TableName() string {
	return "album"
}

// ImagePO represents the image database model
type ImagePO struct {
	ID               int64   `gorm:"primarykey"`
	Token            string  `gorm:"size:32;not null;uniqueIndex"`
	Filename         *string `gorm:"size:1024"`
	OriginalFilename *string `gorm:"size:1024"`
	Uploaded         bool    `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"not null"`
	UploadedAt       *time.Time
	AlbumID          int64 `gorm:"not null;index"`
	OrderKey         int   `gorm:"column:album_order_key;not null;default:0"`
}

func (ImagePO) TableName() string {
	return "image"
}

// TagPO represents the tag database model
type TagPO struct {
	ID          int64   `gorm:"primarykey"`
	Token       string  `gorm:"size:32;not null;uniqueIndex"`
	Namespace   *string `gorm:"size:128"`
	Name        string  `gorm:"size:128;not null"`
	Description *string `gorm:"size:1024"`
}

func (TagPO) TableName() string {
	return "tag"
}

// Models returns every PO for schema migration.
func Models() []interface{} {
	return []interface{}{
		&AuthorPO{},
		&AuthorAliasPO{},
		&AlbumPO{},
		&ImagePO{},
		&TagPO{},
	}
}

// translate maps gorm errors to the repo sentinels the biz layer
// switches on. Relies on the dialector's error translation.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return biz.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return biz.ErrDuplicateName
	}
	return err
}

func toAuthor(po *AuthorPO) *biz.Author {
	author := &biz.Author{
		ID:    po.ID,
		Token: po.Token,
		Name:  po.Name,
	}
	for i := range po.Aliases {
		author.Aliases = append(author.Aliases, toAlias(&po.Aliases[i]))
	}
	return author
}

func toAlias(po *AuthorAliasPO) *biz.AuthorAlias {
	alias := &biz.AuthorAlias{
		ID:       po.ID,
		Token:    po.Token,
		Name:     po.Name,
		AuthorID: po.AuthorID,
	}
	if po.Author != nil {
		alias.Author = toAuthor(po.Author)
	}
	return alias
}

func toAlbum(po *AlbumPO) *biz.Album {
	album := &biz.Album{
		ID:            po.ID,
		Token:         po.Token,
		Disabled:      po.Disabled,
		Title:         po.Title,
		LegacyAuthor:  po.Author,
		AuthorAliasID: po.AuthorAliasID,
		Description:   po.Description,
		URL:           po.URL,
		CreatedAt:     po.CreatedAt,
		CoverID:       po.CoverID,
	}
	if po.AuthorAlias != nil {
		album.AuthorAlias = toAlias(po.AuthorAlias)
	}
	if po.Cover != nil {
		album.Cover = toImage(po.Cover)
	}
	for i := range po.Tags {
		album.Tags = append(album.Tags, toTag(&po.Tags[i]))
	}
	return album
}

func toImage(po *ImagePO) *biz.Image {
	return &biz.Image{
		ID:               po.ID,
		Token:            po.Token,
		Filename:         po.Filename,
		OriginalFilename: po.OriginalFilename,
		Uploaded:         po.Uploaded,
		CreatedAt:        po.CreatedAt,
		UploadedAt:       po.UploadedAt,
		AlbumID:          po.AlbumID,
		OrderKey:         po.OrderKey,
	}
}

func toTag(po *TagPO) *biz.Tag {
	return &biz.Tag{
		ID:          po.ID,
		Token:       po.Token,
		Namespace:   po.Namespace,
		Name:        po.Name,
		Description: po.Description,
	}
}
