package service

import (
	"time"

	"github.com/damianb/minori/internal/library/biz"
)

// Request bodies

type CreateAlbumRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Author      *string `json:"author" binding:"omitempty,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	URL         *string `json:"url" binding:"omitempty,max=2000"`
}

type UpdateAlbumRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Author      *string `json:"author" binding:"omitempty,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	URL         *string `json:"url" binding:"omitempty,max=2000"`
}

// Order keys are arbitrary integers; zero and negatives are fine, the
// field just has to be present.
type UpdateImageOrderRequest struct {
	Order *int `json:"order" binding:"required"`
}

type UpdateAuthorRequest struct {
	Name string `json:"name" binding:"required,max=120"`
}

type UpdateAuthorAliasRequest struct {
	Name string `json:"name" binding:"required,max=120"`
}

// Response models

type AuthorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FullAuthorResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	AuthorAliases []*AliasResponse `json:"author_aliases"`
}

type AliasResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FullAliasResponse struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Author *AuthorResponse `json:"author"`
}

type TagResponse struct {
	ID          string  `json:"id"`
	Namespace   *string `json:"namespace"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type ImageResponse struct {
	ID               string     `json:"id"`
	Filename         *string    `json:"filename"`
	OriginalFilename *string    `json:"original_filename"`
	Uploaded         bool       `json:"uploaded"`
	CreatedAt        time.Time  `json:"created_at"`
	UploadedAt       *time.Time `json:"uploaded_at"`
	AlbumOrderKey    int        `json:"album_order_key"`
}

type AlbumResponse struct {
	ID          string             `json:"id"`
	Disabled    bool               `json:"disabled"`
	Title       string             `json:"title"`
	AuthorAlias *FullAliasResponse `json:"author_alias"`
	Description *string            `json:"description"`
	URL         *string            `json:"url"`
	CreatedAt   time.Time          `json:"created_at"`
}

type FullAlbumResponse struct {
	AlbumResponse
	Cover *ImageResponse `json:"cover"`
	Tags  []*TagResponse `json:"tags"`
}

// Converters

func toAuthorResponse(author *biz.Author) *AuthorResponse {
	return &AuthorResponse{
		ID:   author.Token,
		Name: author.Name,
	}
}

func toFullAuthorResponse(author *biz.Author) *FullAuthorResponse {
	aliases := make([]*AliasResponse, len(author.Aliases))
	for i, alias := range author.Aliases {
		aliases[i] = toAliasResponse(alias)
	}
	return &FullAuthorResponse{
		ID:            author.Token,
		Name:          author.Name,
		AuthorAliases: aliases,
	}
}

func toAliasResponse(alias *biz.AuthorAlias) *AliasResponse {
	return &AliasResponse{
		ID:   alias.Token,
		Name: alias.Name,
	}
}

func toFullAliasResponse(alias *biz.AuthorAlias) *FullAliasResponse {
	resp := &FullAliasResponse{
		ID:   alias.Token,
		Name: alias.Name,
	}
	if alias.Author != nil {
		resp.Author = toAuthorResponse(alias.Author)
	}
	return resp
}

func toTagResponse(tag *biz.Tag) *TagResponse {
	return &TagResponse{
		ID:          tag.Token,
		Namespace:   tag.Namespace,
		Name:        tag.Name,
		Description: tag.Description,
	}
}

func toImageResponse(img *biz.Image) *ImageResponse {
	return &ImageResponse{
		ID:               img.Token,
		Filename:         img.Filename,
		OriginalFilename: img.OriginalFilename,
		Uploaded:         img.Uploaded,
		CreatedAt:        img.CreatedAt,
		UploadedAt:       img.UploadedAt,
		AlbumOrderKey:    img.OrderKey,
	}
}

func toImageResponses(images []*biz.Image) []*ImageResponse {
	responses := make([]*ImageResponse, len(images))
	for i, img := range images {
		responses[i] = toImageResponse(img)
	}
	return responses
}

func toAlbumResponse(album *biz.Album, includeAlias bool) *AlbumResponse {
	resp := &AlbumResponse{
		ID:          album.Token,
		Disabled:    album.Disabled,
		Title:       album.Title,
		Description: album.Description,
		URL:         album.URL,
		CreatedAt:   album.CreatedAt,
	}
	if includeAlias && album.AuthorAlias != nil {
		resp.AuthorAlias = toFullAliasResponse(album.AuthorAlias)
	}
	return resp
}

func toFullAlbumResponse(album *biz.Album) *FullAlbumResponse {
	resp := &FullAlbumResponse{
		AlbumResponse: *toAlbumResponse(album, true),
		Tags:          make([]*TagResponse, len(album.Tags)),
	}
	if album.Cover != nil {
		resp.Cover = toImageResponse(album.Cover)
	}
	for i, tag := range album.Tags {
		resp.Tags[i] = toTagResponse(tag)
	}
	return resp
}

func toFullAlbumResponses(albums []*biz.Album) []*FullAlbumResponse {
	responses := make([]*FullAlbumResponse, len(albums))
	for i, album := range albums {
		responses[i] = toFullAlbumResponse(album)
	}
	return responses
}
