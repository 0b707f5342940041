package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/damianb/minori/internal/library/biz"
	"github.com/damianb/minori/internal/pkg/response"
)

// AuthorService exposes author operations over HTTP.
type AuthorService struct {
	uc     *biz.AuthorUseCase
	albums *biz.AlbumUseCase
	logger *zap.Logger
}

func NewAuthorService(uc *biz.AuthorUseCase, albums *biz.AlbumUseCase, logger *zap.Logger) *AuthorService {
	return &AuthorService{
		uc:     uc,
		albums: albums,
		logger: logger,
	}
}

func (s *AuthorService) ListAuthors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	authors, pageInfo, err := s.uc.ListAuthors(c.Request.Context(), page)
	if err != nil {
		s.logger.Error("failed to list authors", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	responses := make([]*AuthorResponse, len(authors))
	for i, author := range authors {
		responses[i] = toAuthorResponse(author)
	}
	response.Success(c, gin.H{
		"authors":    responses,
		"pagination": pageInfo,
	})
}

func (s *AuthorService) GetAuthor(c *gin.Context) {
	author, err := s.uc.GetAuthor(c.Request.Context(), c.Param("author_id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"author": toFullAuthorResponse(author)})
}

func (s *AuthorService) RenameAuthor(c *gin.Context) {
	var req UpdateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cascade, _ := strconv.ParseBool(c.DefaultQuery("update_corresponding_authoralias", "true"))

	author, err := s.uc.RenameAuthor(c.Request.Context(), c.Param("author_id"), req.Name, cascade)
	if err != nil {
		s.logger.Error("failed to rename author", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"author": toAuthorResponse(author)})
}

func (s *AuthorService) DeleteAuthor(c *gin.Context) {
	if err := s.uc.DeleteAuthor(c.Request.Context(), c.Param("author_id")); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

func (s *AuthorService) GetAuthorAliases(c *gin.Context) {
	aliases, err := s.uc.GetAuthorAliases(c.Request.Context(), c.Param("author_id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	responses := make([]*AliasResponse, len(aliases))
	for i, alias := range aliases {
		responses[i] = toAliasResponse(alias)
	}
	response.Success(c, gin.H{"author_aliases": responses})
}

func (s *AuthorService) GetAuthorAlbums(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	includeDisabled, _ := strconv.ParseBool(c.DefaultQuery("include_disabled", "false"))

	albums, pageInfo, err := s.albums.ListAuthorAlbums(c.Request.Context(), c.Param("author_id"), page, includeDisabled)
	if err != nil {
		s.logger.Error("failed to list author albums", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"albums":     toFullAlbumResponses(albums),
		"pagination": pageInfo,
	})
}

func (s *AuthorService) MergeAuthors(c *gin.Context) {
	preserve, _ := strconv.ParseBool(c.DefaultQuery("preserve_consumed_author", "false"))

	err := s.uc.MergeAuthors(c.Request.Context(), c.Param("author_id"), c.Param("consumed_author_id"), preserve)
	if err != nil {
		s.logger.Error("failed to merge authors", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

func (s *AuthorService) RegisterRoutes(r *gin.RouterGroup) {
	authors := r.Group("/authors")
	{
		authors.GET("", s.ListAuthors)
		authors.GET("/:author_id", s.GetAuthor)
		authors.PATCH("/:author_id", s.RenameAuthor)
		authors.DELETE("/:author_id", s.DeleteAuthor)
		authors.GET("/:author_id/aliases", s.GetAuthorAliases)
		authors.GET("/:author_id/albums", s.GetAuthorAlbums)
		authors.POST("/:author_id/merge/:consumed_author_id", s.MergeAuthors)
	}
}
