package service

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/damianb/minori/internal/library/biz"
	"github.com/damianb/minori/internal/pkg/response"
)

// AliasService exposes author alias operations over HTTP.
type AliasService struct {
	uc     *biz.AliasUseCase
	logger *zap.Logger
}

func NewAliasService(uc *biz.AliasUseCase, logger *zap.Logger) *AliasService {
	return &AliasService{
		uc:     uc,
		logger: logger,
	}
}

func (s *AliasService) ListAliases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	aliases, pageInfo, err := s.uc.ListAliases(c.Request.Context(), page)
	if err != nil {
		s.logger.Error("failed to list author aliases", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	responses := make([]*AliasResponse, len(aliases))
	for i, alias := range aliases {
		responses[i] = toAliasResponse(alias)
	}
	response.Success(c, gin.H{
		"author_aliases": responses,
		"pagination":     pageInfo,
	})
}

func (s *AliasService) GetAlias(c *gin.Context) {
	alias, err := s.uc.GetAlias(c.Request.Context(), c.Param("authoralias_id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"author_alias": toFullAliasResponse(alias)})
}

func (s *AliasService) RenameAlias(c *gin.Context) {
	var req UpdateAuthorAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	alias, err := s.uc.RenameAlias(c.Request.Context(), c.Param("authoralias_id"), req.Name)
	if err != nil {
		s.logger.Error("failed to rename author alias", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"author_alias": toFullAliasResponse(alias)})
}

func (s *AliasService) DeleteAlias(c *gin.Context) {
	if err := s.uc.DeleteAlias(c.Request.Context(), c.Param("authoralias_id")); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

func (s *AliasService) ReassignAlias(c *gin.Context) {
	alias, err := s.uc.ReassignAlias(c.Request.Context(), c.Param("authoralias_id"), c.Param("new_parent_author_id"))
	if err != nil {
		s.logger.Error("failed to reassign author alias", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"author_alias": toFullAliasResponse(alias)})
}

func (s *AliasService) RegisterRoutes(r *gin.RouterGroup) {
	aliases := r.Group("/authoraliases")
	{
		aliases.GET("", s.ListAliases)
		aliases.GET("/:authoralias_id", s.GetAlias)
		aliases.PATCH("/:authoralias_id", s.RenameAlias)
		aliases.DELETE("/:authoralias_id", s.DeleteAlias)
		aliases.POST("/:authoralias_id/reassign/:new_parent_author_id", s.ReassignAlias)
	}
}
