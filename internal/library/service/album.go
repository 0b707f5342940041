package service

import (
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/damianb/minori/internal/library/biz"
	apperrors "github.com/damianb/minori/internal/pkg/errors"
	"github.com/damianb/minori/internal/pkg/response"
)

// AlbumService exposes album operations over HTTP.
type AlbumService struct {
	uc     *biz.AlbumUseCase
	logger *zap.Logger
}

func NewAlbumService(uc *biz.AlbumUseCase, logger *zap.Logger) *AlbumService {
	return &AlbumService{
		uc:     uc,
		logger: logger,
	}
}

func (s *AlbumService) ListAlbums(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	includeDisabled, _ := strconv.ParseBool(c.DefaultQuery("include_disabled", "false"))

	albums, pageInfo, err := s.uc.ListAlbums(c.Request.Context(), page, includeDisabled)
	if err != nil {
		s.logger.Error("failed to list albums", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"albums":     toFullAlbumResponses(albums),
		"pagination": pageInfo,
	})
}

func (s *AlbumService) ListAllAlbums(c *gin.Context) {
	includeDisabled, _ := strconv.ParseBool(c.DefaultQuery("include_disabled", "false"))

	albums, err := s.uc.ListAllAlbums(c.Request.Context(), includeDisabled)
	if err != nil {
		s.logger.Error("failed to list all albums", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	responses := make([]*AlbumResponse, len(albums))
	for i, album := range albums {
		responses[i] = toAlbumResponse(album, true)
	}
	response.Success(c, gin.H{"albums": responses})
}

func (s *AlbumService) CreateAlbum(c *gin.Context) {
	var req CreateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	album, err := s.uc.CreateAlbum(c.Request.Context(), biz.CreateAlbumParams{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		s.logger.Error("failed to create album", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"album": toAlbumResponse(album, false)})
}

func (s *AlbumService) GetAlbum(c *gin.Context) {
	album, err := s.uc.GetAlbum(c.Request.Context(), c.Param("album_id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"album": toFullAlbumResponse(album)})
}

func (s *AlbumService) UpdateAlbum(c *gin.Context) {
	var req UpdateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	album, err := s.uc.UpdateAlbum(c.Request.Context(), c.Param("album_id"), biz.UpdateAlbumParams{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		s.logger.Error("failed to update album", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"album": toAlbumResponse(album, true)})
}

func (s *AlbumService) DeleteAlbum(c *gin.Context) {
	if err := s.uc.DeleteAlbum(c.Request.Context(), c.Param("album_id")); err != nil {
		s.logger.Error("failed to delete album", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

func (s *AlbumService) ToggleAlbum(c *gin.Context) {
	var state *bool
	if raw, ok := c.GetQuery("state"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "invalid state parameter")
			return
		}
		state = &parsed
	}

	album, err := s.uc.ToggleAlbum(c.Request.Context(), c.Param("album_id"), state)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"album": toAlbumResponse(album, false)})
}

func (s *AlbumService) RegenerateThumbnails(c *gin.Context) {
	if err := s.uc.RegenerateThumbnails(c.Request.Context(), c.Param("album_id")); err != nil {
		s.logger.Error("failed to regenerate thumbnails", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

// DownloadAlbum builds the cbz into a temp file and serves it as an
// attachment; the artifact is removed once the response is written.
func (s *AlbumService) DownloadAlbum(c *gin.Context) {
	tmp, err := os.CreateTemp("", "export-*.cbz")
	if err != nil {
		s.logger.Error("failed to create export temp file", zap.Error(err))
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrStorageFailed))
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	filename, err := s.uc.ExportCBZ(c.Request.Context(), c.Param("album_id"), tmp)
	if err != nil {
		s.logger.Error("failed to export album", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.comicbook+zip")
	c.FileAttachment(tmp.Name(), filename)
}

func (s *AlbumService) RegisterRoutes(r *gin.RouterGroup) {
	albums := r.Group("/albums")
	{
		albums.GET("", s.ListAlbums)
		albums.GET("/all", s.ListAllAlbums)
		albums.POST("/-/create", s.CreateAlbum)
		albums.GET("/:album_id", s.GetAlbum)
		albums.PATCH("/:album_id", s.UpdateAlbum)
		albums.DELETE("/:album_id", s.DeleteAlbum)
		albums.POST("/:album_id/toggle", s.ToggleAlbum)
		albums.POST("/:album_id/regen-thumbnails", s.RegenerateThumbnails)
		albums.GET("/:album_id/download", s.DownloadAlbum)
	}
}
