package service

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/damianb/minori/internal/library/biz"
	"github.com/damianb/minori/internal/pkg/response"
)

// ImageService exposes album image operations over HTTP.
type ImageService struct {
	uc     *biz.ImageUseCase
	logger *zap.Logger
}

func NewImageService(uc *biz.ImageUseCase, logger *zap.Logger) *ImageService {
	return &ImageService{
		uc:     uc,
		logger: logger,
	}
}

func (s *ImageService) ListImages(c *gin.Context) {
	images, err := s.uc.ListImages(c.Request.Context(), c.Param("album_id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"images": toImageResponses(images)})
}

func (s *ImageService) CreateImage(c *gin.Context) {
	img, err := s.uc.CreateImage(c.Request.Context(), c.Param("album_id"))
	if err != nil {
		s.logger.Error("failed to create image", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"image": toImageResponse(img)})
}

func (s *ImageService) BulkCreateImages(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file upload")
		return
	}

	data, err := readUpload(header)
	if err != nil {
		s.logger.Error("failed to read archive upload", zap.Error(err))
		response.BadRequest(c, "unreadable file upload")
		return
	}

	images, err := s.uc.BulkImport(c.Request.Context(), c.Param("album_id"), header.Filename, data)
	if err != nil {
		s.logger.Error("failed to import archive", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"images": toImageResponses(images)})
}

func (s *ImageService) GetImage(c *gin.Context) {
	img, err := s.uc.GetImage(c.Request.Context(), c.Param("album_id"), c.Param("image_id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"image": toImageResponse(img)})
}

func (s *ImageService) UploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file upload")
		return
	}

	data, err := readUpload(header)
	if err != nil {
		s.logger.Error("failed to read image upload", zap.Error(err))
		response.BadRequest(c, "unreadable file upload")
		return
	}

	img, err := s.uc.UploadImage(c.Request.Context(), c.Param("album_id"), c.Param("image_id"), header.Filename, data)
	if err != nil {
		s.logger.Error("failed to upload image", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"image": toImageResponse(img)})
}

func (s *ImageService) UpdateImageOrder(c *gin.Context) {
	var req UpdateImageOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	img, err := s.uc.SetImageOrder(c.Request.Context(), c.Param("album_id"), c.Param("image_id"), *req.Order)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"image": toImageResponse(img)})
}

func (s *ImageService) MakeCover(c *gin.Context) {
	if err := s.uc.MakeCover(c.Request.Context(), c.Param("album_id"), c.Param("image_id")); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

func (s *ImageService) RegenerateThumbnail(c *gin.Context) {
	if err := s.uc.RegenerateThumbnail(c.Request.Context(), c.Param("album_id"), c.Param("image_id")); err != nil {
		s.logger.Error("failed to regenerate thumbnail", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

func (s *ImageService) DeleteImage(c *gin.Context) {
	if err := s.uc.DeleteImage(c.Request.Context(), c.Param("album_id"), c.Param("image_id")); err != nil {
		s.logger.Error("failed to delete image", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (s *ImageService) RegisterRoutes(r *gin.RouterGroup) {
	images := r.Group("/albums/:album_id/images")
	{
		images.GET("", s.ListImages)
		images.POST("/-/create", s.CreateImage)
		images.POST("/-/bulkcreate", s.BulkCreateImages)
		images.GET("/:image_id", s.GetImage)
		images.PUT("/:image_id/upload", s.UploadImage)
		images.POST("/:image_id/order", s.UpdateImageOrder)
		images.POST("/:image_id/make-cover", s.MakeCover)
		images.POST("/:image_id/regen-thumbnail", s.RegenerateThumbnail)
		images.DELETE("/:image_id", s.DeleteImage)
	}
}
