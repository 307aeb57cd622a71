package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/khoahotran/reel-forge/internal/application/usecase/generation"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

type GenerationHandler struct {
	enqueueUC   *generation.EnqueueGenerationUseCase
	segmentsUC  *generation.GetSegmentsUseCase
	mediaUC     *generation.GetMediaUseCase
	jobStatusUC *generation.GetJobStatusUseCase
	logger      logger.Logger
}

func NewGenerationHandler(
	enqueueUC *generation.EnqueueGenerationUseCase,
	segmentsUC *generation.GetSegmentsUseCase,
	mediaUC *generation.GetMediaUseCase,
	jobStatusUC *generation.GetJobStatusUseCase,
	log logger.Logger,
) *GenerationHandler {
	return &GenerationHandler{
		enqueueUC:   enqueueUC,
		segmentsUC:  segmentsUC,
		mediaUC:     mediaUC,
		jobStatusUC: jobStatusUC,
		logger:      log,
	}
}

// RegisterRoutes mounts the generation endpoints on an authenticated group.
func (h *GenerationHandler) RegisterRoutes(admin *gin.RouterGroup) {
	contents := admin.Group("/contents/:id")
	{
		contents.POST("/extended-video", h.GenerateExtendedVideo)
		contents.GET("/segments", h.GetSegments)
		contents.GET("/media", h.GetMedia)
	}
	admin.GET("/jobs/:id", h.GetJobStatus)
	admin.GET("/pipeline/lock", h.GetLock)
}

func contentIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewInvalidInput("invalid content ID", err)
	}
	return id, nil
}

func (h *GenerationHandler) GenerateExtendedVideo(c *gin.Context) {
	contentID, err := contentIDParam(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req GenerateExtendedVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	out, err := h.enqueueUC.Execute(c.Request.Context(), generation.EnqueueInput{
		ContentID:              contentID,
		ContentIdea:            req.ContentIdea,
		DesiredDurationSeconds: req.DesiredDurationSeconds,
		AspectRatio:            req.AspectRatio,
		ContentType:            req.ContentType,
		TimeSlot:               req.TimeSlot,
	})
	if err != nil {
		c.Error(err)
		return
	}

	operator, _ := GetOperatorFromGinContext(c)
	h.logger.Info("Extended video requested",
		zap.String("operator", operator), zap.Int64("content_id", contentID), zap.String("job_id", out.JobID))
	c.JSON(http.StatusAccepted, out)
}

func (h *GenerationHandler) GetSegments(c *gin.Context) {
	contentID, err := contentIDParam(c)
	if err != nil {
		c.Error(err)
		return
	}
	out, err := h.segmentsUC.Execute(c.Request.Context(), contentID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSegmentsResponse(out))
}

func (h *GenerationHandler) GetMedia(c *gin.Context) {
	contentID, err := contentIDParam(c)
	if err != nil {
		c.Error(err)
		return
	}
	m, err := h.mediaUC.Execute(c.Request.Context(), contentID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTO(m))
}

func (h *GenerationHandler) GetJobStatus(c *gin.Context) {
	status, err := h.jobStatusUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *GenerationHandler) GetLock(c *gin.Context) {
	holder, err := h.jobStatusUC.LockHolder(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToLockDTO(holder))
}
