package handler

import (
	"log/slog"
	"net/http"

	"Community_Portal/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	svc *service.ReportService
	log *slog.Logger
}

// CreateReportReq JSON 或 multipart（带 photo / video）均可
type CreateReportReq struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	ReportType  string `json:"report_type" form:"report_type"`
	Location    string `json:"location" form:"location"`
}

type CommentReq struct {
	Content string `json:"content"`
}

func NewReportHandler(svc *service.Services, log *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc.Reports, log: log}
}

// List ?status=pending|in_progress|resolved
func (h *ReportHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), actor(c), c.Query("status"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": list})
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req CreateReportReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	photo, err := optionalFile(c, "photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid photo"})
		return
	}
	video, err := optionalFile(c, "video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid video"})
		return
	}

	report, err := h.svc.Create(c.Request.Context(), actor(c), service.CreateReportInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.ReportType,
		Location:    req.Location,
		Photo:       photo,
		Video:       video,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "report submitted successfully", "id": report.ID, "report": report})
}

func (h *ReportHandler) Detail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Detail(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ReportHandler) Comment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	comment, err := h.svc.Comment(c.Request.Context(), actor(c), id, req.Content)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "comment added successfully", "comment": comment})
}

func (h *ReportHandler) Resolve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	report, err := h.svc.Resolve(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "report marked as resolved", "report": report})
}

func (h *ReportHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "report deleted successfully"})
}
