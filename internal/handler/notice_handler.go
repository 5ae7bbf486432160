package handler

import (
	"log/slog"
	"net/http"

	"Community_Portal/internal/service"

	"github.com/gin-gonic/gin"
)

type NoticeHandler struct {
	svc *service.NoticeService
	log *slog.Logger
}

type PostNoticeReq struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsImportant bool   `json:"is_important"`
}

func NewNoticeHandler(svc *service.Services, log *slog.Logger) *NoticeHandler {
	return &NoticeHandler{svc: svc.Notices, log: log}
}

func (h *NoticeHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notices": list})
}

func (h *NoticeHandler) Post(c *gin.Context) {
	var req PostNoticeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	n, err := h.svc.Post(c.Request.Context(), actor(c), req.Title, req.Content, req.IsImportant)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "notice posted", "notice": n})
}
