package handler

import (
	"log/slog"
	"net/http"

	"Community_Portal/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	accounts   *service.AccountService
	dashboards *service.DashboardService
	log        *slog.Logger
}

type BulkReq struct {
	UserIDs []uint64 `json:"user_ids"`
}

func NewAdminHandler(svc *service.Services, log *slog.Logger) *AdminHandler {
	return &AdminHandler{accounts: svc.Accounts, dashboards: svc.Dashboards, log: log}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboards.AdminDashboard(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) Approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, changed, err := h.accounts.Approve(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	msg := "user " + user.Username + " has been approved"
	if !changed {
		msg = "user " + user.Username + " is already approved"
	}
	c.JSON(http.StatusOK, gin.H{"msg": msg, "changed": changed})
}

func (h *AdminHandler) Reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.accounts.Reject(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "user " + user.Username + " has been rejected and removed"})
}

func (h *AdminHandler) BulkApprove(c *gin.Context) {
	var req BulkReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	n, err := h.accounts.BulkApprove(c.Request.Context(), actor(c), req.UserIDs)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok", "approved": n})
}

func (h *AdminHandler) BulkReject(c *gin.Context) {
	var req BulkReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	n, err := h.accounts.BulkReject(c.Request.Context(), actor(c), req.UserIDs)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok", "rejected": n})
}
