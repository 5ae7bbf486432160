package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"Community_Portal/internal/middleware"
	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"

	"github.com/gin-gonic/gin"
)

// writeError 把业务错误映射成状态码，未知错误只记日志不外露
func writeError(c *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, pkg.ErrValidation), errors.Is(err, pkg.ErrPasswordMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
	case errors.Is(err, pkg.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"msg": err.Error()})
	case errors.Is(err, pkg.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
	case errors.Is(err, pkg.ErrPendingApproval):
		c.JSON(http.StatusForbidden, gin.H{"msg": err.Error(), "pending_approval": true})
	case errors.Is(err, pkg.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"msg": err.Error()})
	case errors.Is(err, pkg.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": err.Error()})
	default:
		log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal server error"})
	}
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid " + name})
		return 0, false
	}
	return id, true
}

// actor 认证中间件之后一定存在
func actor(c *gin.Context) *model.User {
	u, _ := middleware.CurrentUser(c)
	return u
}

// optionalFile 非 multipart 请求或未上传时返回 nil
func optionalFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	return fh, err
}
