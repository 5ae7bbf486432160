package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"Community_Portal/internal/service"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accounts      *service.AccountService
	notifications *service.NotificationService
	dashboards    *service.DashboardService
	log           *slog.Logger
}

// RegisterReq 注册请求体
type RegisterReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	Role            string `json:"role"`
}

type ChangePasswordReq struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UpdateProfileReq 字段缺省表示不修改；multipart 时可带 profile_picture
type UpdateProfileReq struct {
	FirstName     *string `json:"first_name" form:"first_name"`
	LastName      *string `json:"last_name" form:"last_name"`
	Email         *string `json:"email" form:"email"`
	Phone         *string `json:"phone" form:"phone"`
	Address       *string `json:"address" form:"address"`
	Bio           *string `json:"bio" form:"bio"`
	CommunityName *string `json:"community_name" form:"community_name"`
}

func NewAccountHandler(svc *service.Services, log *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:      svc.Accounts,
		notifications: svc.Notifications,
		dashboards:    svc.Dashboards,
		log:           log,
	}
}

// Register 注册接口，新账号需要管理员审批
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Role:            req.Role,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"msg":              "registration successful, please wait for admin approval",
		"id":               user.ID,
		"pending_approval": true,
	})
}

// Login 登录接口
func (h *AccountHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	msg := "ok"
	if res.Pending {
		msg = "your account is pending admin approval"
	}
	c.JSON(http.StatusOK, gin.H{
		"msg":              msg,
		"AccessToken":      res.Tokens.AccessToken,
		"RefreshToken":     res.Tokens.RefreshToken,
		"pending_approval": res.Pending,
		"user":             res.User,
	})
}

func (h *AccountHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), actor(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// TokenRefresh 利用refresh来更新access
func (h *AccountHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	pair, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"AccessToken": pair.AccessToken, "RefreshToken": pair.RefreshToken})
}

// Pending 待审批提示；已审批账号返回 approved=true
func (h *AccountHandler) Pending(c *gin.Context) {
	approved, err := h.accounts.PendingNotice(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if approved {
		c.JSON(http.StatusOK, gin.H{"approved": true, "msg": "your account is approved"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": false, "msg": "your account is pending admin approval"})
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), actor(c), req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "change password successfully"})
}

func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	if err := h.accounts.DeleteSelf(c.Request.Context(), actor(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "your account has been deleted"})
}

func (h *AccountHandler) Profile(c *gin.Context) {
	p, err := h.dashboards.Profile(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	picture, err := optionalFile(c, "profile_picture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid profile picture"})
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), actor(c), service.ProfileInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Bio:            req.Bio,
		CommunityName:  req.CommunityName,
		ProfilePicture: picture,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "profile updated successfully", "user": user})
}

func (h *AccountHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboards.Dashboard(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Notifications ?unread=true 只看未读，?limit= 限制条数
func (h *AccountHandler) Notifications(c *gin.Context) {
	unread := c.Query("unread") == "true"
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid limit"})
		return
	}

	list, err := h.notifications.List(c.Request.Context(), actor(c), unread, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// Landing 首页统计，无需登录
func (h *AccountHandler) Landing(c *gin.Context) {
	st, err := h.dashboards.Landing(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
