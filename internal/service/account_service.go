package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/policy"
	"Community_Portal/internal/repository/database"
	"Community_Portal/internal/repository/session"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AccountService struct {
	repo             *database.UserRepository
	sessions         session.Store
	tokens           *pkg.TokenIssuer
	files            *pkg.FileStorage
	notifier         *NotificationService
	metrics          *pkg.Metrics
	log              *slog.Logger
	allowAdminSignup bool
}

func NewAccountService(d Deps, notifier *NotificationService) *AccountService {
	d.defaults()
	return &AccountService{
		repo:             &database.UserRepository{DB: d.DB},
		sessions:         d.Sessions,
		tokens:           d.Tokens,
		files:            d.Files,
		notifier:         notifier,
		metrics:          d.Metrics,
		log:              d.Log,
		allowAdminSignup: d.AllowAdminSignup,
	}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	Phone           string
	Role            string
}

// Register 新账号一律待审批
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", pkg.ErrValidation)
	}
	if in.Role == "" {
		in.Role = model.RoleMember
	}
	if !model.ValidRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", pkg.ErrValidation, in.Role)
	}
	if in.Role == model.RoleAdmin && !s.allowAdminSignup {
		return nil, fmt.Errorf("%w: admin accounts cannot be requested at registration", pkg.ErrValidation)
	}
	if in.Password != in.PasswordConfirm {
		return nil, pkg.ErrPasswordMismatch
	}

	if exists, err := s.repo.UsernameExists(ctx, in.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, pkg.ErrDuplicateUsername
	}
	if exists, err := s.repo.EmailExists(ctx, in.Email, 0); err != nil {
		return nil, err
	} else if exists {
		return nil, pkg.ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:   in.Username,
		Email:      in.Email,
		Password:   string(hash),
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Phone:      strings.TrimSpace(in.Phone),
		Role:       in.Role,
		IsApproved: false,
	}
	// 并发注册时以唯一索引为准
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, storageErr(err)
	}

	s.metrics.Registrations.Inc()
	s.log.InfoContext(ctx, "account registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

type LoginResult struct {
	User    *model.User
	Tokens  *pkg.Pair
	Pending bool
}

// Login 待审批账号也能认证成功，但其会话在授权策略下只能查看待审批提示
func (s *AccountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Tokens: pair, Pending: !user.IsApproved}, nil
}

// issue 签发并登记 token，覆盖该账号之前的会话
func (s *AccountService) issue(ctx context.Context, userID uint64) (*pkg.Pair, error) {
	pair, err := s.tokens.GeneratePair(userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, userID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AccountService) Logout(ctx context.Context, actor *model.User) error {
	return s.sessions.Delete(ctx, actor.ID)
}

func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, pkg.ErrInvalidCredentials
	}
	// 账号已被删除（拒绝/注销）则 refresh 失效
	if _, err := s.repo.FindByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.ErrInvalidCredentials
		}
		return nil, err
	}
	return s.issue(ctx, claims.UserID)
}

// PendingNotice 返回账号是否已通过审批
func (s *AccountService) PendingNotice(_ context.Context, actor *model.User) (bool, error) {
	if err := authorize(s.metrics, actor, policy.ViewPendingNotice, policy.Resource{}); err != nil {
		return false, err
	}
	return actor.IsApproved, nil
}

func approvalMessage(approver *model.User) string {
	return fmt.Sprintf("Your account has been approved by %s!", approver.DisplayName())
}

// Approve 已审批的账号再次审批是无副作用的成功，changed=false
func (s *AccountService) Approve(ctx context.Context, actor *model.User, targetID uint64) (*model.User, bool, error) {
	if err := authorize(s.metrics, actor, policy.ApproveAccount, policy.Resource{}); err != nil {
		return nil, false, err
	}

	n, changed, err := s.repo.Approve(ctx, targetID, actor.ID, approvalMessage(actor))
	if err != nil {
		return nil, false, storageErr(err)
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, false, storageErr(err)
	}
	if changed {
		s.metrics.Approvals.Inc()
		s.log.InfoContext(ctx, "account approved", "user_id", targetID, "approved_by", actor.ID)
		s.notifier.Dispatch(ctx, target, n)
	}
	return target, changed, nil
}

// Reject 直接删除目标账号（不可恢复）
func (s *AccountService) Reject(ctx context.Context, actor *model.User, targetID uint64) (*model.User, error) {
	if err := authorize(s.metrics, actor, policy.ApproveAccount, policy.Resource{}); err != nil {
		return nil, err
	}
	if targetID == actor.ID {
		return nil, fmt.Errorf("%w: you cannot reject your own account", pkg.ErrValidation)
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, storageErr(err)
	}
	if err := s.sessions.Delete(ctx, targetID); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return nil, storageErr(err)
	}

	s.metrics.Rejections.Inc()
	s.log.InfoContext(ctx, "account rejected", "user_id", targetID, "rejected_by", actor.ID)
	return target, nil
}

// BulkApprove 跳过已审批的账号，返回本次实际审批数
func (s *AccountService) BulkApprove(ctx context.Context, actor *model.User, ids []uint64) (int, error) {
	if err := authorize(s.metrics, actor, policy.ApproveAccount, policy.Resource{}); err != nil {
		return 0, err
	}

	users, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	approved := 0
	for i := range users {
		u := &users[i]
		if u.IsApproved {
			continue
		}
		n, changed, err := s.repo.Approve(ctx, u.ID, actor.ID, approvalMessage(actor))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return approved, err
		}
		if !changed {
			continue
		}
		approved++
		u.IsApproved = true
		s.metrics.Approvals.Inc()
		s.notifier.Dispatch(ctx, u, n)
	}
	s.log.InfoContext(ctx, "bulk approve", "approved", approved, "requested", len(ids), "approved_by", actor.ID)
	return approved, nil
}

// BulkReject 删除所选账号，返回删除数；不能包含自己
func (s *AccountService) BulkReject(ctx context.Context, actor *model.User, ids []uint64) (int, error) {
	if err := authorize(s.metrics, actor, policy.ApproveAccount, policy.Resource{}); err != nil {
		return 0, err
	}
	for _, id := range ids {
		if id == actor.ID {
			return 0, fmt.Errorf("%w: you cannot reject your own account", pkg.ErrValidation)
		}
	}

	users, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	rejected := 0
	for _, u := range users {
		if err := s.sessions.Delete(ctx, u.ID); err != nil {
			return rejected, err
		}
		if err := s.repo.Delete(ctx, u.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return rejected, err
		}
		rejected++
		s.metrics.Rejections.Inc()
	}
	s.log.InfoContext(ctx, "bulk reject", "rejected", rejected, "requested", len(ids), "rejected_by", actor.ID)
	return rejected, nil
}

// ChangePassword 修改后保留当前会话
func (s *AccountService) ChangePassword(ctx context.Context, actor *model.User, oldPassword, newPassword, confirm string) error {
	if err := authorize(s.metrics, actor, policy.ModifyOwnContent, ownResource(actor)); err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(actor.Password), []byte(oldPassword)) != nil {
		return pkg.ErrInvalidCredentials
	}
	if newPassword != confirm {
		return pkg.ErrPasswordMismatch
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", pkg.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, actor, string(hash)); err != nil {
		return err
	}
	actor.Password = string(hash)
	return nil
}

// DeleteSelf 先结束会话再删除账号，名下内容级联删除
func (s *AccountService) DeleteSelf(ctx context.Context, actor *model.User) error {
	if err := authorize(s.metrics, actor, policy.ModifyOwnContent, ownResource(actor)); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, actor.ID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, actor.ID); err != nil {
		return storageErr(err)
	}
	s.log.InfoContext(ctx, "account deleted by owner", "user_id", actor.ID)
	return nil
}

// ProfileInput nil 字段保持不变
type ProfileInput struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Address        *string
	Bio            *string
	CommunityName  *string
	ProfilePicture *multipart.FileHeader
}

func (s *AccountService) UpdateProfile(ctx context.Context, actor *model.User, in ProfileInput) (*model.User, error) {
	if err := authorize(s.metrics, actor, policy.ModifyOwnContent, ownResource(actor)); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	set("first_name", in.FirstName)
	set("last_name", in.LastName)
	set("phone", in.Phone)
	set("address", in.Address)
	set("bio", in.Bio)
	set("community_name", in.CommunityName)

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", pkg.ErrValidation)
		}
		if email != actor.Email {
			exists, err := s.repo.EmailExists(ctx, email, actor.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, pkg.ErrDuplicateEmail
			}
		}
		fields["email"] = email
	}

	if in.ProfilePicture != nil {
		ref, err := s.files.SavePhoto("profile_pics", in.ProfilePicture)
		if err != nil {
			return nil, err
		}
		fields["profile_picture"] = ref
	}

	if err := s.repo.UpdateProfile(ctx, actor, fields); err != nil {
		if ref, ok := fields["profile_picture"].(string); ok {
			discardUploads(ctx, s.log, s.files, ref)
		}
		return nil, storageErr(err)
	}
	return s.repo.FindByID(ctx, actor.ID)
}
