package user

import (
	"context"
	"time"

	"github.com/xiebiao/booklend/internal/domain/user"
)

// ProfileUseCase 查询当前用户资料用例
type ProfileUseCase struct {
	userRepo user.Repository
}

// NewProfileUseCase 创建资料查询用例
func NewProfileUseCase(userRepo user.Repository) *ProfileUseCase {
	return &ProfileUseCase{userRepo: userRepo}
}

// ProfileResponse 用户资料响应
type ProfileResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Verified  bool   `json:"verified"`
	CreatedAt string `json:"created_at"`
}

// Execute 查询用户资料
func (uc *ProfileUseCase) Execute(ctx context.Context, userID uint) (*ProfileResponse, error) {
	u, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Address:   u.Address,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ChangePasswordUseCase 修改密码用例
type ChangePasswordUseCase struct {
	userService user.Service
}

// NewChangePasswordUseCase 创建修改密码用例
func NewChangePasswordUseCase(userService user.Service) *ChangePasswordUseCase {
	return &ChangePasswordUseCase{userService: userService}
}

// Execute 修改密码
// 旧密码校验与新密码强度校验都在领域服务中完成
func (uc *ChangePasswordUseCase) Execute(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	return uc.userService.ChangePassword(ctx, userID, oldPassword, newPassword)
}
