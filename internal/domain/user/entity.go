package user

import (
	"time"
)

// User 用户实体（聚合根）
// DDD设计说明：
// 1. 密码已加密存储（bcrypt），领域实体不暴露明文
// 2. 领域实体不依赖GORM tag（infrastructure层的Repository实现时处理映射）
// 3. 借阅子域只按ID消费User，用户生命周期由本聚合管理
type User struct {
	ID        uint
	Name      string
	Email     string
	Password  string // bcrypt哈希值
	Address   string
	Verified  bool // 邮箱验证标记
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewUser(name, email, hashedPassword, address string) *User {
	now := time.Now()
	return &User{
		Name:      name,
		Email:     email,
		Password:  hashedPassword,
		Address:   address,
		Verified:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkVerified 标记邮箱已验证
func (u *User) MarkVerified() {
	u.Verified = true
	u.UpdatedAt = time.Now()
}

// UpdatePassword 更新密码（调用方负责传入bcrypt哈希）
func (u *User) UpdatePassword(hashedPassword string) {
	u.Password = hashedPassword
	u.UpdatedAt = time.Now()
}
