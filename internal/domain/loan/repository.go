package loan

import (
	"context"
)

// Repository 借阅仓储接口
// 借还事务中通过context参与同一事务
type Repository interface {
	// Create 创建借阅记录
	Create(ctx context.Context, loan *Loan) error

	// FindActive 查找(用户,图书)的活跃借阅记录(Returned=false)
	// 不存在返回ErrLoanNotFound
	FindActive(ctx context.Context, userID, bookID uint) (*Loan, error)

	// FindByUser 查询用户的活跃借阅记录(Returned=false)
	// 借阅列表视图的数据源,已归还的记录不出现在结果里
	FindByUser(ctx context.Context, userID uint) ([]*Loan, error)

	// FindAllActive 查询全部活跃借阅记录(缓存预热/刷新用)
	FindAllActive(ctx context.Context) ([]*Loan, error)

	// Update 更新借阅记录(归还时关闭)
	Update(ctx context.Context, loan *Loan) error
}
