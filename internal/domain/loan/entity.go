package loan

import (
	"time"
)

// Loan 借阅记录实体(聚合根)
// DDD设计说明:
// 1. 一条Loan关联一个User与一本Book,记录借出与归还时间
// 2. 状态机: (无记录) --借书--> Active --还书--> Closed
//    Closed为终态,归还后的记录不会被重新打开;
//    同一(用户,图书)再次借书会创建新的Loan记录
// 3. 核心并发不变量:任意时刻同一(用户,图书)至多存在一条Returned=false的记录
type Loan struct {
	ID         uint
	BookID     uint
	UserID     uint
	BorrowDate time.Time
	ReturnDate *time.Time // Closed时才有值
	Returned   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLoan 创建借阅记录(工厂方法)
func NewLoan(userID, bookID uint) *Loan {
	now := time.Now()
	return &Loan{
		BookID:     bookID,
		UserID:     userID,
		BorrowDate: now,
		Returned:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsActive 是否为活跃借阅(未归还)
func (l *Loan) IsActive() bool {
	return !l.Returned
}

// Close 归还状态迁移(领域行为)
// 业务规则:已关闭的记录不可重复归还
func (l *Loan) Close() error {
	if l.Returned {
		return ErrLoanAlreadyClosed
	}
	now := time.Now()
	l.Returned = true
	l.ReturnDate = &now
	l.UpdatedAt = now
	return nil
}
