package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/booklend/internal/domain/loan"
	apperrors "github.com/xiebiao/booklend/pkg/errors"
)

// loanRepository 借阅记录仓储实现(MySQL)
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository 创建借阅记录仓储
func NewLoanRepository(db *gorm.DB) loan.Repository {
	return &loanRepository{db: db}
}

// Create 创建借阅记录
func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	model := &LoanModel{
		BookID:     l.BookID,
		UserID:     l.UserID,
		BorrowDate: l.BorrowDate,
		ReturnDate: l.ReturnDate,
		Returned:   l.Returned,
	}

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建借阅记录失败")
	}

	l.ID = model.ID
	l.CreatedAt = model.CreatedAt
	l.UpdatedAt = model.UpdatedAt

	return nil
}

// FindActive 查找某用户对某图书的活跃借阅记录
// 归还与重复借阅检查都基于此查询
func (r *loanRepository) FindActive(ctx context.Context, userID, bookID uint) (*loan.Loan, error) {
	var model LoanModel
	err := r.getDB(ctx).
		Where("user_id = ? AND book_id = ? AND returned = ?", userID, bookID, false).
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}

	return toLoanEntity(&model), nil
}

// FindByUser 查询某用户的全部活跃借阅记录
func (r *loanRepository) FindByUser(ctx context.Context, userID uint) ([]*loan.Loan, error) {
	var models []LoanModel
	err := r.getDB(ctx).
		Where("user_id = ? AND returned = ?", userID, false).
		Order("borrow_date DESC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询借阅记录失败")
	}
	return toLoanEntities(models), nil
}

// FindAllActive 查询全部活跃借阅记录(缓存预热用)
func (r *loanRepository) FindAllActive(ctx context.Context) ([]*loan.Loan, error) {
	var models []LoanModel
	err := r.getDB(ctx).
		Where("returned = ?", false).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询活跃借阅记录失败")
	}
	return toLoanEntities(models), nil
}

// Update 更新借阅记录(归还时写入ReturnDate与Returned)
func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	model := &LoanModel{
		ID:         l.ID,
		BookID:     l.BookID,
		UserID:     l.UserID,
		BorrowDate: l.BorrowDate,
		ReturnDate: l.ReturnDate,
		Returned:   l.Returned,
		CreatedAt:  l.CreatedAt,
	}

	if err := r.getDB(ctx).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新借阅记录失败")
	}

	l.UpdatedAt = model.UpdatedAt
	return nil
}

// toLoanEntity GORM模型 → 领域实体
func toLoanEntity(model *LoanModel) *loan.Loan {
	return &loan.Loan{
		ID:         model.ID,
		BookID:     model.BookID,
		UserID:     model.UserID,
		BorrowDate: model.BorrowDate,
		ReturnDate: model.ReturnDate,
		Returned:   model.Returned,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toLoanEntities(models []LoanModel) []*loan.Loan {
	loans := make([]*loan.Loan, len(models))
	for i := range models {
		loans[i] = toLoanEntity(&models[i])
	}
	return loans
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *loanRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}
