package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/booklend/internal/domain/book"
	apperrors "github.com/xiebiao/booklend/pkg/errors"
)

// bookRepository 图书仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如ISBN重复),转换为业务错误
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := &BookModel{
		ISBN:              b.ISBN,
		Title:             b.Title,
		Author:            b.Author,
		Quantity:          b.Quantity,
		AvailableQuantity: b.AvailableQuantity,
		IsAvailable:       b.IsAvailable,
	}

	if err := r.getDB(ctx).Create(model).Error; err != nil {
		// 唯一索引兜底:并发注册同一ISBN时,先查后插的检查会漏掉
		if isDuplicateError(err) {
			return book.ErrISBNDuplicate
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	// 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}

	return toBookEntity(&model), nil
}

// FindByISBN 根据ISBN查找图书
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	err := r.getDB(ctx).Where("isbn = ?", isbn).First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}

	return toBookEntity(&model), nil
}

// CountByISBN 统计某ISBN的图书数量(用于注册前重复检查)
func (r *bookRepository) CountByISBN(ctx context.Context, isbn string) (int64, error) {
	var count int64
	err := r.getDB(ctx).Model(&BookModel{}).Where("isbn = ?", isbn).Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(err, "统计图书失败")
	}
	return count, nil
}

// FindAll 查询全部图书
func (r *bookRepository) FindAll(ctx context.Context) ([]*book.Book, error) {
	var models []BookModel
	if err := r.getDB(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书列表失败")
	}
	return toBookEntities(models), nil
}

// FindAvailable 查询所有可借图书
func (r *bookRepository) FindAvailable(ctx context.Context) ([]*book.Book, error) {
	var models []BookModel
	err := r.getDB(ctx).Where("is_available = ?", true).Order("id ASC").Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询可借图书失败")
	}
	return toBookEntities(models), nil
}

// Update 更新图书信息
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := &BookModel{
		ID:                b.ID,
		ISBN:              b.ISBN,
		Title:             b.Title,
		Author:            b.Author,
		Quantity:          b.Quantity,
		AvailableQuantity: b.AvailableQuantity,
		IsAvailable:       b.IsAvailable,
		CreatedAt:         b.CreatedAt,
	}

	if err := r.getDB(ctx).Save(model).Error; err != nil {
		return apperrors.Wrap(err, "更新图书失败")
	}

	b.UpdatedAt = model.UpdatedAt
	return nil
}

// MarkUnavailable 原子标记图书为不可借
// 使用条件UPDATE作为并发借阅的唯一判定:
// UPDATE books SET is_available = false WHERE id = ? AND is_available = true
// RowsAffected=0时再查一次区分"图书不存在"与"已被他人借走"
func (r *bookRepository) MarkUnavailable(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Where("is_available = ?", true).
		Update("is_available", false)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新图书状态失败")
	}

	if result.RowsAffected == 0 {
		var model BookModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return book.ErrBookNotFound
			}
			return apperrors.Wrap(err, "查询图书失败")
		}
		// 图书存在,说明并发借阅中已被抢先
		return book.ErrBookUnavailable
	}

	return nil
}

// MarkAvailable 标记图书恢复可借(归还时调用)
// 影响行数为0不能直接判定图书不存在:默认DSN下对已可借图书的
// 无变化UPDATE同样返回0行,需要回查区分
func (r *bookRepository) MarkAvailable(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	result := db.Model(&BookModel{}).
		Where("id = ?", id).
		Update("is_available", true)

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新图书状态失败")
	}

	if result.RowsAffected == 0 {
		var model BookModel
		if err := db.First(&model, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return book.ErrBookNotFound
			}
			return apperrors.Wrap(err, "查询图书失败")
		}
		// 图书存在且本就可借,归还操作幂等通过
	}

	return nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:                model.ID,
		ISBN:              model.ISBN,
		Title:             model.Title,
		Author:            model.Author,
		Quantity:          model.Quantity,
		AvailableQuantity: model.AvailableQuantity,
		IsAvailable:       model.IsAvailable,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

func toBookEntities(models []BookModel) []*book.Book {
	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *bookRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}
