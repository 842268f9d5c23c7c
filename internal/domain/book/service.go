package book

import (
	"context"
	"regexp"
)

// Service 图书领域服务接口
// 封装注册时的业务规则校验;借还状态机在应用层用例中编排
type Service interface {
	// RegisterBook 登记新图书
	// 业务规则:
	// - ISBN格式必须合法(10位或13位数字)
	// - ISBN不能重复(计数提前检查 + 数据库唯一索引兜底)
	RegisterBook(ctx context.Context, isbn, title, author string) (*Book, error)

	// GetBookByID 根据ID获取图书详情
	GetBookByID(ctx context.Context, id uint) (*Book, error)

	// ListAllBooks 查询全部图书
	ListAllBooks(ctx context.Context) ([]*Book, error)
}

type service struct {
	repo Repository
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// RegisterBook 登记新图书
func (s *service) RegisterBook(ctx context.Context, isbn, title, author string) (*Book, error) {
	// 1. ISBN格式校验
	if !isValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}

	// 2. 重复检查(提前失败;并发注册由唯一索引兜底,Create会返回ErrISBNDuplicate)
	count, err := s.repo.CountByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrISBNDuplicate
	}

	// 3. 创建并持久化
	b := NewBook(isbn, title, author)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// GetBookByID 根据ID获取图书
func (s *service) GetBookByID(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

// ListAllBooks 查询全部图书
func (s *service) ListAllBooks(ctx context.Context) ([]*Book, error) {
	return s.repo.FindAll(ctx)
}

// isValidISBN 校验ISBN格式
// 支持ISBN-10和ISBN-13,允许分隔符(978-7-115-42802-8 → 9787115428028)
// 简化实现:只检查位数(生产环境应校验校验位)
func isValidISBN(isbn string) bool {
	re := regexp.MustCompile(`[^0-9Xx]`)
	cleanISBN := re.ReplaceAllString(isbn, "")

	length := len(cleanISBN)
	return length == 10 || length == 13
}
