package book

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/booklend/internal/domain/book"
)

// ListBooksUseCase 图书列表查询用例
// 可借列表走Cache-Aside读路径:先查缓存,未命中回源数据库并回填
type ListBooksUseCase struct {
	bookRepo book.Repository
	cache    Cache
	logger   *zap.Logger
}

// NewListBooksUseCase 创建图书列表用例
func NewListBooksUseCase(bookRepo book.Repository, cache Cache, logger *zap.Logger) *ListBooksUseCase {
	return &ListBooksUseCase{
		bookRepo: bookRepo,
		cache:    cache,
		logger:   logger,
	}
}

// Available 查询可借图书列表
// 读路径:缓存命中直接返回;未命中回源数据库,结果回填缓存
// 缓存故障等同于未命中,请求始终能从数据库得到答案
func (uc *ListBooksUseCase) Available(ctx context.Context) ([]*BookDTO, error) {
	if cached := uc.cache.GetAvailable(ctx); cached != nil {
		return toBookDTOs(cached), nil
	}

	books, err := uc.bookRepo.FindAvailable(ctx)
	if err != nil {
		return nil, err
	}

	uc.cache.SetAvailable(ctx, books)
	return toBookDTOs(books), nil
}

// All 查询全部图书(含已借出)
// 管理视角的全量查询,不走缓存
func (uc *ListBooksUseCase) All(ctx context.Context) ([]*BookDTO, error) {
	books, err := uc.bookRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toBookDTOs(books), nil
}

// Detail 查询单本图书详情
func (uc *ListBooksUseCase) Detail(ctx context.Context, bookID uint) (*BookDTO, error) {
	if cached := uc.cache.GetDetail(ctx, bookID); cached != nil {
		return toBookDTO(cached), nil
	}

	b, err := uc.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	uc.cache.SetDetail(ctx, b)
	return toBookDTO(b), nil
}

// =========================================
// 应用层DTO
// =========================================

// BookDTO 图书对外视图
type BookDTO struct {
	ID          uint   `json:"id"`
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	IsAvailable bool   `json:"is_available"`
	CreatedAt   string `json:"created_at"`
}

func toBookDTO(b *book.Book) *BookDTO {
	return &BookDTO{
		ID:          b.ID,
		ISBN:        b.ISBN,
		Title:       b.Title,
		Author:      b.Author,
		IsAvailable: b.IsAvailable,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
}

func toBookDTOs(books []*book.Book) []*BookDTO {
	dtos := make([]*BookDTO, len(books))
	for i, b := range books {
		dtos[i] = toBookDTO(b)
	}
	return dtos
}
