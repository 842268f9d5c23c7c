package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/pkg/logger"
)

func TestRegisterBook(t *testing.T) {
	newUC := func() (*RegisterBookUseCase, *fakeBookRepo, *fakeCache) {
		bookRepo := newFakeBookRepo()
		cache := newFakeCache()
		uc := NewRegisterBookUseCase(book.NewService(bookRepo), logger.NewNop())
		return uc, bookRepo, cache
	}

	t.Run("登记成功且不触碰缓存", func(t *testing.T) {
		uc, _, cache := newUC()

		dto, err := uc.Execute(context.Background(), RegisterBookRequest{
			ISBN:   "978-7-115-42802-8",
			Title:  "Go程序设计语言",
			Author: "Donovan",
		})
		require.NoError(t, err)
		assert.NotZero(t, dto.ID)
		assert.True(t, dto.IsAvailable)

		// 登记不做任何缓存操作,新书等列表重建或定时刷新时进入缓存
		assert.Zero(t, cache.availableInvalidations)
		assert.Empty(t, cache.details)
	})

	t.Run("重复ISBN被拒绝", func(t *testing.T) {
		uc, _, _ := newUC()

		_, err := uc.Execute(context.Background(), RegisterBookRequest{ISBN: "9787115428028", Title: "A", Author: "a"})
		require.NoError(t, err)

		_, err = uc.Execute(context.Background(), RegisterBookRequest{ISBN: "9787115428028", Title: "B", Author: "b"})
		assert.Equal(t, book.ErrISBNDuplicate, err)
	})

	t.Run("非法ISBN被拒绝", func(t *testing.T) {
		uc, _, _ := newUC()

		_, err := uc.Execute(context.Background(), RegisterBookRequest{ISBN: "abc", Title: "A", Author: "a"})
		assert.Equal(t, book.ErrInvalidISBN, err)
	})
}
