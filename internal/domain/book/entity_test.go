package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBook(t *testing.T) {
	b := NewBook("9781234567890", "Go程序设计语言", "Alan Donovan")

	assert.True(t, b.IsAvailable, "新登记图书应默认可借")
	assert.Equal(t, 1, b.Quantity)
	assert.Equal(t, 1, b.AvailableQuantity)
	assert.Equal(t, "9781234567890", b.ISBN)
}

func TestBook_MarkBorrowed(t *testing.T) {
	t.Run("可借图书借出成功", func(t *testing.T) {
		b := NewBook("9781234567890", "t", "a")

		err := b.MarkBorrowed()

		require.NoError(t, err)
		assert.False(t, b.IsAvailable)
	})

	t.Run("不可借图书借出失败", func(t *testing.T) {
		b := NewBook("9781234567890", "t", "a")
		require.NoError(t, b.MarkBorrowed())

		err := b.MarkBorrowed()

		assert.ErrorIs(t, err, ErrBookUnavailable)
	})

	t.Run("借还计数字段不随借出变化", func(t *testing.T) {
		b := NewBook("9781234567890", "t", "a")

		require.NoError(t, b.MarkBorrowed())

		assert.Equal(t, 1, b.Quantity)
		assert.Equal(t, 1, b.AvailableQuantity)
	})
}

func TestBook_MarkReturned(t *testing.T) {
	b := NewBook("9781234567890", "t", "a")
	require.NoError(t, b.MarkBorrowed())

	b.MarkReturned()

	assert.True(t, b.IsAvailable)
}

func TestIsValidISBN(t *testing.T) {
	tests := []struct {
		name string
		isbn string
		want bool
	}{
		{"13位数字", "9787115428028", true},
		{"10位数字", "7115428026", true},
		{"带分隔符", "978-7-115-42802-8", true},
		{"位数不足", "12345", false},
		{"位数过多", "97871154280281234", false},
		{"空字符串", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isValidISBN(tt.isbn))
		})
	}
}
