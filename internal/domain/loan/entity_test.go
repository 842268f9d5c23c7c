package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoan(t *testing.T) {
	l := NewLoan(1, 2)

	assert.Equal(t, uint(1), l.UserID)
	assert.Equal(t, uint(2), l.BookID)
	assert.True(t, l.IsActive())
	assert.False(t, l.BorrowDate.IsZero())
	assert.Nil(t, l.ReturnDate)
}

func TestLoan_Close(t *testing.T) {
	t.Run("活跃记录归还成功", func(t *testing.T) {
		l := NewLoan(1, 2)

		err := l.Close()

		require.NoError(t, err)
		assert.True(t, l.Returned)
		assert.False(t, l.IsActive())
		require.NotNil(t, l.ReturnDate)
		assert.False(t, l.ReturnDate.Before(l.BorrowDate), "归还时间不应早于借出时间")
	})

	t.Run("已关闭记录不可重复归还", func(t *testing.T) {
		l := NewLoan(1, 2)
		require.NoError(t, l.Close())
		firstReturn := *l.ReturnDate

		err := l.Close()

		assert.ErrorIs(t, err, ErrLoanAlreadyClosed)
		assert.Equal(t, firstReturn, *l.ReturnDate, "终态记录不应被修改")
	})
}
