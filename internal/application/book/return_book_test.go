package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/domain/loan"
	"github.com/xiebiao/booklend/internal/domain/user"
	"github.com/xiebiao/booklend/pkg/logger"
	"github.com/xiebiao/booklend/pkg/metrics"
	"github.com/xiebiao/booklend/pkg/mq"
)

type returnFixture struct {
	*borrowFixture
	returnUC *ReturnBookUseCase
}

func newReturnFixture() *returnFixture {
	f := newBorrowFixture()
	log := logger.NewNop()
	sync := NewCacheSynchronizer(f.cache, f.bookRepo, log)
	returnUC := NewReturnBookUseCase(
		f.bookRepo, f.loanRepo, f.userRepo,
		&fakeTxManager{bookRepo: f.bookRepo, loanRepo: f.loanRepo},
		sync, f.publisher, metrics.New(), log,
	)
	return &returnFixture{borrowFixture: f, returnUC: returnUC}
}

func TestReturnBook_Success(t *testing.T) {
	f := newReturnFixture()
	bookID := f.bookRepo.add(book.Book{ISBN: "9787115428028", Title: "Go程序设计语言", IsAvailable: true})

	_, err := f.uc.Execute(context.Background(), 1, bookID)
	require.NoError(t, err)

	resp, err := f.returnUC.Execute(context.Background(), 1, bookID)
	require.NoError(t, err)

	assert.Equal(t, "Book returned successfully", resp.Message)
	assert.NotEmpty(t, resp.ReturnDate)

	// 图书恢复可借
	b, err := f.bookRepo.FindByID(context.Background(), bookID)
	require.NoError(t, err)
	assert.True(t, b.IsAvailable)

	// 活跃借阅记录清零
	assert.Zero(t, f.loanRepo.activeCount())

	// 缓存同步:被借集合移除,详情回写为可借状态
	assert.False(t, f.cache.setIDs[bookID])
	require.NotNil(t, f.cache.details[bookID])
	assert.True(t, f.cache.details[bookID].IsAvailable)

	// 借出+归还共两条事件
	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, mq.RoutingKeyLoanReturned, f.publisher.events[1].routingKey)
}

func TestReturnBook_NoActiveLoan(t *testing.T) {
	f := newReturnFixture()
	bookID := f.bookRepo.add(book.Book{ISBN: "9787115428028", Title: "Go程序设计语言", IsAvailable: true})

	_, err := f.returnUC.Execute(context.Background(), 1, bookID)
	assert.Equal(t, loan.ErrLoanNotFound, err)
	assert.Equal(t, "No active borrowing record found for this book", loan.ErrLoanNotFound.Message)
}

func TestReturnBook_BookNotFound(t *testing.T) {
	f := newReturnFixture()

	// 图书不存在时返回ErrBookNotFound,而不是"无借阅记录"
	_, err := f.returnUC.Execute(context.Background(), 1, 999)
	assert.Equal(t, book.ErrBookNotFound, err)
}

func TestReturnBook_UserNotFound(t *testing.T) {
	f := newReturnFixture()
	bookID := f.bookRepo.add(book.Book{ISBN: "9787115428028", Title: "Go程序设计语言", IsAvailable: true})

	_, err := f.returnUC.Execute(context.Background(), 999, bookID)
	assert.Equal(t, user.ErrUserNotFound, err)
}

func TestReturnBook_OnlyBorrowerCanReturn(t *testing.T) {
	f := newReturnFixture()
	bookID := f.bookRepo.add(book.Book{ISBN: "9787115428028", Title: "Go程序设计语言", IsAvailable: true})

	_, err := f.uc.Execute(context.Background(), 1, bookID)
	require.NoError(t, err)

	// 用户2没有这本书的活跃记录,归还被拒
	_, err = f.returnUC.Execute(context.Background(), 2, bookID)
	assert.Equal(t, loan.ErrLoanNotFound, err)

	// 图书仍处于借出状态
	b, _ := f.bookRepo.FindByID(context.Background(), bookID)
	assert.False(t, b.IsAvailable)
}

func TestReturnBook_SucceedsWhenBookAlreadyAvailable(t *testing.T) {
	f := newReturnFixture()
	bookID := f.bookRepo.add(book.Book{ISBN: "9787115428028", Title: "Go程序设计语言", IsAvailable: true})

	_, err := f.uc.Execute(context.Background(), 1, bookID)
	require.NoError(t, err)

	// 状态漂移:活跃借阅记录还在,图书却已标记可借
	// MarkAvailable对已可借图书幂等通过,归还不能因此报"图书不存在"
	require.NoError(t, f.bookRepo.MarkAvailable(context.Background(), bookID))

	resp, err := f.returnUC.Execute(context.Background(), 1, bookID)
	require.NoError(t, err)
	assert.Equal(t, "Book returned successfully", resp.Message)
	assert.Zero(t, f.loanRepo.activeCount())
}

func TestReturnBook_ReturnedLoanLeavesBorrowedList(t *testing.T) {
	f := newReturnFixture()
	log := logger.NewNop()
	id1 := f.bookRepo.add(book.Book{ISBN: "9787115428028", Title: "Go程序设计语言", IsAvailable: true})
	id2 := f.bookRepo.add(book.Book{ISBN: "9787111558422", Title: "Go语言实战", IsAvailable: true})

	_, err := f.uc.Execute(context.Background(), 1, id1)
	require.NoError(t, err)
	_, err = f.uc.Execute(context.Background(), 1, id2)
	require.NoError(t, err)

	_, err = f.returnUC.Execute(context.Background(), 1, id1)
	require.NoError(t, err)

	// 已归还的记录不能回流到借阅列表
	f.cache.InvalidateBorrowed(context.Background(), 1)
	listUC := NewListBorrowedUseCase(f.bookRepo, f.loanRepo, f.cache, log)
	dtos, err := listUC.Execute(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, id2, dtos[0].ID)
}

func TestReturnBook_BorrowAgainAfterReturn(t *testing.T) {
	f := newReturnFixture()
	bookID := f.bookRepo.add(book.Book{ISBN: "9787115428028", Title: "Go程序设计语言", IsAvailable: true})

	_, err := f.uc.Execute(context.Background(), 1, bookID)
	require.NoError(t, err)
	_, err = f.returnUC.Execute(context.Background(), 1, bookID)
	require.NoError(t, err)

	// 归还后同一用户可以再次借阅,产生新的借阅记录
	resp, err := f.uc.Execute(context.Background(), 1, bookID)
	require.NoError(t, err)
	assert.Equal(t, "Book borrowed successfully", resp.Message)
	assert.Equal(t, 1, f.loanRepo.activeCount())
}
