package book

import (
	"context"
	"sync"

	"github.com/xiebiao/booklend/internal/domain/book"
	"github.com/xiebiao/booklend/internal/domain/loan"
	"github.com/xiebiao/booklend/internal/domain/user"
)

// =========================================
// 测试用内存fake
// 值语义存储,配合fakeTxManager的快照回滚
// =========================================

type fakeBookRepo struct {
	mu     sync.Mutex
	books  map[uint]book.Book
	nextID uint

	// 在条件UPDATE前注入的钩子,模拟并发抢先
	beforeMarkUnavailable func()
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[uint]book.Book), nextID: 1}
}

func (f *fakeBookRepo) add(b book.Book) uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.nextID
	f.nextID++
	f.books[b.ID] = b
	return b.ID
}

func (f *fakeBookRepo) Create(_ context.Context, b *book.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.books {
		if existing.ISBN == b.ISBN {
			return book.ErrISBNDuplicate
		}
	}
	b.ID = f.nextID
	f.nextID++
	f.books[b.ID] = *b
	return nil
}

func (f *fakeBookRepo) FindByID(_ context.Context, id uint) (*book.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return &b, nil
}

func (f *fakeBookRepo) FindByISBN(_ context.Context, isbn string) (*book.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.ISBN == isbn {
			b := b
			return &b, nil
		}
	}
	return nil, book.ErrBookNotFound
}

func (f *fakeBookRepo) CountByISBN(_ context.Context, isbn string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, b := range f.books {
		if b.ISBN == isbn {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookRepo) FindAll(_ context.Context) ([]*book.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*book.Book
	for id := uint(1); id < f.nextID; id++ {
		if b, ok := f.books[id]; ok {
			b := b
			result = append(result, &b)
		}
	}
	return result, nil
}

func (f *fakeBookRepo) FindAvailable(_ context.Context) ([]*book.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*book.Book
	for id := uint(1); id < f.nextID; id++ {
		if b, ok := f.books[id]; ok && b.IsAvailable {
			b := b
			result = append(result, &b)
		}
	}
	return result, nil
}

func (f *fakeBookRepo) Update(_ context.Context, b *book.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books[b.ID] = *b
	return nil
}

func (f *fakeBookRepo) MarkUnavailable(_ context.Context, id uint) error {
	if f.beforeMarkUnavailable != nil {
		f.beforeMarkUnavailable()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	if !b.IsAvailable {
		return book.ErrBookUnavailable
	}
	b.IsAvailable = false
	f.books[id] = b
	return nil
}

func (f *fakeBookRepo) MarkAvailable(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	b.IsAvailable = true
	f.books[id] = b
	return nil
}

func (f *fakeBookRepo) snapshot() map[uint]book.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make(map[uint]book.Book, len(f.books))
	for id, b := range f.books {
		copied[id] = b
	}
	return copied
}

func (f *fakeBookRepo) restore(snap map[uint]book.Book) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books = snap
}

type fakeLoanRepo struct {
	mu     sync.Mutex
	loans  map[uint]loan.Loan
	nextID uint
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[uint]loan.Loan), nextID: 1}
}

func (f *fakeLoanRepo) Create(_ context.Context, l *loan.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = f.nextID
	f.nextID++
	f.loans[l.ID] = *l
	return nil
}

func (f *fakeLoanRepo) FindActive(_ context.Context, userID, bookID uint) (*loan.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.UserID == userID && l.BookID == bookID && !l.Returned {
			l := l
			return &l, nil
		}
	}
	return nil, loan.ErrLoanNotFound
}

func (f *fakeLoanRepo) FindByUser(_ context.Context, userID uint) ([]*loan.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*loan.Loan
	for id := uint(1); id < f.nextID; id++ {
		if l, ok := f.loans[id]; ok && l.UserID == userID && !l.Returned {
			l := l
			result = append(result, &l)
		}
	}
	return result, nil
}

func (f *fakeLoanRepo) FindAllActive(_ context.Context) ([]*loan.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*loan.Loan
	for id := uint(1); id < f.nextID; id++ {
		if l, ok := f.loans[id]; ok && !l.Returned {
			l := l
			result = append(result, &l)
		}
	}
	return result, nil
}

func (f *fakeLoanRepo) Update(_ context.Context, l *loan.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loans[l.ID] = *l
	return nil
}

func (f *fakeLoanRepo) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, l := range f.loans {
		if !l.Returned {
			count++
		}
	}
	return count
}

func (f *fakeLoanRepo) snapshot() map[uint]loan.Loan {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make(map[uint]loan.Loan, len(f.loans))
	for id, l := range f.loans {
		copied[id] = l
	}
	return copied
}

func (f *fakeLoanRepo) restore(snap map[uint]loan.Loan) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loans = snap
}

type fakeUserRepo struct {
	users map[uint]user.User
}

func newFakeUserRepo(ids ...uint) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uint]user.User)}
	for _, id := range ids {
		f.users[id] = user.User{ID: id, Name: "测试用户", Email: "user@example.com"}
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error { return nil }

func (f *fakeUserRepo) FindByID(_ context.Context, id uint) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *user.User) error { return nil }

// fakeTxManager 模拟事务:fn返回错误时恢复快照,等价于ROLLBACK
type fakeTxManager struct {
	bookRepo *fakeBookRepo
	loanRepo *fakeLoanRepo
}

func (f *fakeTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	bookSnap := f.bookRepo.snapshot()
	loanSnap := f.loanRepo.snapshot()

	if err := fn(ctx); err != nil {
		f.bookRepo.restore(bookSnap)
		f.loanRepo.restore(loanSnap)
		return err
	}
	return nil
}

// fakeCache 记录缓存交互,供断言缓存同步行为
type fakeCache struct {
	available []*book.Book
	borrowed  map[uint][]*book.Book
	details   map[uint]*book.Book
	setIDs    map[uint]bool

	availableInvalidations int
	borrowedInvalidations  map[uint]int
	invalidateAllCalls     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		borrowed:              make(map[uint][]*book.Book),
		details:               make(map[uint]*book.Book),
		setIDs:                make(map[uint]bool),
		borrowedInvalidations: make(map[uint]int),
	}
}

func (f *fakeCache) GetAvailable(_ context.Context) []*book.Book { return f.available }
func (f *fakeCache) SetAvailable(_ context.Context, books []*book.Book) {
	if len(books) == 0 {
		return
	}
	f.available = books
}
func (f *fakeCache) InvalidateAvailable(_ context.Context) {
	f.available = nil
	f.availableInvalidations++
}

func (f *fakeCache) GetBorrowed(_ context.Context, userID uint) []*book.Book {
	return f.borrowed[userID]
}
func (f *fakeCache) SetBorrowed(_ context.Context, userID uint, books []*book.Book) {
	if len(books) == 0 {
		return
	}
	f.borrowed[userID] = books
}
func (f *fakeCache) InvalidateBorrowed(_ context.Context, userID uint) {
	delete(f.borrowed, userID)
	f.borrowedInvalidations[userID]++
}

func (f *fakeCache) GetDetail(_ context.Context, bookID uint) *book.Book { return f.details[bookID] }
func (f *fakeCache) SetDetail(_ context.Context, b *book.Book)           { f.details[b.ID] = b }
func (f *fakeCache) InvalidateDetail(_ context.Context, bookID uint)     { delete(f.details, bookID) }

func (f *fakeCache) AddBorrowedSet(_ context.Context, bookID uint)    { f.setIDs[bookID] = true }
func (f *fakeCache) RemoveBorrowedSet(_ context.Context, bookID uint) { delete(f.setIDs, bookID) }
func (f *fakeCache) IsBorrowed(_ context.Context, bookID uint) bool   { return f.setIDs[bookID] }
func (f *fakeCache) SetBorrowedSet(_ context.Context, bookIDs []uint) {
	f.setIDs = make(map[uint]bool)
	for _, id := range bookIDs {
		f.setIDs[id] = true
	}
}

func (f *fakeCache) InvalidateAll(_ context.Context) {
	f.available = nil
	f.borrowed = make(map[uint][]*book.Book)
	f.details = make(map[uint]*book.Book)
	f.setIDs = make(map[uint]bool)
	f.invalidateAllCalls++
}

// fakePublisher 记录发布的事件
type fakePublisher struct {
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	routingKey string
	message    interface{}
}

func (f *fakePublisher) Publish(_ context.Context, routingKey string, message interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{routingKey: routingKey, message: message})
	return nil
}
