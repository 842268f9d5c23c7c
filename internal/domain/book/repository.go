package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 便于Mock测试,不依赖具体数据库实现
// 3. 借还事务中所有方法通过context参与同一事务(见TxManager)
type Repository interface {
	// Create 创建图书
	// ISBN重复时返回ErrISBNDuplicate(唯一索引兜底)
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByISBN 根据ISBN查找图书,不存在返回ErrBookNotFound
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// CountByISBN 统计指定ISBN的图书数量
	// 注册时的提前失败检查;真正的重复防线是ISBN唯一索引
	CountByISBN(ctx context.Context, isbn string) (int64, error)

	// FindAll 查询全部图书
	FindAll(ctx context.Context) ([]*Book, error)

	// FindAvailable 查询当前可借的图书
	FindAvailable(ctx context.Context) ([]*Book, error)

	// Update 更新图书信息
	Update(ctx context.Context, book *Book) error

	// MarkUnavailable 条件置为不可借(借书的并发闸门)
	// 执行 UPDATE ... SET is_available = false
	//      WHERE id = ? AND is_available = true
	// 受影响行数为0且图书存在时返回ErrBookUnavailable:
	// 两个并发借书请求只有一个能翻转成功,另一个在这里被拒绝
	MarkUnavailable(ctx context.Context, id uint) error

	// MarkAvailable 置为可借(还书时调用),图书不存在返回ErrBookNotFound
	MarkAvailable(ctx context.Context, id uint) error
}
