package book

import (
	"time"
)

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book是图书聚合的根实体,ISBN作为业务唯一标识(数据库层保证唯一性)
// 2. 可借状态由IsAvailable布尔值表达:借出置false,归还置true
// 3. Quantity/AvailableQuantity为馆藏册数字段,当前借阅语义按单册处理,
//    借还只翻转IsAvailable,不增减册数计数
// 4. IsAvailable必须与活跃借阅记录一致:存在未归还借阅 <=> IsAvailable=false,
//    该不变量由借还事务中的条件更新保证(见仓储MarkUnavailable)
type Book struct {
	ID                uint
	ISBN              string // ISBN号(国际标准书号)
	Title             string // 书名
	Author            string // 作者
	Quantity          int    // 馆藏总册数
	AvailableQuantity int    // 可借册数
	IsAvailable       bool   // 是否可借
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewBook 创建新图书(工厂方法)
// 新登记的图书默认可借,馆藏1册
func NewBook(isbn, title, author string) *Book {
	now := time.Now()
	return &Book{
		ISBN:              isbn,
		Title:             title,
		Author:            author,
		Quantity:          1,
		AvailableQuantity: 1,
		IsAvailable:       true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// MarkBorrowed 借出状态迁移(领域行为)
// 业务规则:仅可借图书可被借出
// 注意:这里的校验是实体级的前置检查,并发下的真正闸门是
// 仓储层的条件更新(UPDATE ... WHERE is_available = true)
func (b *Book) MarkBorrowed() error {
	if !b.IsAvailable {
		return ErrBookUnavailable
	}
	b.IsAvailable = false
	b.UpdatedAt = time.Now()
	return nil
}

// MarkReturned 归还状态迁移(领域行为)
func (b *Book) MarkReturned() {
	b.IsAvailable = true
	b.UpdatedAt = time.Now()
}
