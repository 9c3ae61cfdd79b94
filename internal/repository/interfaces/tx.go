package interfaces

import (
	"context"
	"errors"
)

// 存储层唯一约束冲突，由具体实现从驱动错误映射而来
var (
	ErrDuplicateDonation      = errors.New("receipt already exists for donation")
	ErrDuplicateReceiptNumber = errors.New("receipt number already exists")
	ErrDuplicateEmail         = errors.New("email already registered")
)

// Tx 一个数据库事务；*sql.Tx 直接满足该接口
type Tx interface {
	Commit() error
	Rollback() error
}

// Transactor 开启跨仓库的事务
type Transactor interface {
	BeginTx(ctx context.Context) (Tx, error)
}
