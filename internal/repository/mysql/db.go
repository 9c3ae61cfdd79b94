package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

const errDuplicateEntry = 1062

// Migrate 执行建表语句，语句均为 IF NOT EXISTS，可重复执行
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	util.Logger.Info("数据库表结构已就绪")
	return nil
}

// Transactor 基于 *sql.DB 开启事务
type Transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db}
}

func (t *Transactor) BeginTx(ctx context.Context) (interfaces.Tx, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return nil, err
	}
	return tx, nil
}

func sqlTx(tx interfaces.Tx) (*sql.Tx, error) {
	stx, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("unexpected transaction type %T", tx)
	}
	return stx, nil
}

// duplicateKey 若 err 是唯一键冲突，返回冲突的索引名
func duplicateKey(err error) (string, bool) {
	var me *mysqldriver.MySQLError
	if !errors.As(err, &me) || me.Number != errDuplicateEntry {
		return "", false
	}
	// Duplicate entry '42' for key 'receipts.uk_receipts_donation'
	msg := me.Message
	if i := strings.LastIndex(msg, "key '"); i >= 0 {
		key := strings.TrimSuffix(msg[i+len("key '"):], "'")
		if j := strings.LastIndex(key, "."); j >= 0 {
			key = key[j+1:]
		}
		return key, true
	}
	return "", true
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
