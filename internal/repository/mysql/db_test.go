package mysql

import (
	"errors"
	"fmt"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateKey(t *testing.T) {
	err := fmt.Errorf("insert: %w", &mysqldriver.MySQLError{
		Number:  1062,
		Message: "Duplicate entry '42' for key 'receipts.uk_receipts_donation'",
	})
	key, ok := duplicateKey(err)
	assert.True(t, ok)
	assert.Equal(t, "uk_receipts_donation", key)

	key, ok = duplicateKey(&mysqldriver.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'RCPT-2026-00000042' for key 'uk_receipts_number'",
	})
	assert.True(t, ok)
	assert.Equal(t, "uk_receipts_number", key)

	_, ok = duplicateKey(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found"})
	assert.False(t, ok)

	_, ok = duplicateKey(errors.New("connection refused"))
	assert.False(t, ok)
}

func TestSchemaDeclaresReceiptUniqueness(t *testing.T) {
	assert.Contains(t, schema, "UNIQUE KEY uk_receipts_donation (donation_id)")
	assert.Contains(t, schema, "UNIQUE KEY uk_receipts_number (receipt_number)")
}
