package service

import (
	"testing"
	"time"

	"ledger/database"
	"ledger/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func supplierRows(id uint, name string, balance float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "phone", "email", "address", "category", "notes", "balance", "created_at", "updated_at", "deleted_at"}).
		AddRow(id, name, "", "", "", "其他", "", balance, time.Now(), time.Now(), nil)
}

func transactionRows(id, supplierID uint, txnType string, amount float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "supplier_id", "type", "amount", "description", "date", "created_at", "updated_at", "deleted_at"}).
		AddRow(id, supplierID, txnType, amount, "", time.Now(), time.Now(), time.Now(), nil)
}

func TestLedgerService_CreateTransaction_Credit(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 同一事务内：查供应商 → 插流水 → 相对更新余额
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `suppliers`").
		WithArgs(1).
		WillReturnRows(supplierRows(1, "测试供应商", 100))
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("UPDATE `suppliers` SET").
		WithArgs(300.0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewLedgerService()
	txn, err := svc.CreateTransaction(CreateTransactionInput{
		SupplierID:  1,
		Type:        models.TransactionTypeCredit,
		Amount:      300,
		Description: "付款",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(10), txn.ID)
	assert.Equal(t, 300.0, txn.BalanceDelta())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateTransaction_Debit(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `suppliers`").
		WithArgs(1).
		WillReturnRows(supplierRows(1, "测试供应商", 0))
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(11, 1))
	// debit 减少余额：delta 为 -100
	mock.ExpectExec("UPDATE `suppliers` SET").
		WithArgs(-100.0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewLedgerService()
	txn, err := svc.CreateTransaction(CreateTransactionInput{
		SupplierID: 1,
		Type:       models.TransactionTypeDebit,
		Amount:     100,
		Date:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)
	assert.Equal(t, -100.0, txn.BalanceDelta())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateTransaction_SupplierNotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 供应商不存在：事务回滚，不插入流水、不动余额
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `suppliers`").
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectRollback()

	svc := NewLedgerService()
	_, err := svc.CreateTransaction(CreateTransactionInput{
		SupplierID: 999,
		Type:       models.TransactionTypeCredit,
		Amount:     50,
		Date:       time.Now(),
	})
	assert.ErrorIs(t, err, ErrSupplierNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateTransaction_Validation(t *testing.T) {
	svc := NewLedgerService()

	// 非法类型与非正金额在任何持久化之前被拒绝
	_, err := svc.CreateTransaction(CreateTransactionInput{SupplierID: 1, Type: "transfer", Amount: 10, Date: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidTransactionType)

	_, err = svc.CreateTransaction(CreateTransactionInput{SupplierID: 1, Type: models.TransactionTypeCredit, Amount: 0, Date: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.CreateTransaction(CreateTransactionInput{SupplierID: 1, Type: models.TransactionTypeDebit, Amount: -5, Date: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLedgerService_CreateTransaction_RollbackOnBalanceError(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 余额更新失败时整个事务回滚，流水插入不生效
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `suppliers`").
		WithArgs(1).
		WillReturnRows(supplierRows(1, "测试供应商", 0))
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec("UPDATE `suppliers` SET").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	svc := NewLedgerService()
	_, err := svc.CreateTransaction(CreateTransactionInput{
		SupplierID: 1,
		Type:       models.TransactionTypeCredit,
		Amount:     20,
		Date:       time.Now(),
	})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteTransaction_ReversesCredit(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 删除 credit 流水：先删行，再把余额减去其金额
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WithArgs(10).
		WillReturnRows(transactionRows(10, 2, models.TransactionTypeCredit, 50))
	mock.ExpectExec("UPDATE `transactions` SET").
		WithArgs(sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `suppliers` SET").
		WithArgs(50.0, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewLedgerService()
	require.NoError(t, svc.DeleteTransaction(10))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteTransaction_ReversesDebit(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 删除 debit 流水：先删行，再把余额加回其金额
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WithArgs(11).
		WillReturnRows(transactionRows(11, 2, models.TransactionTypeDebit, 100))
	mock.ExpectExec("UPDATE `transactions` SET").
		WithArgs(sqlmock.AnyArg(), 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `suppliers` SET").
		WithArgs(100.0, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewLedgerService()
	require.NoError(t, svc.DeleteTransaction(11))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteTransaction_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectRollback()

	svc := NewLedgerService()
	err := svc.DeleteTransaction(404)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteTransaction_SupplierAlreadyGone(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 供应商已被删除：余额更新影响 0 行，视为无操作而非错误
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WithArgs(10).
		WillReturnRows(transactionRows(10, 99, models.TransactionTypeCredit, 50))
	mock.ExpectExec("UPDATE `transactions` SET").
		WithArgs(sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `suppliers` SET").
		WithArgs(50.0, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	svc := NewLedgerService()
	require.NoError(t, svc.DeleteTransaction(10))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteTransaction_AlreadyDeletedConcurrently(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 并发删除同一笔流水：本事务快照还能查到该行，
	// 但删除时已被另一事务删掉，影响 0 行。
	// 必须整体回滚，否则余额会被冲销两次。
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WithArgs(10).
		WillReturnRows(transactionRows(10, 2, models.TransactionTypeCredit, 50))
	mock.ExpectExec("UPDATE `transactions` SET").
		WithArgs(sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	svc := NewLedgerService()
	err := svc.DeleteTransaction(10)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteSupplier_Cascade(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 级联删除：同一事务内先清空流水再删除供应商
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `suppliers`").
		WithArgs(1).
		WillReturnRows(supplierRows(1, "测试供应商", 200))
	mock.ExpectExec("UPDATE `transactions` SET").
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE `suppliers` SET").
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewLedgerService()
	require.NoError(t, svc.DeleteSupplier(1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteSupplier_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `suppliers`").
		WithArgs(888).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectRollback()

	svc := NewLedgerService()
	err := svc.DeleteSupplier(888)
	assert.ErrorIs(t, err, ErrSupplierNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeleteSupplier_RollbackOnError(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 供应商删除失败时流水删除一并回滚，不产生孤儿状态
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `suppliers`").
		WithArgs(1).
		WillReturnRows(supplierRows(1, "测试供应商", 0))
	mock.ExpectExec("UPDATE `transactions` SET").
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE `suppliers` SET").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	svc := NewLedgerService()
	assert.Error(t, svc.DeleteSupplier(1))
	require.NoError(t, mock.ExpectationsWereMet())
}
