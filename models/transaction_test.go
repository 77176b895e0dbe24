package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransactionType(t *testing.T) {
	assert.True(t, IsValidTransactionType(TransactionTypeCredit))
	assert.True(t, IsValidTransactionType(TransactionTypeDebit))
	assert.False(t, IsValidTransactionType(""))
	assert.False(t, IsValidTransactionType("transfer"))
	assert.False(t, IsValidTransactionType("CREDIT"))
}

func TestTransaction_BalanceDelta(t *testing.T) {
	credit := Transaction{Type: TransactionTypeCredit, Amount: 300}
	debit := Transaction{Type: TransactionTypeDebit, Amount: 100}

	assert.Equal(t, 300.0, credit.BalanceDelta())
	assert.Equal(t, -100.0, debit.BalanceDelta())
}

func TestTransaction_BalanceScenario(t *testing.T) {
	// 期初余额 0：debit 100 → -100；credit 300 → 200；删除 debit 100 → 300
	balance := 0.0
	a := Transaction{Type: TransactionTypeDebit, Amount: 100}
	b := Transaction{Type: TransactionTypeCredit, Amount: 300}

	balance += a.BalanceDelta()
	assert.Equal(t, -100.0, balance)

	balance += b.BalanceDelta()
	assert.Equal(t, 200.0, balance)

	// 删除即冲销：减去创建时的影响量
	balance -= a.BalanceDelta()
	assert.Equal(t, 300.0, balance)
}

func TestTransaction_BalanceScenario_OpeningBalance(t *testing.T) {
	// 期初余额 500：credit 50 → 550；删除该笔 → 精确回到 500
	balance := 500.0
	txn := Transaction{Type: TransactionTypeCredit, Amount: 50}

	balance += txn.BalanceDelta()
	assert.Equal(t, 550.0, balance)

	balance -= txn.BalanceDelta()
	assert.Equal(t, 500.0, balance)
}
