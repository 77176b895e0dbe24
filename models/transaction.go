package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// TransactionTypeCredit 付款：向供应商付款，余额增加
	TransactionTypeCredit = "credit"
	// TransactionTypeDebit 进货：产生应付，余额减少
	TransactionTypeDebit = "debit"
)

// Transaction 供应商交易流水模型
// 金额恒为正数，方向由 Type 决定。流水不支持修改，只能创建或删除。
type Transaction struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SupplierID  uint           `json:"supplier_id" gorm:"index;not null"`
	Type        string         `json:"type" gorm:"size:10;not null"` // credit/debit
	Amount      float64        `json:"amount" gorm:"type:decimal(12,2);not null"`
	Description string         `json:"description" gorm:"size:255"`
	Date        time.Time      `json:"date" gorm:"type:date;not null;index"` // 业务日期，由用户填写
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Supplier    Supplier       `json:"-" gorm:"foreignKey:SupplierID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// IsValidTransactionType 检查流水类型是否合法
func IsValidTransactionType(t string) bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// BalanceDelta 该笔流水对供应商余额的影响量
func (t *Transaction) BalanceDelta() float64 {
	if t.Type == TransactionTypeCredit {
		return t.Amount
	}
	return -t.Amount
}
