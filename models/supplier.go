package models

import (
	"time"

	"gorm.io/gorm"
)

// Supplier 供应商模型
// Balance 为冗余存储的往来余额：等于期初余额加上所有 credit 流水金额、
// 减去所有 debit 流水金额。余额只随流水的创建/删除原子变动，
// 不允许通过供应商编辑接口直接修改。
type Supplier struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:100;not null;index"`
	Phone     string         `json:"phone" gorm:"size:30"`
	Email     string         `json:"email" gorm:"size:100"`
	Address   string         `json:"address" gorm:"size:255"`
	Category  string         `json:"category" gorm:"size:50;not null;index"`
	Notes     string         `json:"notes" gorm:"size:500"`
	Balance   float64        `json:"balance" gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Supplier) TableName() string {
	return "suppliers"
}
