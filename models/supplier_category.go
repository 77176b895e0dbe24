package models

import (
	"time"
)

// SupplierCategory 供应商类别模型
type SupplierCategory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:50;not null"`
	Sort      int       `json:"sort" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 设置表名
func (SupplierCategory) TableName() string {
	return "supplier_categories"
}

// 默认供应商类别
const (
	CategoryFoodstuff   = "食品原料"
	CategoryElectronics = "电子产品"
	CategoryBuilding    = "建筑材料"
	CategoryClothing    = "服装"
	CategoryFurniture   = "家具"
	CategoryEquipment   = "设备"
	CategoryService     = "服务"
	CategoryOther       = "其他"
)

// GetDefaultCategories 获取默认供应商类别
func GetDefaultCategories() []string {
	return []string{
		CategoryFoodstuff,
		CategoryElectronics,
		CategoryBuilding,
		CategoryClothing,
		CategoryFurniture,
		CategoryEquipment,
		CategoryService,
		CategoryOther,
	}
}
