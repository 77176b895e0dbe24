package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// RoleAdmin 管理员：全部权限，含删除、用户管理、云备份
	RoleAdmin = "admin"
	// RoleEditor 编辑：可新增/修改供应商与交易流水，不可删除
	RoleEditor = "editor"
	// RoleViewer 查看：只读
	RoleViewer = "viewer"
)

// User 用户模型
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password  string         `json:"-" gorm:"size:255;not null"`
	FirstName string         `json:"first_name" gorm:"size:50"`
	LastName  string         `json:"last_name" gorm:"size:50"`
	Role      string         `json:"role" gorm:"size:20;default:viewer;index"` // 角色：admin/editor/viewer
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// IsValidRole 检查角色取值是否合法
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleViewer
}

// DisplayName 用户显示名称，姓名为空时回退到邮箱
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}
