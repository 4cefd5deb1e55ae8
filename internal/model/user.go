package model

import "time"

// 应用角色
const (
	RoleUser      = "user"
	RoleSuperuser = "superuser"
)

// User 用户档案
// id 对应托管认证服务的 auth subject；密码与登录由托管服务负责
type User struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	AppRole   string    `json:"app_role" gorm:"type:varchar(20);default:'user'"`
	TenantID  string    `json:"tenant_id,omitempty" gorm:"type:varchar(36);index"`
	Email     string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	FullName  string    `json:"full_name,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsSuperuser 判断是否为超级用户
func (u *User) IsSuperuser() bool {
	return u.AppRole == RoleSuperuser
}
