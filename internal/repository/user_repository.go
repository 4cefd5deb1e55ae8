package repository

import (
	"github.com/formlead/formlead/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户档案仓库
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID 根据认证 subject 获取用户档案
func (r *UserRepository) GetByID(id string) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert 创建或更新用户档案
func (r *UserRepository) Upsert(user *model.User) error {
	return r.db.Save(user).Error
}
