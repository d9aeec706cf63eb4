package db

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrNotInitialized 在数据库连接尚未建立时返回
var ErrNotInitialized = errors.New("db: connection not initialized")

// User 是后台登录账号，Password 只保存 bcrypt 哈希
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// BootstrapRootUser 按配置引导初始管理员账号。
// 凭据来自配置层（已去除首尾空白），任一为空表示跳过引导；
// 账号已存在时不做任何修改，重复启动是幂等的。
func BootstrapRootUser(username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if DB == nil {
		return ErrNotInitialized
	}

	var count int64
	if err := DB.Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return fmt.Errorf("check root user: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	if err := DB.Create(&User{Username: username, Password: string(hashed)}).Error; err != nil {
		return fmt.Errorf("create root user: %w", err)
	}
	return nil
}
