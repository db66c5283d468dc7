package models

type AdminUser struct {
	Id           int     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string  `gorm:"column:username;uniqueIndex" json:"username"`
	Name         *string `gorm:"column:name" json:"name"`
	PasswordHash string  `gorm:"column:password_hash" json:"-"`
}

func (AdminUser) TableName() string { return "admin_users" }

// AdminProfile is the external view of an admin account.
type AdminProfile struct {
	Id       int     `json:"id"`
	Username string  `json:"username"`
	Name     *string `json:"name"`
}
