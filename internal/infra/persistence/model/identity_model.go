// Package model holds the GORM persistence models. Nullable columns are pointers.
package model

import "time"

// RoleModel mirrors the 'roles' table.
type RoleModel struct {
	ID          uint64  `gorm:"column:role_id;primaryKey;autoIncrement"`
	Name        string  `gorm:"column:name;type:varchar(50);uniqueIndex;not null"`
	Description *string `gorm:"column:description;type:text"`
}

// TableName explicitly sets the table name for GORM.
func (RoleModel) TableName() string {
	return "roles"
}

// UserModel mirrors the 'users' table. A row carries a password hash, an external subject, or both.
type UserModel struct {
	ID              uint64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username        *string    `gorm:"column:username;type:varchar(150)"`
	PasswordHash    *string    `gorm:"column:password_hash;type:varchar(255)"`
	ExternalSubject *string    `gorm:"column:external_subject;type:varchar(255)"`
	Name            *string    `gorm:"column:name;type:varchar(255)"`
	Email           *string    `gorm:"column:email;type:varchar(255)"`
	RoleID          *uint64    `gorm:"column:role_id"`
	Role            *RoleModel `gorm:"foreignKey:RoleID;references:ID"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
