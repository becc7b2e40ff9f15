package model

import "time"

// RefreshSessionModel mirrors the 'refresh_sessions' table. Only the SHA-256 of the token is stored.
type RefreshSessionModel struct {
	ID        uint64    `gorm:"column:session_id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;uniqueIndex:uq_refresh_sessions_user_id;not null"`
	TokenHash string    `gorm:"column:token_hash;type:char(64);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

// TableName explicitly sets the table name for GORM.
func (RefreshSessionModel) TableName() string {
	return "refresh_sessions"
}
